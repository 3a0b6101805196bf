// Package config holds the options of a vectorization run.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"page-vectorizer/internal/processing/filters"
)

var ErrInvalidOption = errors.New("invalid option")

type Options struct {
	// ExportImages adds a PNG crop next to every region polygon.
	ExportImages bool `toml:"export_images"`
	// RegionMinSize is the minimum region area relative to the page magnitude.
	RegionMinSize float64 `toml:"region_minsize"`
	// MarginNoise is the relative width of the border band used to detect
	// frame noise. Zero disables the check.
	MarginNoise float64 `toml:"margin_noise"`
	// SepThreshold is the separator simplification tolerance relative to the
	// page magnitude.
	SepThreshold float64 `toml:"sep_threshold"`

	RegionSpread string `toml:"region_spread"`
	InkSpread    string `toml:"ink_spread"`
	InkOpening   string `toml:"ink_opening"`

	Workers     int    `toml:"workers"`
	MetricsFile string `toml:"metrics_file"`
}

func Defaults() Options {
	return Options{
		ExportImages:  false,
		RegionMinSize: 0.1,
		MarginNoise:   0.05,
		SepThreshold:  0.004,
		RegionSpread:  "(0, 0)",
		InkSpread:     "(20, 20)",
		InkOpening:    "(5, 5)",
		Workers:       runtime.NumCPU(),
	}
}

// Load reads a TOML file over the defaults. Unknown keys are rejected.
func Load(path string) (Options, error) {
	opts := Defaults()

	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Options{}, fmt.Errorf("%w: unknown keys %s in %s",
			ErrInvalidOption, strings.Join(keys, ", "), path)
	}

	return opts, nil
}

// Validate checks numeric ranges and parses every spread.
func (o Options) Validate() error {
	if o.RegionMinSize < 0 {
		return fmt.Errorf("%w: region_minsize %g is negative", ErrInvalidOption, o.RegionMinSize)
	}
	if o.MarginNoise < 0 || o.MarginNoise >= 0.5 {
		return fmt.Errorf("%w: margin_noise %g outside [0, 0.5)", ErrInvalidOption, o.MarginNoise)
	}
	if o.SepThreshold < 0 {
		return fmt.Errorf("%w: sep_threshold %g is negative", ErrInvalidOption, o.SepThreshold)
	}
	if o.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidOption, o.Workers)
	}

	for name, text := range map[string]string{
		"region_spread": o.RegionSpread,
		"ink_spread":    o.InkSpread,
		"ink_opening":   o.InkOpening,
	} {
		if _, err := filters.ParseSpread(text); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	return nil
}
