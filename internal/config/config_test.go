package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"page-vectorizer/internal/processing/filters"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vectorizer.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	opts := Defaults()
	require.NoError(t, opts.Validate())

	assert.False(t, opts.ExportImages)
	assert.Equal(t, 0.1, opts.RegionMinSize)
	assert.Equal(t, 0.05, opts.MarginNoise)
	assert.Equal(t, 0.004, opts.SepThreshold)
	assert.Equal(t, "(0, 0)", opts.RegionSpread)
	assert.Equal(t, "(20, 20)", opts.InkSpread)
	assert.Equal(t, "(5, 5)", opts.InkOpening)
	assert.GreaterOrEqual(t, opts.Workers, 1)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
export_images = true
margin_noise = 0.1
ink_opening = "(3, 3, 2)"
workers = 2
`)

	opts, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, opts.Validate())

	assert.True(t, opts.ExportImages)
	assert.Equal(t, 0.1, opts.MarginNoise)
	assert.Equal(t, "(3, 3, 2)", opts.InkOpening)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, 0.1, opts.RegionMinSize)
	assert.Equal(t, "(20, 20)", opts.InkSpread)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeConfig(t, "nolock = true\n"))
	assert.True(t, errors.Is(err, ErrInvalidOption))
}

func TestLoadRejectsBrokenFiles(t *testing.T) {
	_, err := Load(writeConfig(t, "margin_noise = [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
		target error
	}{
		{"negative minsize", func(o *Options) { o.RegionMinSize = -0.1 }, ErrInvalidOption},
		{"margin too wide", func(o *Options) { o.MarginNoise = 0.5 }, ErrInvalidOption},
		{"negative margin", func(o *Options) { o.MarginNoise = -0.01 }, ErrInvalidOption},
		{"negative threshold", func(o *Options) { o.SepThreshold = -1 }, ErrInvalidOption},
		{"no workers", func(o *Options) { o.Workers = 0 }, ErrInvalidOption},
		{"bad region spread", func(o *Options) { o.RegionSpread = "(a, b)" }, filters.ErrInvalidSpread},
		{"bad ink spread", func(o *Options) { o.InkSpread = "20" }, filters.ErrInvalidSpread},
		{"bad opening", func(o *Options) { o.InkOpening = "(1, 2, 3, 4)" }, filters.ErrInvalidSpread},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			tt.mutate(&opts)
			assert.True(t, errors.Is(opts.Validate(), tt.target))
		})
	}
}
