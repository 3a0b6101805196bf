package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"page-vectorizer/internal/batch"
	"page-vectorizer/internal/config"
	"page-vectorizer/internal/metrics"
	"page-vectorizer/internal/processor"
	"page-vectorizer/internal/timing"
)

type contoursFlags struct {
	configPath string
	opts       config.Options
}

func (c *CLI) contoursCommand() *cobra.Command {
	flags := contoursFlags{opts: config.Defaults()}

	cmd := &cobra.Command{
		Use:   "contours DATA_PATH",
		Short: "Extract contours from all document images in DATA_PATH",
		Long: `Extract region polygons and separator polylines from every page image in
DATA_PATH. Each page needs <page>.segment.zip and <page>.binarized.png next to
it; pages that already have <page>.contours.zip are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return c.runContours(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "TOML file with options; flags take precedence")
	f.BoolVarP(&flags.opts.ExportImages, "export-images", "x", flags.opts.ExportImages, "export region images (larger files)")
	f.Float64VarP(&flags.opts.RegionMinSize, "region-minsize", "r", flags.opts.RegionMinSize, "ignore regions below this relative size")
	f.Float64VarP(&flags.opts.MarginNoise, "margin-noise", "m", flags.opts.MarginNoise, "max. relative width of margin noise")
	f.Float64VarP(&flags.opts.SepThreshold, "sep-threshold", "s", flags.opts.SepThreshold, "simplification of separator polylines")
	f.StringVar(&flags.opts.RegionSpread, "region-spread", flags.opts.RegionSpread, "spread regions by this many pixels, e.g. (3, 3)")
	f.StringVar(&flags.opts.InkSpread, "ink-spread", flags.opts.InkSpread, "ink dilation for whitespace detection")
	f.StringVar(&flags.opts.InkOpening, "ink-opening", flags.opts.InkOpening, "opening amount to remove ink overflow between columns")
	f.IntVarP(&flags.opts.Workers, "workers", "j", flags.opts.Workers, "pages processed in parallel")
	f.StringVar(&flags.opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this file when done")

	return cmd
}

// optionFlags maps flag names to the option they set.
var optionFlags = map[string]func(dst *config.Options, src config.Options){
	"export-images":  func(d *config.Options, s config.Options) { d.ExportImages = s.ExportImages },
	"region-minsize": func(d *config.Options, s config.Options) { d.RegionMinSize = s.RegionMinSize },
	"margin-noise":   func(d *config.Options, s config.Options) { d.MarginNoise = s.MarginNoise },
	"sep-threshold":  func(d *config.Options, s config.Options) { d.SepThreshold = s.SepThreshold },
	"region-spread":  func(d *config.Options, s config.Options) { d.RegionSpread = s.RegionSpread },
	"ink-spread":     func(d *config.Options, s config.Options) { d.InkSpread = s.InkSpread },
	"ink-opening":    func(d *config.Options, s config.Options) { d.InkOpening = s.InkOpening },
	"workers":        func(d *config.Options, s config.Options) { d.Workers = s.Workers },
	"metrics-file":   func(d *config.Options, s config.Options) { d.MetricsFile = s.MetricsFile },
}

// resolve layers explicitly set flags over the config file, if any.
func (f contoursFlags) resolve(set *pflag.FlagSet) (config.Options, error) {
	if f.configPath == "" {
		return f.opts, f.opts.Validate()
	}

	opts, err := config.Load(f.configPath)
	if err != nil {
		return config.Options{}, err
	}
	set.Visit(func(fl *pflag.Flag) {
		if apply, ok := optionFlags[fl.Name]; ok {
			apply(&opts, f.opts)
		}
	})
	return opts, opts.Validate()
}

func (c *CLI) runContours(cmd *cobra.Command, root string, opts config.Options) error {
	log, err := c.newLogger()
	if err != nil {
		return err
	}

	m := metrics.New()
	tracker := timing.NewTracker(m)

	p, err := processor.New(opts, log, tracker, m)
	if err != nil {
		return err
	}

	summary, runErr := batch.NewRunner(p, opts.Workers, log, m).Run(cmd.Context(), root)

	log.Debug("CLI", "timings", tracker.Summary())

	if opts.MetricsFile != "" {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			log.Error("CLI", err, nil)
		}
	}

	fmt.Fprintf(c.out, "run %s: %d processed, %d skipped, %d failed\n",
		summary.RunID, summary.Processed, summary.Skipped, summary.Failed)

	if runErr != nil {
		return runErr
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d pages failed", summary.Failed, summary.Failed+summary.Processed)
	}
	return nil
}
