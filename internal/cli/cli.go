// Package cli implements the page-vectorizer command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"page-vectorizer/internal/logger"
)

const appName = "page-vectorizer"

// Version is set at build time.
var Version = "dev"

// CLI holds state shared by all commands.
type CLI struct {
	out io.Writer
	err io.Writer

	verbose   bool
	logFormat string
}

func New(out, errOut io.Writer) *CLI {
	return &CLI{out: out, err: errOut, logFormat: "console"}
}

// RootCommand builds the command tree.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Vectorize page segmentations into region polygons and separator polylines",
		Version:      Version,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&c.logFormat, "log-format", c.logFormat, "log output: console or json")

	root.AddCommand(c.contoursCommand())
	root.AddCommand(c.inspectCommand())

	return root
}

func (c *CLI) newLogger() (logger.Logger, error) {
	level := logger.LevelFromEnv(logger.InfoLevel)
	if c.verbose {
		level = logger.DebugLevel
	}

	switch c.logFormat {
	case "console":
		if c.err == os.Stderr {
			return logger.NewConsoleLogger(level), nil
		}
		return logger.NewZerolog(c.err, level), nil
	case "json":
		return logger.NewZerolog(c.err, level), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.logFormat)
	}
}
