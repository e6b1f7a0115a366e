// Package commands implements the cardinal subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/cardinal/pkg/version"
)

const (
	flagConfig      = "config"
	flagVerbose     = "verbose"
	flagQuiet       = "quiet"
	flagMetricsFile = "metrics-file"
	flagFormat      = "format"
	flagNoColor     = "no-color"
	flagPrecision   = "precision"
	flagHasher      = "hasher"
	flagEstimator   = "estimator"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath  string
	metricsFile string
	format      string
	verbose     bool
	quiet       bool
	noColor     bool
}

// NewRootCommand builds the cardinal command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "cardinal",
		Short: "Approximate distinct counts with HyperLogLog sketches",
		Long: `cardinal estimates how many distinct lines its inputs contain using a
fixed-size HyperLogLog sketch, compares inputs by union and intersection,
and measures the estimator's error band.

Commands:
  count      Estimate distinct lines in files or stdin
  compare    Estimate union and intersection of two inputs
  accuracy   Measure estimation error over known cardinalities`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, flagConfig, "c", "", "config file (default ./cardinal.yaml)")
	flags.BoolVarP(&opts.verbose, flagVerbose, "v", false, "verbose output")
	flags.BoolVarP(&opts.quiet, flagQuiet, "q", false, "suppress output")
	flags.StringVar(&opts.metricsFile, flagMetricsFile, "", "write Prometheus textfile metrics to this path")
	flags.StringVarP(&opts.format, flagFormat, "f", "", "output format: table, json or yaml")
	flags.BoolVar(&opts.noColor, flagNoColor, false, "disable colored output")

	rootCmd.AddCommand(
		newCountCommand(opts),
		newCompareCommand(opts),
		newAccuracyCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
