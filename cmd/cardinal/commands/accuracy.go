package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/cardinal/pkg/accuracy"
)

const (
	flagTrials        = "trials"
	flagCardinalities = "cardinalities"
	flagPlot          = "plot"

	plotDirPerm  = 0o750
	plotFilePerm = 0o600
)

// accuracyResult is the output of the accuracy command.
type accuracyResult struct {
	accuracy.Report `yaml:",inline"`

	Hasher    string  `json:"hasher"          yaml:"hasher"`
	Estimator string  `json:"estimator"       yaml:"estimator"`
	Band      float64 `json:"band"            yaml:"band"`
	Plot      string  `json:"plot,omitempty"  yaml:"plot,omitempty"`
}

func (r accuracyResult) title() string {
	return fmt.Sprintf("Accuracy at precision %d (%s, %s): worst mean error %s",
		r.Precision, r.Hasher, r.Estimator, formatPercent(r.Band))
}

func (r accuracyResult) header() table.Row {
	return table.Row{"Cardinality", "Trials", "Mean estimate", "Mean error", "Std dev", "P95 error", "Max error"}
}

func (r accuracyResult) rows() []table.Row {
	rows := make([]table.Row, 0, len(r.Points))

	for _, p := range r.Points {
		rows = append(rows, table.Row{
			formatCount(int64(p.Cardinality)),
			strconv.Itoa(p.Trials),
			formatEstimate(p.MeanEstimate),
			formatPercent(p.MeanRelError),
			formatPercent(p.StdDevRelError),
			formatPercent(p.P95RelError),
			formatPercent(p.MaxRelError),
		})
	}

	return rows
}

type accuracyOptions struct {
	plotPath      string
	cardinalities []int
	trials        int
}

func newAccuracyCommand(opts *rootOptions) *cobra.Command {
	accOpts := &accuracyOptions{}

	cmd := &cobra.Command{
		Use:   "accuracy",
		Short: "Measure estimation error over known cardinalities",
		Long: `Adds known numbers of distinct synthetic keys to fresh sketches, several
trials per cardinality, and reports the mean estimate and the mean and
maximum relative error. --plot writes an interactive HTML chart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			ctx, span := sess.startSpan(cmd.Context(), "accuracy", sess.sketchAttributes()...)

			result, err := runAccuracy(ctx, cmd, sess, accOpts)
			if err == nil {
				span.SetAttributes(attribute.Float64("accuracy.band", result.Band))
				err = writeResult(cmd.OutOrStdout(), sess.cfg.Output.Format, sess.cfg.Output.NoColor, result)
			}

			return sess.finish(ctx, span, err)
		},
	}

	sketchFlags(cmd)
	cmd.Flags().IntVar(&accOpts.trials, flagTrials, 0, "trials per cardinality (default from config, 20)")
	cmd.Flags().IntSliceVar(&accOpts.cardinalities, flagCardinalities, nil, "comma-separated cardinalities to probe")
	cmd.Flags().StringVar(&accOpts.plotPath, flagPlot, "", "write an HTML chart of the error band to this path")

	return cmd
}

func runAccuracy(
	ctx context.Context, cmd *cobra.Command, sess *session, accOpts *accuracyOptions,
) (result accuracyResult, err error) {
	defer sess.metrics.Track(ctx, "accuracy", &err)()

	// Validates precision and sketch options before any trial runs.
	if _, err = sess.newSketch(); err != nil {
		return accuracyResult{}, err
	}

	sketchOpts, err := sess.cfg.SketchOptions()
	if err != nil {
		return accuracyResult{}, err
	}

	params := accuracy.Params{
		Precision:     sess.cfg.SketchPrecision(),
		Cardinalities: sess.cfg.Accuracy.Cardinalities,
		Trials:        sess.cfg.Accuracy.Trials,
		Options:       sketchOpts,
	}

	if cmd.Flags().Changed(flagTrials) {
		params.Trials = accOpts.trials
	}

	if cmd.Flags().Changed(flagCardinalities) {
		params.Cardinalities = accOpts.cardinalities
	}

	sess.providers.Logger.InfoContext(ctx, "running accuracy trials",
		"precision", params.Precision, "cardinalities", len(params.Cardinalities), "trials", params.Trials)

	report, err := accuracy.Run(ctx, params)
	if err != nil {
		return accuracyResult{}, err
	}

	result = accuracyResult{
		Report:    report,
		Hasher:    sess.cfg.Sketch.Hasher,
		Estimator: sess.cfg.Sketch.Estimator,
		Band:      report.Band(),
	}

	if accOpts.plotPath != "" {
		if err = writePlot(accOpts.plotPath, report); err != nil {
			return accuracyResult{}, err
		}

		result.Plot = accOpts.plotPath
		sess.providers.Logger.InfoContext(ctx, "wrote accuracy chart", "path", accOpts.plotPath)
	}

	return result, nil
}

func writePlot(path string, report accuracy.Report) (err error) {
	if mkErr := os.MkdirAll(filepath.Dir(path), plotDirPerm); mkErr != nil {
		return fmt.Errorf("create plot dir: %w", mkErr)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, plotFilePerm)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close plot: %w", closeErr)
		}
	}()

	return accuracy.RenderChart(file, report)
}
