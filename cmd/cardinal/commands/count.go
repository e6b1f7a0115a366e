package commands

import (
	"context"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
)

const sketchLabelCount = "input"

// countResult is the output of the count command.
type countResult struct {
	Sources   []string `json:"sources"   yaml:"sources"`
	Hasher    string   `json:"hasher"    yaml:"hasher"`
	Estimator string   `json:"estimator" yaml:"estimator"`
	Items     int64    `json:"items"     yaml:"items"`
	Estimate  float64  `json:"estimate"  yaml:"estimate"`
	Count     uint64   `json:"count"     yaml:"count"`
	Precision uint8    `json:"precision" yaml:"precision"`
}

func (r countResult) title() string { return "Distinct count" }

func (r countResult) header() table.Row { return table.Row{"Metric", "Value"} }

func (r countResult) rows() []table.Row {
	return []table.Row{
		{"Items read", formatCount(r.Items)},
		{"Estimated distinct", formatEstimate(r.Estimate)},
		{"Precision", r.Precision},
		{"Hasher", r.Hasher},
		{"Estimator", r.Estimator},
	}
}

// sketchFlags registers the flags that override the sketch section of the config.
func sketchFlags(cmd *cobra.Command) {
	cmd.Flags().Uint8P(flagPrecision, "p", 0, "sketch precision in [1, 32] (default from config, 14)")
	cmd.Flags().String(flagHasher, "", "hash function: fnv, xxhash or sha256")
	cmd.Flags().String(flagEstimator, "", "estimator: linear or loglog-beta")
}

func newCountCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [files...]",
		Short: "Estimate the number of distinct lines",
		Long: `Reads one item per line from the given files, or stdin when none are
given or a file is "-", and prints the estimated number of distinct items.
Empty lines are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			ctx, span := sess.startSpan(cmd.Context(), "count",
				append(sess.sketchAttributes(), attribute.Int("input.sources", len(displayName(args))))...)

			result, err := runCount(ctx, cmd, sess, args)
			if err == nil {
				span.SetAttributes(
					attribute.Int64("input.items", result.Items),
					attribute.Float64("cardinal.estimate", result.Estimate),
				)
				err = writeResult(cmd.OutOrStdout(), sess.cfg.Output.Format, sess.cfg.Output.NoColor, result)
			}

			return sess.finish(ctx, span, err)
		},
	}

	sketchFlags(cmd)

	return cmd
}

func runCount(ctx context.Context, cmd *cobra.Command, sess *session, args []string) (result countResult, err error) {
	defer sess.metrics.Track(ctx, "count", &err)()

	sk, err := sess.newSketch()
	if err != nil {
		return countResult{}, err
	}

	maxLine, err := sess.cfg.Input.MaxLineBytes()
	if err != nil {
		return countResult{}, err
	}

	items, err := readSources(ctx, args, cmd.InOrStdin(), maxLine, sk.Add)
	sess.metrics.RecordItems(ctx, sketchLabelCount, items)

	if err != nil {
		return countResult{}, err
	}

	estimate := sk.Estimate()
	sess.metrics.RecordEstimate(ctx, sketchLabelCount, estimate)

	sess.providers.Logger.DebugContext(ctx, "counted input",
		"sources", len(displayName(args)), "items", items, "estimate", estimate)

	return countResult{
		Sources:   displayName(args),
		Hasher:    hasherName(sk.Hasher()),
		Estimator: estimatorName(sk.Estimator()),
		Items:     items,
		Estimate:  estimate,
		Count:     sk.Count(),
		Precision: sk.Precision(),
	}, nil
}

func hasherName(h hll.Hasher) string {
	switch h.(type) {
	case hll.FNVHasher:
		return hll.HasherFNV
	case hll.XXHasher:
		return hll.HasherXX
	case hll.SHA256Hasher:
		return hll.HasherSHA256
	default:
		return "custom"
	}
}

func estimatorName(e hll.Estimator) string {
	switch e.(type) {
	case hll.LinearCounting:
		return hll.EstimatorLinear
	case hll.LogLogBeta:
		return hll.EstimatorLogLogBeta
	default:
		return "custom"
	}
}
