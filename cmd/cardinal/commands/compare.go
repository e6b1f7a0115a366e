package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
)

const (
	compareArgCount = 2

	sketchLabelA     = "a"
	sketchLabelB     = "b"
	sketchLabelUnion = "union"
)

// ErrBothStdin is returned when compare is asked to read stdin twice.
var ErrBothStdin = errors.New("only one compare input may be stdin")

// compareResult is the output of the compare command.
type compareResult struct {
	A            string  `json:"a"            yaml:"a"`
	B            string  `json:"b"            yaml:"b"`
	EstimateA    float64 `json:"estimate_a"   yaml:"estimate_a"`
	EstimateB    float64 `json:"estimate_b"   yaml:"estimate_b"`
	Union        float64 `json:"union"        yaml:"union"`
	Intersection float64 `json:"intersection" yaml:"intersection"`
	Jaccard      float64 `json:"jaccard"      yaml:"jaccard"`
	Precision    uint8   `json:"precision"    yaml:"precision"`
}

func (r compareResult) title() string { return fmt.Sprintf("Compare %s with %s", r.A, r.B) }

func (r compareResult) header() table.Row { return table.Row{"Set", "Estimated distinct"} }

func (r compareResult) rows() []table.Row {
	return []table.Row{
		{"A", formatEstimate(r.EstimateA)},
		{"B", formatEstimate(r.EstimateB)},
		{"A ∪ B", formatEstimate(r.Union)},
		{"A ∩ B", formatEstimate(r.Intersection)},
		{"Jaccard", formatRatio(r.Jaccard)},
	}
}

func newCompareCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Estimate union and intersection of two inputs",
		Long: `Builds one sketch per input and reports both estimates, the estimate of
their union and the inclusion-exclusion estimate of their intersection.
The intersection may be slightly negative for disjoint inputs; the Jaccard
ratio derived from it is clamped to [0, 1].`,
		Args: cobra.ExactArgs(compareArgCount),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == stdinName && args[1] == stdinName {
				return ErrBothStdin
			}

			sess, err := openSession(cmd, opts)
			if err != nil {
				return err
			}

			ctx, span := sess.startSpan(cmd.Context(), "compare", sess.sketchAttributes()...)

			result, err := runCompare(ctx, cmd, sess, args[0], args[1])
			if err == nil {
				span.SetAttributes(
					attribute.Float64("cardinal.union", result.Union),
					attribute.Float64("cardinal.intersection", result.Intersection),
				)
				err = writeResult(cmd.OutOrStdout(), sess.cfg.Output.Format, sess.cfg.Output.NoColor, result)
			}

			return sess.finish(ctx, span, err)
		},
	}

	sketchFlags(cmd)

	return cmd
}

func runCompare(ctx context.Context, cmd *cobra.Command, sess *session, nameA, nameB string) (result compareResult, err error) {
	defer sess.metrics.Track(ctx, "compare", &err)()

	skA, err := sess.buildSketch(ctx, cmd, nameA, sketchLabelA)
	if err != nil {
		return compareResult{}, err
	}

	skB, err := sess.buildSketch(ctx, cmd, nameB, sketchLabelB)
	if err != nil {
		return compareResult{}, err
	}

	union, err := skA.Merge(skB)
	if err != nil {
		return compareResult{}, err
	}

	intersection, err := skA.Similarity(skB)
	if err != nil {
		return compareResult{}, err
	}

	result = compareResult{
		A:            nameA,
		B:            nameB,
		EstimateA:    skA.Estimate(),
		EstimateB:    skB.Estimate(),
		Union:        union.Estimate(),
		Intersection: intersection,
		Jaccard:      jaccard(intersection, union.Estimate()),
		Precision:    skA.Precision(),
	}

	sess.metrics.RecordEstimate(ctx, sketchLabelUnion, result.Union)
	sess.providers.Logger.DebugContext(ctx, "compared inputs",
		"union", result.Union, "intersection", result.Intersection)

	return result, nil
}

// buildSketch fills a fresh sketch from one named source.
func (s *session) buildSketch(ctx context.Context, cmd *cobra.Command, name, label string) (*hll.Sketch, error) {
	sk, err := s.newSketch()
	if err != nil {
		return nil, err
	}

	maxLine, err := s.cfg.Input.MaxLineBytes()
	if err != nil {
		return nil, err
	}

	items, err := readSource(ctx, name, cmd.InOrStdin(), maxLine, sk.Add)
	s.metrics.RecordItems(ctx, label, items)

	if err != nil {
		return nil, err
	}

	s.metrics.RecordEstimate(ctx, label, sk.Estimate())

	return sk, nil
}

// jaccard is intersection over union clamped to [0, 1] for display.
func jaccard(intersection, union float64) float64 {
	if union <= 0 {
		return 0
	}

	return min(max(intersection/union, 0), 1)
}
