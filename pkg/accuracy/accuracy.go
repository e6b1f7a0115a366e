// Package accuracy measures how far a sketch configuration strays from the
// true distinct count across a range of cardinalities.
package accuracy

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
	"github.com/Sumatoshi-tech/cardinal/pkg/alg/stats"
)

// trialShift separates the key spaces of consecutive trials. Cardinalities
// above 2^trialShift would overlap the next trial and are rejected.
const trialShift = 40

// MaxCardinality is the largest cardinality a single trial may request.
const MaxCardinality = 1<<trialShift - 1

// DefaultTrials is the number of trials per cardinality when Params.Trials is zero.
const DefaultTrials = 20

// Validation errors.
var (
	ErrNoCardinalities    = errors.New("accuracy: no cardinalities given")
	ErrInvalidCardinality = errors.New("accuracy: cardinality out of range")
	ErrInvalidTrials      = errors.New("accuracy: trials must be positive")
)

// Params configures a Run.
type Params struct {
	Precision     uint8
	Cardinalities []int
	Trials        int
	Options       []hll.Option
}

// Point is the aggregate of all trials at one cardinality.
type Point struct {
	Cardinality    int     `json:"cardinality"      yaml:"cardinality"`
	Trials         int     `json:"trials"           yaml:"trials"`
	MeanEstimate   float64 `json:"mean_estimate"    yaml:"mean_estimate"`
	MeanRelError   float64 `json:"mean_rel_error"   yaml:"mean_rel_error"`
	StdDevRelError float64 `json:"stddev_rel_error" yaml:"stddev_rel_error"`
	P95RelError    float64 `json:"p95_rel_error"    yaml:"p95_rel_error"`
	MaxRelError    float64 `json:"max_rel_error"    yaml:"max_rel_error"`
}

// Report is the outcome of a Run.
type Report struct {
	Precision uint8   `json:"precision" yaml:"precision"`
	Points    []Point `json:"points"    yaml:"points"`
}

// Band returns the worst mean relative error over all points.
func (r Report) Band() float64 {
	var worst float64

	for _, p := range r.Points {
		worst = max(worst, p.MeanRelError)
	}

	return worst
}

// Run builds Trials fresh sketches per cardinality, feeds each n distinct
// keys and aggregates the relative errors. Cancellation is checked between trials.
func Run(ctx context.Context, params Params) (Report, error) {
	trials, err := validate(params)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Precision: params.Precision,
		Points:    make([]Point, 0, len(params.Cardinalities)),
	}

	for _, n := range params.Cardinalities {
		point, pointErr := measure(ctx, params, n, trials)
		if pointErr != nil {
			return Report{}, pointErr
		}

		report.Points = append(report.Points, point)
	}

	return report, nil
}

func validate(params Params) (int, error) {
	if len(params.Cardinalities) == 0 {
		return 0, ErrNoCardinalities
	}

	for _, n := range params.Cardinalities {
		if n <= 0 || n > MaxCardinality {
			return 0, fmt.Errorf("%w: %d", ErrInvalidCardinality, n)
		}
	}

	switch {
	case params.Trials < 0:
		return 0, fmt.Errorf("%w: %d", ErrInvalidTrials, params.Trials)
	case params.Trials == 0:
		return DefaultTrials, nil
	default:
		return params.Trials, nil
	}
}

func measure(ctx context.Context, params Params, n, trials int) (Point, error) {
	estimates := make([]float64, 0, trials)
	relErrors := make([]float64, 0, trials)

	for trial := range trials {
		if err := ctx.Err(); err != nil {
			return Point{}, fmt.Errorf("accuracy run at n=%d: %w", n, err)
		}

		sk, err := hll.New(params.Precision, params.Options...)
		if err != nil {
			return Point{}, fmt.Errorf("accuracy run: %w", err)
		}

		base := uint64(trial) << trialShift
		for i := range uint64(n) {
			sk.AddUint64(base | i)
		}

		estimate := sk.Estimate()
		estimates = append(estimates, estimate)
		relErrors = append(relErrors, math.Abs(estimate-float64(n))/float64(n))
	}

	meanErr, stdDevErr := stats.MeanStdDev(relErrors)

	return Point{
		Cardinality:    n,
		Trials:         trials,
		MeanEstimate:   stats.Mean(estimates),
		MeanRelError:   meanErr,
		StdDevRelError: stdDevErr,
		P95RelError:    stats.Percentile(relErrors, stats.PercentileP95),
		MaxRelError:    slices.Max(relErrors),
	}, nil
}
