package accuracy_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/cardinal/pkg/accuracy"
	"github.com/Sumatoshi-tech/cardinal/pkg/alg/hll"
)

const (
	testPrecision = uint8(10)
	testTrials    = 50

	// Linear counting at p=10 stays well under 5% mean error up to ~1000 items.
	maxMeanRelError = 0.05
)

var testCardinalities = []int{100, 500, 1000}

func TestRun_ErrorBand(t *testing.T) {
	t.Parallel()

	report, err := accuracy.Run(context.Background(), accuracy.Params{
		Precision:     testPrecision,
		Cardinalities: testCardinalities,
		Trials:        testTrials,
	})
	require.NoError(t, err)
	require.Len(t, report.Points, len(testCardinalities))

	assert.Equal(t, testPrecision, report.Precision)

	for i, p := range report.Points {
		assert.Equal(t, testCardinalities[i], p.Cardinality)
		assert.Equal(t, testTrials, p.Trials)
		assert.LessOrEqual(t, p.MeanRelError, p.MaxRelError)
		assert.LessOrEqual(t, p.P95RelError, p.MaxRelError)
		assert.GreaterOrEqual(t, p.StdDevRelError, 0.0)
		assert.LessOrEqual(t, p.MeanRelError, maxMeanRelError, "n=%d", p.Cardinality)
	}

	assert.LessOrEqual(t, report.Band(), maxMeanRelError)
}

func TestRun_Deterministic(t *testing.T) {
	t.Parallel()

	params := accuracy.Params{
		Precision:     testPrecision,
		Cardinalities: []int{200},
		Trials:        3,
		Options:       []hll.Option{hll.WithHasher(hll.XXHasher{})},
	}

	first, err := accuracy.Run(context.Background(), params)
	require.NoError(t, err)

	second, err := accuracy.Run(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_DefaultTrials(t *testing.T) {
	t.Parallel()

	report, err := accuracy.Run(context.Background(), accuracy.Params{
		Precision:     testPrecision,
		Cardinalities: []int{10},
	})
	require.NoError(t, err)
	assert.Equal(t, accuracy.DefaultTrials, report.Points[0].Trials)
}

func TestRun_InvalidParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  accuracy.Params
		wantErr error
	}{
		{
			name:    "no_cardinalities",
			params:  accuracy.Params{Precision: testPrecision},
			wantErr: accuracy.ErrNoCardinalities,
		},
		{
			name:    "zero_cardinality",
			params:  accuracy.Params{Precision: testPrecision, Cardinalities: []int{10, 0}},
			wantErr: accuracy.ErrInvalidCardinality,
		},
		{
			name:    "negative_trials",
			params:  accuracy.Params{Precision: testPrecision, Cardinalities: []int{10}, Trials: -1},
			wantErr: accuracy.ErrInvalidTrials,
		},
		{
			name:    "bad_precision",
			params:  accuracy.Params{Precision: 0, Cardinalities: []int{10}, Trials: 1},
			wantErr: hll.ErrInvalidPrecision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := accuracy.Run(context.Background(), tt.params)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := accuracy.Run(ctx, accuracy.Params{
		Precision:     testPrecision,
		Cardinalities: []int{100},
		Trials:        1,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReport_Band(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.0, accuracy.Report{}.Band(), 0)

	report := accuracy.Report{Points: []accuracy.Point{
		{MeanRelError: 0.01, MaxRelError: 0.2},
		{MeanRelError: 0.04, MaxRelError: 0.05},
		{MeanRelError: 0.02, MaxRelError: 0.03},
	}}

	assert.InDelta(t, 0.04, report.Band(), 1e-12)
}

func TestRenderChart(t *testing.T) {
	t.Parallel()

	report, err := accuracy.Run(context.Background(), accuracy.Params{
		Precision:     testPrecision,
		Cardinalities: []int{50, 100},
		Trials:        2,
	})
	require.NoError(t, err)

	var buf bytes.Buffer

	require.NoError(t, accuracy.RenderChart(&buf, report))

	html := buf.String()
	assert.Contains(t, html, "<html")
	assert.Contains(t, html, "Estimate vs truth")
	assert.Contains(t, html, "Relative error")
	assert.Contains(t, html, "precision 10, 1024 registers")
}
