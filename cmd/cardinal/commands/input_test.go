package commands

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(items *[]string) itemSink {
	return func(item []byte) {
		*items = append(*items, string(item))
	}
}

func TestReadItems_SkipsEmptyLines(t *testing.T) {
	t.Parallel()

	var items []string

	n, err := readItems(context.Background(), strings.NewReader("a\r\n\nb\n\nc"), initialLineBuffer, collect(&items))
	require.NoError(t, err)

	assert.Equal(t, int64(3), n)
	assert.Equal(t, []string{"a", "b", "c"}, items)
}

func TestReadItems_LineTooLong(t *testing.T) {
	t.Parallel()

	_, err := readItems(context.Background(), strings.NewReader(strings.Repeat("x", 100)+"\n"), 16, func([]byte) {})
	assert.ErrorContains(t, err, "read line 1")
}

func TestReadItems_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := strings.Repeat("x\n", cancelCheckInterval+1)

	n, err := readItems(ctx, strings.NewReader(input), initialLineBuffer, func([]byte) {})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(cancelCheckInterval-1), n)
}

func TestReadSources_DefaultsToStdin(t *testing.T) {
	t.Parallel()

	var items []string

	n, err := readSources(context.Background(), nil, strings.NewReader("q\n"), initialLineBuffer, collect(&items))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"q"}, items)
	assert.Equal(t, []string{stdinName}, displayName(nil))
}

func TestJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		intersection float64
		union        float64
		want         float64
	}{
		{name: "half", intersection: 50, union: 100, want: 0.5},
		{name: "negative_clamped", intersection: -3, union: 100, want: 0},
		{name: "above_one_clamped", intersection: 120, union: 100, want: 1},
		{name: "empty_union", intersection: 0, union: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.InDelta(t, tt.want, jaccard(tt.intersection, tt.union), 1e-12)
		})
	}
}
