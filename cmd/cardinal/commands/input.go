package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
)

const (
	stdinName = "-"

	// cancelCheckInterval is how many lines are read between context checks.
	cancelCheckInterval = 1 << 14

	initialLineBuffer = 64 * 1024
)

// itemSink receives one item at a time. The slice is only valid for the call.
type itemSink func(item []byte)

// readItems feeds every non-empty line of r to sink and returns how many
// lines were fed. Lines longer than maxLine fail the read.
func readItems(ctx context.Context, r io.Reader, maxLine int, sink itemSink) (int64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, min(initialLineBuffer, maxLine)), maxLine)

	var items, lines int64

	for scanner.Scan() {
		lines++

		if lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return items, fmt.Errorf("read interrupted: %w", err)
			}
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		sink(line)

		items++
	}

	if err := scanner.Err(); err != nil {
		return items, fmt.Errorf("read line %d: %w", lines+1, err)
	}

	return items, nil
}

// readSources reads each named source in turn; "-" or an empty list means stdin.
func readSources(ctx context.Context, names []string, stdin io.Reader, maxLine int, sink itemSink) (int64, error) {
	if len(names) == 0 {
		names = []string{stdinName}
	}

	var total int64

	for _, name := range names {
		n, err := readSource(ctx, name, stdin, maxLine, sink)
		total += n

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

func readSource(ctx context.Context, name string, stdin io.Reader, maxLine int, sink itemSink) (int64, error) {
	if name == stdinName {
		n, err := readItems(ctx, stdin, maxLine, sink)
		if err != nil {
			return n, fmt.Errorf("stdin: %w", err)
		}

		return n, nil
	}

	file, err := os.Open(name)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	n, err := readItems(ctx, file, maxLine, sink)
	if err != nil {
		return n, fmt.Errorf("%s: %w", name, err)
	}

	return n, nil
}

// displayName labels an input list in reports.
func displayName(names []string) []string {
	if len(names) == 0 {
		return []string{stdinName}
	}

	return names
}
