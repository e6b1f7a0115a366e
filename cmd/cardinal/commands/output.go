package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/cardinal/pkg/config"
)

const (
	estimateDigits = 2
	ratioDigits    = 4
	yamlIndent     = 2
	percentScale   = 100
)

// tabular is a result that knows how to lay itself out as a table.
type tabular interface {
	title() string
	header() table.Row
	rows() []table.Row
}

// writeResult renders result in the requested format.
func writeResult(w io.Writer, format string, noColor bool, result tabular) error {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		return nil
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(yamlIndent)

		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return nil
	case config.FormatTable:
		return writeTable(w, noColor, result)
	default:
		return config.ValidateOutputFormat(format)
	}
}

func writeTable(w io.Writer, noColor bool, result tabular) error {
	headline := color.New(color.FgCyan, color.Bold)
	if noColor {
		headline.DisableColor()
	}

	if _, err := headline.Fprintln(w, result.title()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(result.header())
	tbl.AppendRows(result.rows())
	tbl.Render()

	return nil
}

func formatEstimate(v float64) string {
	return humanize.CommafWithDigits(v, estimateDigits)
}

func formatCount(v int64) string {
	return humanize.Comma(v)
}

func formatRatio(v float64) string {
	return fmt.Sprintf("%.*f", ratioDigits, v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*percentScale)
}
