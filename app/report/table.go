package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatMarkdown, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

type grid struct {
	headers []string
	rows    [][]string
	aligns  []columnAlignment
}

func (g *grid) add(row ...string) {
	g.rows = append(g.rows, row)
}

func (g *grid) writer() table.Writer {
	columns := len(g.headers)

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = g.headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range g.rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(g.aligns) && g.aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    60,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw
}

// render writes g in format. JSON is handled by the caller.
func (g *grid) render(out io.Writer, format Format) error {
	if len(g.headers) == 0 {
		return nil
	}

	switch format {
	case FormatCSV:
		// go-pretty escapes commas with backslashes, which CSV readers reject.
		cw := csv.NewWriter(out)
		if err := cw.Write(g.headers); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		for _, row := range g.rows {
			if err := cw.Write(pad(row, len(g.headers))); err != nil {
				return fmt.Errorf("failed to write CSV: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	case FormatMarkdown:
		_, err := fmt.Fprintln(out, g.writer().RenderMarkdown())
		return err
	default:
		_, err := fmt.Fprintln(out, g.writer().Render())
		return err
	}
}

func pad(row []string, columns int) []string {
	if len(row) >= columns {
		return row[:columns]
	}
	padded := make([]string, columns)
	copy(padded, row)
	return padded
}
