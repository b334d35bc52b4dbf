package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/persistorai/kbequiv/client"
)

const (
	formatJSONName  = "json"
	formatTableName = "table"
	formatQuietName = "quiet"
)

func validateFormat(f string) error {
	switch f {
	case formatJSONName, formatTableName, formatQuietName:
		return nil
	default:
		return fmt.Errorf("unknown --format %q (want json, table or quiet)", f)
	}
}

func formatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

func formatTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

// printResult renders a resolution in the selected format. Quiet prints one id per line.
func printResult(w io.Writer, res *client.Result) error {
	switch flagFmt {
	case formatQuietName:
		for _, id := range res.IDs() {
			fmt.Fprintln(w, id)
		}
		return nil
	case formatTableName:
		rows := make([][]string, 0, len(res.Vertices))
		for _, sv := range res.Vertices {
			rows = append(rows, []string{sv.Vertex.ID, sv.Vertex.Class, sv.Vertex.Name, sv.Stage})
		}
		formatTable(w, []string{"ID", "CLASS", "NAME", "STAGE"}, rows)

		counts := make([]string, 0, len(client.Stages))
		for _, stage := range client.Stages {
			counts = append(counts, fmt.Sprintf("%s=%d", stage, res.Counts[stage]))
		}
		fmt.Fprintf(w, "\n%d vertices (%s)\n", len(res.Vertices), strings.Join(counts, " "))
		return nil
	default:
		return formatJSON(w, res)
	}
}
