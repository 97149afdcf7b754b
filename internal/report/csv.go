package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes the grid with a header row. Empty cells stay empty.
func WriteCSV(w io.Writer, g *Grid) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(g.Columns)+2)
	header = append(header, "period")
	for _, c := range g.Columns {
		header = append(header, c.Title())
	}
	header = append(header, "total")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range g.Rows {
		line := make([]string, 0, len(row.Cells)+2)
		line = append(line, row.Label)
		for _, cell := range row.Cells {
			if cell == nil {
				line = append(line, "")
				continue
			}
			line = append(line, formatAmount(*cell))
		}
		line = append(line, formatAmount(row.Total))
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
