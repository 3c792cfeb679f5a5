package commands

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// helper functions for formatting floats and integers
func f(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
func i(i int64) string {
	return strconv.FormatInt(i, 10)
}

// writeRows prints header and rows as a table when human is set, CSV
// otherwise.
func writeRows(w io.Writer, human bool, header []string, rows [][]string) error {
	if human {
		table := tablewriter.NewWriter(w)
		table.SetColWidth(100)
		table.SetHeader(header)
		table.AppendBulk(rows)
		table.Render()
		return nil
	}
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(header); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(rows); err != nil {
		return err
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
