package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/flowsheet-sim/flowsheet-sim/sim/eval"
)

// WriteCSV renders a result table: one header row with parameter columns
// before metric columns, then one row per sample. Metric cells of failed
// rows carry the literal string "failed" instead of their NaN sentinels.
func WriteCSV(w io.Writer, t *eval.Table) error {
	if t == nil {
		return fmt.Errorf("results: nil table")
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := make([]string, 0, len(t.ParamNames)+len(t.MetricNames))
	for i, name := range t.ParamNames {
		header = append(header, columnHeader(name, t.ParamUnits[i]))
	}
	for i, name := range t.MetricNames {
		header = append(header, columnHeader(name, t.MetricUnits[i]))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("results: write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record = record[:0]
		for _, v := range row.Params {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		for _, v := range row.Metrics {
			if row.Failed {
				record = append(record, "failed")
				continue
			}
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("results: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// columnHeader renders "name [units]", or just the name when the column
// is dimensionless.
func columnHeader(name, units string) string {
	if units == "" {
		return name
	}
	return fmt.Sprintf("%s [%s]", name, units)
}
