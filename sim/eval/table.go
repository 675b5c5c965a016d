package eval

import "math"

// Row is one evaluated sample: parameter values in model order, metric
// values, and the failure sentinel. Failed rows carry NaN metrics and the
// cause of the first error hit.
type Row struct {
	Params  []float64
	Metrics []float64
	Failed  bool
	Cause   string
}

// Table is the outcome of an evaluation campaign: one row per sample,
// parameter columns before metric columns.
type Table struct {
	ParamNames  []string
	ParamUnits  []string
	MetricNames []string
	MetricUnits []string
	Rows        []Row
}

// FailureCount returns the number of rows that failed to evaluate.
func (t *Table) FailureCount() int {
	var n int
	for _, r := range t.Rows {
		if r.Failed {
			n++
		}
	}
	return n
}

// MetricIndex returns the column position of a metric by name.
func (t *Table) MetricIndex(name string) (int, bool) {
	for i, n := range t.MetricNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// failedRow builds the sentinel row for a sample that could not be
// evaluated.
func failedRow(params []float64, nMetrics int, cause string) Row {
	metrics := make([]float64, nMetrics)
	for i := range metrics {
		metrics[i] = math.NaN()
	}
	return Row{Params: params, Metrics: metrics, Failed: true, Cause: cause}
}
