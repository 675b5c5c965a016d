package eval

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Spearman returns the rank correlation between every parameter column
// and one metric column over the successful rows of the last campaign,
// in Parameters() order. Ties take average ranks; the coefficient is
// Pearson correlation on the rank vectors.
func (m *Model) Spearman(metric string) ([]float64, error) {
	if m.table == nil {
		return nil, fmt.Errorf("no evaluation results; run EvaluateAll first")
	}
	mi, ok := m.table.MetricIndex(metric)
	if !ok {
		return nil, fmt.Errorf("unknown metric %q; valid: %v", metric, m.table.MetricNames)
	}
	var rows []Row
	for _, r := range m.table.Rows {
		if !r.Failed {
			rows = append(rows, r)
		}
	}
	if len(rows) < 3 {
		return nil, fmt.Errorf("need at least 3 successful rows, have %d", len(rows))
	}

	y := make([]float64, len(rows))
	for i, r := range rows {
		y[i] = r.Metrics[mi]
	}
	ry := ranks(y)

	out := make([]float64, len(m.params))
	for j := range m.params {
		xj := make([]float64, len(rows))
		for i, r := range rows {
			xj[i] = r.Params[j]
		}
		out[j] = stat.Correlation(ranks(xj), ry, nil)
	}
	return out, nil
}

// ranks assigns 1-based average ranks, ties sharing their mean rank.
func ranks(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })

	r := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && v[idx[j]] == v[idx[i]] {
			j++
		}
		mean := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			r[idx[k]] = mean
		}
		i = j
	}
	return r
}
