package cmd

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAround_TriangleShape(t *testing.T) {
	d, err := around(100, 0.15, 0)
	require.NoError(t, err)
	lo, hi := d.Bounds()
	assert.Equal(t, 85.0, lo)
	assert.Equal(t, 115.0, hi)

	// Fractions clamp at their limit.
	d, err = around(0.95, 0.15, 1)
	require.NoError(t, err)
	lo, hi = d.Bounds()
	assert.InDelta(t, 0.8075, lo, 1e-12)
	assert.Equal(t, 1.0, hi)

	// A zero baseline has no spread to draw from.
	if _, err := around(0, 0.15, 0); err == nil {
		t.Error("expected error for zero baseline, got nil")
	}
}

func TestBuildModel_ParameterAndMetricRegistration(t *testing.T) {
	sc := DefaultScenario()
	p, err := buildPlant(sc)
	require.NoError(t, err)

	m, err := buildModel(p, sc)
	require.NoError(t, err)

	var names []string
	for _, param := range m.Parameters() {
		names = append(names, param.Name)
	}
	// Coupled parameters first in flowsheet order, then the rest in
	// registration order.
	want := []string{
		"feed rate", "conversion", "recycle fraction",
		"residence time", "heat coefficient", "cost index", "product price",
	}
	require.Equal(t, want, names)

	var metrics []string
	for _, mt := range m.Metrics() {
		metrics = append(metrics, mt.Name)
	}
	require.Equal(t, []string{"product flow", "recycle flow", "heater duty", "capital cost", "revenue"}, metrics)
}

func TestBuildModel_ZeroPrice_SkipsPriceParameter(t *testing.T) {
	sc := DefaultScenario()
	sc.ProductPrice = 0
	p, err := buildPlant(sc)
	require.NoError(t, err)

	m, err := buildModel(p, sc)
	require.NoError(t, err)
	for _, param := range m.Parameters() {
		if param.Name == "product price" {
			t.Fatal("price parameter registered despite zero price")
		}
	}
}

func TestEvaluate_SmallCampaign_EndToEnd(t *testing.T) {
	sc := DefaultScenario()
	p, err := buildPlant(sc)
	require.NoError(t, err)
	m, err := buildModel(p, sc)
	require.NoError(t, err)

	x, err := m.Sample(24, "latin")
	require.NoError(t, err)
	require.NoError(t, m.LoadSamples(x))

	failures, err := m.EvaluateAll()
	require.NoError(t, err)
	require.Equal(t, 0, failures)

	table := m.Table()
	require.Len(t, table.Rows, 24)
	require.Equal(t, 0, table.FailureCount())

	// Moles are conserved through the loop, so the product flow tracks
	// the sampled feed rate row by row, and revenue is exactly price
	// times product flow.
	flowIdx, ok := table.MetricIndex("product flow")
	require.True(t, ok)
	revIdx, ok := table.MetricIndex("revenue")
	require.True(t, ok)
	for i, row := range table.Rows {
		feed := row.Params[0]
		price := row.Params[len(row.Params)-1]
		if math.Abs(row.Metrics[flowIdx]-feed) > 1 {
			t.Errorf("row %d: product flow %g drifted from feed %g", i, row.Metrics[flowIdx], feed)
		}
		assert.InDelta(t, price*row.Metrics[flowIdx], row.Metrics[revIdx], 1e-9)
	}

	// Feed rate drives product flow almost perfectly.
	rho, err := m.Spearman("product flow")
	require.NoError(t, err)
	assert.Greater(t, rho[0], 0.9, "feed rate should dominate product flow")

	// The campaign report renders the sensitivity table.
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	printCampaignReport(m, "latin", failures, 20*time.Millisecond)
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	output := buf.String()

	assert.Contains(t, output, "=== Evaluation Campaign ===")
	assert.Contains(t, output, "=== Spearman Rank Correlations ===")
	assert.Contains(t, output, "recycle fraction")
	assert.Contains(t, output, "capital cost")
}

func TestWriteTableCSV_And_SaveRun(t *testing.T) {
	sc := DefaultScenario()
	p, err := buildPlant(sc)
	require.NoError(t, err)
	m, err := buildModel(p, sc)
	require.NoError(t, err)

	x, err := m.Sample(6, "random")
	require.NoError(t, err)
	require.NoError(t, m.LoadSamples(x))
	_, err = m.EvaluateAll()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "campaign.csv")
	require.NoError(t, writeTableCSV(path, m.Table()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "feed rate [kmol/h]")
	assert.Contains(t, lines[0], "revenue [USD/h]")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	runID, err := saveRun(dsn, "smoke campaign", m.Table())
	require.NoError(t, err)
	assert.NotEmpty(t, runID)
}
