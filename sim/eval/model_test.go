package eval

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// registerDemoParams loads the standard parameter set in a deliberately
// scrambled insertion order, so ordering tests have something to fix.
func registerDemoParams(t *testing.T, m *Model, p *plant) {
	t.Helper()

	// Isolated first: product price.
	_, err := m.AddParameter(ParameterConfig{
		Name:   "product price",
		Units:  "USD/kmol",
		Kind:   Isolated,
		Dist:   mustUniform(t, 10, 30),
		Setter: func(v float64) error { p.fs.Stream(p.product).Price = v; return nil },
	})
	require.NoError(t, err)

	// Coupled on the splitter (position 2).
	_, err = m.AddParameter(ParameterConfig{
		Name:  "recycle split",
		Units: "frac",
		Kind:  Coupled,
		Unit:  p.split,
		Dist:  mustUniform(t, 0.1, 0.5),
		Setter: func(v float64) error {
			p.split.Split = 1 - v
			return nil
		},
	})
	require.NoError(t, err)

	// Design on the reactor.
	_, err = m.AddParameter(ParameterConfig{
		Name:   "residence time",
		Units:  "hr",
		Kind:   Design,
		Unit:   p.rxn,
		Dist:   mustUniform(t, 4, 16),
		Setter: func(v float64) error { p.rxn.Tau = v; return nil },
	})
	require.NoError(t, err)

	// Coupled on the reactor (position 1).
	_, err = m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)

	// Coupled on the feed stream (consumer MIX, position 0).
	_, err = m.AddParameter(ParameterConfig{
		Name:   "feed rate",
		Units:  "kmol/h",
		Kind:   Coupled,
		Stream: p.feed,
		Dist:   mustUniform(t, 50, 150),
		Setter: func(v float64) error { return p.fs.SetFlow(p.feed, "glucose", v) },
	})
	require.NoError(t, err)

	// Cost on the reactor.
	_, err = m.AddParameter(ParameterConfig{
		Name:   "cost index",
		Units:  "",
		Kind:   Cost,
		Unit:   p.rxn,
		Dist:   mustUniform(t, 500, 650),
		Setter: func(v float64) error { p.rxn.CEPCI = v; return nil },
	})
	require.NoError(t, err)
}

func TestModel_ParameterOrdering_CoupledUpstreamFirst(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	registerDemoParams(t, m, p)

	var got []string
	for _, param := range m.Parameters() {
		got = append(got, param.Name)
	}
	want := []string{
		"feed rate",      // coupled, element MIX at position 0
		"conversion",     // coupled, element RXN at position 1
		"recycle split",  // coupled, element SPLIT at position 2
		"product price",  // non-coupled in insertion order
		"residence time", //
		"cost index",     //
	}
	require.Equal(t, want, got)
}

func TestModel_AddParameter_Validation(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)

	cases := []struct {
		name string
		cfg  ParameterConfig
	}{
		{"empty name", ParameterConfig{Dist: mustUniform(t, 0, 1), Setter: func(float64) error { return nil }}},
		{"duplicate name", p.conversionParam(t)},
		{"missing distribution", ParameterConfig{Name: "x", Setter: func(float64) error { return nil }}},
		{"missing setter", ParameterConfig{Name: "x", Dist: mustUniform(t, 0, 1)}},
		{"design without unit", ParameterConfig{Name: "x", Kind: Design,
			Dist: mustUniform(t, 0, 1), Setter: func(float64) error { return nil }}},
		{"design on unit without design state", ParameterConfig{Name: "x", Kind: Design, Unit: p.mix,
			Dist: mustUniform(t, 0, 1), Setter: func(float64) error { return nil }}},
		{"coupled without element", ParameterConfig{Name: "x", Kind: Coupled, Stream: -1,
			Dist: mustUniform(t, 0, 1), Setter: func(float64) error { return nil }}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := m.AddParameter(tc.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestModel_AddParameter_AfterLoadSamples_Fails(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)
	require.NoError(t, m.LoadSamples(mat.NewDense(2, 1, []float64{0.3, 0.4})))

	if _, err := m.AddParameter(ParameterConfig{
		Name:   "late",
		Kind:   Isolated,
		Dist:   mustUniform(t, 0, 1),
		Setter: func(float64) error { return nil },
	}); err == nil {
		t.Error("expected error adding a parameter after samples are loaded")
	}
}

func TestModel_AddMetric_Validation(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	require.NoError(t, m.AddMetric("product flow", "kmol/h", p.productFlow))

	if err := m.AddMetric("product flow", "kmol/h", p.productFlow); err == nil {
		t.Error("expected duplicate-metric error, got nil")
	}
	if err := m.AddMetric("", "kmol/h", p.productFlow); err == nil {
		t.Error("expected empty-name error, got nil")
	}
	if err := m.AddMetric("broken", "", nil); err == nil {
		t.Error("expected nil-function error, got nil")
	}
}

func TestModel_Evaluate_AppliesParametersAndReadsMetrics(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)
	require.NoError(t, m.AddMetric("product flow", "kmol/h", p.productFlow))

	out, err := m.Evaluate([]float64{0.6})
	require.NoError(t, err)
	require.Len(t, out, 1)
	// Steady state: all 100 kmol/h fed leaves through the product.
	require.InDelta(t, 100, out[0], 0.5)
	require.InDelta(t, 0.6, p.rxn.Conversion, 1e-12)
}

func TestModel_Evaluate_WrongWidth_Fails(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)

	if _, err := m.Evaluate([]float64{0.5, 0.6}); err == nil {
		t.Error("expected width mismatch error, got nil")
	}
}

func TestModel_Evaluate_OutOfBounds_ReturnsBoundsError(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)

	_, err = m.Evaluate([]float64{0.95}) // support is [0.2, 0.9]
	var berr *BoundsError
	require.ErrorAs(t, err, &berr)
	require.Equal(t, "conversion", berr.Parameter)
}

func TestModel_LoadSamples_SortsOnCoupledColumns(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)
	// Isolated column values must travel with their row.
	_, err = m.AddParameter(ParameterConfig{
		Name:   "product price",
		Kind:   Isolated,
		Dist:   mustUniform(t, 0, 100),
		Setter: func(v float64) error { p.fs.Stream(p.product).Price = v; return nil },
	})
	require.NoError(t, err)

	x := mat.NewDense(3, 2, []float64{
		0.8, 30,
		0.3, 10,
		0.5, 20,
	})
	require.NoError(t, m.LoadSamples(x))

	got := m.Samples()
	wantRows := [][]float64{{0.3, 10}, {0.5, 20}, {0.8, 30}}
	for i, want := range wantRows {
		for j, w := range want {
			if v := got.At(i, j); v != w {
				t.Errorf("row %d col %d: got %g, want %g", i, j, v, w)
			}
		}
	}
}

func TestModel_LoadSamples_WrongWidth_Fails(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)

	if err := m.LoadSamples(mat.NewDense(2, 3, nil)); err == nil {
		t.Error("expected width mismatch error, got nil")
	}
}

func TestModel_EvaluateAll_FailedRowsDegradeGracefully(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)
	require.NoError(t, m.AddMetric("product flow", "kmol/h", p.productFlow))

	// Middle row violates the [0.2, 0.9] support after reordering puts
	// 0.95 last.
	require.NoError(t, m.LoadSamples(mat.NewDense(3, 1, []float64{0.6, 0.95, 0.4})))

	failures, err := m.EvaluateAll()
	require.NoError(t, err)
	require.Equal(t, 1, failures)

	table := m.Table()
	require.NotNil(t, table)
	require.Equal(t, 1, table.FailureCount())
	require.Len(t, table.Rows, 3)

	// Sorted order puts 0.95 last, so the failed row is the final one.
	bad := table.Rows[2]
	require.True(t, bad.Failed)
	require.True(t, math.IsNaN(bad.Metrics[0]))
	require.Contains(t, bad.Cause, "outside support")
	for _, good := range table.Rows[:2] {
		require.False(t, good.Failed)
		require.False(t, math.IsNaN(good.Metrics[0]))
	}
}

func TestModel_EvaluateAll_WithoutSamples_Fails(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)
	require.NoError(t, m.AddMetric("product flow", "kmol/h", p.productFlow))

	if _, err := m.EvaluateAll(); err == nil {
		t.Error("expected no-samples error, got nil")
	}
}

func TestModel_EvaluateAll_MetricErrorFailsRow(t *testing.T) {
	p := newPlant(t)
	m := NewModel(p.sys, 7)
	_, err := m.AddParameter(p.conversionParam(t))
	require.NoError(t, err)
	require.NoError(t, m.AddMetric("always broken", "", func() (float64, error) {
		return 0, errors.New("sensor offline")
	}))
	require.NoError(t, m.LoadSamples(mat.NewDense(2, 1, []float64{0.3, 0.5})))

	failures, err := m.EvaluateAll()
	require.NoError(t, err)
	require.Equal(t, 2, failures)
	require.Contains(t, m.Table().Rows[0].Cause, "sensor offline")
}

// Row reordering exists to make recycle warm starts pay: evaluating the
// sorted matrix must never cost more solver iterations than walking the
// same rows in a deliberately jumpy order. Iterations accrue on the
// conversion parameter's block system, which Apply re-simulates.
func TestModel_SortedEvaluation_CheaperThanUnsorted(t *testing.T) {
	jumpy := []float64{0.9, 0.2, 0.85, 0.25, 0.8, 0.3, 0.75, 0.35}

	sortedPlant := newPlant(t)
	sorted := NewModel(sortedPlant.sys, 7)
	_, err := sorted.AddParameter(sortedPlant.conversionParam(t))
	require.NoError(t, err)
	require.NoError(t, sorted.AddMetric("product flow", "kmol/h", sortedPlant.productFlow))
	require.NoError(t, sorted.LoadSamples(mat.NewDense(len(jumpy), 1, append([]float64(nil), jumpy...))))
	_, err = sorted.EvaluateAll()
	require.NoError(t, err)

	unsortedPlant := newPlant(t)
	unsorted := NewModel(unsortedPlant.sys, 7)
	_, err = unsorted.AddParameter(unsortedPlant.conversionParam(t))
	require.NoError(t, err)
	for _, v := range jumpy {
		_, err := unsorted.Evaluate([]float64{v})
		require.NoError(t, err)
	}

	sortedBlk, err := sortedPlant.sys.Block(sortedPlant.rxn)
	require.NoError(t, err)
	unsortedBlk, err := unsortedPlant.sys.Block(unsortedPlant.rxn)
	require.NoError(t, err)
	s, u := sortedBlk.System().TotalIterations, unsortedBlk.System().TotalIterations
	if s > u {
		t.Errorf("sorted evaluation used %d iterations, unsorted %d; sorting must not cost more", s, u)
	}
	if s == 0 || u == 0 {
		t.Errorf("expected both walks to iterate, got %d and %d", s, u)
	}
}
