package eval

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/flowsheet-sim/flowsheet-sim/sim"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Metric is a named observable read from model state after a sample has
// been applied.
type Metric struct {
	Name  string
	Units string
	Fn    func() (float64, error)
}

// Model binds uncertain parameters and metrics to one simulated system
// and evaluates sample matrices against it.
//
// Parameters stay ordered by evaluation cost: coupled parameters first,
// upstream elements before downstream ones, then the design/cost/isolated
// kinds in registration order. Combined with the row reordering in
// LoadSamples this keeps consecutive evaluations as incremental as
// possible.
type Model struct {
	sys     *sim.System
	rng     *rand.Rand
	seed    int64
	params  []*Parameter
	metrics []Metric
	samples *mat.Dense
	table   *Table
}

// NewModel creates an empty model over a constructed system. The seed
// fixes the sampling stream: equal seeds replay identical campaigns.
func NewModel(sys *sim.System, seed int64) *Model {
	return &Model{
		sys:  sys,
		rng:  rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// System returns the system the model evaluates against.
func (m *Model) System() *sim.System { return m.sys }

// Parameters returns the registered parameters in evaluation order.
func (m *Model) Parameters() []*Parameter { return m.params }

// Metrics returns the registered metrics in registration order.
func (m *Model) Metrics() []Metric { return m.metrics }

// AddParameter validates a declaration, binds the re-simulation callback
// for its kind and element, and inserts it in evaluation order.
func (m *Model) AddParameter(cfg ParameterConfig) (*Parameter, error) {
	if m.samples != nil {
		return nil, fmt.Errorf("parameter %s: samples already loaded; build the model before sampling", cfg.Name)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("parameter name must not be empty")
	}
	for _, p := range m.params {
		if p.Name == cfg.Name {
			return nil, fmt.Errorf("parameter %q already registered", cfg.Name)
		}
	}
	if cfg.Dist == nil {
		return nil, fmt.Errorf("parameter %s: distribution is required", cfg.Name)
	}
	if cfg.Setter == nil {
		return nil, fmt.Errorf("parameter %s: setter is required", cfg.Name)
	}

	p := &Parameter{ParameterConfig: cfg, pos: -1, order: len(m.params)}
	switch cfg.Kind {
	case Isolated:
		// No element, no re-simulation.
	case Design, Cost:
		if cfg.Unit == nil {
			return nil, fmt.Errorf("parameter %s: %s kind requires a unit element", cfg.Name, cfg.Kind)
		}
		d, ok := cfg.Unit.(sim.Designer)
		if !ok {
			return nil, fmt.Errorf("parameter %s: unit %s maintains no design state", cfg.Name, cfg.Unit.Name())
		}
		if _, ok := m.sys.Position(cfg.Unit.Name()); !ok {
			return nil, fmt.Errorf("parameter %s: unit %s is not part of the system", cfg.Name, cfg.Unit.Name())
		}
		p.simulate = func() error { return d.Design(m.sys.Flowsheet()) }
	case Coupled:
		if err := m.bindCoupled(p, cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("parameter %s: unknown kind %d", cfg.Name, cfg.Kind)
	}

	m.params = append(m.params, p)
	m.sortParams()
	return p, nil
}

// bindCoupled resolves a coupled parameter's element to its downstream
// block. A unit element takes its own block; a stream element takes the
// consumer's block, or no re-simulation when nothing consumes it.
func (m *Model) bindCoupled(p *Parameter, cfg ParameterConfig) error {
	element := cfg.Unit
	if element == nil {
		if cfg.Stream < 0 {
			return fmt.Errorf("parameter %s: coupled kind requires a unit or stream element", cfg.Name)
		}
		consumer, ok := m.sys.Consumer(cfg.Stream)
		if !ok {
			// Terminal stream: the value feeds nothing downstream.
			p.pos = len(m.sys.Units())
			return nil
		}
		element = consumer
	}
	pos, ok := m.sys.Position(element.Name())
	if !ok {
		return fmt.Errorf("parameter %s: unit %s is not part of the system", cfg.Name, element.Name())
	}
	blk, err := m.sys.Block(element)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", cfg.Name, err)
	}
	p.pos = pos
	p.simulate = blk.Simulate
	return nil
}

// sortParams restores evaluation order: coupled first by topological
// position with registration order as tiebreak, then everything else in
// registration order.
func (m *Model) sortParams() {
	sort.SliceStable(m.params, func(i, j int) bool {
		pi, pj := m.params[i], m.params[j]
		ci, cj := pi.Kind == Coupled, pj.Kind == Coupled
		if ci != cj {
			return ci
		}
		if ci && pi.pos != pj.pos {
			return pi.pos < pj.pos
		}
		return pi.order < pj.order
	})
}

// AddMetric registers a named observable.
func (m *Model) AddMetric(name, units string, fn func() (float64, error)) error {
	if name == "" {
		return fmt.Errorf("metric name must not be empty")
	}
	for _, mt := range m.metrics {
		if mt.Name == name {
			return fmt.Errorf("metric %q already registered", name)
		}
	}
	if fn == nil {
		return fmt.Errorf("metric %s: function is required", name)
	}
	m.metrics = append(m.metrics, Metric{Name: name, Units: units, Fn: fn})
	return nil
}

// Sample draws an n-by-p matrix of parameter values by rule, mapping
// uniforms through each parameter's quantile function. Columns follow
// the model's parameter order.
func (m *Model) Sample(n int, rule string) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("sample size must be positive, got %d", n)
	}
	if len(m.params) == 0 {
		return nil, fmt.Errorf("no parameters registered")
	}
	if !validRules[rule] {
		return nil, fmt.Errorf("unknown sampling rule %q; valid: random, latin, halton", rule)
	}
	p := len(m.params)
	u := m.uniforms(n, p, rule)
	x := mat.NewDense(n, p, nil)
	for j, param := range m.params {
		for i := 0; i < n; i++ {
			x.Set(i, j, param.Dist.Quantile(u[i][j]))
		}
	}
	return x, nil
}

// LoadSamples stores a sample matrix for evaluation. Rows are reordered
// lexicographically on the coupled parameter columns so consecutive rows
// perturb upstream values as rarely, and as little, as possible; the
// recycle warm start then pays off on almost every row. The caller's
// matrix is copied, not retained.
func (m *Model) LoadSamples(x *mat.Dense) error {
	n, p := x.Dims()
	if p != len(m.params) {
		return fmt.Errorf("sample has %d columns, model has %d parameters", p, len(m.params))
	}
	if n == 0 {
		return fmt.Errorf("sample has no rows")
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if nc := m.coupledCount(); nc > 0 {
		sort.SliceStable(order, func(a, b int) bool {
			ra, rb := order[a], order[b]
			for j := 0; j < nc; j++ {
				va, vb := x.At(ra, j), x.At(rb, j)
				if va != vb {
					return va < vb
				}
			}
			return false
		})
	}

	sorted := mat.NewDense(n, p, nil)
	for i, src := range order {
		sorted.SetRow(i, x.RawRowView(src))
	}
	m.samples = sorted
	m.table = nil
	return nil
}

func (m *Model) coupledCount() int {
	var n int
	for _, p := range m.params {
		if p.Kind == Coupled {
			n++
		}
	}
	return n
}

// Samples returns the loaded, reordered sample matrix, or nil.
func (m *Model) Samples() *mat.Dense { return m.samples }

// Evaluate applies one sample row in parameter order and reads every
// metric. Any parameter or metric error aborts the row and is returned.
func (m *Model) Evaluate(sample []float64) ([]float64, error) {
	if len(sample) != len(m.params) {
		return nil, fmt.Errorf("sample has %d values, model has %d parameters", len(sample), len(m.params))
	}
	for i, p := range m.params {
		if err := p.Apply(sample[i]); err != nil {
			return nil, err
		}
	}
	out := make([]float64, len(m.metrics))
	for i, mt := range m.metrics {
		v, err := mt.Fn()
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", mt.Name, err)
		}
		out[i] = v
	}
	return out, nil
}

// EvaluateAll evaluates every loaded sample row. A failing row is logged,
// recorded as a sentinel row, and does not stop the campaign; the return
// value is the failure count.
func (m *Model) EvaluateAll() (int, error) {
	if m.samples == nil {
		return 0, fmt.Errorf("no samples loaded")
	}
	if len(m.metrics) == 0 {
		return 0, fmt.Errorf("no metrics registered")
	}
	n, _ := m.samples.Dims()
	t := &Table{Rows: make([]Row, n)}
	for _, p := range m.params {
		t.ParamNames = append(t.ParamNames, p.Name)
		t.ParamUnits = append(t.ParamUnits, p.Units)
	}
	for _, mt := range m.metrics {
		t.MetricNames = append(t.MetricNames, mt.Name)
		t.MetricUnits = append(t.MetricUnits, mt.Units)
	}

	var failures int
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, m.samples)
		metrics, err := m.Evaluate(row)
		if err != nil {
			failures++
			logrus.Warnf("sample %d/%d failed: %v", i+1, n, err)
			t.Rows[i] = failedRow(row, len(m.metrics), err.Error())
			continue
		}
		t.Rows[i] = Row{Params: row, Metrics: metrics}
	}
	m.table = t
	logrus.Infof("evaluated %d samples, %d failed", n, failures)
	return failures, nil
}

// Table returns the last EvaluateAll outcome, or nil before any campaign.
func (m *Model) Table() *Table { return m.table }
