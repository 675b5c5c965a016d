package eval

// Sampling rule names accepted by Model.Sample.
const (
	// RuleRandom draws plain Monte Carlo uniforms.
	RuleRandom = "random"
	// RuleLatin stratifies each column into n equal-probability bins and
	// permutes them independently (Latin hypercube).
	RuleLatin = "latin"
	// RuleHalton uses the deterministic low-discrepancy Halton sequence,
	// one prime radix per column.
	RuleHalton = "halton"
)

var validRules = map[string]bool{
	RuleRandom: true,
	RuleLatin:  true,
	RuleHalton: true,
}

// uniforms fills an n-by-p sample of [0, 1) values by rule. Rules draw
// from the model RNG, so campaigns replay exactly under a fixed seed;
// halton ignores the RNG entirely.
func (m *Model) uniforms(n, p int, rule string) [][]float64 {
	u := make([][]float64, n)
	for i := range u {
		u[i] = make([]float64, p)
	}
	switch rule {
	case RuleRandom:
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				u[i][j] = m.rng.Float64()
			}
		}
	case RuleLatin:
		for j := 0; j < p; j++ {
			perm := m.rng.Perm(n)
			for i := 0; i < n; i++ {
				u[i][j] = (float64(perm[i]) + m.rng.Float64()) / float64(n)
			}
		}
	case RuleHalton:
		bases := haltonBases(p)
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				u[i][j] = radicalInverse(bases[j], i+1)
			}
		}
	}
	return u
}

// haltonBases returns the first n primes, the co-prime radices of the
// Halton sequence.
func haltonBases(n int) []int {
	bases := make([]int, 0, n)
	for candidate := 2; len(bases) < n; candidate++ {
		prime := true
		for _, p := range bases {
			if p*p > candidate {
				break
			}
			if candidate%p == 0 {
				prime = false
				break
			}
		}
		if prime {
			bases = append(bases, candidate)
		}
	}
	return bases
}

// radicalInverse reflects the base-b digits of i about the radix point:
// the i-th element of the van der Corput sequence in base b.
func radicalInverse(b, i int) float64 {
	var inv float64
	f := 1.0
	for i > 0 {
		f /= float64(b)
		inv += f * float64(i%b)
		i /= b
	}
	return inv
}
