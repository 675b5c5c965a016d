package units

import "math"

// Capacity exponent of the six-tenths costing rule.
const costExponent = 0.6

// Cost index defaults: the reference CEPCI the base correlations were
// published at, and the index purchase costs are escalated to.
const (
	BaseCEPCI    = 521.9
	DefaultCEPCI = 567.5
)

// scaleCost escalates a base purchase cost to a new equipment size and
// cost year: C = C0 * (S/S0)^0.6 * CEPCI/CEPCI0. Zero or negative size
// means no equipment, so no cost.
func scaleCost(baseCost, baseSize, size, baseIndex, index float64) float64 {
	if size <= 0 {
		return 0
	}
	return baseCost * math.Pow(size/baseSize, costExponent) * index / baseIndex
}
