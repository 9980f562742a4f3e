package engine

import "math"

// Comparison pairs a current bucket with its comparison bucket.
type Comparison struct {
	Current    Period             `json:"current"`
	Comparison Period             `json:"comparison"`
	Difference map[string]float64 `json:"difference"`
	Index      map[string]float64 `json:"index"`
}

// Difference returns current minus comparison for every field either side
// carries, ratio fields included as already aggregated.
func Difference(current, comparison Period) map[string]float64 {
	cur := current.Derived.Values()
	prev := comparison.Derived.Values()
	out := make(map[string]float64, len(cur))
	for field, v := range cur {
		out[field] = v - prev[field]
	}
	for field, v := range prev {
		if _, ok := cur[field]; !ok {
			out[field] = -v
		}
	}
	return out
}

// Index expresses current as a percentage of comparison. A zero comparison
// always yields 0.
func Index(current, comparison float64) float64 {
	if comparison == 0 || math.IsNaN(comparison) {
		return 0
	}
	out := current / comparison * 100
	if math.IsNaN(out) || math.IsInf(out, 0) {
		return 0
	}
	return out
}

// Compare builds the difference and index maps for two buckets.
func Compare(current, comparison Period) Comparison {
	cur := current.Derived.Values()
	prev := comparison.Derived.Values()
	index := make(map[string]float64, len(cur))
	for field, v := range cur {
		index[field] = Index(v, prev[field])
	}
	for field := range prev {
		if _, ok := cur[field]; !ok {
			index[field] = 0
		}
	}
	return Comparison{
		Current:    current,
		Comparison: comparison,
		Difference: Difference(current, comparison),
		Index:      index,
	}
}
