package ecosystem

import "math"

// EdgeWeight converts a method's statistic into a graph weight where a higher
// weight always means stronger evidence of coupling:
//   - conditional lift: the lift itself (1.0 = no coupling)
//   - dtw*: the upstream statistic is a negated distance, so weight = -statistic
//   - everything else: |statistic|
func EdgeWeight(method string, statistic float64) float64 {
	switch FamilyOf(method) {
	case FamilyLift:
		return statistic
	case FamilyDistance:
		return -statistic
	default:
		return math.Abs(statistic)
	}
}
