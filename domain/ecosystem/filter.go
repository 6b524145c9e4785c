package ecosystem

// Default significance thresholds
const (
	DefaultQThreshold    = 0.05
	DefaultLiftThreshold = 1.1
)

// Thresholds decide whether a raw coupling record becomes an edge.
// Both comparisons are inclusive. NaN inputs never pass.
type Thresholds struct {
	Q    float64 `json:"q_threshold" yaml:"q_threshold"`
	Lift float64 `json:"lift_threshold" yaml:"lift_threshold"`
}

// DefaultThresholds returns q=0.05, lift=1.1
func DefaultThresholds() Thresholds {
	return Thresholds{Q: DefaultQThreshold, Lift: DefaultLiftThreshold}
}

// AcceptLift is the conditional-lift rule: q <= Q and lift >= Lift
func (t Thresholds) AcceptLift(qValue, lift float64) bool {
	return qValue <= t.Q && lift >= t.Lift
}

// AcceptAlternative is the rule for Granger/MI/TE/DTW records: q <= Q only.
// Their statistics are not ratios, so the lift threshold has no meaning there.
func (t Thresholds) AcceptAlternative(qValue float64) bool {
	return qValue <= t.Q
}

// Accept dispatches on the method family
func (t Thresholds) Accept(family MethodFamily, qValue, statistic float64) bool {
	if family == FamilyLift {
		return t.AcceptLift(qValue, statistic)
	}
	return t.AcceptAlternative(qValue)
}
