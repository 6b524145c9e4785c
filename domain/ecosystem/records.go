package ecosystem

// Raw coupling records as produced by the upstream analysis scripts. The
// statistics inside are opaque: this package only filters and weights them.

// GameRecord is one entry of the primary file's games section
type GameRecord struct {
	Name  string
	Draws int    `json:"draws"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// TriggerCategory names one trigger section of the primary file and the
// edge method it produces
type TriggerCategory struct {
	Key    string
	Method string
	Kind   string
}

// TriggerCategories lists the primary file's trigger sections in the order
// their edges are inserted.
var TriggerCategories = []TriggerCategory{
	{Key: "number_triggers", Method: MethodLiftNumber, Kind: "number"},
	{Key: "keno_position_triggers", Method: MethodLiftPosition, Kind: "position"},
	{Key: "ordered_value_triggers", Method: MethodLiftOrdered, Kind: "ordered_value"},
}

// TriggerRecord is one conditional-lift measurement. Optional fields are
// pointers so "absent" and "zero" stay distinguishable.
type TriggerRecord struct {
	Source          string   `json:"source"`
	Target          string   `json:"target"`
	LagDays         float64  `json:"lag_days"`
	Trigger         any      `json:"trigger"`
	TargetNumber    *float64 `json:"target_number"`
	Position        *float64 `json:"position"`
	Lift            *float64 `json:"lift"`
	QValue          *float64 `json:"q_value"`
	Support         *float64 `json:"support"`
	BaseRate        *float64 `json:"base_rate"`
	ConditionalRate *float64 `json:"conditional_rate"`
}

// PrimaryResults is the decoded primary coupling-results file
type PrimaryResults struct {
	Games    []GameRecord
	Config   map[string]any
	Triggers map[string][]TriggerRecord
}

// AlternativeRecord is one Granger / MI / TE / DTW measurement
type AlternativeRecord struct {
	Source    string   `json:"source"`
	Target    string   `json:"target"`
	Lag       float64  `json:"lag"`
	Method    string   `json:"method"`
	Statistic *float64 `json:"statistic"`
	QValue    *float64 `json:"q_value"`
	NSamples  *float64 `json:"n_samples"`
	NullMean  *float64 `json:"null_mean"`
	NullStd   *float64 `json:"null_std"`
	Segment   any      `json:"segment"`
	IsControl bool     `json:"is_control"`
}

// AlternativeResults is the decoded alternative-methods file
type AlternativeResults struct {
	Results []AlternativeRecord `json:"results"`
}
