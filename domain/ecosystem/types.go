package ecosystem

import (
	"fmt"
	"strings"
)

// ============================================================================
// METHODS
// ============================================================================

// Conditional-lift methods produced from the primary results file. Their
// statistic is a lift ratio where 1.0 means "no coupling".
const (
	MethodLiftNumber   = "conditional_lift_number"
	MethodLiftPosition = "conditional_lift_position"
	MethodLiftOrdered  = "conditional_lift_ordered"
)

// MethodFamily groups methods that share a filtering and weighting rule
type MethodFamily int

const (
	// FamilyLift: conditional-lift ratios, filtered on q and lift
	FamilyLift MethodFamily = iota
	// FamilyDistance: dtw* methods, statistic is a negated distance
	FamilyDistance
	// FamilyAlternative: Granger / MI / TE and anything else, filtered on q only
	FamilyAlternative
)

func (f MethodFamily) String() string {
	switch f {
	case FamilyLift:
		return "lift"
	case FamilyDistance:
		return "distance"
	default:
		return "alternative"
	}
}

// FamilyOf classifies a method tag
func FamilyOf(method string) MethodFamily {
	switch {
	case method == MethodLiftNumber, method == MethodLiftPosition, method == MethodLiftOrdered:
		return FamilyLift
	case strings.HasPrefix(method, "dtw"):
		return FamilyDistance
	default:
		return FamilyAlternative
	}
}

// ============================================================================
// NODES & EDGES
// ============================================================================

// Node is one lottery game in the ecosystem
type Node struct {
	Name      string `json:"name"`
	DrawCount int    `json:"draw_count"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	PoolMax   int    `json:"pool_max"`
	DrawSize  int    `json:"draw_size"`
	IsControl bool   `json:"is_control"`
}

// EdgeKey is the identity of an edge. Statistic, q-value, weight and details
// are deliberately not part of it.
type EdgeKey struct {
	Source  string
	Target  string
	LagDays int
	Method  string
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s|%s|%d|%s", k.Source, k.Target, k.LagDays, k.Method)
}

// Edge is one directed, lagged, statistically significant coupling between two games.
//
// Details is open-ended because the fields differ per method family: lift edges
// carry trigger/support/rates, alternative edges carry sample size and
// permutation-null statistics.
type Edge struct {
	Source    string         `json:"source"`
	Target    string         `json:"target"`
	LagDays   int            `json:"lag_days"`
	Method    string         `json:"method"`
	Statistic float64        `json:"statistic"`
	QValue    float64        `json:"q_value"`
	Weight    float64        `json:"weight"`
	Details   map[string]any `json:"details,omitempty"`
}

// Key returns the identity of the edge
func (e Edge) Key() EdgeKey {
	return EdgeKey{Source: e.Source, Target: e.Target, LagDays: e.LagDays, Method: e.Method}
}

// Family returns the method family of the edge
func (e Edge) Family() MethodFamily {
	return FamilyOf(e.Method)
}

// Touches reports whether the edge has name as source or target
func (e Edge) Touches(name string) bool {
	return e.Source == name || e.Target == name
}

func (e Edge) clone() Edge {
	if e.Details == nil {
		return e
	}
	details := make(map[string]any, len(e.Details))
	for k, v := range e.Details {
		details[k] = v
	}
	e.Details = details
	return e
}
