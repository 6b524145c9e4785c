package ecosystem

import (
	"fmt"
	"sort"

	"kenobase/domain/core"
)

// Game names of the German lottery ecosystem
const (
	GameKeno           = "KENO"
	GameLotto6aus49    = "LOTTO_6AUS49"
	GameAuswahlwette   = "AUSWAHLWETTE"
	GameGluecksspirale = "GLUECKSSPIRALE"
	GameErgebniswette  = "ERGEBNISWETTE"
	GameEurojackpot    = "EUROJACKPOT"
)

// GameSpec is the static pool metadata for one game
type GameSpec struct {
	PoolMax  int    `yaml:"pool_max" json:"pool_max"`
	DrawSize int    `yaml:"draw_size" json:"draw_size"`
	Cadence  string `yaml:"cadence,omitempty" json:"cadence,omitempty"`
}

// GameCatalog is the lookup table the builder derives node metadata from.
// Controls is a closed set: a game is a control only if it is listed here,
// never because of anything in the results data.
type GameCatalog struct {
	Games    map[string]GameSpec `yaml:"games" json:"games"`
	Controls []string            `yaml:"controls" json:"controls"`
}

// DefaultCatalog returns the six-game catalog. EUROJACKPOT is an international
// 5+2 game with no plausible coupling to the German games and serves as the
// control; its DrawSize counts the five main numbers.
func DefaultCatalog() GameCatalog {
	return GameCatalog{
		Games: map[string]GameSpec{
			GameKeno:           {PoolMax: 70, DrawSize: 20, Cadence: "daily"},
			GameLotto6aus49:    {PoolMax: 49, DrawSize: 6, Cadence: "biweekly"},
			GameAuswahlwette:   {PoolMax: 49, DrawSize: 6, Cadence: "weekly"},
			GameGluecksspirale: {PoolMax: 9, DrawSize: 7, Cadence: "weekly"},
			GameErgebniswette:  {PoolMax: 2, DrawSize: 13, Cadence: "weekly"},
			GameEurojackpot:    {PoolMax: 50, DrawSize: 5, Cadence: "weekly"},
		},
		Controls: []string{GameEurojackpot},
	}
}

// Lookup returns the spec for name. Unknown games yield the zero spec.
func (c GameCatalog) Lookup(name string) (GameSpec, bool) {
	spec, ok := c.Games[name]
	return spec, ok
}

// IsControl reports whether name is in the control set
func (c GameCatalog) IsControl(name string) bool {
	for _, control := range c.Controls {
		if control == name {
			return true
		}
	}
	return false
}

// NodeFor builds the node for a game observed in the primary results
func (c GameCatalog) NodeFor(name string, drawCount int, startDate, endDate string) Node {
	spec, _ := c.Lookup(name)
	return Node{
		Name:      name,
		DrawCount: drawCount,
		StartDate: startDate,
		EndDate:   endDate,
		PoolMax:   spec.PoolMax,
		DrawSize:  spec.DrawSize,
		IsControl: c.IsControl(name),
	}
}

// Names returns the catalogued game names, sorted
func (c GameCatalog) Names() []string {
	names := make([]string, 0, len(c.Games))
	for name := range c.Games {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate rejects negative pool metadata and empty game names
func (c GameCatalog) Validate() error {
	for name, spec := range c.Games {
		if name == "" {
			return fmt.Errorf("%w: empty game name", core.ErrInvalidCatalog)
		}
		if spec.PoolMax < 0 || spec.DrawSize < 0 {
			return fmt.Errorf("%w: %s has negative pool metadata", core.ErrInvalidCatalog, name)
		}
	}
	for _, control := range c.Controls {
		if control == "" {
			return fmt.Errorf("%w: empty control name", core.ErrInvalidCatalog)
		}
	}
	return nil
}
