package scenario

import (
	"fmt"

	"github.com/lab1702/oort-sim/ship"
)

// Registry is the scenario catalog: named scenarios enumerated via List
// and instantiated via Load.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds the catalog with the built-in scenarios:
// fighter_duel, test, and welcome.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	r.register(fighterDuel())
	r.register(radarTest())
	r.register(welcome())
	return r
}

func (r *Registry) register(d Definition) {
	r.defs[d.Name] = d
}

// List returns every registered scenario name.
func (r *Registry) List() []string {
	out := make([]string, 0, len(r.defs))
	for name := range r.defs {
		out = append(out, name)
	}
	return out
}

// Load returns the named scenario definition, or an error if it is not
// registered.
func (r *Registry) Load(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("scenario unknown: %q", name)
	}
	return d, nil
}

// fighterDuel pits two Fighters against each other under the
// tournament predicate: exactly one surviving team wins within
// TournamentMaxTicks.
func fighterDuel() Definition {
	return Definition{
		Name:         "fighter_duel",
		MaxTicks:     TournamentMaxTicks,
		IsTournament: true,
		Predicate:    TournamentPredicate(),
		Init: func(seed uint64) []Spawn {
			return []Spawn{
				{Class: ship.ClassFighter, Team: 0, X: -1000, Y: 0},
				{Class: ship.ClassFighter, Team: 1, X: 1000, Y: 0, Heading: 3.14159265},
			}
		},
	}
}

// radarTest pairs a lone Fighter with a lone Target, useful for
// inspecting radar state directly rather than waiting for a verdict.
func radarTest() Definition {
	return Definition{
		Name:      "test",
		MaxTicks:  DefaultTutorialMaxTicks,
		Predicate: TutorialPredicate(0),
		Init: func(seed uint64) []Spawn {
			return []Spawn{
				{Class: ship.ClassFighter, Team: 0, X: 0, Y: 0},
				{Class: ship.ClassTarget, Team: 1, X: 1000, Y: 0},
			}
		},
	}
}

// welcome is a minimal determinism fixture: a single ship with no
// opponent, suitable for comparing hashes across independent runs.
func welcome() Definition {
	return Definition{
		Name:      "welcome",
		MaxTicks:  DefaultTutorialMaxTicks,
		Predicate: TutorialPredicate(0),
		Init: func(seed uint64) []Spawn {
			return []Spawn{{Class: ship.ClassFighter, Team: 0, X: 0, Y: 0}}
		},
	}
}
