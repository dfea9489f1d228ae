// Package scenario implements the scenario catalog, victory/loss/draw
// predicates, tick caps, tournament mode, and score_time. Predicates
// are evaluated against team-indexed survivor counts computed once per
// tick from live ships.
package scenario

import "github.com/lab1702/oort-sim/ship"

// Status is the scenario's per-tick outcome.
type Status int

const (
	StatusRunning Status = iota
	StatusVictory
	StatusFailed
	StatusDraw
)

// Tick caps a scenario may set as its MaxTicks. Evaluate falls back to
// MaxTicks when a scenario defines no MaxTicks of its own.
const (
	DefaultTutorialMaxTicks = 60 * 60 * 5  // 5 minutes at 60Hz
	TournamentMaxTicks      = 60 * 60 * 10 // 10 minutes
	MaxTicks                = 60 * 60 * 30 // 30 minutes, absolute ceiling
)

// SurvivorInfo is the per-team survivor counts a predicate evaluates
// against, computed once per tick by the scheduler from live ships.
type SurvivorInfo struct {
	// CombatantsByTeam counts ships of Fighter/Frigate/Cruiser per team.
	CombatantsByTeam map[int]int
	// AnyByTeam counts all non-projectile, non-asteroid ships per team
	// (used by tutorial-style "team 0 is the sole survivor" checks).
	AnyByTeam map[int]int
	Tick      uint32
}

// Predicate decides a scenario's status for the current tick.
type Predicate func(info SurvivorInfo) (Status, int)

// Line is one scenario-level overlay primitive drawn independent of
// any single ship, e.g. a boundary or waypoint marker.
type Line struct {
	X0, Y0, X1, Y1 float64
	RGB            uint32
}

// Definition is the static description of one catalog scenario: a
// name, an initializer, an optional tick hook, a status predicate,
// per-team initial code references, a solution reference, a tick cap,
// a tournament flag, a score_time function, and an optional overlay
// line hook.
type Definition struct {
	Name           string
	MaxTicks       uint32
	IsTournament   bool
	Predicate      Predicate
	InitialCode    map[int][]byte
	Solution       []byte
	ScoreTime      func(tick uint32, info SurvivorInfo) float64
	Init           func(seed uint64) []Spawn
	TickHook       func(tick uint32, seed uint64) []Spawn
	// Lines draws scenario-level overlay annotations; nil means none,
	// matching every catalog scenario today.
	Lines func(tick uint32) []Line
}

// Spawn is one ship the scenario wants admitted, either at init or from
// a tick hook.
type Spawn struct {
	Class    ship.Class
	Variant  int
	Team     int
	X, Y     float64
	VX, VY   float64
	Heading  float64
}

// TutorialPredicate implements the tutorial rule: the player team wins
// once it is the sole survivor, fails once it has no survivors, and keeps
// running while any other team survives alongside it.
func TutorialPredicate(playerTeam int) Predicate {
	return func(info SurvivorInfo) (Status, int) {
		playerAlive := info.AnyByTeam[playerTeam] > 0
		othersAlive := false
		for team, n := range info.AnyByTeam {
			if team != playerTeam && n > 0 {
				othersAlive = true
				break
			}
		}
		switch {
		case playerAlive && !othersAlive:
			return StatusVictory, playerTeam
		case !playerAlive:
			return StatusFailed, -1
		default:
			return StatusRunning, -1
		}
	}
}

// TournamentPredicate implements the tournament rule: exactly one
// surviving combatant team wins.
func TournamentPredicate() Predicate {
	return func(info SurvivorInfo) (Status, int) {
		survivingTeam := -1
		survivors := 0
		for team, n := range info.CombatantsByTeam {
			if n > 0 {
				survivors++
				survivingTeam = team
			}
		}
		switch {
		case survivors == 1:
			return StatusVictory, survivingTeam
		case survivors == 0:
			return StatusDraw, -1
		default:
			return StatusRunning, -1
		}
	}
}

// Evaluate applies maxTicks: a cap reached with multiple survivors (or
// no decisive predicate outcome) terminates the scenario as a Draw.
func Evaluate(def Definition, info SurvivorInfo) (Status, int) {
	status, team := def.Predicate(info)
	if status != StatusRunning {
		return status, team
	}
	cap := def.MaxTicks
	if cap == 0 {
		cap = MaxTicks
	}
	if info.Tick >= cap {
		return StatusDraw, -1
	}
	return StatusRunning, -1
}
