package scenario

import "testing"

func TestTournamentPredicateSingleSurvivorWins(t *testing.T) {
	p := TournamentPredicate()
	status, team := p(SurvivorInfo{CombatantsByTeam: map[int]int{0: 0, 1: 3}})
	if status != StatusVictory || team != 1 {
		t.Fatalf("expected victory for team 1, got %v/%v", status, team)
	}
}

func TestTournamentPredicateNoSurvivorsIsDraw(t *testing.T) {
	p := TournamentPredicate()
	status, _ := p(SurvivorInfo{CombatantsByTeam: map[int]int{0: 0, 1: 0}})
	if status != StatusDraw {
		t.Fatalf("expected draw, got %v", status)
	}
}

func TestTutorialPredicateFailsWhenPlayerDies(t *testing.T) {
	p := TutorialPredicate(0)
	status, _ := p(SurvivorInfo{AnyByTeam: map[int]int{0: 0, 1: 2}})
	if status != StatusFailed {
		t.Fatalf("expected failed status, got %v", status)
	}
}

func TestEvaluateDrawsAtTickCap(t *testing.T) {
	def := Definition{MaxTicks: 100, Predicate: TournamentPredicate()}
	status, _ := Evaluate(def, SurvivorInfo{CombatantsByTeam: map[int]int{0: 1, 1: 1}, Tick: 100})
	if status != StatusDraw {
		t.Fatalf("expected draw at tick cap with multiple survivors, got %v", status)
	}
}

func TestRegistryLoadUnknownScenario(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Load("does-not-exist"); err == nil {
		t.Fatal("expected error loading unknown scenario")
	}
	if _, err := r.Load("fighter_duel"); err != nil {
		t.Fatalf("expected fighter_duel to be registered: %v", err)
	}
}
