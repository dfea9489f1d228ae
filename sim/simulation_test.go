package sim

import (
	"testing"

	"github.com/lab1702/oort-sim/scenario"
)

// TestStepAdvancesTickCounter exercises the eleven-phase Step in its
// simplest form: no controller code assigned to any team, so every
// phase runs but the controller phase is a no-op per ship.
func TestStepAdvancesTickCounter(t *testing.T) {
	reg := scenario.NewRegistry()
	def, err := reg.Load("welcome")
	if err != nil {
		t.Fatalf("load welcome: %v", err)
	}
	s := New(def, 42, nil)
	for i := 0; i < 10; i++ {
		if err := s.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if s.Tick != 10 {
		t.Fatalf("expected tick 10, got %d", s.Tick)
	}
}

// TestDeterminismAcrossIndependentRuns verifies the core determinism
// guarantee: two independently constructed simulations with the same
// scenario and seed must produce an identical hash at every tick. No
// controller is assigned to either team, so no bullets or explosion
// fragments are produced.
func TestDeterminismAcrossIndependentRuns(t *testing.T) {
	reg := scenario.NewRegistry()
	def, err := reg.Load("fighter_duel")
	if err != nil {
		t.Fatalf("load fighter_duel: %v", err)
	}
	a := New(def, 1234, nil)
	b := New(def, 1234, nil)

	for i := 0; i < 500; i++ {
		if err := a.Step(); err != nil {
			t.Fatalf("run a step %d: %v", i, err)
		}
		if err := b.Step(); err != nil {
			t.Fatalf("run b step %d: %v", i, err)
		}
		if ha, hb := a.Hash(), b.Hash(); ha != hb {
			t.Fatalf("hash mismatch at tick %d: %x != %x", i, ha, hb)
		}
	}
}

// TestDifferentSeedsDivergeEventually sanity-checks that the hash is
// actually sensitive to the seed and not a constant.
func TestDifferentSeedsDivergeEventually(t *testing.T) {
	reg := scenario.NewRegistry()
	def, _ := reg.Load("test")
	a := New(def, 1, nil)
	b := New(def, 2, nil)

	diverged := false
	for i := 0; i < 300; i++ {
		a.Step()
		b.Step()
		if a.Hash() != b.Hash() {
			diverged = true
			break
		}
	}
	if !diverged {
		t.Fatal("expected hashes to diverge under different seeds within 300 ticks")
	}
}

// TestTournamentScenarioDrawsWithNoOpponentController runs fighter_duel
// to its tick cap with no controller code assigned to either team: both
// fighters sit idle forever, so neither team is ever wiped out and the
// scenario must draw at MaxTicks rather than hang.
func TestTournamentScenarioDrawsWithNoOpponentController(t *testing.T) {
	reg := scenario.NewRegistry()
	def, _ := reg.Load("fighter_duel")
	def.MaxTicks = 5 // shrink the cap so the test is fast
	s := New(def, 7, nil)

	for i := uint32(0); i < def.MaxTicks+2; i++ {
		s.Step()
	}
	if s.Status != scenario.StatusDraw {
		t.Fatalf("expected draw at tick cap, got %v", s.Status)
	}
}

// TestDestroyedShipIsRemovedFromWorld verifies phase 8's cleanup: a
// ship whose health drops to zero is marked destroyed and removed from
// the live ship pool by the end of the tick it died in.
func TestDestroyedShipIsRemovedFromWorld(t *testing.T) {
	reg := scenario.NewRegistry()
	def, _ := reg.Load("test")
	s := New(def, 99, nil)

	handles := s.world.Ships.Handles()
	if len(handles) != 2 {
		t.Fatalf("expected 2 ships at init, got %d", len(handles))
	}
	for _, h := range handles {
		e := s.world.Ships.GetPtr(h)
		(*e).Ship.Health = 0
	}
	s.Step()

	if got := s.world.Ships.Len(); got != 0 {
		t.Fatalf("expected 0 live ships after death tick, got %d", got)
	}
}
