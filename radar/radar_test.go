package radar

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/ship"
)

func fighterRadarSpec() ship.RadarSpec {
	return *ship.Fighter(0).Radar
}

func TestRadarDetectsTargetAt1Km(t *testing.T) {
	emitter := Emitter{
		ShipID: 0, Team: 0, Position: physics.Vec2{}, Heading: 0,
		Spec: fighterRadarSpec(),
	}
	target := Reflector{
		ShipID: 1, Team: 1, Class: ship.ClassTarget, CrossSection: 10,
		Position: physics.Vec2{X: 1000, Y: 0},
	}
	idx := NewIndex([]Entry{{ID: 1, Center: target.Position, Radius: 1}}, 2000)
	reflectors := map[int]Reflector{1: target}
	rng := rand.New(rand.NewPCG(1, 1))

	out := Evaluate(emitter, idx, reflectors, rng, false)
	if out.Detected == nil {
		t.Fatal("expected detection at 1km")
	}
	dist := out.Detected.Position.Sub(physics.Vec2{X: 1000, Y: 0}).Length()
	if dist > 10 {
		t.Fatalf("expected detected position within 10m of truth, got %v away", dist)
	}
}

func TestRadarBlindSpotOutsideNarrowBeam(t *testing.T) {
	spec := fighterRadarSpec()
	spec.Width = math.Pi / 6
	spec.Heading = math.Pi/12 + 0.05
	emitter := Emitter{ShipID: 0, Team: 0, Position: physics.Vec2{}, Heading: spec.Heading, Spec: spec}
	target := Reflector{ShipID: 1, Team: 1, Class: ship.ClassTarget, CrossSection: 10, Position: physics.Vec2{X: 1000, Y: 0}}
	idx := NewIndex([]Entry{{ID: 1, Center: target.Position, Radius: 1}}, 2000)
	rng := rand.New(rand.NewPCG(1, 1))

	out := Evaluate(emitter, idx, map[int]Reflector{1: target}, rng, false)
	if out.Detected != nil {
		t.Fatal("expected no detection outside narrow beam")
	}
}

func TestRadarFullCircleDetectsAnyBearing(t *testing.T) {
	spec := fighterRadarSpec()
	spec.Width = 2 * math.Pi
	rng := rand.New(rand.NewPCG(7, 7))
	for _, bearing := range []float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2} {
		pos := physics.Rotate(bearing, 500)
		emitter := Emitter{ShipID: 0, Team: 0, Position: physics.Vec2{}, Heading: 0, Spec: spec}
		target := Reflector{ShipID: 1, Team: 1, Class: ship.ClassTarget, CrossSection: 10, Position: pos}
		idx := NewIndex([]Entry{{ID: 1, Center: pos, Radius: 1}}, 2000)
		out := Evaluate(emitter, idx, map[int]Reflector{1: target}, rng, false)
		if out.Detected == nil {
			t.Fatalf("expected detection at bearing %v with full circle beam", bearing)
		}
	}
}

func TestRSSIFallsOffWithFourthPower(t *testing.T) {
	near := RSSI(1000, 10, 5, math.Pi, 100*100)
	far := RSSI(1000, 10, 5, math.Pi, 200*200)
	ratio := near / far
	if math.Abs(ratio-16) > 1e-6 {
		t.Fatalf("expected 16x falloff doubling distance, got %v", ratio)
	}
}
