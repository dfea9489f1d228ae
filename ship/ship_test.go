package ship

import (
	"math/rand/v2"
	"testing"

	"github.com/lab1702/oort-sim/entity"
	"github.com/lab1702/oort-sim/physics"
)

func newTestShip(class Class) *Ship {
	data := Build(class, 0, 0)
	return NewShip(entity.ShipHandle{Slot: 1, Generation: 0}, 0, data, 0)
}

func TestAccelerateClampsToClassLimits(t *testing.T) {
	s := newTestShip(ClassFighter)
	s.Accelerate(1e6, -1e6)
	if s.PendingLinearAccel.X != s.MaxForwardAcceleration {
		t.Fatalf("forward accel not clamped: %v", s.PendingLinearAccel.X)
	}
	if s.PendingLinearAccel.Y != -s.MaxLateralAcceleration {
		t.Fatalf("lateral accel not clamped: %v", s.PendingLinearAccel.Y)
	}
}

func TestGunCycleBlocksRefire(t *testing.T) {
	s := newTestShip(ClassFighter)
	rng := rand.New(rand.NewPCG(1, 2))
	s.Guns[0].Fire = true
	bullets := s.FireGuns(physics.Vec2{}, physics.Vec2{}, 0, rng)
	if len(bullets) == 0 {
		t.Fatal("expected bullets on first fire")
	}
	s.Guns[0].Fire = true
	bullets = s.FireGuns(physics.Vec2{}, physics.Vec2{}, 0, rng)
	if len(bullets) != 0 {
		t.Fatalf("expected no bullets while cycling, got %d", len(bullets))
	}
}

func TestExplodeIsIdempotentPerTick(t *testing.T) {
	s := newTestShip(ClassMissile)
	rng := rand.New(rand.NewPCG(1, 2))
	frags := s.Explode(physics.Vec2{}, physics.Vec2{}, 0, rng)
	if len(frags) != 20 {
		t.Fatalf("expected 20 missile fragments, got %d", len(frags))
	}
	frags2 := s.Explode(physics.Vec2{}, physics.Vec2{}, 0, rng)
	if frags2 != nil {
		t.Fatalf("second explode call in same tick should be a no-op, got %d frags", len(frags2))
	}
}

func TestTorpedoExplodeFragmentCount(t *testing.T) {
	s := newTestShip(ClassTorpedo)
	rng := rand.New(rand.NewPCG(1, 2))
	frags := s.Explode(physics.Vec2{}, physics.Vec2{}, 0, rng)
	if len(frags) != 50 {
		t.Fatalf("expected 50 torpedo fragments, got %d", len(frags))
	}
}

func TestAbilityRespectsCooldown(t *testing.T) {
	s := newTestShip(ClassFighter)
	s.ActivateAbility(AbilityBoost)
	if !s.IsAbilityActive(AbilityBoost) {
		t.Fatal("expected boost active immediately after activation")
	}
	s.Abilities[0].ActiveRemaining = 0
	s.ActivateAbility(AbilityBoost) // still on cooldown
	if s.Abilities[0].ActiveRemaining > 0 {
		t.Fatal("boost should not re-activate while on cooldown")
	}
}

func TestAimClampsToGunBounds(t *testing.T) {
	s := newTestShip(ClassFrigate)
	idx := 1 // turreted vulcan with max_angle = tau
	s.Aim(idx, -0.5)
	if s.Guns[idx].Angle < 0 {
		t.Fatalf("expected angle normalized into [0,2pi), got %v", s.Guns[idx].Angle)
	}
}
