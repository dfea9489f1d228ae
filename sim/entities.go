// Package sim implements the Simulation type and its fixed eleven-phase
// Step: event clear, ship admission, physics integration, collision
// resolution, radar, radio, controller execution, ship subsystem tick,
// bullet step, scenario evaluation, and tick advance.
package sim

import (
	"github.com/lab1702/oort-sim/entity"
	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/ship"
)

// ShipEntity pairs a ship's subsystem state with its rigid body, kept
// as separate owning components: the rigid-body world owns kinematics,
// the ship subsystem owns everything else.
type ShipEntity struct {
	Ship *ship.Ship
	Body physics.Body
	// JustAdmitted marks a ship admitted this tick so the controller
	// phase (phase 7) skips it; its first controller call is next tick.
	JustAdmitted bool
}

// BulletEntity is a live bullet plus the fields a bullet needs beyond
// kinematics: team, mass, color, remaining TTL.
type BulletEntity struct {
	Bullet physics.Bullet
	Team   int
	Mass   float64
	Color  [4]float32
	TTL    float64 // seconds remaining
}

// World holds every live entity this tick, addressed by generational
// handle: handles are never reused within a run.
type World struct {
	Ships   *entity.Pool[*ShipEntity, entity.ShipHandle]
	Bullets *entity.Pool[*BulletEntity, entity.BulletHandle]
}

// NewWorld creates an empty entity world.
func NewWorld() *World {
	return &World{
		Ships: entity.NewPool[*ShipEntity](func(slot, generation uint32) entity.ShipHandle {
			return entity.ShipHandle{Slot: slot, Generation: generation}
		}),
		Bullets: entity.NewPool[*BulletEntity](func(slot, generation uint32) entity.BulletHandle {
			return entity.BulletHandle{Slot: slot, Generation: generation}
		}),
	}
}
