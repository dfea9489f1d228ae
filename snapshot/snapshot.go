// Package snapshot defines the immutable per-tick world view consumed
// by external renderers and tests, JSON-serializable for the transport
// package.
package snapshot

import (
	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/scenario"
	"github.com/lab1702/oort-sim/ship"
)

// ShipView is one ship's externally visible state this tick.
type ShipView struct {
	ID               uint64           `json:"id"`
	Position         physics.Vec2     `json:"position"`
	Velocity         physics.Vec2     `json:"velocity"`
	Heading          float64          `json:"heading"`
	AngularVelocity  float64          `json:"angular_velocity"`
	Team             int              `json:"team"`
	Class            ship.Class       `json:"class"`
	Health           float64          `json:"health"`
	ActiveAbilities  []ship.AbilityKind `json:"active_abilities,omitempty"`
}

// BulletView is one bullet's externally visible state this tick.
type BulletView struct {
	Position physics.Vec2 `json:"position"`
	Velocity physics.Vec2 `json:"velocity"`
	Color    [4]float32   `json:"color"`
	TTL      float64      `json:"ttl"`
}

// DebugLine is one debug overlay primitive, grouped by the ship id that
// produced it.
type DebugLine struct {
	ShipID         uint64  `json:"ship_id"`
	X0             float64 `json:"x0"`
	Y0             float64 `json:"y0"`
	X1             float64 `json:"x1"`
	Y1             float64 `json:"y1"`
	RGB            uint32  `json:"rgb"`
}

// DebugText is one debug text artifact, grouped by the ship id that
// produced it.
type DebugText struct {
	ShipID uint64 `json:"ship_id"`
	Text   string `json:"text"`
}

// ControllerError is one tick's recorded controller fault.
type ControllerError struct {
	ShipID uint64 `json:"ship_id"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ParticleEvent is an ephemeral renderer-only visual.
type ParticleEvent struct {
	Position physics.Vec2 `json:"position"`
	Velocity physics.Vec2 `json:"velocity"`
	Color    [4]float32   `json:"color"`
	Lifetime float64      `json:"lifetime"`
}

// Timing carries per-phase duration metrics for the tick, surfaced
// alongside the snapshot for observability tooling.
type Timing struct {
	TotalNanos    int64 `json:"total_ns"`
	PhysicsNanos  int64 `json:"physics_ns"`
	ControllerNanos int64 `json:"controller_ns"`
	RadarNanos    int64 `json:"radar_ns"`
}

// Snapshot is the complete immutable per-tick view.
type Snapshot struct {
	Tick       uint32              `json:"tick"`
	TickTime   float64             `json:"tick_time"`
	ScoreTime  float64             `json:"score_time"`
	Status     scenario.Status     `json:"status"`
	WinnerTeam int                 `json:"winner_team,omitempty"`

	Ships   []ShipView   `json:"ships"`
	Bullets []BulletView `json:"bullets"`

	OverlayLines []DebugLine       `json:"overlay_lines,omitempty"`
	DebugLines   []DebugLine       `json:"debug_lines,omitempty"`
	DebugTexts   []DebugText       `json:"debug_texts,omitempty"`
	DrawnTexts   []DebugText       `json:"drawn_texts,omitempty"`
	Particles    []ParticleEvent   `json:"particles,omitempty"`
	Errors       []ControllerError `json:"errors,omitempty"`

	Cheats bool   `json:"cheats"`
	Timing Timing `json:"timing"`
}
