package sim

import (
	"github.com/lab1702/oort-sim/entity"
	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/sandbox"
)

// ControllerErrorKind enumerates the kinds of controller fault that
// can occur within a tick.
type ControllerErrorKind int

const (
	ErrControllerCompile ControllerErrorKind = iota
	ErrControllerRuntime
	ErrInvalidDebugPayload
)

// ControllerError records one tick's controller fault, keyed by the
// ship handle it occurred on.
type ControllerError struct {
	Handle entity.ShipHandle
	Kind   ControllerErrorKind
	Detail string
}

// ParticleEvent is an ephemeral renderer-only visual produced this
// tick.
type ParticleEvent struct {
	Position physics.Vec2
	Velocity physics.Vec2
	Color    [4]float32
	Lifetime float64
}

// DebugLineEvent groups a debug line with the ship that produced it.
type DebugLineEvent struct {
	Handle entity.ShipHandle
	Line   sandbox.DebugLine
}

// DebugTextEvent groups debug/drawn text with the ship that produced
// it.
type DebugTextEvent struct {
	Handle entity.ShipHandle
	Text   string
}

// Events is the per-tick event buffer cleared at the start of every
// tick.
type Events struct {
	Errors     []ControllerError
	Particles  []ParticleEvent
	DebugLines []DebugLineEvent
	DebugTexts []DebugTextEvent
	DrawnTexts []DebugTextEvent
}

// Clear discards the previous tick's events.
func (e *Events) Clear() {
	e.Errors = e.Errors[:0]
	e.Particles = e.Particles[:0]
	e.DebugLines = e.DebugLines[:0]
	e.DebugTexts = e.DebugTexts[:0]
	e.DrawnTexts = e.DrawnTexts[:0]
}
