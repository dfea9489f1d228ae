// Package sandbox runs each team's compiled controller as a
// WebAssembly module exposing a fixed-offset SYSTEM_STATE page of f64
// words, ticked under a per-call gas budget. Built on
// github.com/wasmerio/wasmer-go for the runtime bindings.
package sandbox

// Field is one ordinal position in the SYSTEM_STATE array: kinematics,
// actuators, four gun aim/fire pairs, radar registers, radar contact,
// max accelerations, debug buffers, current tick, ability activation,
// eight radio groups, selected radio, explode, seed, and a legacy
// always-zero orders field.
type Field int

const (
	FieldClass Field = iota
	FieldPositionX
	FieldPositionY
	FieldVelocityX
	FieldVelocityY
	FieldHeading
	FieldAngularVelocity

	FieldAccelerate
	FieldAccelerateLateral
	FieldTorque

	FieldGun0Aim
	FieldGun0Fire
	FieldGun1Aim
	FieldGun1Fire
	FieldGun2Aim
	FieldGun2Fire
	FieldGun3Aim
	FieldGun3Fire

	FieldRadarHeading
	FieldRadarWidth
	FieldRadarMinDistance
	FieldRadarMaxDistance

	FieldRadarContactFound
	FieldRadarContactClass
	FieldRadarContactPositionX
	FieldRadarContactPositionY
	FieldRadarContactVelocityX
	FieldRadarContactVelocityY

	FieldMaxForwardAcceleration
	FieldMaxBackwardAcceleration
	FieldMaxLateralAcceleration
	FieldMaxAngularAcceleration

	FieldDebugTextPointer
	FieldDebugTextLength
	FieldDebugLinesPointer
	FieldDebugLinesLength
	FieldDrawnTextPointer
	FieldDrawnTextLength

	FieldCurrentTick
	FieldAbilityActivate

	// Eight radio groups, each (channel, send-flag, receive-flag, 4 data
	// words) = 7 words.
	FieldRadioGroupBase

	FieldSelectedRadio = FieldRadioGroupBase + 7*8
	FieldExplode       = FieldSelectedRadio + 1
	FieldSeed          = FieldExplode + 1

	// Legacy field, always zero on read and ignored on write.
	FieldOrders = FieldSeed + 1

	stateSize = FieldOrders + 1
)

// Size is the required length of the SYSTEM_STATE array in f64 words.
const Size = int(stateSize)

const maxDebugEntries = 128

// radioGroupOffset returns the base field index of radio channel group
// i (0..7).
func radioGroupOffset(i int) Field {
	return FieldRadioGroupBase + Field(i*7)
}
