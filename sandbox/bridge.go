package sandbox

import (
	"math"

	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/ship"
)

// DebugLine is one overlay primitive written by a controller: two
// endpoints plus a packed RGB color.
type DebugLine struct {
	X0, Y0, X1, Y1 float64
	RGB            uint32
}

// RadioGroupOut is one outbound radio group's send state after a tick.
type RadioGroupOut struct {
	Channel int
	Send    bool
	Payload [4]float64
}

// Actuators is everything the bridge reads back from SYSTEM_STATE after
// a controller call.
type Actuators struct {
	ForwardAccel float64
	LateralAccel float64
	Angular      float64

	GunAim  [4]float64
	GunFire [4]bool

	RadarHeading float64
	RadarWidth   float64

	AbilityActivate ship.AbilityKind
	Explode         bool

	RadioOut [8]RadioGroupOut

	DebugLines []DebugLine
	DebugText  []byte
	DrawnText  []byte
}

// TickInputs bundles everything the bridge publishes before a
// controller call.
type TickInputs struct {
	Tick           uint32
	Seed           uint64
	Class          ship.Class
	Position       physics.Vec2
	Velocity       physics.Vec2
	Heading        float64
	AngularVel     float64
	MaxForward     float64
	MaxBackward    float64
	MaxLateral     float64
	MaxAngular     float64
	RadarContact   *ship.ScanResult
	RadarHeading   float64
	RadarWidth     float64
	RadarMinDist   float64
	RadarMaxDist   float64
	RadioReceived  [8]*[4]float64
	RadioChannels  [8]int
}

func classOrdinal(c ship.Class) float64 { return float64(c) }

func classFromOrdinal(v float64) ship.Class {
	i := int(math.Round(v))
	if i < 0 || i > int(ship.ClassTorpedo) {
		return ship.ClassFighter
	}
	return ship.Class(i)
}

// Publish writes the pre-call SYSTEM_STATE fields.
func Publish(vm *VM, in TickInputs) {
	vm.WriteField(FieldCurrentTick, float64(in.Tick))
	vm.WriteField(FieldSeed, float64(in.Seed))
	vm.WriteField(FieldClass, classOrdinal(in.Class))
	vm.WriteField(FieldPositionX, in.Position.X)
	vm.WriteField(FieldPositionY, in.Position.Y)
	vm.WriteField(FieldVelocityX, in.Velocity.X)
	vm.WriteField(FieldVelocityY, in.Velocity.Y)
	vm.WriteField(FieldHeading, in.Heading)
	vm.WriteField(FieldAngularVelocity, in.AngularVel)
	vm.WriteField(FieldMaxForwardAcceleration, in.MaxForward)
	vm.WriteField(FieldMaxBackwardAcceleration, in.MaxBackward)
	vm.WriteField(FieldMaxLateralAcceleration, in.MaxLateral)
	vm.WriteField(FieldMaxAngularAcceleration, in.MaxAngular)

	vm.WriteField(FieldRadarHeading, in.RadarHeading)
	vm.WriteField(FieldRadarWidth, in.RadarWidth)
	vm.WriteField(FieldRadarMinDistance, in.RadarMinDist)
	vm.WriteField(FieldRadarMaxDistance, in.RadarMaxDist)

	if in.RadarContact != nil {
		vm.WriteField(FieldRadarContactFound, 1)
		vm.WriteField(FieldRadarContactClass, classOrdinal(in.RadarContact.Class))
		vm.WriteField(FieldRadarContactPositionX, in.RadarContact.Position.X)
		vm.WriteField(FieldRadarContactPositionY, in.RadarContact.Position.Y)
		vm.WriteField(FieldRadarContactVelocityX, in.RadarContact.Velocity.X)
		vm.WriteField(FieldRadarContactVelocityY, in.RadarContact.Velocity.Y)
	} else {
		vm.WriteField(FieldRadarContactFound, 0)
	}

	// Always-zero legacy field; no controller currently reads it.
	vm.WriteField(FieldOrders, 0)

	for i := 0; i < 8; i++ {
		base := radioGroupOffset(i)
		vm.WriteField(base, float64(in.RadioChannels[i]))
		if in.RadioReceived[i] != nil {
			vm.WriteField(base+2, 1)
			for w := 0; w < 4; w++ {
				vm.WriteField(base+3+Field(w), in.RadioReceived[i][w])
			}
		} else {
			vm.WriteField(base+2, 0)
		}
	}
}

// Read reads back the post-call actuator fields, dropping non-finite
// values per ReadField and validating debug buffers.
func Read(vm *VM) Actuators {
	var out Actuators
	out.ForwardAccel = vm.ReadField(FieldAccelerate)
	out.LateralAccel = vm.ReadField(FieldAccelerateLateral)
	out.Angular = vm.ReadField(FieldTorque)

	gunFields := [4][2]Field{
		{FieldGun0Aim, FieldGun0Fire}, {FieldGun1Aim, FieldGun1Fire},
		{FieldGun2Aim, FieldGun2Fire}, {FieldGun3Aim, FieldGun3Fire},
	}
	for i, f := range gunFields {
		out.GunAim[i] = vm.ReadField(f[0])
		out.GunFire[i] = vm.ReadField(f[1]) != 0
	}

	out.RadarHeading = vm.ReadField(FieldRadarHeading)
	out.RadarWidth = vm.ReadField(FieldRadarWidth)

	out.AbilityActivate = ship.AbilityKind(int(vm.ReadField(FieldAbilityActivate)))
	out.Explode = vm.ReadField(FieldExplode) != 0

	for i := 0; i < 8; i++ {
		base := radioGroupOffset(i)
		send := vm.ReadField(base+1) != 0
		var payload [4]float64
		for w := 0; w < 4; w++ {
			payload[w] = vm.ReadField(base + 3 + Field(w))
		}
		out.RadioOut[i] = RadioGroupOut{Channel: int(vm.ReadField(base)), Send: send, Payload: payload}
	}

	out.DebugLines = readDebugLines(vm)
	out.DebugText = readBuffer(vm, FieldDebugTextPointer, FieldDebugTextLength)
	out.DrawnText = readBuffer(vm, FieldDrawnTextPointer, FieldDrawnTextLength)

	return out
}

func readBuffer(vm *VM, ptrField, lenField Field) []byte {
	ptr := int32(vm.ReadField(ptrField))
	n := int32(vm.ReadField(lenField))
	if n <= 0 || n > 64*1024 {
		return nil
	}
	return vm.ReadBytes(ptr, n)
}

// readDebugLines reads and validates the debug line buffer: capped at
// 128 entries, every coordinate must be finite or the whole array is
// dropped.
func readDebugLines(vm *VM) []DebugLine {
	ptr := int32(vm.ReadField(FieldDebugLinesPointer))
	count := int32(vm.ReadField(FieldDebugLinesLength))
	if count <= 0 {
		return nil
	}
	if count > maxDebugEntries {
		return nil
	}
	const recordSize = 5 * 8 // 5 f64 words per record
	raw := vm.ReadBytes(ptr, count*recordSize)
	if raw == nil {
		return nil
	}
	lines := make([]DebugLine, count)
	for i := int32(0); i < count; i++ {
		off := i * recordSize
		x0 := readF64LE(raw, off)
		y0 := readF64LE(raw, off+8)
		x1 := readF64LE(raw, off+16)
		y1 := readF64LE(raw, off+24)
		rgb := readF64LE(raw, off+32)
		if !allFinite(x0, y0, x1, y1) {
			return nil
		}
		lines[i] = DebugLine{X0: x0, Y0: y0, X1: x1, Y1: y1, RGB: uint32(rgb)}
	}
	return lines
}

func readF64LE(b []byte, off int32) float64 {
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(b[int(off)+i]) << (8 * i)
	}
	return math.Float64frombits(bits)
}

func allFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
