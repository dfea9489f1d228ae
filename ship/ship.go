package ship

import (
	"math"
	"math/rand/v2"

	"github.com/lab1702/oort-sim/entity"
	"github.com/lab1702/oort-sim/physics"
)

// GunState is the mutable runtime state of one gun slot.
type GunState struct {
	Spec               GunSpec
	MagazineRemaining  int
	CycleRemaining     float64
	Angle              float64
	Fire               bool
}

// LauncherState is the mutable runtime state of one launcher slot.
type LauncherState struct {
	Spec             LauncherSpec
	ReloadRemaining  float64
}

// AbilityState is the mutable runtime state of one ability slot.
type AbilityState struct {
	Spec             AbilitySpec
	ActiveRemaining  float64
	CooldownRemaining float64
}

func (a AbilityState) Active() bool { return a.ActiveRemaining > 0 }

// Radar is the mutable runtime radar register block plus last scan
// result, read and written by the controller bridge.
type Radar struct {
	Spec       RadarSpec
	LastScan   *ScanResult
}

// ScanResult is the detected contact reported to a controller.
type ScanResult struct {
	Class    Class
	Position physics.Vec2
	Velocity physics.Vec2
}

// Radio is the mutable runtime radio register block.
type Radio struct {
	Spec            RadioSpec
	Channel         int
	PendingSend     *[4]float64
	PendingReceive  *[4]float64
}

// SpawnRequest describes a child ship to be admitted next tick, produced
// by a launcher firing.
type SpawnRequest struct {
	Class    Class
	Variant  int
	Team     int
	Position physics.Vec2
	Velocity physics.Vec2
	Heading  float64
}

// FragmentRequest describes one bullet fragment produced by an
// explosion.
type FragmentRequest struct {
	Position physics.Vec2
	Velocity physics.Vec2
	Mass     float64
	TTL      float64
	Team     int
}

// Ship is the full runtime state of one live ship: identity and class
// data, plus everything that isn't pure rigid-body kinematics (which
// lives in physics.Body, owned by the world).
type Ship struct {
	Handle  entity.ShipHandle
	Team    int
	Class   Class
	Variant int

	Health float64
	TTL    int // ticks remaining, -1 = no TTL
	Destroyed bool

	MaxForwardAcceleration  float64
	MaxBackwardAcceleration float64
	MaxLateralAcceleration  float64
	MaxAngularAcceleration  float64

	// Actuator inputs pending for this tick, body frame.
	PendingLinearAccel  physics.Vec2
	PendingAngularAccel float64

	Guns      []GunState
	Launchers []LauncherState
	Radar     *Radar
	Radio     *Radio
	Abilities []AbilityState

	RadarCrossSection float64

	Collider physics.Collider

	HasController bool
}

// NewShip builds a live ship from its class table entry: magazines
// filled, TTL set, cross section set.
func NewShip(handle entity.ShipHandle, team int, data ClassData, variant int) *Ship {
	guns := make([]GunState, len(data.Guns))
	for i, g := range data.Guns {
		guns[i] = GunState{Spec: g, MagazineRemaining: g.MagazineSize}
	}
	launchers := make([]LauncherState, len(data.Launchers))
	for i, l := range data.Launchers {
		launchers[i] = LauncherState{Spec: l}
	}
	abilities := make([]AbilityState, len(data.Abilities))
	for i, a := range data.Abilities {
		abilities[i] = AbilityState{Spec: a}
	}
	var radar *Radar
	if data.Radar != nil {
		radar = &Radar{Spec: *data.Radar}
	}
	var radio *Radio
	if data.Radio != nil {
		radio = &Radio{Spec: *data.Radio, Channel: data.Radio.Channel}
	}
	ttl := -1
	if data.TTL > 0 {
		ttl = data.TTL
	}
	return &Ship{
		Handle:                  handle,
		Team:                    team,
		Class:                   data.Class,
		Variant:                 variant,
		Health:                  data.Health,
		TTL:                     ttl,
		MaxForwardAcceleration:  data.MaxForwardAcceleration,
		MaxBackwardAcceleration: data.MaxBackwardAcceleration,
		MaxLateralAcceleration:  data.MaxLateralAcceleration,
		MaxAngularAcceleration:  data.MaxAngularAcceleration,
		Guns:                    guns,
		Launchers:               launchers,
		Radar:                   radar,
		Radio:                   radio,
		Abilities:               abilities,
		RadarCrossSection:       data.RadarCrossSection,
		Collider:                physics.CircleCollider(data.HullRadius, 8),
	}
}

// Accelerate clamps a requested body-frame linear acceleration to the
// ship's class limits and stores it as the pending actuator for this
// tick.
func (s *Ship) Accelerate(forward, lateral float64) {
	forward = clamp(forward, -s.MaxBackwardAcceleration, s.MaxForwardAcceleration)
	lateral = clamp(lateral, -s.MaxLateralAcceleration, s.MaxLateralAcceleration)
	s.PendingLinearAccel = physics.Vec2{X: forward, Y: lateral}
}

// Torque clamps a requested angular acceleration and stores it pending.
func (s *Ship) Torque(angular float64) {
	s.PendingAngularAccel = clamp(angular, -s.MaxAngularAcceleration, s.MaxAngularAcceleration)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BulletColorAlpha scales a bullet or fragment's render alpha with its
// mass, clamped to [0.5, 1.0].
func BulletColorAlpha(mass float64) float64 {
	return clamp(mass, 0.5, 1.0)
}

// Aim sets gun index's turret angle, wrapped into [0,2pi) then clamped
// to the gun's [min,max] bound.
func (s *Ship) Aim(index int, angle float64) {
	if index < 0 || index >= len(s.Guns) {
		return
	}
	g := &s.Guns[index]
	a := physics.NormalizeAngle(angle)
	if a < g.Spec.MinAngle {
		a = g.Spec.MinAngle
	} else if a > g.Spec.MaxAngle {
		a = g.Spec.MaxAngle
	}
	g.Angle = a
}

// RequestFire marks gun index to fire this tick if it is ready when
// FireGuns runs. Launchers are armed separately through FireLauncher,
// not through this index space.
func (s *Ship) RequestFire(index int, bodyHeading float64) {
	if index < 0 || index >= len(s.Guns) {
		return
	}
	s.Guns[index].Fire = true
}

// FireGuns resolves pending gun-fire flags into bullet bursts, advancing
// magazine/cycle/reload per the gun state machine. heading and
// position/velocity are the ship's current body pose.
func (s *Ship) FireGuns(position, velocity physics.Vec2, heading float64, rng *rand.Rand) []FragmentRequest {
	var bullets []FragmentRequest
	const epsilon = 1e-6
	for gi := range s.Guns {
		g := &s.Guns[gi]
		if !g.Fire {
			continue
		}
		g.Fire = false
		if g.CycleRemaining > epsilon {
			continue // cycle_remaining > eps produces no bullets
		}
		burst := g.Spec.BurstSize
		if burst < 1 {
			burst = 1
		}
		dt := physics.Dt / float64(burst)
		t := 0.0
		for i := 0; i < burst; i++ {
			angle := g.Angle
			if g.Spec.Inaccuracy > 0 {
				angle += (rng.Float64()*2 - 1) * g.Spec.Inaccuracy
			}
			speed := g.Spec.Speed
			if g.Spec.SpeedError > 0 {
				speed += (rng.Float64()*2 - 1) * g.Spec.SpeedError
			}
			dir := heading + angle
			v := velocity.Add(physics.Rotate(dir, speed))
			offset := physics.RotateVec(physics.Vec2{X: g.Spec.OffsetX, Y: g.Spec.OffsetY}, heading)
			p := position.Add(offset).Add(v.Scale(t))
			bullets = append(bullets, FragmentRequest{
				Position: p, Velocity: v, Mass: g.Spec.BulletMass,
				TTL: g.Spec.TTL + t, Team: s.Team,
			})
			t += dt
		}
		g.MagazineRemaining -= burst
		if g.MagazineRemaining <= 0 {
			g.MagazineRemaining = g.Spec.MagazineSize
			g.CycleRemaining = g.Spec.CycleTime + g.Spec.ReloadTime
		} else {
			g.CycleRemaining = g.Spec.CycleTime
		}
	}
	return bullets
}

// FireLauncher spawns a child ship if the launcher is off cooldown and
// sets its reload timer back to full; while reloading it returns nil and
// leaves the timer unchanged.
func (s *Ship) FireLauncher(index int, position, velocity physics.Vec2, heading float64) *SpawnRequest {
	if index < 0 || index >= len(s.Launchers) {
		return nil
	}
	l := &s.Launchers[index]
	if l.ReloadRemaining > 0 {
		return nil
	}
	l.ReloadRemaining = l.Spec.ReloadTime
	childHeading := physics.NormalizeAngle(heading + l.Spec.Angle)
	offset := physics.RotateVec(physics.Vec2{X: l.Spec.OffsetX, Y: l.Spec.OffsetY}, heading)
	v := velocity.Add(physics.Rotate(childHeading, l.Spec.InitialSpeed))
	return &SpawnRequest{
		Class: l.Spec.Payload, Team: s.Team,
		Position: position.Add(offset), Velocity: v, Heading: childHeading,
	}
}

// ActivateAbility arms an ability if it is off cooldown.
func (s *Ship) ActivateAbility(kind AbilityKind) {
	for i := range s.Abilities {
		a := &s.Abilities[i]
		if a.Spec.Kind != kind {
			continue
		}
		if a.CooldownRemaining > 0 {
			return
		}
		a.ActiveRemaining = a.Spec.ActiveTime - physics.Dt
		a.CooldownRemaining = a.Spec.Cooldown
		return
	}
}

// IsAbilityActive reports whether kind is currently active.
func (s *Ship) IsAbilityActive(kind AbilityKind) bool {
	for _, a := range s.Abilities {
		if a.Spec.Kind == kind {
			return a.Active()
		}
	}
	return false
}

// TickTimers advances gun cycle, launcher reload, TTL, and ability
// timers by one tick, returning true if TTL expiry triggered a
// self-destruct this tick.
func (s *Ship) TickTimers() (ttlExpired bool) {
	for i := range s.Guns {
		s.Guns[i].CycleRemaining = math.Max(0, s.Guns[i].CycleRemaining-physics.Dt)
	}
	for i := range s.Launchers {
		s.Launchers[i].ReloadRemaining = math.Max(0, s.Launchers[i].ReloadRemaining-physics.Dt)
	}
	for i := range s.Abilities {
		s.Abilities[i].ActiveRemaining = math.Max(0, s.Abilities[i].ActiveRemaining-physics.Dt)
		s.Abilities[i].CooldownRemaining = math.Max(0, s.Abilities[i].CooldownRemaining-physics.Dt)
	}
	if s.TTL >= 0 {
		s.TTL--
		if s.TTL <= 0 {
			return true
		}
	}
	return false
}

// Explode marks the ship destroyed and returns its fragment fan; it is
// a no-op on a second call in the same tick, guaranteeing exactly one
// explosion event per ship.
func (s *Ship) Explode(position, velocity physics.Vec2, heading float64, rng *rand.Rand) []FragmentRequest {
	if s.Destroyed {
		return nil
	}
	s.Destroyed = true

	mass, count := 0.2, 20
	switch s.Class {
	case ClassMissile:
		mass, count = 0.25, 20
	case ClassTorpedo:
		mass, count = 0.25, 50
	}

	spread := 2 * math.Pi
	if s.IsAbilityActive(AbilityShapedCharge) {
		spread = 0.1
	} else if s.Class == ClassTorpedo {
		spread = 0.5
	}

	origin := position.Sub(velocity.Scale(physics.Dt))
	ttl := 5 * physics.Dt
	out := make([]FragmentRequest, 0, count)
	for i := 0; i < count; i++ {
		angle := heading + (rng.Float64()-0.5)*spread
		speed := 2000.0 * rng.Float64()
		v := velocity.Add(physics.Rotate(angle, speed))
		offset := v.Scale(rng.Float64() * physics.Dt)
		out = append(out, FragmentRequest{
			Position: origin.Add(offset), Velocity: v, Mass: mass, TTL: ttl, Team: s.Team,
		})
	}
	return out
}

// HandleCollision applies the class collision hook: missiles and
// torpedoes explode unconditionally on any contact.
func (s *Ship) HandleCollision(position, velocity physics.Vec2, heading float64, rng *rand.Rand) []FragmentRequest {
	if s.Class == ClassMissile || s.Class == ClassTorpedo {
		return s.Explode(position, velocity, heading, rng)
	}
	return nil
}

// ShieldActive reports whether this ship's Shield ability currently
// deflects incoming projectile damage.
func (s *Ship) ShieldActive() bool {
	return s.IsAbilityActive(AbilityShield)
}

// EffectiveRadarPresentation returns the class and cross section this
// ship presents to radar scans, applying the Decoy rewrite when
// active: a Decoying Torpedo presents as a Cruiser with half a
// Cruiser's cross section.
func (s *Ship) EffectiveRadarPresentation() (Class, float64) {
	if s.IsAbilityActive(AbilityDecoy) {
		return ClassCruiser, CruiserRadarCrossSection / 2
	}
	return s.Class, s.RadarCrossSection
}
