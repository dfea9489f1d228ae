// Package ship implements the per-class ship tables and the weapon,
// launcher, and ability state machines: each class is a static data
// row plus a runtime state machine for firing, reloading, and ability
// cooldowns.
package ship

import "math"

// Class identifies a ship's class. Asteroid also carries a variant
// that perturbs its size.
type Class int

const (
	ClassFighter Class = iota
	ClassFrigate
	ClassCruiser
	ClassAsteroid
	ClassTarget
	ClassMissile
	ClassTorpedo
)

func (c Class) String() string {
	switch c {
	case ClassFighter:
		return "fighter"
	case ClassFrigate:
		return "frigate"
	case ClassCruiser:
		return "cruiser"
	case ClassAsteroid:
		return "asteroid"
	case ClassTarget:
		return "target"
	case ClassMissile:
		return "missile"
	case ClassTorpedo:
		return "torpedo"
	default:
		return "unknown"
	}
}

// GunSpec is the static configuration of one gun slot.
type GunSpec struct {
	MagazineSize int
	CycleTime    float64
	ReloadTime   float64
	Speed        float64
	SpeedError   float64
	OffsetX      float64
	OffsetY      float64
	MinAngle     float64
	MaxAngle     float64
	Inaccuracy   float64
	BurstSize    int
	TTL          float64
	BulletMass   float64
}

// LauncherSpec is the static configuration of one missile/torpedo
// launcher slot.
type LauncherSpec struct {
	Payload      Class
	ReloadTime   float64
	InitialSpeed float64
	OffsetX      float64
	OffsetY      float64
	Angle        float64
}

// AbilityKind enumerates the abilities a class may carry.
type AbilityKind int

const (
	AbilityNone AbilityKind = iota
	AbilityBoost
	AbilityShapedCharge
	AbilityDecoy
	AbilityShield
)

// AbilitySpec is the static configuration of one ability slot.
type AbilitySpec struct {
	Kind       AbilityKind
	ActiveTime float64
	Cooldown   float64
}

// RadarSpec is the static radar configuration a class is built with.
type RadarSpec struct {
	Power          float64
	RxCrossSection float64
	MinRSSI        float64
	ReliableRSSI   float64
	Heading        float64
	Width          float64
	MinWidth       float64
	MaxWidth       float64
	MinDistance    float64
	MaxDistance    float64
}

// RadioSpec is the static radio configuration a class is built with.
type RadioSpec struct {
	Power          float64
	RxCrossSection float64
	MinRSSI        float64
	Channel        int
}

// ClassData is the complete static table entry for a ship class.
type ClassData struct {
	Class                    Class
	Health                   float64
	MaxForwardAcceleration   float64
	MaxBackwardAcceleration  float64
	MaxLateralAcceleration   float64
	MaxAngularAcceleration   float64
	TTL                      int // ticks, 0 = none
	Guns                     []GunSpec
	Launchers                []LauncherSpec
	Radar                    *RadarSpec
	RadarCrossSection        float64
	Radio                    *RadioSpec
	Abilities                []AbilitySpec
	Restitution              float64
	HullRadius               float64
}

const tau = 2 * math.Pi

func defaultRadio() *RadioSpec {
	return &RadioSpec{Power: 20e3, RxCrossSection: 5.0, MinRSSI: 1e-5, Channel: 0}
}

func defaultRadar(power, rxCrossSection float64) *RadarSpec {
	// Full circle, 1km-ish band.
	return &RadarSpec{
		Power:          power,
		RxCrossSection: rxCrossSection,
		MinRSSI:        1e-5,
		ReliableRSSI:   1e-2,
		Heading:        0,
		Width:          tau,
		MinWidth:       1e-4,
		MaxWidth:       tau,
		MinDistance:    0,
		MaxDistance:    100_000,
	}
}

func vulcanGun() GunSpec {
	return GunSpec{
		MagazineSize: 30,
		CycleTime:    1.0 / 60.0 * 4.0,
		ReloadTime:   1.0,
		Speed:        1000.0,
		Inaccuracy:   0.0025,
		BurstSize:    1,
		TTL:          5.0,
		BulletMass:   0.1,
		MaxAngle:     0,
	}
}

// Fighter is the light combatant: fast, one vulcan gun, one missile
// launcher, Boost ability.
func Fighter(_ int) ClassData {
	gun := vulcanGun()
	gun.OffsetX = 20.0
	return ClassData{
		Class:                   ClassFighter,
		Health:                  100.0,
		MaxForwardAcceleration:  60.0,
		MaxBackwardAcceleration: 30.0,
		MaxLateralAcceleration:  30.0,
		MaxAngularAcceleration:  tau,
		Guns:                    []GunSpec{gun},
		Launchers: []LauncherSpec{{
			Payload: ClassMissile, ReloadTime: 5.0, InitialSpeed: 100.0, OffsetX: 20.0,
		}},
		Radar:             defaultRadar(20e3, 5.0),
		RadarCrossSection: 10.0,
		Radio:             defaultRadio(),
		Abilities:         []AbilitySpec{{Kind: AbilityBoost, ActiveTime: 2.0, Cooldown: 10.0}},
		Restitution:       0.1,
		HullRadius:        15,
	}
}

// Frigate is the mid-weight combatant: slow, heavily armed with two
// turreted vulcans plus a heavy forward gun.
func Frigate(_ int) ClassData {
	heavy := GunSpec{MagazineSize: 1, CycleTime: 2.0, ReloadTime: 0.0, Speed: 4000.0, BurstSize: 1, TTL: 5.0, BulletMass: 1.0, OffsetX: 40.0}
	turretTop := vulcanGun()
	turretTop.OffsetY = 15.0
	turretTop.MaxAngle = tau
	turretBottom := vulcanGun()
	turretBottom.OffsetY = -15.0
	turretBottom.MaxAngle = tau
	return ClassData{
		Class:                   ClassFrigate,
		Health:                  10000.0,
		MaxForwardAcceleration:  10.0,
		MaxBackwardAcceleration: 5.0,
		MaxLateralAcceleration:  5.0,
		MaxAngularAcceleration:  tau / 8.0,
		Guns:                    []GunSpec{heavy, turretTop, turretBottom},
		Launchers: []LauncherSpec{{
			Payload: ClassMissile, ReloadTime: 2.0, InitialSpeed: 100.0, OffsetX: 32.0,
		}},
		Radar:             defaultRadar(100e3, 10.0),
		RadarCrossSection: 30.0,
		Radio:             defaultRadio(),
		Restitution:       0.1,
		HullRadius:        30,
	}
}

// CruiserRadarCrossSection is exported because Decoy rewrites a
// detected reflector to present as a Cruiser with half this value.
const CruiserRadarCrossSection = 40.0

// Cruiser is the capital combatant: slow, a turreted burst gun, dual
// missile launchers plus a torpedo launcher.
func Cruiser(_ int) ClassData {
	gun := GunSpec{
		MagazineSize: 30, CycleTime: 0.4, ReloadTime: 1.0, Speed: 1000.0, SpeedError: 50.0,
		MaxAngle: tau, Inaccuracy: 0.02, BurstSize: 6, TTL: 1.0, BulletMass: 0.1,
	}
	missileLeft := LauncherSpec{Payload: ClassMissile, ReloadTime: 1.2, InitialSpeed: 100.0, OffsetY: 30.0, Angle: tau / 4.0}
	missileRight := LauncherSpec{Payload: ClassMissile, ReloadTime: 1.2, InitialSpeed: 100.0, OffsetY: -30.0, Angle: -tau / 4.0}
	torpedo := LauncherSpec{Payload: ClassTorpedo, ReloadTime: 3.0, InitialSpeed: 100.0, OffsetX: 100.0}
	return ClassData{
		Class:                   ClassCruiser,
		Health:                  20000.0,
		MaxForwardAcceleration:  5.0,
		MaxBackwardAcceleration: 2.5,
		MaxLateralAcceleration:  2.5,
		MaxAngularAcceleration:  tau / 16.0,
		Guns:                    []GunSpec{gun},
		Launchers:               []LauncherSpec{missileLeft, missileRight, torpedo},
		Radar:                   defaultRadar(200e3, 20.0),
		RadarCrossSection:       CruiserRadarCrossSection,
		Radio:                   defaultRadio(),
		Abilities:   []AbilitySpec{{Kind: AbilityShield, ActiveTime: 3.0, Cooldown: 15.0}},
		Restitution: 0.1,
		HullRadius:  50,
	}
}

// Asteroid is an inert obstacle/resource body. Like every class entry it
// carries no team; the team comes from the spawn that admits it.
func Asteroid(variant int) ClassData {
	return ClassData{
		Class:             ClassAsteroid,
		Health:            200.0,
		RadarCrossSection: 10.0,
		Restitution:       0.1,
		HullRadius:        20 + float64(variant%4)*5,
	}
}

// Target is a stationary practice reflector with minimal health.
func Target(_ int) ClassData {
	return ClassData{
		Class:             ClassTarget,
		Health:            1.0,
		RadarCrossSection: 10.0,
		Restitution:       0.1,
		HullRadius:        10,
	}
}

// Missile is a fast expendable projectile with ShapedCharge.
func Missile(_ int) ClassData {
	return ClassData{
		Class:                   ClassMissile,
		Health:                  20.0,
		MaxForwardAcceleration:  200.0,
		MaxBackwardAcceleration: 0.0,
		MaxLateralAcceleration:  50.0,
		MaxAngularAcceleration:  2.0 * tau,
		Radar:                   defaultRadar(1e3, 3.0),
		RadarCrossSection:       3.0,
		Radio:                   defaultRadio(),
		TTL:                     20 * 60,
		Abilities:               []AbilitySpec{{Kind: AbilityShapedCharge, ActiveTime: 1e6, Cooldown: 0}},
		Restitution:             0, // missiles do not bounce
		HullRadius:              3,
	}
}

// Torpedo is a slower, tougher expendable projectile with Decoy.
func Torpedo(_ int) ClassData {
	return ClassData{
		Class:                   ClassTorpedo,
		Health:                  100.0,
		MaxForwardAcceleration:  70.0,
		MaxBackwardAcceleration: 0.0,
		MaxLateralAcceleration:  20.0,
		MaxAngularAcceleration:  2.0 * tau,
		Radar:                   defaultRadar(10e3, 3.0),
		RadarCrossSection:       8.0,
		Radio:                   defaultRadio(),
		TTL:                     30 * 60,
		Abilities:               []AbilitySpec{{Kind: AbilityDecoy, ActiveTime: 0.5, Cooldown: 10.0}},
		Restitution:             0.1,
		HullRadius:              6,
	}
}

// Build returns the static class table entry for class, using variant
// for Asteroid. Team is accepted for symmetry with the per-class
// builder functions even though none of the current tables vary by
// team.
func Build(class Class, variant int, team int) ClassData {
	switch class {
	case ClassFighter:
		return Fighter(team)
	case ClassFrigate:
		return Frigate(team)
	case ClassCruiser:
		return Cruiser(team)
	case ClassAsteroid:
		return Asteroid(variant)
	case ClassTarget:
		return Target(team)
	case ClassMissile:
		return Missile(team)
	case ClassTorpedo:
		return Torpedo(team)
	default:
		return Fighter(team)
	}
}
