// Package physics implements the 2-D rigid-body world: ship and bullet
// kinematics, wall bounce, convex-hull collision detection, and the
// continuous-collision sweep for high-speed bullets. It hand-rolls
// integration rather than pulling in a physics engine, so it has no
// third-party dependency.
package physics

import "math"

// Vec2 is a 2-D vector or point, always in world-space meters unless
// documented otherwise.
type Vec2 struct {
	X, Y float64
}

func (a Vec2) Add(b Vec2) Vec2      { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2      { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2 { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64   { return a.X*b.X + a.Y*b.Y }
func (a Vec2) LengthSq() float64    { return a.Dot(a) }
func (a Vec2) Length() float64      { return math.Sqrt(a.LengthSq()) }

func (a Vec2) Normalized() Vec2 {
	l := a.Length()
	if l == 0 {
		return Vec2{}
	}
	return a.Scale(1 / l)
}

// Rotate returns a vector of the given length pointed at angle (radians,
// standard math convention: 0 = +X, increasing counter-clockwise).
func Rotate(angle, length float64) Vec2 {
	return Vec2{X: math.Cos(angle) * length, Y: math.Sin(angle) * length}
}

// RotateVec rotates v by angle around the origin.
func RotateVec(v Vec2, angle float64) Vec2 {
	s, c := math.Sincos(angle)
	return Vec2{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// NormalizeAngle wraps a into [0, 2*pi), the invariant every stored
// heading must satisfy.
func NormalizeAngle(a float64) float64 {
	const tau = 2 * math.Pi
	a = math.Mod(a, tau)
	if a < 0 {
		a += tau
	}
	return a
}

// AngleDiff returns the minimal signed rotation from a to b, in
// (-pi, pi].
func AngleDiff(a, b float64) float64 {
	const tau = 2 * math.Pi
	d := math.Mod(b-a, tau)
	if d > math.Pi {
		d -= tau
	} else if d <= -math.Pi {
		d += tau
	}
	return d
}

// InSector reports whether bearing lies within [heading-halfWidth,
// heading+halfWidth] modulo 2*pi. The cross-product-of-edges test only
// holds for halfWidth <= pi/2, so this measures the minimal signed
// rotation from heading to bearing instead and compares its magnitude
// against halfWidth directly; that stays correct all the way out to a
// full circle.
func InSector(bearing, heading, halfWidth float64) bool {
	if halfWidth >= math.Pi {
		return true
	}
	d := AngleDiff(heading, bearing)
	return d >= -halfWidth-1e-12 && d <= halfWidth+1e-12
}
