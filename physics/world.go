package physics

import "math"

// Dt is the simulation's fixed timestep, 1/60 s.
const Dt = 1.0 / 60.0

// Body is a 2-D dynamic rigid body: a ship. Position/LinVel/Heading/
// AngVel are the ground truth for kinematics that the ship subsystem
// reads and writes forces/torque against.
type Body struct {
	Position    Vec2
	LinVel      Vec2
	Heading     float64
	AngVel      float64
	Collider    Collider
	Restitution float64
	Mass        float64
}

// Bullet has no collider; it is swept as a segment against ship
// colliders each step.
type Bullet struct {
	Position Vec2
	Velocity Vec2
	Prev     Vec2
}

// World holds the axis-aligned square boundary and advances bodies.
type World struct {
	HalfSize float64 // WORLD_SIZE/2
}

// NewWorld creates a world bounded by [-halfSize, halfSize] on each axis.
func NewWorld(halfSize float64) *World {
	return &World{HalfSize: halfSize}
}

// Integrate advances a ship body by one tick: position/heading
// integration plus axis-aligned wall bounce against the four world
// walls, which always bounce with restitution 1.
func (w *World) Integrate(b *Body) {
	b.Position = b.Position.Add(b.LinVel.Scale(Dt))
	b.Heading = NormalizeAngle(b.Heading + b.AngVel*Dt)

	if b.Position.X > w.HalfSize {
		b.Position.X = w.HalfSize
		b.LinVel.X = -math.Abs(b.LinVel.X)
	} else if b.Position.X < -w.HalfSize {
		b.Position.X = -w.HalfSize
		b.LinVel.X = math.Abs(b.LinVel.X)
	}
	if b.Position.Y > w.HalfSize {
		b.Position.Y = w.HalfSize
		b.LinVel.Y = -math.Abs(b.LinVel.Y)
	} else if b.Position.Y < -w.HalfSize {
		b.Position.Y = -w.HalfSize
		b.LinVel.Y = math.Abs(b.LinVel.Y)
	}
}

// IntegrateBullet advances a bullet, recording its swept segment for
// the collision pass, and sinks it if it crosses the world boundary.
func (w *World) IntegrateBullet(b *Bullet) (sunk bool) {
	b.Prev = b.Position
	b.Position = b.Position.Add(b.Velocity.Scale(Dt))
	if math.Abs(b.Position.X) > w.HalfSize || math.Abs(b.Position.Y) > w.HalfSize {
		return true
	}
	return false
}

// ApplyBoost adds the given amount of forward body-frame acceleration
// for this tick, used by the Boost ability while active.
func ApplyBoost(b *Body, accel float64) {
	f := Rotate(b.Heading, accel*Dt)
	b.LinVel = b.LinVel.Add(f)
}

// ApplyBodyFrameAccel integrates a class-clamped body-frame linear
// acceleration (forward/lateral) and angular acceleration for one tick.
func ApplyBodyFrameAccel(b *Body, linearBody Vec2, angular float64) {
	worldAccel := RotateVec(linearBody, b.Heading)
	b.LinVel = b.LinVel.Add(worldAccel.Scale(Dt))
	b.AngVel += angular * Dt
}

// ShipsOverlap reports whether two ship bodies' world-space hulls
// intersect, used by the ship-vs-ship collision resolution phase.
func ShipsOverlap(a, b Body) bool {
	va := a.Collider.WorldVerts(a.Position, a.Heading)
	vb := b.Collider.WorldVerts(b.Position, b.Heading)
	if a.Position.Sub(b.Position).Length() > a.Collider.Radius+b.Collider.Radius {
		return false
	}
	return PolygonsOverlap(va, vb)
}

// BulletHitsShip reports whether the bullet's swept segment this tick
// crosses the ship's world-space hull.
func BulletHitsShip(bullet Bullet, ship Body) bool {
	if bullet.Prev.Sub(ship.Position).Length() > ship.Collider.Radius+bullet.Prev.Sub(bullet.Position).Length() {
		return false
	}
	verts := ship.Collider.WorldVerts(ship.Position, ship.Heading)
	return SegmentIntersectsPolygon(bullet.Prev, bullet.Position, verts)
}

// ResolveBounce applies an elastic bounce between two ship bodies along
// the line connecting their centers, weighted by mass and each body's
// restitution.
func ResolveBounce(a, b *Body) {
	normal := b.Position.Sub(a.Position).Normalized()
	if normal.LengthSq() == 0 {
		normal = Vec2{X: 1}
	}
	relVel := a.LinVel.Sub(b.LinVel).Dot(normal)
	if relVel <= 0 {
		return // already separating
	}
	restitution := math.Min(a.Restitution, b.Restitution)
	invMassA, invMassB := invMass(a.Mass), invMass(b.Mass)
	j := -(1 + restitution) * relVel / (invMassA + invMassB)
	impulse := normal.Scale(j)
	a.LinVel = a.LinVel.Add(impulse.Scale(invMassA))
	b.LinVel = b.LinVel.Sub(impulse.Scale(invMassB))
}

func invMass(m float64) float64 {
	if m <= 0 {
		return 0
	}
	return 1 / m
}
