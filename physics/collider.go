package physics

import "math"

// Collider is a convex polygon in body-frame coordinates, the "convex
// hull collider derived from the class model" the world requires. It
// caches a bounding radius for cheap broad-phase rejection.
type Collider struct {
	Verts  []Vec2
	Radius float64
}

// NewCollider builds a collider from body-frame vertices, computing the
// bounding radius used for broad-phase tests.
func NewCollider(verts []Vec2) Collider {
	r := 0.0
	for _, v := range verts {
		if l := v.Length(); l > r {
			r = l
		}
	}
	return Collider{Verts: verts, Radius: r}
}

// CircleCollider approximates a hull with a regular polygon inscribed in
// the given radius; ship.NewShip uses it for every class, sized by the
// class's hull radius.
func CircleCollider(radius float64, sides int) Collider {
	if sides < 3 {
		sides = 8
	}
	verts := make([]Vec2, sides)
	for i := 0; i < sides; i++ {
		a := float64(i) / float64(sides) * 2 * math.Pi
		verts[i] = Rotate(a, radius)
	}
	return NewCollider(verts)
}

// WorldVerts transforms the collider's body-frame vertices into world
// space given a body pose.
func (c Collider) WorldVerts(pos Vec2, heading float64) []Vec2 {
	out := make([]Vec2, len(c.Verts))
	for i, v := range c.Verts {
		out[i] = RotateVec(v, heading).Add(pos)
	}
	return out
}

// axes returns the outward edge normals of a convex polygon, the
// candidate separating axes for SAT.
func axes(verts []Vec2) []Vec2 {
	out := make([]Vec2, len(verts))
	for i := range verts {
		a := verts[i]
		b := verts[(i+1)%len(verts)]
		edge := b.Sub(a)
		out[i] = Vec2{X: -edge.Y, Y: edge.X}.Normalized()
	}
	return out
}

func project(verts []Vec2, axis Vec2) (min, max float64) {
	min = math.Inf(1)
	max = math.Inf(-1)
	for _, v := range verts {
		d := v.Dot(axis)
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return
}

// PolygonsOverlap runs the separating-axis test between two convex
// polygons already in world space.
func PolygonsOverlap(a, b []Vec2) bool {
	for _, axis := range append(axes(a), axes(b)...) {
		aMin, aMax := project(a, axis)
		bMin, bMax := project(b, axis)
		if aMax < bMin || bMax < aMin {
			return false
		}
	}
	return true
}

// SegmentIntersectsPolygon reports whether the segment p0->p1 crosses
// any edge of, or originates inside, the world-space polygon verts.
// Bullets have no collider of their own; they are swept as segments
// against ship colliders each step.
func SegmentIntersectsPolygon(p0, p1 Vec2, verts []Vec2) bool {
	if pointInConvexPolygon(p0, verts) || pointInConvexPolygon(p1, verts) {
		return true
	}
	n := len(verts)
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		if segmentsIntersect(p0, p1, a, b) {
			return true
		}
	}
	return false
}

func pointInConvexPolygon(p Vec2, verts []Vec2) bool {
	n := len(verts)
	sign := 0
	for i := 0; i < n; i++ {
		a := verts[i]
		b := verts[(i+1)%n]
		edge := b.Sub(a)
		toP := p.Sub(a)
		cross := edge.X*toP.Y - edge.Y*toP.X
		if cross > 1e-9 {
			if sign < 0 {
				return false
			}
			sign = 1
		} else if cross < -1e-9 {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

func orient(a, b, c Vec2) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, c Vec2) bool {
	return math.Min(a.X, b.X) <= c.X && c.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= c.Y && c.Y <= math.Max(a.Y, b.Y)
}

func segmentsIntersect(p1, q1, p2, q2 Vec2) bool {
	o1 := orient(p1, q1, p2)
	o2 := orient(p1, q1, q2)
	o3 := orient(p2, q2, p1)
	o4 := orient(p2, q2, q1)

	if ((o1 > 0) != (o2 > 0)) && ((o3 > 0) != (o4 > 0)) {
		return true
	}
	if o1 == 0 && onSegment(p1, q1, p2) {
		return true
	}
	if o2 == 0 && onSegment(p1, q1, q2) {
		return true
	}
	if o3 == 0 && onSegment(p2, q2, p1) {
		return true
	}
	if o4 == 0 && onSegment(p2, q2, q1) {
		return true
	}
	return false
}
