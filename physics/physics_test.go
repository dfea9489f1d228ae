package physics

import (
	"math"
	"testing"
)

func TestNormalizeAngleRange(t *testing.T) {
	cases := []float64{-10, -math.Pi, 0, math.Pi, 2 * math.Pi, 100}
	for _, a := range cases {
		n := NormalizeAngle(a)
		if n < 0 || n >= 2*math.Pi {
			t.Fatalf("NormalizeAngle(%v) = %v, want [0, 2pi)", a, n)
		}
	}
}

func TestAngleDiffRange(t *testing.T) {
	for a := -10.0; a < 10.0; a += 0.7 {
		for b := -10.0; b < 10.0; b += 1.3 {
			d := AngleDiff(a, b)
			if d <= -math.Pi || d > math.Pi {
				t.Fatalf("AngleDiff(%v,%v) = %v, want (-pi, pi]", a, b, d)
			}
		}
	}
}

func TestInSectorFullCircle(t *testing.T) {
	for bearing := 0.0; bearing < 2*math.Pi; bearing += 0.3 {
		if !InSector(bearing, 1.2, math.Pi) {
			t.Fatalf("full-circle sector should detect bearing %v", bearing)
		}
	}
}

func TestInSectorNarrow(t *testing.T) {
	heading := 0.0
	width := math.Pi / 6 // total width; half-width pi/12
	if !InSector(0, heading, width/2) {
		t.Fatal("on-heading bearing should be inside narrow sector")
	}
	if InSector(math.Pi, heading, width/2) {
		t.Fatal("opposite bearing should be outside narrow sector")
	}
}

func TestInSectorReflexWidth(t *testing.T) {
	// halfWidth=2.0 rad exceeds pi/2, the range where the old
	// cross-product-of-edges test misclassified bearings near the far
	// side of the sector; exhaustively check every sampled bearing
	// against the AngleDiff-based definition directly.
	heading := 0.7
	halfWidth := 2.0
	const samples = 720
	for i := 0; i < samples; i++ {
		bearing := 2 * math.Pi * float64(i) / samples
		want := math.Abs(AngleDiff(heading, bearing)) <= halfWidth+1e-9
		got := InSector(bearing, heading, halfWidth)
		if got != want {
			t.Fatalf("InSector(%v, %v, %v) = %v, want %v", bearing, heading, halfWidth, got, want)
		}
	}
}

func TestWallBounceRestitutionOne(t *testing.T) {
	w := NewWorld(1000)
	b := &Body{Position: Vec2{X: 999.9, Y: 0}, LinVel: Vec2{X: 50, Y: 0}}
	w.Integrate(b)
	if b.Position.X != w.HalfSize {
		t.Fatalf("expected clamp to half size, got %v", b.Position.X)
	}
	if b.LinVel.X >= 0 {
		t.Fatalf("expected velocity to reflect, got %v", b.LinVel.X)
	}
}

func TestResolveBounceConservesOnlyWhenApproaching(t *testing.T) {
	a := &Body{Position: Vec2{X: 0, Y: 0}, LinVel: Vec2{X: 10, Y: 0}, Restitution: 1, Mass: 1}
	b := &Body{Position: Vec2{X: 1, Y: 0}, LinVel: Vec2{X: -10, Y: 0}, Restitution: 1, Mass: 1}
	ResolveBounce(a, b)
	if a.LinVel.X >= 0 || b.LinVel.X <= 0 {
		t.Fatalf("expected velocities to reverse, got a=%v b=%v", a.LinVel, b.LinVel)
	}
}
