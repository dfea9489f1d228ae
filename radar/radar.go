package radar

import (
	"math"
	"math/rand/v2"

	"github.com/lab1702/oort-sim/physics"
	"github.com/lab1702/oort-sim/ship"
)

const tau = 2 * math.Pi

// referenceCrossSection is the reference cross section used when
// computing a beam's effective max range, equal to a Cruiser's radar
// cross section.
const referenceCrossSection = ship.CruiserRadarCrossSection

// RSSI computes the received signal strength for a reflector of cross
// section sigma at squared distance rSq, given an emitter of power and
// receive cross section rx, and beam width w: the return falls off
// with r^4 and inversely with beam width.
func RSSI(power, sigma, rx, w, rSq float64) float64 {
	if w <= 0 {
		w = 1e-9
	}
	return power * sigma * rx / (tau * w * rSq * rSq)
}

// rangeForRSSI inverts RSSI for r given a target rssi threshold,
// solving power*sigma*rx/(tau*w*r^4) = rssi for r.
func rangeForRSSI(power, sigma, rx, w, rssi float64) float64 {
	if rssi <= 0 {
		return math.Inf(1)
	}
	val := power * sigma * rx / (tau * w * rssi)
	if val <= 0 {
		return 0
	}
	return math.Pow(val, 0.25)
}

// Emitter is the subset of a radar-carrying ship's state the beam
// evaluation needs.
type Emitter struct {
	ShipID   int
	Team     int
	Position physics.Vec2
	Heading  float64
	Spec     ship.RadarSpec
}

// Reflector is the subset of any ship's state the beam evaluation needs
// to consider it as a possible detection.
type Reflector struct {
	ShipID      int
	Team        int
	Class       ship.Class
	CrossSection float64
	Position    physics.Vec2
	Velocity    physics.Vec2
}

// DebugLine is one radar debug overlay primitive.
type DebugLine struct {
	X0, Y0, X1, Y1 float64
	RGB            uint32
}

// ScanOutcome is the result of evaluating one emitter's beam this tick.
type ScanOutcome struct {
	Detected *ship.ScanResult
	Debug    []DebugLine
}

// worldMaxDistance bounds beam range when no tighter limit applies;
// matches the default radar's max_distance ceiling.
const worldMaxDistance = 100_000.0

// Evaluate runs one emitter's beam against the candidates returned by
// idx for the opposing team(s), implementing candidate selection,
// detection decision, and noisy scan generation.
func Evaluate(e Emitter, idx *Index, reflectorsByID map[int]Reflector, rng *rand.Rand, debug bool) ScanOutcome {
	width := clamp(e.Spec.Width, e.Spec.MinWidth, e.Spec.MaxWidth)
	maxRange := math.Min(e.Spec.MaxDistance, worldMaxDistance)
	maxRange = math.Min(maxRange, rangeForRSSI(e.Spec.Power, referenceCrossSection, e.Spec.RxCrossSection, width, e.Spec.MinRSSI))
	reliableRange := rangeForRSSI(e.Spec.Power, referenceCrossSection, e.Spec.RxCrossSection, width, e.Spec.ReliableRSSI)

	candidates := idx.Query(e.Position, maxRange)

	var best *Reflector
	var bestRSSI float64
	for _, c := range candidates {
		r, ok := reflectorsByID[c.ID]
		if !ok || r.Team == e.Team {
			continue
		}
		delta := r.Position.Sub(e.Position)
		rSq := delta.LengthSq()
		if rSq == 0 {
			continue
		}
		dist := math.Sqrt(rSq)
		if dist < e.Spec.MinDistance || dist > maxRange {
			continue
		}
		bearing := math.Atan2(delta.Y, delta.X)
		if !physics.InSector(bearing, e.Heading, width/2) {
			continue
		}
		rssi := RSSI(e.Spec.Power, r.CrossSection, e.Spec.RxCrossSection, width, rSq)
		if best == nil || rssi > bestRSSI {
			rr := r
			best = &rr
			bestRSSI = rssi
		}
	}

	out := ScanOutcome{}
	if debug {
		out.Debug = emitDebugLines(e, width, math.Min(maxRange, reliableRange))
	}

	if best == nil || bestRSSI < e.Spec.MinRSSI {
		return out
	}
	if bestRSSI < e.Spec.ReliableRSSI {
		// Unreliable: flip a biased coin to decide "no detection".
		p := 1.0 / math.Log2(2*e.Spec.ReliableRSSI/bestRSSI)
		if rng.Float64() >= p {
			return out
		}
	}

	delta := best.Position.Sub(e.Position)
	dist := delta.Length()
	bearing := math.Atan2(delta.Y, delta.X)

	noiseScale := 1.0 / bestRSSI
	noisyBearing := bearing + gaussian(rng)*noiseScale*1e-4
	halfWidth := width / 2
	noisyBearing = clampIntoSector(noisyBearing, e.Heading, halfWidth)
	noisyDist := clamp(dist+gaussian(rng)*noiseScale, e.Spec.MinDistance, e.Spec.MaxDistance)

	pos := e.Position.Add(physics.Rotate(noisyBearing, noisyDist))
	vel := best.Velocity.Add(physics.Vec2{X: gaussian(rng) * noiseScale, Y: gaussian(rng) * noiseScale})

	out.Detected = &ship.ScanResult{Class: best.Class, Position: pos, Velocity: vel}
	return out
}

func clampIntoSector(bearing, heading, halfWidth float64) float64 {
	if halfWidth >= math.Pi {
		return physics.NormalizeAngle(bearing)
	}
	d := physics.AngleDiff(heading, bearing)
	if d > halfWidth {
		d = halfWidth
	} else if d < -halfWidth {
		d = -halfWidth
	}
	return physics.NormalizeAngle(heading + d)
}

func emitDebugLines(e Emitter, width, outerRange float64) []DebugLine {
	half := width / 2
	inner := e.Spec.MinDistance
	var lines []DebugLine
	const arcSegments = 16
	addArc := func(radius float64) {
		for i := 0; i < arcSegments; i++ {
			a0 := e.Heading - half + width*float64(i)/float64(arcSegments)
			a1 := e.Heading - half + width*float64(i+1)/float64(arcSegments)
			p0 := e.Position.Add(physics.Rotate(a0, radius))
			p1 := e.Position.Add(physics.Rotate(a1, radius))
			lines = append(lines, DebugLine{p0.X, p0.Y, p1.X, p1.Y, 0x00ff00})
		}
	}
	addArc(inner)
	addArc(outerRange)
	edge0 := e.Position.Add(physics.Rotate(e.Heading-half, outerRange))
	edge1 := e.Position.Add(physics.Rotate(e.Heading+half, outerRange))
	lines = append(lines,
		DebugLine{e.Position.X, e.Position.Y, edge0.X, edge0.Y, 0x00ff00},
		DebugLine{e.Position.X, e.Position.Y, edge1.X, edge1.Y, 0x00ff00},
	)
	return lines
}

func gaussian(rng *rand.Rand) float64 {
	return rng.NormFloat64()
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
