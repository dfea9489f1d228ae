// Package radar implements the per-tick radar beam evaluation: RSSI
// computation, angular-sector detection, noisy scan results, and the
// spatial index used to prune candidates before the precise geometry
// test.
package radar

import "github.com/lab1702/oort-sim/physics"

// Entry is one indexed reflector: a ship's handle-carrying identity is
// left to the caller (Index is handle-agnostic, storing only an opaque
// id), its AABB center/radius, and arbitrary caller data retrieved by
// id from the caller's own ship table.
type Entry struct {
	ID     int
	Center physics.Vec2
	Radius float64
}

// Index is a grid-based spatial hash of reflectors, rebuilt once per
// tick. The scheduler builds a single index over every live ship; it is
// not split by team, and Evaluate skips candidates on the emitter's own
// team.
type Index struct {
	cellSize float64
	cells    map[cellKey][]int
	entries  []Entry
}

type cellKey struct{ cx, cy int32 }

// NewIndex builds an index over entries using cellSize as the bucket
// width; cellSize should be on the order of a typical radar's max
// detection range for good pruning.
func NewIndex(entries []Entry, cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = 1000
	}
	idx := &Index{cellSize: cellSize, cells: make(map[cellKey][]int), entries: entries}
	for i, e := range entries {
		idx.insert(i, e)
	}
	return idx
}

func (idx *Index) cellOf(p physics.Vec2) cellKey {
	return cellKey{
		cx: int32(floorDiv(p.X, idx.cellSize)),
		cy: int32(floorDiv(p.Y, idx.cellSize)),
	}
}

func floorDiv(v, d float64) int64 {
	q := v / d
	if q < 0 {
		return int64(q) - 1
	}
	return int64(q)
}

func (idx *Index) insert(i int, e Entry) {
	min := idx.cellOf(physics.Vec2{X: e.Center.X - e.Radius, Y: e.Center.Y - e.Radius})
	max := idx.cellOf(physics.Vec2{X: e.Center.X + e.Radius, Y: e.Center.Y + e.Radius})
	for cx := min.cx; cx <= max.cx; cx++ {
		for cy := min.cy; cy <= max.cy; cy++ {
			key := cellKey{cx, cy}
			idx.cells[key] = append(idx.cells[key], i)
		}
	}
}

// Query returns the (deduplicated) entries whose AABB overlaps the
// query AABB centered at center with the given half-extent.
func (idx *Index) Query(center physics.Vec2, halfExtent float64) []Entry {
	min := idx.cellOf(physics.Vec2{X: center.X - halfExtent, Y: center.Y - halfExtent})
	max := idx.cellOf(physics.Vec2{X: center.X + halfExtent, Y: center.Y + halfExtent})
	seen := make(map[int]bool)
	var out []Entry
	for cx := min.cx; cx <= max.cx; cx++ {
		for cy := min.cy; cy <= max.cy; cy++ {
			for _, i := range idx.cells[cellKey{cx, cy}] {
				if seen[i] {
					continue
				}
				seen[i] = true
				out = append(out, idx.entries[i])
			}
		}
	}
	return out
}
