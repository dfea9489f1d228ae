// Package entity implements generational handles and handle pools for
// ships and bullets, so a stale reference to a destroyed entity never
// silently aliases a later entity reusing the same slot.
package entity

import "fmt"

// ShipHandle names a ship by slot and generation. Two handles are equal
// only if both fields match; a slot's generation is bumped every time it
// is freed, so a handle captured before a death never refers to whatever
// is later admitted into that slot.
type ShipHandle struct {
	Slot       uint32
	Generation uint32
}

// BulletHandle names a bullet the same way ships are named.
type BulletHandle struct {
	Slot       uint32
	Generation uint32
}

func (h ShipHandle) String() string {
	return fmt.Sprintf("ship(%d,%d)", h.Slot, h.Generation)
}

func (h BulletHandle) String() string {
	return fmt.Sprintf("bullet(%d,%d)", h.Slot, h.Generation)
}

// Raw packs the handle into a single uint64 for hashing and
// serialization: the generation in the high bits, the slot in the low.
func (h ShipHandle) Raw() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Slot)
}

func (h BulletHandle) Raw() uint64 {
	return uint64(h.Generation)<<32 | uint64(h.Slot)
}

// Parts decomposes the handle for Pool's bookkeeping.
func (h ShipHandle) Parts() (slot, generation uint32) { return h.Slot, h.Generation }
func (h BulletHandle) Parts() (slot, generation uint32) { return h.Slot, h.Generation }

// Handle is any generational slot/generation pair Pool can hand out.
type Handle interface {
	Parts() (slot, generation uint32)
}

// Pool allocates and recycles generational slots of type T, naming them
// with handle type H (ShipHandle or BulletHandle). It never reuses a
// slot's generation, so handles are stable for the lifetime of the run
// even as slots are recycled.
type Pool[T any, H Handle] struct {
	items     []T
	live      []bool
	gens      []uint32
	freeList  []uint32
	newHandle func(slot, generation uint32) H
}

// NewPool creates an empty pool whose handles are constructed by
// newHandle, e.g. NewPool[*BulletEntity](func(slot, gen uint32) BulletHandle {...}).
func NewPool[T any, H Handle](newHandle func(slot, generation uint32) H) *Pool[T, H] {
	return &Pool[T, H]{newHandle: newHandle}
}

// Insert allocates a slot for value, returning its handle.
func (p *Pool[T, H]) Insert(value T) (H, uint32) {
	var slot uint32
	if n := len(p.freeList); n > 0 {
		slot = p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		p.items[slot] = value
		p.live[slot] = true
	} else {
		slot = uint32(len(p.items))
		p.items = append(p.items, value)
		p.live = append(p.live, true)
		p.gens = append(p.gens, 0)
	}
	return p.newHandle(slot, p.gens[slot]), slot
}

// Remove frees the slot named by handle, bumping its generation so any
// copy of the handle held elsewhere is recognized as stale.
func (p *Pool[T, H]) Remove(h H) bool {
	if !p.Contains(h) {
		return false
	}
	slot, _ := h.Parts()
	var zero T
	p.items[slot] = zero
	p.live[slot] = false
	p.gens[slot]++
	p.freeList = append(p.freeList, slot)
	return true
}

// Contains reports whether handle names a currently live entity.
func (p *Pool[T, H]) Contains(h H) bool {
	slot, generation := h.Parts()
	return int(slot) < len(p.items) && p.live[slot] && p.gens[slot] == generation
}

// Get returns the value named by handle, or false if it is stale or free.
func (p *Pool[T, H]) Get(h H) (T, bool) {
	if !p.Contains(h) {
		var zero T
		return zero, false
	}
	slot, _ := h.Parts()
	return p.items[slot], true
}

// GetPtr returns a pointer to the value named by handle for in-place
// mutation, or nil if it is stale or free.
func (p *Pool[T, H]) GetPtr(h H) *T {
	if !p.Contains(h) {
		return nil
	}
	slot, _ := h.Parts()
	return &p.items[slot]
}

// Set overwrites the value named by handle, returning false if stale.
func (p *Pool[T, H]) Set(h H, value T) bool {
	if !p.Contains(h) {
		return false
	}
	slot, _ := h.Parts()
	p.items[slot] = value
	return true
}

// Handles returns the handles of every live entity in slot order, which
// is the ascending-handle iteration order the scheduler requires.
func (p *Pool[T, H]) Handles() []H {
	out := make([]H, 0, len(p.items))
	for slot, live := range p.live {
		if live {
			out = append(out, p.newHandle(uint32(slot), p.gens[slot]))
		}
	}
	return out
}

// Len returns the number of live entities.
func (p *Pool[T, H]) Len() int {
	n := 0
	for _, live := range p.live {
		if live {
			n++
		}
	}
	return n
}
