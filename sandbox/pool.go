package sandbox

import "fmt"

// TeamController owns up to MaxVMs warm WASM instances for one team's
// compiled code and round-robins ships across them.
type TeamController struct {
	Team       int
	wasmBytes  []byte
	vms        []*VM
	next       int
	shipToVM   map[int32]int // ship slot -> vm index
	slotCursor int32
}

// NewTeamController keeps wasmBytes for the team; AssignVM compiles and
// instantiates VMs from them lazily, up to MaxVMs, as ships are assigned.
func NewTeamController(team int, wasmBytes []byte) *TeamController {
	return &TeamController{Team: team, wasmBytes: wasmBytes, shipToVM: make(map[int32]int)}
}

// AssignVM returns the VM instance a given ship slot should use,
// allocating a new instance (up to MaxVMs) and round-robining
// thereafter.
func (tc *TeamController) AssignVM(shipSlot int32) (*VM, int32, error) {
	if vmIdx, ok := tc.shipToVM[shipSlot]; ok {
		return tc.vms[vmIdx], tc.slotIndexFor(shipSlot, vmIdx), nil
	}
	var vmIdx int
	if len(tc.vms) < MaxVMs {
		vm, err := NewVM(tc.wasmBytes)
		if err != nil {
			return nil, 0, fmt.Errorf("team %d: %w", tc.Team, err)
		}
		tc.vms = append(tc.vms, vm)
		vmIdx = len(tc.vms) - 1
	} else {
		vmIdx = tc.next
		tc.next = (tc.next + 1) % len(tc.vms)
	}
	tc.shipToVM[shipSlot] = vmIdx
	return tc.vms[vmIdx], tc.slotIndexFor(shipSlot, vmIdx), nil
}

// slotIndexFor returns the per-VM ship index passed to export_tick_ship
// and export_delete_ship: ships sharing a VM are keyed by their own
// slot so they never share per-ship heap state within the module.
func (tc *TeamController) slotIndexFor(shipSlot int32, vmIdx int) int32 {
	return shipSlot
}

// Forget releases a destroyed ship's VM assignment after DeleteShip has
// been invoked on its instance.
func (tc *TeamController) Forget(shipSlot int32) {
	delete(tc.shipToVM, shipSlot)
}

// Close releases every VM instance owned by this controller.
func (tc *TeamController) Close() {
	for _, vm := range tc.vms {
		vm.Close()
	}
}
