package sandbox

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/wasmerio/wasmer-go/wasmer"
)

// GasPerTick is the per-call gas allowance reset before every
// controller invocation.
const GasPerTick int32 = 1_000_000

// MaxVMs is the number of WASM instances a team controller may keep
// warm, round-robining ships across them. This is an optimization, not
// a semantic requirement.
const MaxVMs = 1

// VM wraps one compiled team controller's WebAssembly instance: the
// linear memory, the SYSTEM_STATE page offset within it, and the three
// required exports.
type VM struct {
	store    *wasmer.Store
	instance *wasmer.Instance
	memory   *wasmer.Memory

	systemStatePtr int32

	tickShip   func(...interface{}) (interface{}, error)
	deleteShip func(...interface{}) (interface{}, error)
	resetGas   func(...interface{}) (interface{}, error)
}

// NewVM statically rewrites wasmBytes to insert gas metering (NewVM is
// the sandbox boundary: the external compiler service that turns
// player source into these bytes never sees a gas budget, so the
// rewrite has to happen here, not upstream), compiles the result, and
// links it with an empty import object: the sandbox contract gives the
// module no host imports beyond the memory and globals it exports
// itself.
func NewVM(wasmBytes []byte) (*VM, error) {
	rewritten, err := rewriteForGasMetering(wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("gas-meter rewrite: %w", err)
	}

	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	module, err := wasmer.NewModule(store, rewritten)
	if err != nil {
		return nil, fmt.Errorf("compile controller module: %w", err)
	}
	importObject := wasmer.NewImportObject()
	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, fmt.Errorf("instantiate controller module: %w", err)
	}
	memory, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, fmt.Errorf("controller module does not export memory: %w", err)
	}
	systemStateGlobal, err := instance.Exports.GetGlobal("SYSTEM_STATE")
	if err != nil {
		return nil, fmt.Errorf("controller module does not export SYSTEM_STATE: %w", err)
	}
	ptrVal, err := systemStateGlobal.Get()
	if err != nil {
		return nil, fmt.Errorf("read SYSTEM_STATE pointer: %w", err)
	}
	ptr, ok := ptrVal.(int32)
	if !ok {
		return nil, fmt.Errorf("SYSTEM_STATE global is not an i32 pointer")
	}

	tickShip, err := instance.Exports.GetFunction("export_tick_ship")
	if err != nil {
		return nil, fmt.Errorf("controller module does not export export_tick_ship: %w", err)
	}
	deleteShip, err := instance.Exports.GetFunction("export_delete_ship")
	if err != nil {
		return nil, fmt.Errorf("controller module does not export export_delete_ship: %w", err)
	}
	resetGas, err := instance.Exports.GetFunction("reset_gas")
	if err != nil {
		return nil, fmt.Errorf("controller module does not export reset_gas: %w", err)
	}

	return &VM{
		store: store, instance: instance, memory: memory,
		systemStatePtr: ptr,
		tickShip:       tickShip, deleteShip: deleteShip, resetGas: resetGas,
	}, nil
}

// fieldOffset returns the byte offset of field within the module's
// linear memory.
func (vm *VM) fieldOffset(f Field) int32 {
	return vm.systemStatePtr + int32(f)*8
}

// WriteField writes one f64 word into the SYSTEM_STATE page at field.
func (vm *VM) WriteField(f Field, v float64) {
	data := vm.memory.Data()
	off := vm.fieldOffset(f)
	binary.LittleEndian.PutUint64(data[off:off+8], math.Float64bits(v))
}

// ReadField reads one f64 word from the SYSTEM_STATE page at field,
// returning 0 in place of NaN/Infinity.
func (vm *VM) ReadField(f Field) float64 {
	data := vm.memory.Data()
	off := vm.fieldOffset(f)
	v := math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ReadBytes reads n bytes at a module-relative pointer, used for debug
// text/line buffers addressed by the pointer/length fields.
func (vm *VM) ReadBytes(ptr int32, n int32) []byte {
	if ptr < 0 || n < 0 {
		return nil
	}
	data := vm.memory.Data()
	if int(ptr)+int(n) > len(data) {
		return nil
	}
	out := make([]byte, n)
	copy(out, data[ptr:ptr+n])
	return out
}

// TickShip invokes reset_gas(GasPerTick) then export_tick_ship(index).
// A trap (including gas exhaustion) surfaces as an error of kind
// ControllerRuntime; the caller is responsible for leaving actuators
// at their tick defaults in that case.
func (vm *VM) TickShip(index int32) error {
	if _, err := vm.resetGas(GasPerTick); err != nil {
		return fmt.Errorf("reset_gas: %w", err)
	}
	if _, err := vm.tickShip(index); err != nil {
		return fmt.Errorf("controller trapped: %w", err)
	}
	return nil
}

// DeleteShip invokes export_delete_ship(index) when a ship is removed
// from this VM.
func (vm *VM) DeleteShip(index int32) error {
	_, err := vm.deleteShip(index)
	return err
}

// Close releases the underlying wasmer store.
func (vm *VM) Close() {
	vm.store.Close()
}
