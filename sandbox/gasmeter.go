package sandbox

import (
	"encoding/binary"
	"fmt"
)

// gasCostPerCheckpoint is the gas charged at every instrumented
// checkpoint (function entry, loop header). It is deliberately coarse:
// the invariant this buys is that a runaway loop traps in a bounded
// number of iterations, not that gas tracks wall-clock cost precisely.
const gasCostPerCheckpoint int32 = 1

// resetGasExportName is the export rewriteForGasMetering adds; TickShip
// calls it once per invocation to refill the gas counter.
const resetGasExportName = "reset_gas"

// rewriteForGasMetering statically instruments a compiled controller
// module's WebAssembly bytecode with gas metering: it appends a mutable
// i32 global (the gas counter), appends a reset_gas(amount) export that
// sets it, and splices a decrement-and-trap checkpoint into every
// function body at its entry and at every loop header. A module that
// burns through GasPerTick worth of checkpoints traps with an
// unreachable instruction instead of looping forever.
//
// Every addition is purely additive and appended at the end of its
// section's vector, so no existing type/function/global/export index
// referenced anywhere in the original bytecode shifts; only the new
// bytes this pass writes reference the new indices. Branch targets
// (br/br_if/br_table) are unaffected by splicing flat instructions
// into a function body because WASM branches address block nesting
// depth, not byte offsets, and the injected checkpoint opens and fully
// closes its own if/end block before control returns to the original
// instruction stream.
//
// This mirrors a well-known class of technique for metering WASM
// without engine-level fuel support (the kind of static rewrite used
// by Substrate/NEAR-style gas metering), not any single library: no
// Go package among the available dependencies performs WASM bytecode
// instrumentation, and wasmer-go does not expose the Rust
// wasmer_middlewares Metering pipeline at the version this module
// pins, so this is a hand-rolled, dependency-free binary rewriter
// built on encoding/binary the same way vm.go already hand-decodes the
// SYSTEM_STATE memory page.
func rewriteForGasMetering(wasmBytes []byte) ([]byte, error) {
	header, sections, err := splitWasmSections(wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("parse module: %w", err)
	}

	var typeSec, importSec, funcSec, globalSec, exportSec, codeSec *wasmSection
	for i := range sections {
		switch sections[i].id {
		case 1:
			typeSec = &sections[i]
		case 2:
			importSec = &sections[i]
		case 3:
			funcSec = &sections[i]
		case 6:
			globalSec = &sections[i]
		case 7:
			exportSec = &sections[i]
		case 10:
			codeSec = &sections[i]
		}
	}
	if typeSec == nil || funcSec == nil || globalSec == nil || exportSec == nil || codeSec == nil {
		return nil, fmt.Errorf("controller module is missing a section required for gas-meter rewrite")
	}

	importFuncCount, err := countFuncImports(importSec)
	if err != nil {
		return nil, fmt.Errorf("parse import section: %w", err)
	}

	globalCount, globalRest, err := splitVectorCount(globalSec.payload)
	if err != nil {
		return nil, fmt.Errorf("parse global section: %w", err)
	}
	gasGlobalIdx := uint32(globalCount)

	funcCount, funcRest, err := splitVectorCount(funcSec.payload)
	if err != nil {
		return nil, fmt.Errorf("parse function section: %w", err)
	}
	newFuncIdx := importFuncCount + uint32(funcCount)

	typeCount, typeRest, err := splitVectorCount(typeSec.payload)
	if err != nil {
		return nil, fmt.Errorf("parse type section: %w", err)
	}
	newTypeIdx := uint32(typeCount)

	exportCount, exportRest, err := splitVectorCount(exportSec.payload)
	if err != nil {
		return nil, fmt.Errorf("parse export section: %w", err)
	}

	codeCount, pos, err := getULEB128(codeSec.payload, 0)
	if err != nil {
		return nil, fmt.Errorf("parse code section: %w", err)
	}
	var newBodies []byte
	for i := uint64(0); i < codeCount; i++ {
		bodySize, next, err := getULEB128(codeSec.payload, pos)
		if err != nil {
			return nil, fmt.Errorf("parse code entry %d: %w", i, err)
		}
		if next+int(bodySize) > len(codeSec.payload) {
			return nil, fmt.Errorf("code entry %d overruns section", i)
		}
		body := codeSec.payload[next : next+int(bodySize)]
		instrumented, err := instrumentFunctionBody(body, gasGlobalIdx)
		if err != nil {
			return nil, fmt.Errorf("instrument function %d: %w", i, err)
		}
		newBodies = putULEB128(newBodies, uint64(len(instrumented)))
		newBodies = append(newBodies, instrumented...)
		pos = next + int(bodySize)
	}

	// reset_gas(amount i32): the single local (the parameter) written
	// straight into the gas global.
	resetGasBody := putULEB128(nil, 0)              // locals count = 0
	resetGasBody = append(resetGasBody, 0x20, 0x00) // local.get 0
	resetGasBody = append(resetGasBody, 0x24)       // global.set
	resetGasBody = putULEB128(resetGasBody, uint64(gasGlobalIdx))
	resetGasBody = append(resetGasBody, 0x0B) // end
	newBodies = putULEB128(newBodies, uint64(len(resetGasBody)))
	newBodies = append(newBodies, resetGasBody...)

	codeSec.payload = append(putULEB128(nil, codeCount+1), newBodies...)

	// (i32) -> (): reset_gas's signature.
	newType := []byte{0x60, 0x01, 0x7F, 0x00}
	typeSec.payload = appendVectorEntry(typeCount, typeRest, newType)

	newFuncEntry := putULEB128(nil, uint64(newTypeIdx))
	funcSec.payload = appendVectorEntry(funcCount, funcRest, newFuncEntry)

	// Mutable i32 global, initialized to 0; TickShip always calls
	// reset_gas before the module does anything that consumes it.
	newGlobal := []byte{0x7F, 0x01, 0x41, 0x00, 0x0B}
	globalSec.payload = appendVectorEntry(globalCount, globalRest, newGlobal)

	var newExport []byte
	newExport = putULEB128(newExport, uint64(len(resetGasExportName)))
	newExport = append(newExport, resetGasExportName...)
	newExport = append(newExport, 0x00) // export kind: func
	newExport = putULEB128(newExport, uint64(newFuncIdx))
	exportSec.payload = appendVectorEntry(exportCount, exportRest, newExport)

	return joinWasmSections(header, sections), nil
}

func appendVectorEntry(count uint64, rest, entry []byte) []byte {
	out := putULEB128(nil, count+1)
	out = append(out, rest...)
	out = append(out, entry...)
	return out
}

// instrumentFunctionBody splices a gas checkpoint at the start of body's
// expression (after its locals declarations) and immediately after every
// loop opcode's blocktype operand.
func instrumentFunctionBody(body []byte, gasGlobalIdx uint32) ([]byte, error) {
	localDeclCount, pos, err := getULEB128(body, 0)
	if err != nil {
		return nil, fmt.Errorf("read locals count: %w", err)
	}
	for i := uint64(0); i < localDeclCount; i++ {
		_, next, err := getULEB128(body, pos)
		if err != nil {
			return nil, fmt.Errorf("read local decl %d count: %w", i, err)
		}
		if next >= len(body) {
			return nil, fmt.Errorf("truncated local decl %d", i)
		}
		pos = next + 1 // valtype byte
	}
	exprStart := pos

	checkpoint := gasCheckpointBytes(gasGlobalIdx)
	inserts := []int{exprStart}

	for p := exprStart; p < len(body); {
		next, op, err := decodeWasmInstr(body, p)
		if err != nil {
			return nil, err
		}
		if op == 0x03 { // loop
			inserts = append(inserts, next)
		}
		p = next
	}

	out := make([]byte, 0, len(body)+len(checkpoint)*len(inserts))
	cursor := 0
	for _, at := range inserts {
		out = append(out, body[cursor:at]...)
		out = append(out, checkpoint...)
		cursor = at
	}
	out = append(out, body[cursor:]...)
	return out, nil
}

// gasCheckpointBytes assembles:
//
//	global.get G; i32.const cost; i32.sub; global.set G
//	global.get G; i32.const 0; i32.lt_s
//	if (empty); unreachable; end
//
// a self-contained, stack-neutral instruction sequence that decrements
// the gas global and traps once it goes negative. The if/end block it
// opens closes before control returns to the spliced-around code, so
// it never changes the label depth any later branch instruction sees.
func gasCheckpointBytes(globalIdx uint32) []byte {
	var b []byte
	b = append(b, 0x23) // global.get
	b = putULEB128(b, uint64(globalIdx))
	b = append(b, 0x41) // i32.const
	b = putSLEB128(b, int64(gasCostPerCheckpoint))
	b = append(b, 0x6B) // i32.sub
	b = append(b, 0x24) // global.set
	b = putULEB128(b, uint64(globalIdx))
	b = append(b, 0x23) // global.get
	b = putULEB128(b, uint64(globalIdx))
	b = append(b, 0x41, 0x00) // i32.const 0
	b = append(b, 0x48)       // i32.lt_s
	b = append(b, 0x04, 0x40) // if, empty blocktype
	b = append(b, 0x00)       // unreachable
	b = append(b, 0x0B)       // end
	return b
}

// decodeWasmInstr reads one instruction at pos, returning the position
// right after its opcode and any immediate operands. It supports the
// WASM MVP instruction set plus sign-extension, reference-type, and
// saturating-truncation opcodes — the set a Rust-to-wasm32 controller
// module realistically contains — and fails closed (rather than
// guessing a skip length) on anything else, including SIMD.
func decodeWasmInstr(b []byte, pos int) (next int, op byte, err error) {
	if pos >= len(b) {
		return 0, 0, fmt.Errorf("instruction read past end of function body")
	}
	op = b[pos]
	pos++
	switch {
	case op == 0x00 || op == 0x01: // unreachable, nop
	case op == 0x02 || op == 0x03 || op == 0x04: // block, loop, if: blocktype
		_, pos, err = getSLEB128(b, pos)
	case op == 0x05 || op == 0x0B: // else, end
	case op == 0x0C || op == 0x0D: // br, br_if
		_, pos, err = getULEB128(b, pos)
	case op == 0x0E: // br_table
		var n uint64
		n, pos, err = getULEB128(b, pos)
		for i := uint64(0); err == nil && i < n; i++ {
			_, pos, err = getULEB128(b, pos)
		}
		if err == nil {
			_, pos, err = getULEB128(b, pos) // default label
		}
	case op == 0x0F: // return
	case op == 0x10: // call
		_, pos, err = getULEB128(b, pos)
	case op == 0x11: // call_indirect
		_, pos, err = getULEB128(b, pos)
		if err == nil {
			_, pos, err = getULEB128(b, pos)
		}
	case op == 0x1A || op == 0x1B: // drop, select
	case op == 0x1C: // select t*
		var n uint64
		n, pos, err = getULEB128(b, pos)
		if err == nil {
			if pos+int(n) > len(b) {
				err = fmt.Errorf("truncated select type vector")
			} else {
				pos += int(n)
			}
		}
	case op >= 0x20 && op <= 0x22: // local.get/set/tee
		_, pos, err = getULEB128(b, pos)
	case op == 0x23 || op == 0x24: // global.get/set
		_, pos, err = getULEB128(b, pos)
	case op == 0x25 || op == 0x26: // table.get/set
		_, pos, err = getULEB128(b, pos)
	case op >= 0x28 && op <= 0x3E: // memory loads/stores: align, offset
		_, pos, err = getULEB128(b, pos)
		if err == nil {
			_, pos, err = getULEB128(b, pos)
		}
	case op == 0x3F || op == 0x40: // memory.size, memory.grow: reserved byte
		if pos >= len(b) {
			err = fmt.Errorf("truncated memory.size/grow")
		} else {
			pos++
		}
	case op == 0x41: // i32.const
		_, pos, err = getSLEB128(b, pos)
	case op == 0x42: // i64.const
		_, pos, err = getSLEB128(b, pos)
	case op == 0x43: // f32.const
		if pos+4 > len(b) {
			err = fmt.Errorf("truncated f32.const")
		} else {
			pos += 4
		}
	case op == 0x44: // f64.const
		if pos+8 > len(b) {
			err = fmt.Errorf("truncated f64.const")
		} else {
			pos += 8
		}
	case op >= 0x45 && op <= 0xC4: // comparisons, arithmetic, conversions, sign-extension: no immediate
	case op == 0xD0: // ref.null
		if pos >= len(b) {
			err = fmt.Errorf("truncated ref.null")
		} else {
			pos++
		}
	case op == 0xD1: // ref.is_null
	case op == 0xD2: // ref.func
		_, pos, err = getULEB128(b, pos)
	case op == 0xFC: // saturating truncation sub-opcodes 0-7; bulk memory unsupported
		var sub uint64
		sub, pos, err = getULEB128(b, pos)
		if err == nil && sub > 7 {
			err = fmt.Errorf("unsupported bulk-memory opcode 0xFC:%d", sub)
		}
	default:
		err = fmt.Errorf("unsupported opcode 0x%02x", op)
	}
	if err != nil {
		return 0, 0, err
	}
	return pos, op, nil
}

// wasmSection is one top-level (id, payload) section of a binary module.
type wasmSection struct {
	id      byte
	payload []byte
}

// splitWasmSections parses wasmBytes into its 8-byte header (magic +
// version) and ordered section list.
func splitWasmSections(wasmBytes []byte) (header []byte, sections []wasmSection, err error) {
	if len(wasmBytes) < 8 || string(wasmBytes[0:4]) != "\x00asm" {
		return nil, nil, fmt.Errorf("not a wasm binary module")
	}
	if binary.LittleEndian.Uint32(wasmBytes[4:8]) != 1 {
		return nil, nil, fmt.Errorf("unsupported wasm binary version")
	}
	header = append([]byte(nil), wasmBytes[0:8]...)
	pos := 8
	for pos < len(wasmBytes) {
		id := wasmBytes[pos]
		pos++
		size, next, err := getULEB128(wasmBytes, pos)
		if err != nil {
			return nil, nil, err
		}
		pos = next
		if pos+int(size) > len(wasmBytes) {
			return nil, nil, fmt.Errorf("section 0x%02x payload overruns module", id)
		}
		sections = append(sections, wasmSection{id: id, payload: wasmBytes[pos : pos+int(size)]})
		pos += int(size)
	}
	return header, sections, nil
}

func joinWasmSections(header []byte, sections []wasmSection) []byte {
	out := append([]byte(nil), header...)
	for _, s := range sections {
		out = append(out, s.id)
		out = putULEB128(out, uint64(len(s.payload)))
		out = append(out, s.payload...)
	}
	return out
}

// splitVectorCount reads the leading element-count varint shared by
// every section whose payload is a simple vector, returning the count
// and the raw bytes of the vector's existing elements.
func splitVectorCount(payload []byte) (count uint64, rest []byte, err error) {
	count, pos, err := getULEB128(payload, 0)
	if err != nil {
		return 0, nil, err
	}
	return count, payload[pos:], nil
}

// countFuncImports walks the import section (if present) to count how
// many entries are function imports, since those occupy the low end of
// the function index space ahead of every module-defined function.
func countFuncImports(importSec *wasmSection) (uint32, error) {
	if importSec == nil {
		return 0, nil
	}
	payload := importSec.payload
	count, pos, err := getULEB128(payload, 0)
	if err != nil {
		return 0, err
	}
	var funcCount uint32
	for i := uint64(0); i < count; i++ {
		nlen, next, err := getULEB128(payload, pos)
		if err != nil {
			return 0, err
		}
		pos = next + int(nlen)
		flen, next2, err := getULEB128(payload, pos)
		if err != nil {
			return 0, err
		}
		pos = next2 + int(flen)
		if pos >= len(payload) {
			return 0, fmt.Errorf("truncated import entry %d", i)
		}
		kind := payload[pos]
		pos++
		switch kind {
		case 0x00: // func: typeidx
			_, pos, err = getULEB128(payload, pos)
			if err != nil {
				return 0, err
			}
			funcCount++
		case 0x01: // table: reftype + limits
			if pos >= len(payload) {
				return 0, fmt.Errorf("truncated table import %d", i)
			}
			pos++
			pos, err = skipWasmLimits(payload, pos)
			if err != nil {
				return 0, err
			}
		case 0x02: // memory: limits
			pos, err = skipWasmLimits(payload, pos)
			if err != nil {
				return 0, err
			}
		case 0x03: // global: valtype + mutability
			if pos+1 >= len(payload) {
				return 0, fmt.Errorf("truncated global import %d", i)
			}
			pos += 2
		default:
			return 0, fmt.Errorf("unsupported import kind 0x%02x", kind)
		}
	}
	return funcCount, nil
}

func skipWasmLimits(b []byte, pos int) (int, error) {
	if pos >= len(b) {
		return 0, fmt.Errorf("truncated limits")
	}
	flag := b[pos]
	pos++
	_, pos, err := getULEB128(b, pos)
	if err != nil {
		return 0, err
	}
	if flag == 0x01 {
		_, pos, err = getULEB128(b, pos)
		if err != nil {
			return 0, err
		}
	}
	return pos, nil
}

// getULEB128 decodes an unsigned LEB128 varint starting at pos.
func getULEB128(b []byte, pos int) (uint64, int, error) {
	var result uint64
	var shift uint
	for {
		if pos >= len(b) {
			return 0, 0, fmt.Errorf("truncated uleb128")
		}
		c := b[pos]
		pos++
		result |= uint64(c&0x7f) << shift
		if c&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, fmt.Errorf("uleb128 overflow")
		}
	}
	return result, pos, nil
}

// getSLEB128 decodes a signed LEB128 varint starting at pos.
func getSLEB128(b []byte, pos int) (int64, int, error) {
	var result int64
	var shift uint
	var c byte
	for {
		if pos >= len(b) {
			return 0, 0, fmt.Errorf("truncated sleb128")
		}
		c = b[pos]
		pos++
		result |= int64(c&0x7f) << shift
		shift += 7
		if c&0x80 == 0 {
			break
		}
		if shift >= 64 {
			return 0, 0, fmt.Errorf("sleb128 overflow")
		}
	}
	if shift < 64 && c&0x40 != 0 {
		result |= -1 << shift
	}
	return result, pos, nil
}

// putULEB128 appends v to buf as an unsigned LEB128 varint.
func putULEB128(buf []byte, v uint64) []byte {
	for {
		c := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, c|0x80)
		} else {
			buf = append(buf, c)
			return buf
		}
	}
}

// putSLEB128 appends v to buf as a signed LEB128 varint.
func putSLEB128(buf []byte, v int64) []byte {
	more := true
	for more {
		c := byte(v & 0x7f)
		v >>= 7
		signBitSet := c&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			more = false
		} else {
			c |= 0x80
		}
		buf = append(buf, c)
	}
	return buf
}
