package sandbox

import "testing"

// buildMinimalModule assembles a syntactically valid module with one
// exported memory, one exported SYSTEM_STATE global, and one function
// (containing a loop) exported twice as export_tick_ship and
// export_delete_ship — just enough structure for rewriteForGasMetering
// to operate on, without needing a real wasmer runtime to construct it.
func buildMinimalModule(t *testing.T) []byte {
	t.Helper()

	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

	addSection := func(id byte, payload []byte) {
		out = append(out, id)
		out = putULEB128(out, uint64(len(payload)))
		out = append(out, payload...)
	}

	// Type section: one () -> () signature.
	typePayload := putULEB128(nil, 1)
	typePayload = append(typePayload, 0x60, 0x00, 0x00)
	addSection(1, typePayload)

	// Function section: one function using type 0.
	funcPayload := putULEB128(nil, 1)
	funcPayload = putULEB128(funcPayload, 0)
	addSection(3, funcPayload)

	// Memory section: one memory, min 1 page.
	memPayload := putULEB128(nil, 1)
	memPayload = append(memPayload, 0x00)
	memPayload = putULEB128(memPayload, 1)
	addSection(5, memPayload)

	// Global section: one immutable i32 SYSTEM_STATE pointer.
	globalEntry := []byte{0x7F, 0x00, 0x41, 0x08, 0x0B}
	globalPayload := putULEB128(nil, 1)
	globalPayload = append(globalPayload, globalEntry...)
	addSection(6, globalPayload)

	// Export section.
	addExport := func(buf []byte, name string, kind byte, idx uint32) []byte {
		buf = putULEB128(buf, uint64(len(name)))
		buf = append(buf, name...)
		buf = append(buf, kind)
		buf = putULEB128(buf, uint64(idx))
		return buf
	}
	exportPayload := putULEB128(nil, 4)
	exportPayload = addExport(exportPayload, "memory", 0x02, 0)
	exportPayload = addExport(exportPayload, "SYSTEM_STATE", 0x03, 0)
	exportPayload = addExport(exportPayload, "export_tick_ship", 0x00, 0)
	exportPayload = addExport(exportPayload, "export_delete_ship", 0x00, 0)
	addSection(7, exportPayload)

	// Code section: one function body with a loop that branches to
	// itself — exercises both the function-entry and loop-header
	// injection points.
	body := []byte{
		0x00,       // 0 local decl groups
		0x03, 0x40, // loop (empty blocktype)
		0x0C, 0x00, // br 0
		0x0B, // end (loop)
		0x0B, // end (function)
	}
	codePayload := putULEB128(nil, 1)
	codePayload = putULEB128(codePayload, uint64(len(body)))
	codePayload = append(codePayload, body...)
	addSection(10, codePayload)

	return out
}

func TestRewriteForGasMeteringAddsReservedGasExport(t *testing.T) {
	mod := buildMinimalModule(t)
	rewritten, err := rewriteForGasMetering(mod)
	if err != nil {
		t.Fatalf("rewriteForGasMetering: %v", err)
	}

	_, sections, err := splitWasmSections(rewritten)
	if err != nil {
		t.Fatalf("splitWasmSections(rewritten): %v", err)
	}

	var typeSec, funcSec, globalSec, exportSec, codeSec *wasmSection
	for i := range sections {
		switch sections[i].id {
		case 1:
			typeSec = &sections[i]
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

	if c, _, _ := splitVectorCount(typeSec.payload); c != 2 {
		t.Errorf("type count = %d, want 2", c)
	}
	if c, _, _ := splitVectorCount(funcSec.payload); c != 2 {
		t.Errorf("function count = %d, want 2", c)
	}
	if c, _, _ := splitVectorCount(globalSec.payload); c != 2 {
		t.Errorf("global count = %d, want 2", c)
	}

	exportCount, exportRest, err := splitVectorCount(exportSec.payload)
	if err != nil {
		t.Fatalf("splitVectorCount(exports): %v", err)
	}
	if exportCount != 5 {
		t.Fatalf("export count = %d, want 5", exportCount)
	}
	if !containsExport(exportRest, resetGasExportName) {
		t.Errorf("rewritten module does not export %q", resetGasExportName)
	}

	codeCount, pos, err := getULEB128(codeSec.payload, 0)
	if err != nil {
		t.Fatalf("read code count: %v", err)
	}
	if codeCount != 2 {
		t.Fatalf("code count = %d, want 2", codeCount)
	}
	firstBodyLen, _, err := getULEB128(codeSec.payload, pos)
	if err != nil {
		t.Fatalf("read first body size: %v", err)
	}
	// Original body was 7 bytes; two checkpoints (entry + loop header)
	// must have been spliced in.
	if firstBodyLen <= 7 {
		t.Errorf("instrumented body length = %d, want > 7 (checkpoints not inserted)", firstBodyLen)
	}
}

func containsExport(rest []byte, name string) bool {
	pos := 0
	for pos < len(rest) {
		nlen, next, err := getULEB128(rest, pos)
		if err != nil {
			return false
		}
		if next+int(nlen) > len(rest) {
			return false
		}
		candidate := string(rest[next : next+int(nlen)])
		pos = next + int(nlen) + 1 // name + kind byte
		idx, next2, err := getULEB128(rest, pos)
		_ = idx
		if err != nil {
			return false
		}
		pos = next2
		if candidate == name {
			return true
		}
	}
	return false
}

func TestDecodeWasmInstrRejectsSIMD(t *testing.T) {
	// 0xFD is the SIMD prefix, intentionally unsupported: a corrupt
	// skip-length here would silently misparse the rest of the
	// function, so this must fail closed instead of guessing.
	body := []byte{0x00, 0xFD, 0x00, 0x0B}
	if _, err := instrumentFunctionBody(body, 0); err == nil {
		t.Fatal("expected instrumentFunctionBody to reject a SIMD opcode, got nil error")
	}
}

func TestLEB128RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 63, 64, 127, 128, 300, 1 << 20} {
		buf := putULEB128(nil, v)
		got, n, err := getULEB128(buf, 0)
		if err != nil || n != len(buf) || got != v {
			t.Errorf("uleb128 round trip for %d: got=%d n=%d err=%v", v, got, n, err)
		}
	}
	for _, v := range []int64{0, 1, -1, 63, -64, 1000, -1000} {
		buf := putSLEB128(nil, v)
		got, n, err := getSLEB128(buf, 0)
		if err != nil || n != len(buf) || got != v {
			t.Errorf("sleb128 round trip for %d: got=%d n=%d err=%v", v, got, n, err)
		}
	}
}
