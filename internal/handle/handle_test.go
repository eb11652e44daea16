package handle

import "testing"

func TestTableAllocGetRoundTrip(t *testing.T) {
	tbl := NewTable[string]()
	h := tbl.Alloc("mesh.gltf")
	if !h.IsValid() {
		t.Fatalf("handle from Alloc must be valid")
	}
	got, ok := tbl.Get(h)
	if !ok || got != "mesh.gltf" {
		t.Fatalf("Get(%v) = (%q, %v), want (\"mesh.gltf\", true)", h, got, ok)
	}
}

func TestTableFreeInvalidatesGeneration(t *testing.T) {
	tbl := NewTable[int]()
	h := tbl.Alloc(42)
	if !tbl.Free(h) {
		t.Fatalf("Free of a live handle should succeed")
	}
	if _, ok := tbl.Get(h); ok {
		t.Fatalf("Get must fail for a freed handle")
	}
	if tbl.Free(h) {
		t.Fatalf("double Free must report failure")
	}
}

func TestTableReusesSlotWithBumpedGeneration(t *testing.T) {
	tbl := NewTable[int]()
	h1 := tbl.Alloc(1)
	tbl.Free(h1)
	h2 := tbl.Alloc(2)

	if h1.Index != h2.Index {
		t.Fatalf("expected slot reuse: h1.Index=%d h2.Index=%d", h1.Index, h2.Index)
	}
	if h1.Generation == h2.Generation {
		t.Fatalf("reused slot must have a bumped generation")
	}
	if _, ok := tbl.Get(h1); ok {
		t.Fatalf("stale handle into a reused slot must not resolve")
	}
	if v, ok := tbl.Get(h2); !ok || v != 2 {
		t.Fatalf("Get(h2) = (%d, %v), want (2, true)", v, ok)
	}
}

func TestInvalidHandleNeverResolves(t *testing.T) {
	tbl := NewTable[int]()
	tbl.Alloc(1)
	if _, ok := tbl.Get(Invalid); ok {
		t.Fatalf("the zero Handle must never resolve")
	}
}
