package shaderlib

// Handle is a weak reference to a Shader owned by a Library: an
// index/generation pair rather than a pointer (§9 "Weak shader
// references" — Go has no runtime.SetFinalizer/weak.Pointer idiom in the
// example pack, so the library's own generation counter per slot stands in
// for a weak pointer's upgrade-or-fail semantics). Upgrade fails cleanly
// once the library's generation for that slot has moved past the one
// recorded in the handle, e.g. after a reload that replaced the slot.
type Handle struct {
	index      uint32
	generation uint32
}

// Invalid is the zero Handle. Library reserves index 0 so a real shader
// handle's index is always >= 1.
var Invalid = Handle{}

func (h Handle) IsValid() bool { return h.index != 0 }

type slot struct {
	shader     *Shader
	generation uint32
	live       bool
}
