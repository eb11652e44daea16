package descriptor

import (
	"bytes"
	"testing"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

func TestUniformHandleSetWritesAtReflectedOffset(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	u := m.CreateUniform(32, []UniformField{
		{Name: "color", Offset: 0, Size: 16},
		{Name: "intensity", Offset: 16, Size: 4},
	})

	color := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if err := u.Set("color", color); err != nil {
		t.Fatalf("Set(color): %v", err)
	}
	if !bytes.Equal(u.Bytes()[0:16], color) {
		t.Fatalf("color bytes not written at offset 0")
	}
	if u.Bytes()[16] != 0 {
		t.Fatalf("Set(color) must not touch bytes beyond its own field")
	}
}

func TestUniformHandleSetRejectsUnknownField(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	u := m.CreateUniform(16, []UniformField{{Name: "a", Offset: 0, Size: 4}})
	if err := u.Set("b", []byte{0, 0, 0, 0}); err == nil {
		t.Fatalf("expected an error for an unknown field name")
	}
}

func TestUniformHandleSetRejectsWidthMismatch(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	u := m.CreateUniform(16, []UniformField{{Name: "a", Offset: 0, Size: 4}})
	if err := u.Set("a", []byte{0, 0, 0}); err == nil {
		t.Fatalf("expected an error for a value shorter than the field's reflected size")
	}
}
