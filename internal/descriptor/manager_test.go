package descriptor

import (
	"testing"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

func pbrLayout() DescriptorLayoutDesc {
	return DescriptorLayoutDesc{
		Name:      "material",
		Frequency: PerMaterial,
		Bindings: []BindingDesc{
			{Binding: 0, Type: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Stages: vk.SHADER_STAGE_FRAGMENT_BIT, Count: 1},
		},
	}
}

func TestRegisterLayoutDedupesByContent(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)

	a := m.RegisterLayout(pbrLayout())
	b := m.RegisterLayout(pbrLayout())
	if a != b {
		t.Fatalf("identical DescriptorLayoutDesc values produced different handles: %v vs %v", a, b)
	}

	renamed := pbrLayout()
	renamed.Name = "something_else"
	c := m.RegisterLayout(renamed)
	if a != c {
		t.Fatalf("Name must not participate in the hash: got %v, want %v", c, a)
	}

	different := pbrLayout()
	different.Bindings[0].Count = 2
	d := m.RegisterLayout(different)
	if d == a {
		t.Fatalf("differing binding count produced the same handle")
	}
}

func TestRegisterLayoutRejectsZeroCountNonBindless(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	desc := DescriptorLayoutDesc{
		Bindings: []BindingDesc{{Binding: 0, Type: vk.DESCRIPTOR_TYPE_SAMPLED_IMAGE, Count: 0}},
	}
	if h := m.RegisterLayout(desc); h != InvalidLayoutHandle {
		t.Fatalf("expected InvalidLayoutHandle for zero-count non-bindless binding, got %v", h)
	}
}

func TestAllocateSetGrowsPoolOnExhaustion(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 1)
	lh := m.RegisterLayout(pbrLayout())

	// PerMaterial multiplier is 100 * framesInFlight(1) = 100 sets per pool.
	for i := 0; i < 150; i++ {
		if _, err := m.AllocateSet(lh); err != nil {
			t.Fatalf("allocate_set #%d: %v", i, err)
		}
	}
	if got := len(m.poolsByFrequency[PerMaterial]); got < 2 {
		t.Fatalf("expected pool growth past the first pool's capacity, got %d pools", got)
	}
}

func TestBindlessFreeListReuseAndReservedRange(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	if err := m.InitBindless(DescriptorLayoutDesc{Name: "bindless", Frequency: Static}); err != nil {
		t.Fatalf("InitBindless: %v", err)
	}

	idx := m.AllocateBindlessTexture(nil)
	if idx < reservedTex2D {
		t.Fatalf("allocated index %d falls inside the reserved range [0,%d)", idx, reservedTex2D)
	}
	m.FreeBindlessTexture(idx)
	reused := m.AllocateBindlessTexture(nil)
	if reused != idx {
		t.Fatalf("expected LIFO free-list reuse of %d, got %d", idx, reused)
	}
}

func TestBindlessTextureTableExhaustionReturnsZero(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	if err := m.InitBindless(DescriptorLayoutDesc{Name: "bindless", Frequency: Static}); err != nil {
		t.Fatalf("InitBindless: %v", err)
	}
	for i := uint32(reservedTex2D); i < maxTex2D; i++ {
		if got := m.AllocateBindlessTexture(nil); got == 0 {
			t.Fatalf("table reported exhaustion early at iteration %d", i)
		}
	}
	if got := m.AllocateBindlessTexture(nil); got != 0 {
		t.Fatalf("expected 0 once the table is exhausted, got %d", got)
	}
}

func TestMaterialDataRoundTrip(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	if err := m.InitMaterialDataBuffer(16, 4); err != nil {
		t.Fatalf("InitMaterialDataBuffer: %v", err)
	}
	idx := m.AllocateMaterialData()
	if idx == 0 {
		t.Fatalf("allocate_material_data returned the reserved row on a fresh table")
	}
	row := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	m.UpdateMaterialData(idx, row)

	off := uint64(idx) * 16
	got := m.materialMapped[off : off+16]
	for i := range row {
		if got[i] != row[i] {
			t.Fatalf("material row mismatch at byte %d: got %d want %d", i, got[i], row[i])
		}
	}
	m.FreeMaterialData(idx)
}

func TestGetOrCreatePipelineLayoutCacheDedupesByLayoutSet(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	lh := m.RegisterLayout(pbrLayout())

	h1, _, err := m.GetOrCreatePipelineLayoutCache([]LayoutHandle{lh}, NoPushConstants)
	if err != nil {
		t.Fatalf("GetOrCreatePipelineLayoutCache: %v", err)
	}
	h2, _, err := m.GetOrCreatePipelineLayoutCache([]LayoutHandle{lh}, NoPushConstants)
	if err != nil {
		t.Fatalf("GetOrCreatePipelineLayoutCache (second call): %v", err)
	}
	if h1 != h2 {
		t.Fatalf("identical set-layout/push-constant combination produced different cache handles")
	}
}

func TestGetOrCreatePipelineLayoutCacheRejectsUnknownLayout(t *testing.T) {
	m := NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	if _, _, err := m.GetOrCreatePipelineLayoutCache([]LayoutHandle{LayoutHandle(0xDEADBEEF)}, NoPushConstants); err == nil {
		t.Fatalf("expected an error for an unregistered layout handle")
	}
}
