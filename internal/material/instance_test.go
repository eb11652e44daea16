package material

import (
	"testing"

	"github.com/BANANASJIM/violet/internal/descriptor"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

type fakeTexture struct{}

func (fakeTexture) View() vk.ImageView   { return vk.ImageView{} }
func (fakeTexture) Sampler() vk.Sampler { return vk.Sampler{} }

func newBindlessTestManager(t *testing.T) (*Manager, *descriptor.Manager) {
	t.Helper()
	mm, dm := newTestManager(t)
	if err := dm.InitBindless(descriptor.DescriptorLayoutDesc{
		Name:       "Bindless",
		IsBindless: true,
		Bindings: []descriptor.BindingDesc{
			{Binding: 0, Type: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, Stages: vk.SHADER_STAGE_FRAGMENT_BIT},
		},
	}); err != nil {
		t.Fatalf("InitBindless: %v", err)
	}
	return mm, dm
}

func TestSetBaseColorTextureAllocatesAndFreesBindlessIndex(t *testing.T) {
	mm, _ := newBindlessTestManager(t)
	mat, err := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	if err != nil {
		t.Fatalf("CreatePBRBindlessMaterial: %v", err)
	}
	id := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})
	inst, _ := mm.GetMaterialInstance(id)
	pbr := inst.(*PBRMaterialInstance)

	pbr.SetBaseColorTexture(fakeTexture{})
	if pbr.data.BaseColorTexIndex == 0 {
		t.Fatalf("expected a non-zero bindless index after SetBaseColorTexture")
	}
	first := pbr.data.BaseColorTexIndex

	pbr.SetBaseColorTexture(fakeTexture{})
	second := pbr.data.BaseColorTexIndex
	if second != first {
		t.Fatalf("setting a new texture frees the old index first, so the LIFO free list should hand it back: got %d, want %d", second, first)
	}

	pbr.SetBaseColorTexture(nil)
	if pbr.data.BaseColorTexIndex != 0 {
		t.Fatalf("clearing the texture should reset the bindless index to 0")
	}
}

func TestUpdateMaterialDataPreservesTextureIndices(t *testing.T) {
	mm, _ := newBindlessTestManager(t)
	mat, _ := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	id := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})
	inst, _ := mm.GetMaterialInstance(id)
	pbr := inst.(*PBRMaterialInstance)

	pbr.SetBaseColorTexture(fakeTexture{})
	wantIdx := pbr.data.BaseColorTexIndex

	pbr.UpdateMaterialData(MaterialData{Metallic: 0.25, Roughness: 0.75})
	if pbr.data.BaseColorTexIndex != wantIdx {
		t.Fatalf("UpdateMaterialData must preserve the existing base color texture index, got %d want %d", pbr.data.BaseColorTexIndex, wantIdx)
	}
	if pbr.data.Metallic != 0.25 || pbr.data.Roughness != 0.75 {
		t.Fatalf("UpdateMaterialData should overwrite non-texture fields")
	}
}

func TestDestroyMaterialInstanceFreesBindlessTextures(t *testing.T) {
	mm, dm := newBindlessTestManager(t)
	mat, _ := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	id := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})
	inst, _ := mm.GetMaterialInstance(id)
	pbr := inst.(*PBRMaterialInstance)
	pbr.SetBaseColorTexture(fakeTexture{})
	freed := pbr.data.BaseColorTexIndex

	mm.DestroyMaterialInstance(id)

	// The freed index should be handed back out by the next allocation.
	reused := dm.AllocateBindlessTexture(fakeTexture{})
	if reused == 0 || reused != freed {
		t.Fatalf("expected the freed bindless index %d to be reused after destroying the instance, got %d", freed, reused)
	}
}
