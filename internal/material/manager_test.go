package material

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/shaderlib"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

const testVertSource = "#version 450\nvoid main() { gl_Position = vec4(0.0); }\n"
const testFragSource = "#version 450\nlayout(location = 0) out vec4 outColor;\nvoid main() { outColor = vec4(1.0); }\n"

func loadTestShader(t *testing.T, lib *shaderlib.Library, name string, stage shaderlib.Stage) {
	t.Helper()
	source := testVertSource
	if stage == shaderlib.StageFragment {
		source = testFragSource
	}
	path := filepath.Join(t.TempDir(), name+".glsl")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write test shader source: %v", err)
	}
	if _, err := lib.Load(name, shaderlib.CompileInfo{
		Name: name, Path: path, EntryPoint: "main", Stage: stage, Language: shaderlib.LanguageGLSL,
	}); err != nil {
		t.Fatalf("load %q: %v", name, err)
	}
}

func newTestManager(t *testing.T) (*Manager, *descriptor.Manager) {
	t.Helper()
	dm := descriptor.NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	if err := dm.InitMaterialDataBuffer(MaterialDataSize, 64); err != nil {
		t.Fatalf("InitMaterialDataBuffer: %v", err)
	}

	lib := shaderlib.New(vk.Device{}, nil, nil, nil)
	loadTestShader(t, lib, "pbr.vert", shaderlib.StageVertex)
	loadTestShader(t, lib, "pbr.frag", shaderlib.StageFragment)

	mm := NewManager(dm, lib)
	mm.RegisterLayoutName("Global", dm.RegisterLayout(descriptor.DescriptorLayoutDesc{
		Name: "Global", Frequency: descriptor.PerFrame,
		Bindings: []descriptor.BindingDesc{{Binding: 0, Type: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Stages: vk.SHADER_STAGE_VERTEX_BIT | vk.SHADER_STAGE_FRAGMENT_BIT, Count: 1}},
	}))
	mm.RegisterLayoutName("Bindless", dm.RegisterLayout(descriptor.DescriptorLayoutDesc{
		Name: "Bindless", Frequency: descriptor.Static, IsBindless: true,
		Bindings: []descriptor.BindingDesc{{Binding: 0, Type: vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER, Stages: vk.SHADER_STAGE_FRAGMENT_BIT}},
	}))
	mm.RegisterLayoutName("MaterialData", dm.RegisterLayout(descriptor.DescriptorLayoutDesc{
		Name: "MaterialData", Frequency: descriptor.PerMaterial,
		Bindings: []descriptor.BindingDesc{{Binding: 0, Type: vk.DESCRIPTOR_TYPE_STORAGE_BUFFER, Stages: vk.SHADER_STAGE_FRAGMENT_BIT, Count: 1}},
	}))
	return mm, dm
}

func TestCreateMaterialResolvesLayoutNames(t *testing.T) {
	mm, _ := newTestManager(t)
	mat, err := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	if err != nil {
		t.Fatalf("CreatePBRBindlessMaterial: %v", err)
	}
	if len(mat.DeclaredLayoutHandles) != 3 {
		t.Fatalf("expected 3 declared layout handles, got %d", len(mat.DeclaredLayoutHandles))
	}
	if got, ok := mm.MaterialByName("pbr"); !ok || got != mat {
		t.Fatalf("material should be registered under its name")
	}
}

func TestCreateMaterialRejectsUnknownLayoutName(t *testing.T) {
	mm, _ := newTestManager(t)
	_, err := mm.CreateMaterial(CreateDesc{
		Name: "broken", VertexShader: "pbr.vert", FragmentShader: "pbr.frag",
		DescriptorSetLayoutNames: []string{"DoesNotExist"},
	})
	if err == nil {
		t.Fatalf("expected an error for an unknown descriptor set layout name")
	}
}

func TestCreateMaterialRejectsEmptyColorFormats(t *testing.T) {
	mm, _ := newTestManager(t)
	_, err := mm.CreateMaterial(CreateDesc{
		Name: "no-color", VertexShader: "pbr.vert", FragmentShader: "pbr.frag",
	})
	if err == nil {
		t.Fatalf("expected an error when color_formats is empty")
	}
}

func TestCreateMaterialInstanceAllocatesAndFreesRow(t *testing.T) {
	mm, _ := newTestManager(t)
	mat, err := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	if err != nil {
		t.Fatalf("CreatePBRBindlessMaterial: %v", err)
	}

	id := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})
	if id == 0 {
		t.Fatalf("expected a non-zero instance id")
	}
	inst, ok := mm.GetMaterialInstance(id)
	if !ok {
		t.Fatalf("instance should resolve")
	}
	if inst.MaterialID() == 0 {
		t.Fatalf("instance should have a non-zero material SSBO row id")
	}

	mm.DestroyMaterialInstance(id)
	if _, ok := mm.GetMaterialInstance(id); ok {
		t.Fatalf("destroyed instance id must not resolve")
	}
}

func TestInstanceIDReuseAfterDestroy(t *testing.T) {
	mm, _ := newTestManager(t)
	mat, _ := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)

	a := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})
	mm.DestroyMaterialInstance(a)
	b := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})
	if b != a {
		t.Fatalf("expected the freed instance id %d to be reused, got %d", a, b)
	}
}

func TestGlobalMaterialRegistryRoundTrip(t *testing.T) {
	mm, _ := newTestManager(t)
	mat, _ := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	id := mm.CreateMaterialInstance(CreateInstanceDesc{Material: mat, Type: TypePBR})

	globalID := uint64(7)<<16 | 3
	mm.RegisterGlobalMaterial(globalID, id)

	got, ok := mm.GetGlobalMaterial(globalID)
	if !ok {
		t.Fatalf("expected the global material to resolve")
	}
	if got.MaterialID() == 0 {
		t.Fatalf("resolved global material should have a valid material id")
	}
}
