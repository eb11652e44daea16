package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/material"
	"github.com/BANANASJIM/violet/internal/mesh"
	"github.com/BANANASJIM/violet/internal/scene"
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

// newTestForwardRenderer builds a ForwardRenderer with a real (zero-device)
// PBR material, a single cube mesh, and empty mesh/material managers,
// mirroring internal/material's newTestManager pattern.
func newTestForwardRenderer(t *testing.T) (*ForwardRenderer, *mesh.Manager, mesh.Handle) {
	t.Helper()

	dm := descriptor.NewManager(vk.Device{}, vk.PhysicalDevice{}, 2)
	if err := dm.InitMaterialDataBuffer(material.MaterialDataSize, 64); err != nil {
		t.Fatalf("InitMaterialDataBuffer: %v", err)
	}

	lib := shaderlib.New(vk.Device{}, nil, nil, nil)
	loadTestShader(t, lib, "pbr.vert", shaderlib.StageVertex)
	loadTestShader(t, lib, "pbr.frag", shaderlib.StageFragment)

	mm := material.NewManager(dm, lib)
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

	pbrMat, err := mm.CreatePBRBindlessMaterial("pbr", "pbr.vert", "pbr.frag",
		[]vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT}, vk.FORMAT_D32_SFLOAT)
	if err != nil {
		t.Fatalf("CreatePBRBindlessMaterial: %v", err)
	}

	meshes, err := mesh.NewManager(vk.Device{}, vk.PhysicalDevice{}, vk.Queue{}, 0)
	if err != nil {
		t.Fatalf("mesh.NewManager: %v", err)
	}

	cubeVerts := make([]mesh.Vertex, 8)
	cubeIndices := make([]uint32, 36)
	cubeHandle, err := meshes.Create(cubeVerts, cubeIndices, []mesh.SubMeshDesc{
		{
			FirstIndex: 0,
			IndexCount: 36,
			LocalAABB:  mesh.AABB{Min: mgl32.Vec3{-0.5, -0.5, -0.5}, Max: mgl32.Vec3{0.5, 0.5, 0.5}},
		},
	})
	if err != nil {
		t.Fatalf("meshes.Create: %v", err)
	}

	perFrame, err := NewPerFrameUniforms(vk.Device{}, vk.PhysicalDevice{}, 2, 16)
	if err != nil {
		t.Fatalf("NewPerFrameUniforms: %v", err)
	}

	r := NewForwardRenderer(Config{
		Descriptors: dm,
		Materials:   mm,
		Meshes:      meshes,
		PerFrame:    perFrame,
		Tonemap:     DefaultTonemapConfig(),
		PBRMaterial: pbrMat,
	})
	return r, meshes, cubeHandle
}

// TestRenderFrameSingleCubeProducesOneDrawCall implements §8 scenario 1: a
// single entity with a valid sub-mesh and a camera looking at the origin
// yields one visible renderable and one draw call.
func TestRenderFrameSingleCubeProducesOneDrawCall(t *testing.T) {
	r, _, cube := newTestForwardRenderer(t)

	world := scene.NewWorld()
	cam := world.CreateEntity()
	world.SetCamera(cam, scene.Camera{
		Position: mgl32.Vec3{0, 0, -5}, Forward: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, 1, 0},
		FovYRadians: mgl32.DegToRad(60), Aspect: 1.0, Near: 0.1, Far: 1000,
	})
	world.SetActiveCamera(cam)

	box := world.CreateEntity()
	world.SetTransform(box, scene.Transform{Scale: mgl32.Vec3{1, 1, 1}})
	world.SetMeshRef(box, cube)
	world.SetMaterialRef(box, 1)

	r.BeginFrame(world, 0)
	stats := r.RenderFrame(world, nil, vk.CommandBuffer{}, true, Extent2D{Width: 1920, Height: 1080}, 0)

	if stats.VisibleRenderables != 1 {
		t.Fatalf("expected 1 visible renderable, got %d", stats.VisibleRenderables)
	}
	if stats.DrawCalls != 1 {
		t.Fatalf("expected 1 draw call, got %d", stats.DrawCalls)
	}
	if stats.CulledRenderables != 0 {
		t.Fatalf("expected 0 culled renderables, got %d", stats.CulledRenderables)
	}
}

// TestRenderFrameCullsEntitiesOutsideFrustum implements §8 scenario 2: two
// entities far off-axis on either side of a forward-looking camera are
// culled before any draw is issued.
func TestRenderFrameCullsEntitiesOutsideFrustum(t *testing.T) {
	r, _, cube := newTestForwardRenderer(t)

	world := scene.NewWorld()
	cam := world.CreateEntity()
	world.SetCamera(cam, scene.Camera{
		Position: mgl32.Vec3{0, 0, 0}, Forward: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, 1, 0},
		FovYRadians: mgl32.DegToRad(60), Aspect: 1.0, Near: 0.1, Far: 1000,
	})
	world.SetActiveCamera(cam)

	right := world.CreateEntity()
	world.SetTransform(right, scene.Transform{Position: mgl32.Vec3{100, 0, 10}, Scale: mgl32.Vec3{1, 1, 1}})
	world.SetMeshRef(right, cube)
	world.SetMaterialRef(right, 1)

	left := world.CreateEntity()
	world.SetTransform(left, scene.Transform{Position: mgl32.Vec3{-100, 0, 10}, Scale: mgl32.Vec3{1, 1, 1}})
	world.SetMeshRef(left, cube)
	world.SetMaterialRef(left, 1)

	r.BeginFrame(world, 0)
	stats := r.RenderFrame(world, nil, vk.CommandBuffer{}, true, Extent2D{Width: 1920, Height: 1080}, 0)

	if stats.VisibleRenderables != 0 {
		t.Fatalf("expected both off-axis entities to be culled, got %d visible", stats.VisibleRenderables)
	}
	if stats.DrawCalls != 0 {
		t.Fatalf("expected 0 draw calls, got %d", stats.DrawCalls)
	}
	if stats.CulledRenderables != 2 {
		t.Fatalf("expected 2 culled renderables, got %d", stats.CulledRenderables)
	}
}

// TestBeginFrameAdvancesPerFrameDynamicOffset is an integration check on
// top of §8 scenario 6: successive BeginFrame calls at different
// frameIndex values move the bound PerFrameUniforms slot accordingly.
func TestBeginFrameAdvancesPerFrameDynamicOffset(t *testing.T) {
	r, _, _ := newTestForwardRenderer(t)
	world := scene.NewWorld()
	cam := world.CreateEntity()
	world.SetCamera(cam, scene.Camera{Forward: mgl32.Vec3{0, 0, 1}, Up: mgl32.Vec3{0, 1, 0}, FovYRadians: 1, Aspect: 1, Near: 0.1, Far: 100})
	world.SetActiveCamera(cam)

	r.BeginFrame(world, 0)
	off0 := r.perFrame.DynamicOffset()
	r.BeginFrame(world, 1)
	off1 := r.perFrame.DynamicOffset()

	if off0 == off1 {
		t.Fatalf("expected distinct dynamic offsets for frame 0 and frame 1, got %d and %d", off0, off1)
	}
	if off1 != r.perFrame.AlignedStride() {
		t.Fatalf("expected frame 1's offset to equal one aligned stride, got %d (stride %d)", off1, r.perFrame.AlignedStride())
	}
}
