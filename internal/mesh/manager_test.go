package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(vk.Device{}, vk.PhysicalDevice{}, vk.Queue{}, 0)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func quadMesh() ([]Vertex, []uint32, []SubMeshDesc) {
	vertices := []Vertex{
		{Position: mgl32.Vec3{-1, -1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 0}},
		{Position: mgl32.Vec3{1, -1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 0}},
		{Position: mgl32.Vec3{1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{1, 1}},
		{Position: mgl32.Vec3{-1, 1, 0}, Normal: mgl32.Vec3{0, 0, 1}, UV: mgl32.Vec2{0, 1}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}
	subMeshes := []SubMeshDesc{
		{FirstIndex: 0, IndexCount: 6, MaterialIndex: 0, LocalAABB: AABB{Min: mgl32.Vec3{-1, -1, 0}, Max: mgl32.Vec3{1, 1, 0}}},
	}
	return vertices, indices, subMeshes
}

func TestCreateZeroDeviceProducesBookkeepingOnlyMesh(t *testing.T) {
	m := newTestManager(t)
	vertices, indices, subMeshes := quadMesh()

	h, err := m.Create(vertices, indices, subMeshes)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	msh, ok := m.Get(h)
	if !ok {
		t.Fatalf("expected mesh to resolve")
	}
	if !msh.IsValid() {
		t.Fatalf("expected mesh with a non-empty index buffer to be valid")
	}
	if msh.IndexCount() != 6 {
		t.Fatalf("IndexCount() = %d, want 6", msh.IndexCount())
	}
	if len(msh.SubMeshes()) != 1 {
		t.Fatalf("expected 1 sub-mesh, got %d", len(msh.SubMeshes()))
	}
}

func TestMeshWithZeroIndexCountIsInvalid(t *testing.T) {
	m := newTestManager(t)
	h, err := m.Create(nil, nil, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	msh, _ := m.Get(h)
	if msh.IsValid() {
		t.Fatalf("a mesh with zero indices must report IsValid() == false")
	}
}

func TestFreeInvalidatesMeshHandle(t *testing.T) {
	m := newTestManager(t)
	vertices, indices, subMeshes := quadMesh()
	h, _ := m.Create(vertices, indices, subMeshes)

	m.Free(h)
	if _, ok := m.Get(h); ok {
		t.Fatalf("expected handle to be invalid after Free")
	}
}

func TestRefreshWorldAABBsTranslatesLocalBounds(t *testing.T) {
	m := newTestManager(t)
	vertices, indices, subMeshes := quadMesh()
	h, _ := m.Create(vertices, indices, subMeshes)
	msh, _ := m.Get(h)

	if _, ok := msh.WorldAABB(0); ok {
		t.Fatalf("expected no world AABB before RefreshWorldAABBs is ever called")
	}

	translate := mgl32.Translate3D(5, 0, 0)
	msh.RefreshWorldAABBs(translate)

	got, ok := msh.WorldAABB(0)
	if !ok {
		t.Fatalf("expected a world AABB after RefreshWorldAABBs")
	}
	const eps = 1e-3
	if abs32(got.Min[0]-4) > eps || abs32(got.Max[0]-6) > eps {
		t.Fatalf("translated AABB X bounds = [%f, %f], want [4, 6]", got.Min[0], got.Max[0])
	}
}
