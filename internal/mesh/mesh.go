package mesh

import (
	"github.com/go-gl/mathgl/mgl32"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

// SubMesh is one draw range within a Mesh's shared vertex/index buffer pair,
// per §3 "Mesh / SubMesh".
type SubMesh struct {
	FirstIndex     uint32
	IndexCount     uint32
	MaterialIndex  uint32
	LocalAABB      AABB
	worldAABB      AABB
	worldAABBValid bool
}

// IsValid reports whether the sub-mesh has anything to draw.
func (s SubMesh) IsValid() bool { return s.IndexCount > 0 }

// Mesh owns one vertex buffer and one index buffer plus a set of sub-meshes,
// each carrying its own material index and local AABB (§3).
type Mesh struct {
	device vk.Device

	vertexBuffer vk.Buffer
	vertexMemory vk.DeviceMemory
	indexBuffer  vk.Buffer
	indexMemory  vk.DeviceMemory

	vertexCount uint32
	indexCount  uint32
	indexType   vk.IndexType

	subMeshes []SubMesh
}

// IsValid mirrors §3's mesh-level invariant: a mesh with no indices has
// nothing any sub-mesh can draw.
func (m *Mesh) IsValid() bool { return m.indexCount > 0 && len(m.subMeshes) > 0 }

// SubMeshes returns the mesh's sub-mesh table. Callers must not retain a
// pointer into the returned slice across a call that mutates world AABBs.
func (m *Mesh) SubMeshes() []SubMesh { return m.subMeshes }

// VertexBuffer and IndexBuffer expose the raw Vulkan handles for binding in
// a draw command.
func (m *Mesh) VertexBuffer() vk.Buffer  { return m.vertexBuffer }
func (m *Mesh) IndexBuffer() vk.Buffer   { return m.indexBuffer }
func (m *Mesh) IndexType() vk.IndexType  { return m.indexType }
func (m *Mesh) IndexCount() uint32       { return m.indexCount }

// RefreshWorldAABBs recomputes each sub-mesh's world AABB from its local
// AABB under the owning entity's current world transform. §3: "A Mesh's
// world AABB is recomputed per-submesh when its owning entity's transform
// changes" — callers invoke this only when that transform actually changed,
// not on every frame.
func (m *Mesh) RefreshWorldAABBs(worldTransform mgl32.Mat4) {
	for i := range m.subMeshes {
		m.subMeshes[i].worldAABB = m.subMeshes[i].LocalAABB.Transform(worldTransform)
		m.subMeshes[i].worldAABBValid = true
	}
}

// WorldAABB returns sub-mesh idx's last-computed world AABB. It returns
// false if RefreshWorldAABBs has never been called for this mesh.
func (m *Mesh) WorldAABB(idx int) (AABB, bool) {
	if idx < 0 || idx >= len(m.subMeshes) {
		return AABB{}, false
	}
	sm := m.subMeshes[idx]
	return sm.worldAABB, sm.worldAABBValid
}

func (m *Mesh) destroy() {
	if m.device == (vk.Device{}) {
		return
	}
	if m.vertexBuffer != (vk.Buffer{}) {
		m.device.DestroyBuffer(m.vertexBuffer)
		m.device.FreeMemory(m.vertexMemory)
	}
	if m.indexBuffer != (vk.Buffer{}) {
		m.device.DestroyBuffer(m.indexBuffer)
		m.device.FreeMemory(m.indexMemory)
	}
}
