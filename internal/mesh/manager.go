package mesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/BANANASJIM/violet/internal/handle"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// Handle identifies a Mesh owned by a Manager (§9 "Sparse-slot ID tables").
type Handle = handle.Handle

// Vertex is the interleaved per-vertex layout this core's PBR/Unlit shaders
// expect: position, normal, UV, and tangent (tangent.w carries handedness
// for normal mapping).
type Vertex struct {
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
	Tangent  mgl32.Vec4
}

// SubMeshDesc describes one sub-mesh at creation time, before its world AABB
// has ever been computed.
type SubMeshDesc struct {
	FirstIndex    uint32
	IndexCount    uint32
	MaterialIndex uint32
	LocalAABB     AABB
}

// Manager owns every Mesh's vertex/index buffers, following the same
// create/upload/handle-table shape as texture.Manager.
type Manager struct {
	device           vk.Device
	physicalDevice   vk.PhysicalDevice
	queue            vk.Queue
	pool             vk.CommandPool
	queueFamilyIndex uint32

	meshes *handle.Table[*Mesh]
}

// NewManager creates the upload command pool. A zero-value device leaves
// the manager in pure bookkeeping mode (used by tests).
func NewManager(device vk.Device, physicalDevice vk.PhysicalDevice, queue vk.Queue, queueFamilyIndex uint32) (*Manager, error) {
	m := &Manager{
		device:         device,
		physicalDevice: physicalDevice,
		queue:          queue,
		meshes:         handle.NewTable[*Mesh](),
	}
	if device != (vk.Device{}) {
		pool, err := device.CreateCommandPool(&vk.CommandPoolCreateInfo{
			Flags:            vk.COMMAND_POOL_CREATE_TRANSIENT_BIT | vk.COMMAND_POOL_CREATE_RESET_COMMAND_BUFFER_BIT,
			QueueFamilyIndex: queueFamilyIndex,
		})
		if err != nil {
			return nil, fmt.Errorf("create upload command pool: %w", err)
		}
		m.pool = pool
	}
	return m, nil
}

func (m *Manager) Destroy() {
	if m.device != (vk.Device{}) && m.pool != (vk.CommandPool{}) {
		m.device.DestroyCommandPool(m.pool)
	}
}

// Create uploads vertices/indices and registers the sub-mesh table,
// returning a handle (§3: "is_valid iff index_count > 0").
func (m *Manager) Create(vertices []Vertex, indices []uint32, subMeshes []SubMeshDesc) (Handle, error) {
	mesh := &Mesh{device: m.device, indexType: vk.INDEX_TYPE_UINT32}
	mesh.vertexCount = uint32(len(vertices))
	mesh.indexCount = uint32(len(indices))
	for _, sd := range subMeshes {
		mesh.subMeshes = append(mesh.subMeshes, SubMesh{
			FirstIndex:    sd.FirstIndex,
			IndexCount:    sd.IndexCount,
			MaterialIndex: sd.MaterialIndex,
			LocalAABB:     sd.LocalAABB,
		})
	}

	if m.device == (vk.Device{}) {
		return m.meshes.Alloc(mesh), nil
	}

	vertexBytes := encodeVertices(vertices)
	vb, vbMem, err := uploadToDeviceLocalBuffer(m.device, m.physicalDevice, m.pool, m.queue,
		vertexBytes, vk.BUFFER_USAGE_VERTEX_BUFFER_BIT)
	if err != nil {
		return handle.Invalid, fmt.Errorf("upload vertex buffer: %w", err)
	}
	mesh.vertexBuffer, mesh.vertexMemory = vb, vbMem

	indexBytes := encodeIndices(indices)
	ib, ibMem, err := uploadToDeviceLocalBuffer(m.device, m.physicalDevice, m.pool, m.queue,
		indexBytes, vk.BUFFER_USAGE_INDEX_BUFFER_BIT)
	if err != nil {
		mesh.destroy()
		return handle.Invalid, fmt.Errorf("upload index buffer: %w", err)
	}
	mesh.indexBuffer, mesh.indexMemory = ib, ibMem

	return m.meshes.Alloc(mesh), nil
}

func (m *Manager) Get(h Handle) (*Mesh, bool) { return m.meshes.Get(h) }

func (m *Manager) Free(h Handle) {
	msh, ok := m.meshes.Get(h)
	if !ok {
		return
	}
	msh.destroy()
	m.meshes.Free(h)
}

func encodeVertices(vertices []Vertex) []byte {
	const stride = 3*4 + 3*4 + 2*4 + 4*4
	out := make([]byte, len(vertices)*stride)
	off := 0
	put := func(v float32) {
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(v))
		off += 4
	}
	for _, v := range vertices {
		put(v.Position[0])
		put(v.Position[1])
		put(v.Position[2])
		put(v.Normal[0])
		put(v.Normal[1])
		put(v.Normal[2])
		put(v.UV[0])
		put(v.UV[1])
		put(v.Tangent[0])
		put(v.Tangent[1])
		put(v.Tangent[2])
		put(v.Tangent[3])
	}
	return out
}

func encodeIndices(indices []uint32) []byte {
	out := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(out[i*4:], idx)
	}
	return out
}
