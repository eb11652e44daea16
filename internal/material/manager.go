package material

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/pipeline"
	"github.com/BANANASJIM/violet/internal/shaderlib"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// Manager owns Material definitions and MaterialInstance rows (§4.4). It is
// grounded on the teacher's pattern of a stable Vec<Unique<T>> plus a
// name->pointer map (vala/systems/render.go's material cache), generalized
// to the spec's create/destroy lifecycle and free-id reuse.
type Manager struct {
	descriptors *descriptor.Manager
	shaders     *shaderlib.Library

	layoutsByName map[string]descriptor.LayoutHandle

	materials       []*Material
	materialsByName map[string]*Material

	instances   []MaterialInstance // index 0 reserved, nil
	freeIDs     []InstanceID
	globalIndex map[uint64]InstanceID
}

func NewManager(descriptors *descriptor.Manager, shaders *shaderlib.Library) *Manager {
	return &Manager{
		descriptors:     descriptors,
		shaders:         shaders,
		layoutsByName:   make(map[string]descriptor.LayoutHandle),
		materialsByName: make(map[string]*Material),
		instances:       []MaterialInstance{nil},
		globalIndex:     make(map[uint64]InstanceID),
	}
}

// RegisterLayoutName binds a debug name (e.g. "Global", "Bindless",
// "MaterialData", "PostProcess") to a LayoutHandle already registered with
// the DescriptorManager, so CreateDesc.DescriptorSetLayoutNames can resolve
// it later (§4.4 step 1). The DescriptorManager itself indexes layouts by
// content hash only; names are a MaterialManager-level convenience.
func (m *Manager) RegisterLayoutName(name string, lh descriptor.LayoutHandle) {
	m.layoutsByName[name] = lh
}

// CreateMaterial implements §4.4 create_material.
func (m *Manager) CreateMaterial(desc CreateDesc) (*Material, error) {
	resolved := make([]descriptor.LayoutHandle, 0, len(desc.DescriptorSetLayoutNames))
	for _, name := range desc.DescriptorSetLayoutNames {
		lh, ok := m.layoutsByName[name]
		if !ok {
			return nil, fmt.Errorf("material: unknown descriptor set layout name %q", name)
		}
		resolved = append(resolved, lh)
	}

	cfg := desc.PipelineConfig
	cfg.GlobalDescriptorSetLayout = descriptor.InvalidLayoutHandle
	cfg.MaterialDescriptorSetLayout = descriptor.InvalidLayoutHandle
	cfg.AdditionalDescriptorSetLayouts = resolved

	if len(cfg.ColorFormats) == 0 {
		return nil, fmt.Errorf("material %q: color_formats must be non-empty", desc.Name)
	}

	p, err := pipeline.NewGraphics(deviceOf(m.descriptors), m.descriptors, m.shaders, desc.VertexShader, desc.FragmentShader, cfg)
	if err != nil {
		return nil, fmt.Errorf("material %q: build pipeline: %w", desc.Name, err)
	}

	mat := &Material{
		Name:                  desc.Name,
		Pipeline:              p,
		DeclaredLayoutHandles: resolved,
		Type:                  desc.Type,
		AlphaMode:             desc.AlphaMode,
		DoubleSided:           desc.DoubleSided,
	}
	m.materials = append(m.materials, mat)
	if desc.Name != "" {
		m.materialsByName[desc.Name] = mat
	}
	return mat, nil
}

// deviceOf recovers the Vulkan device a descriptor.Manager was built
// against; used so callers don't have to pass the device separately just to
// build a pipeline. Returns the zero Device under a nil/bookkeeping-only
// manager, which keeps pipeline construction a pure no-op in tests.
func deviceOf(d *descriptor.Manager) vk.Device {
	if d == nil {
		return vk.Device{}
	}
	return d.Device()
}

// CreateInstanceDesc is the create_material_instance argument of §4.4.
type CreateInstanceDesc struct {
	Material *Material
	Type     Type
	Name     string
}

// CreateMaterialInstance implements §4.4 create_material_instance.
func (m *Manager) CreateMaterialInstance(desc CreateInstanceDesc) InstanceID {
	var inst MaterialInstance
	switch desc.Type {
	case TypeUnlit:
		inst = newUnlitInstance(m.descriptors, desc.Material)
	default:
		inst = newPBRInstance(m.descriptors, desc.Material)
	}

	if err := inst.create(); err != nil {
		log.Warn("create_material_instance failed", "name", desc.Name, "err", err)
		return 0
	}

	id := m.allocInstanceID(inst)
	return id
}

func (m *Manager) allocInstanceID(inst MaterialInstance) InstanceID {
	if n := len(m.freeIDs); n > 0 {
		id := m.freeIDs[n-1]
		m.freeIDs = m.freeIDs[:n-1]
		m.instances[id] = inst
		return id
	}
	id := InstanceID(len(m.instances))
	m.instances = append(m.instances, inst)
	return id
}

// GetMaterialInstance resolves an InstanceID to its MaterialInstance.
func (m *Manager) GetMaterialInstance(id InstanceID) (MaterialInstance, bool) {
	if id == 0 || int(id) >= len(m.instances) || m.instances[id] == nil {
		return nil, false
	}
	return m.instances[id], true
}

// DestroyMaterialInstance implements §4.4 destroy_material_instance.
func (m *Manager) DestroyMaterialInstance(id InstanceID) {
	inst, ok := m.GetMaterialInstance(id)
	if !ok {
		return
	}
	inst.cleanup()
	m.instances[id] = nil
	m.freeIDs = append(m.freeIDs, id)
}

// RegisterGlobalMaterial implements §4.4's global material registry, used
// by scene loaders to map fileId<<16|gltfMaterialIndex to an engine
// instance ID.
func (m *Manager) RegisterGlobalMaterial(globalID uint64, instanceID InstanceID) {
	m.globalIndex[globalID] = instanceID
}

func (m *Manager) GetGlobalMaterial(globalID uint64) (MaterialInstance, bool) {
	id, ok := m.globalIndex[globalID]
	if !ok {
		return nil, false
	}
	return m.GetMaterialInstance(id)
}

func (m *Manager) MaterialByName(name string) (*Material, bool) {
	mat, ok := m.materialsByName[name]
	return mat, ok
}
