package descriptor

import (
	"fmt"
	"hash/fnv"
	"unsafe"

	"github.com/BANANASJIM/violet/internal/logging"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

var log = logging.For("descriptor")

const (
	maxTex2D         = 4096
	maxCubemaps      = 256
	reservedTex2D    = 5 // 0=null sentinel, 1..4 default textures
	reservedCubemaps = 1 // 0=null sentinel
)

// BindlessImage is the minimal surface the manager needs from a texture to
// install it into a bindless slot; satisfied by texture.Texture without a
// package-level import cycle between descriptor and texture.
type BindlessImage interface {
	View() vk.ImageView
	Sampler() vk.Sampler
}

type layoutEntry struct {
	layout    vk.DescriptorSetLayout
	desc      DescriptorLayoutDesc
	poolSizes []vk.DescriptorPoolSize
}

type pool struct {
	handle       vk.DescriptorPool
	remaining    uint32
	updateAfterBind bool
}

type pipelineLayoutCacheEntry struct {
	handle         PipelineLayoutCacheHandle
	setIndexByName map[string]uint32
	bindlessSets   map[uint32]bool
	cachedLayout   vk.PipelineLayout
}

// Manager is the DescriptorManager of §4.1.
type Manager struct {
	device          vk.Device
	physicalDevice  vk.PhysicalDevice
	framesInFlight  uint32
	currentFrame    uint32

	layouts       map[LayoutHandle]*layoutEntry
	pushConstants map[PushConstantHandle]PushConstantDesc

	poolsByFrequency map[UpdateFrequency][]*pool

	samplers map[uint64]vk.Sampler

	pipelineLayoutCache map[PipelineLayoutCacheHandle]*pipelineLayoutCacheEntry

	// Bindless registry (§3 "Bindless Registry").
	bindlessSet      vk.DescriptorSet
	bindlessLayout   LayoutHandle
	tex2dSlots       []BindlessImage
	cubemapSlots     []BindlessImage
	tex2dFree        *freeList
	cubemapFree      *freeList

	// Material SSBO (§3 "MaterialData (GPU row...)").
	materialSet      vk.DescriptorSet
	materialBuffer   vk.Buffer
	materialMemory   vk.DeviceMemory
	materialMapped   []byte
	materialRowSize  uint32
	maxMaterials     uint32
	materialFree     *freeList
}

func NewManager(device vk.Device, physicalDevice vk.PhysicalDevice, framesInFlight uint32) *Manager {
	return &Manager{
		device:              device,
		physicalDevice:      physicalDevice,
		framesInFlight:      framesInFlight,
		layouts:             map[LayoutHandle]*layoutEntry{},
		pushConstants:       map[PushConstantHandle]PushConstantDesc{NoPushConstants: {}},
		poolsByFrequency:    map[UpdateFrequency][]*pool{},
		samplers:            map[uint64]vk.Sampler{},
		pipelineLayoutCache: map[PipelineLayoutCacheHandle]*pipelineLayoutCacheEntry{},
	}
}

// Device returns the Vulkan device the manager was constructed with, so
// collaborators (material.Manager building pipelines) don't need it passed
// to them separately.
func (m *Manager) Device() vk.Device { return m.device }

// RegisterLayout implements §4.1 register_layout.
func (m *Manager) RegisterLayout(desc DescriptorLayoutDesc) LayoutHandle {
	if !desc.Valid() {
		log.Error("register_layout: binding with zero count and not bindless", "name", desc.Name)
		return InvalidLayoutHandle
	}

	h := desc.Hash()
	if _, ok := m.layouts[h]; ok {
		return h
	}

	entry := &layoutEntry{desc: desc, poolSizes: poolSizesFor(desc)}

	if m.device != (vk.Device{}) {
		bindings := make([]vk.DescriptorSetLayoutBinding, len(desc.Bindings))
		for i, b := range desc.Bindings {
			bindings[i] = vk.DescriptorSetLayoutBinding{
				Binding:         b.Binding,
				DescriptorType:  b.Type,
				DescriptorCount: b.Count,
				StageFlags:      b.Stages,
			}
		}
		layout, err := m.device.CreateDescriptorSetLayout(&vk.DescriptorSetLayoutCreateInfo{Bindings: bindings})
		if err != nil {
			log.Error("register_layout: vkCreateDescriptorSetLayout failed", "name", desc.Name, "err", err)
			return InvalidLayoutHandle
		}
		entry.layout = layout
	}

	m.layouts[h] = entry
	log.Debug("registered descriptor layout", "name", desc.Name, "handle", h, "frequency", desc.Frequency)
	return h
}

func poolSizesFor(desc DescriptorLayoutDesc) []vk.DescriptorPoolSize {
	totals := map[vk.DescriptorType]uint32{}
	for _, b := range desc.Bindings {
		count := b.Count
		if count == 0 {
			count = 1
		}
		totals[b.Type] += count
	}
	sizes := make([]vk.DescriptorPoolSize, 0, len(totals))
	for t, c := range totals {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: c})
	}
	return sizes
}

// RegisterPushConstants implements §4.1 register_push_constants.
func (m *Manager) RegisterPushConstants(desc PushConstantDesc) PushConstantHandle {
	h := desc.Hash()
	if h == NoPushConstants {
		return NoPushConstants
	}
	if _, ok := m.pushConstants[h]; !ok {
		m.pushConstants[h] = desc
	}
	return h
}

// AllocateSet implements §4.1 allocate_set and its pool-growth policy.
func (m *Manager) AllocateSet(lh LayoutHandle) (vk.DescriptorSet, error) {
	entry, ok := m.layouts[lh]
	if !ok {
		return vk.DescriptorSet{}, fmt.Errorf("descriptor: unknown layout handle %d", lh)
	}

	pools := m.poolsByFrequency[entry.desc.Frequency]
	for _, p := range pools {
		if p.remaining > 0 {
			return m.allocateFrom(p, entry)
		}
	}

	p, err := m.growPool(entry.desc.Frequency)
	if err != nil {
		return vk.DescriptorSet{}, err
	}
	return m.allocateFrom(p, entry)
}

func (m *Manager) allocateFrom(p *pool, entry *layoutEntry) (vk.DescriptorSet, error) {
	if m.device == (vk.Device{}) {
		p.remaining--
		return vk.DescriptorSet{}, nil
	}
	sets, err := m.device.AllocateDescriptorSets(&vk.DescriptorSetAllocateInfo{
		DescriptorPool: p.handle,
		SetLayouts:     []vk.DescriptorSetLayout{entry.layout},
	})
	if err != nil {
		return vk.DescriptorSet{}, err
	}
	p.remaining--
	return sets[0], nil
}

// growPool creates a new pool for frequency sized per §4.1's multiplier
// rule: multiplier × framesInFlight sets, covering every currently
// registered layout's pool-size contributions at that frequency.
func (m *Manager) growPool(freq UpdateFrequency) (*pool, error) {
	setCount := freq.poolMultiplier() * max32(m.framesInFlight, 1)

	totals := map[vk.DescriptorType]uint32{}
	updateAfterBind := false
	for _, entry := range m.layouts {
		if entry.desc.Frequency != freq {
			continue
		}
		if entry.desc.IsBindless {
			updateAfterBind = true
		}
		for _, ps := range entry.poolSizes {
			totals[ps.Type] += ps.DescriptorCount * setCount
		}
	}

	var handle vk.DescriptorPool
	if m.device != (vk.Device{}) {
		sizes := make([]vk.DescriptorPoolSize, 0, len(totals))
		for t, c := range totals {
			sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: c})
		}
		var err error
		handle, err = m.device.CreateDescriptorPool(&vk.DescriptorPoolCreateInfo{
			MaxSets:   setCount,
			PoolSizes: sizes,
		})
		if err != nil {
			return nil, fmt.Errorf("descriptor: grow pool for frequency %v: %w", freq, err)
		}
	}

	p := &pool{handle: handle, remaining: setCount, updateAfterBind: updateAfterBind}
	m.poolsByFrequency[freq] = append(m.poolsByFrequency[freq], p)
	log.Debug("grew descriptor pool", "frequency", freq, "sets", setCount)
	return p, nil
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

// GetOrCreateSampler implements §4.1 get_or_create_sampler.
func (m *Manager) GetOrCreateSampler(cfg SamplerConfig) (vk.Sampler, error) {
	key := cfg.Hash()
	if s, ok := m.samplers[key]; ok {
		return s, nil
	}
	if m.device == (vk.Device{}) {
		s := vk.Sampler{}
		m.samplers[key] = s
		return s, nil
	}
	s, err := m.device.CreateSampler(&vk.SamplerCreateInfo{
		MagFilter: cfg.MagFilter, MinFilter: cfg.MinFilter,
		MipmapMode: cfg.MipmapMode,
		AddressModeU: cfg.AddressModeU, AddressModeV: cfg.AddressModeV, AddressModeW: cfg.AddressModeW,
		MipLodBias: cfg.MipLodBias, AnisotropyEnable: cfg.AnisotropyOn, MaxAnisotropy: cfg.MaxAnisotropy,
		MinLod: cfg.MinLod, MaxLod: cfg.MaxLod, BorderColor: cfg.BorderColor,
		CompareEnable: cfg.CompareEnable, CompareOp: cfg.CompareOp,
	})
	if err != nil {
		return vk.Sampler{}, err
	}
	m.samplers[key] = s
	return s, nil
}

// GetSampler returns (creating on first use) one of the six predefined
// sampler recipes.
func (m *Manager) GetSampler(t SamplerType, deviceMaxAnisotropy float32) (vk.Sampler, error) {
	return m.GetOrCreateSampler(ConfigFor(t, deviceMaxAnisotropy))
}

// SetCurrentFrame implements §4.1 set_current_frame.
func (m *Manager) SetCurrentFrame(frame uint32) { m.currentFrame = frame }
func (m *Manager) CurrentFrame() uint32         { return m.currentFrame }

// InitBindless implements §4.1 init_bindless: allocates the single shared
// bindless descriptor set and its backing slot tables.
func (m *Manager) InitBindless(layout DescriptorLayoutDesc) error {
	layout.IsBindless = true
	lh := m.RegisterLayout(layout)
	if lh == InvalidLayoutHandle {
		return fmt.Errorf("descriptor: bindless layout registration failed")
	}
	m.bindlessLayout = lh

	m.tex2dSlots = make([]BindlessImage, maxTex2D)
	m.cubemapSlots = make([]BindlessImage, maxCubemaps)
	m.tex2dFree = newFreeList(maxTex2D, reservedTex2D)
	m.cubemapFree = newFreeList(maxCubemaps, reservedCubemaps)

	set, err := m.AllocateSet(lh)
	if err != nil {
		return fmt.Errorf("descriptor: allocate bindless set: %w", err)
	}
	m.bindlessSet = set
	log.Debug("bindless registry initialized", "maxTex2D", maxTex2D, "maxCubemaps", maxCubemaps)
	return nil
}

// AllocateBindlessTexture implements §4.1 allocate_bindless_texture: returns
// 0 when the 2D slot table is exhausted (§8 boundary behavior).
func (m *Manager) AllocateBindlessTexture(img BindlessImage) uint32 {
	idx := m.tex2dFree.alloc(maxTex2D)
	if idx == 0 {
		log.Warn("bindless texture table exhausted")
		return 0
	}
	m.tex2dSlots[idx] = img
	m.writeBindlessSlot(idx, img, false)
	return idx
}

// AllocateBindlessTextureAt implements §4.1 allocate_bindless_texture_at,
// used to install the reserved default textures (indices 1..4) at known
// slots rather than through the free-list allocator.
func (m *Manager) AllocateBindlessTextureAt(idx uint32, img BindlessImage) {
	if int(idx) >= len(m.tex2dSlots) {
		return
	}
	m.tex2dSlots[idx] = img
	m.writeBindlessSlot(idx, img, false)
}

// AllocateBindlessCubemap implements §4.1 allocate_bindless_cubemap.
func (m *Manager) AllocateBindlessCubemap(img BindlessImage) uint32 {
	idx := m.cubemapFree.alloc(maxCubemaps)
	if idx == 0 {
		log.Warn("bindless cubemap table exhausted")
		return 0
	}
	m.cubemapSlots[idx] = img
	m.writeBindlessSlot(idx, img, true)
	return idx
}

// FreeBindlessTexture implements §4.1 free_bindless_texture. Freeing
// returns the slot to the free list; no GPU write occurs since PARTIALLY_BOUND
// makes stale reads at that index undefined-but-harmless until reused.
func (m *Manager) FreeBindlessTexture(idx uint32) {
	if idx == 0 || int(idx) >= len(m.tex2dSlots) {
		return
	}
	m.tex2dSlots[idx] = nil
	m.tex2dFree.release(idx)
}

func (m *Manager) FreeBindlessCubemap(idx uint32) {
	if idx == 0 || int(idx) >= len(m.cubemapSlots) {
		return
	}
	m.cubemapSlots[idx] = nil
	m.cubemapFree.release(idx)
}

// writeBindlessSlot performs the vkUpdateDescriptorSets write installing img
// into the bindless set at idx; a no-op under a zero-value device so the
// pure slot-table bookkeeping stays testable without Vulkan.
func (m *Manager) writeBindlessSlot(idx uint32, img BindlessImage, cubemap bool) {
	if m.device == (vk.Device{}) || img == nil {
		return
	}
	binding := uint32(0)
	if cubemap {
		binding = 1
	}
	m.device.UpdateDescriptorSets([]vk.WriteDescriptorSet{{
		DstSet:          m.bindlessSet,
		DstBinding:      binding,
		DstArrayElement: idx,
		DescriptorType:  vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER,
		ImageInfo: []vk.DescriptorImageInfo{{
			ImageView:   img.View(),
			Sampler:     img.Sampler(),
			ImageLayout: vk.IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL,
		}},
	}}, nil)
}

// InitMaterialDataBuffer implements §4.1 init_material_data_buffer: a
// persistently-mapped, host-coherent SSBO indexed by push-constant
// material_id, row-sized to rowSize bytes with capacity for maxMaterials
// rows (§3 "MaterialData (GPU row...)").
func (m *Manager) InitMaterialDataBuffer(rowSize, maxMaterials uint32) error {
	m.materialRowSize = rowSize
	m.maxMaterials = maxMaterials
	m.materialFree = newFreeList(maxMaterials, 1)

	if m.device == (vk.Device{}) {
		m.materialMapped = make([]byte, rowSize*maxMaterials)
		return nil
	}

	size := uint64(rowSize) * uint64(maxMaterials)
	buf, mem, err := m.device.CreateBufferWithMemory(
		size,
		vk.BUFFER_USAGE_STORAGE_BUFFER_BIT,
		vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		m.physicalDevice,
	)
	if err != nil {
		return fmt.Errorf("descriptor: create material SSBO: %w", err)
	}
	ptr, err := m.device.MapMemory(mem, 0, size)
	if err != nil {
		return fmt.Errorf("descriptor: map material SSBO: %w", err)
	}
	m.materialBuffer = buf
	m.materialMemory = mem
	m.materialMapped = unsafe.Slice((*byte)(ptr), size)
	return nil
}

// AllocateMaterialData implements §4.1 allocate_material_data: returns 0
// (the reserved row) when the material table is exhausted.
func (m *Manager) AllocateMaterialData() uint32 {
	idx := m.materialFree.alloc(m.maxMaterials)
	if idx == 0 {
		log.Warn("material data table exhausted")
	}
	return idx
}

// UpdateMaterialData implements §4.1 update_material_data: a raw byte-copy
// into row idx of the persistently-mapped buffer, no flush required.
func (m *Manager) UpdateMaterialData(idx uint32, data []byte) {
	if idx == 0 || m.materialRowSize == 0 {
		return
	}
	off := uint64(idx) * uint64(m.materialRowSize)
	n := copy(m.materialMapped[off:off+uint64(m.materialRowSize)], data)
	if uint32(n) < m.materialRowSize {
		log.Warn("update_material_data: short write", "index", idx, "want", m.materialRowSize, "got", n)
	}
}

func (m *Manager) FreeMaterialData(idx uint32) {
	m.materialFree.release(idx)
}

// ReadMaterialData returns a copy of row idx, letting a MaterialInstance's
// texture setters discover the bindless index currently stored at a field
// offset before overwriting it (§4.5 "read the current SSBO row").
func (m *Manager) ReadMaterialData(idx uint32) []byte {
	if idx == 0 || m.materialRowSize == 0 {
		return nil
	}
	off := uint64(idx) * uint64(m.materialRowSize)
	row := make([]byte, m.materialRowSize)
	copy(row, m.materialMapped[off:off+uint64(m.materialRowSize)])
	return row
}

// GetOrCreatePipelineLayoutCache implements §4.1
// get_or_create_pipeline_layout: collapses pipelines whose descriptor set
// layout combination and push constant ranges are identical to one
// VkPipelineLayout, keyed by a hash of the ordered layout handles plus the
// push constant handle (§9 "Hashing over nominal naming").
func (m *Manager) GetOrCreatePipelineLayoutCache(setLayouts []LayoutHandle, pc PushConstantHandle) (PipelineLayoutCacheHandle, vk.PipelineLayout, error) {
	h := fnv.New32a()
	for _, l := range setLayouts {
		writeU32(h, uint32(l))
	}
	writeU32(h, uint32(pc))
	key := PipelineLayoutCacheHandle(h.Sum32())

	if entry, ok := m.pipelineLayoutCache[key]; ok {
		return key, entry.layout(m), nil
	}

	entry := &pipelineLayoutCacheEntry{handle: key, setIndexByName: map[string]uint32{}, bindlessSets: map[uint32]bool{}}
	var vkLayouts []vk.DescriptorSetLayout
	for i, l := range setLayouts {
		le, ok := m.layouts[l]
		if !ok {
			return 0, vk.PipelineLayout{}, fmt.Errorf("descriptor: unknown layout handle %d in pipeline layout", l)
		}
		if le.desc.IsBindless {
			entry.bindlessSets[uint32(i)] = true
		}
		entry.setIndexByName[le.desc.Name] = uint32(i)
		vkLayouts = append(vkLayouts, le.layout)
	}

	var pcRanges []vk.PushConstantRange
	if desc, ok := m.pushConstants[pc]; ok {
		for _, r := range desc.Ranges {
			pcRanges = append(pcRanges, vk.PushConstantRange{Offset: r.Offset, Size: r.Size, StageFlags: r.Stages})
		}
	}

	var pl vk.PipelineLayout
	if m.device != (vk.Device{}) {
		var err error
		pl, err = m.device.CreatePipelineLayout(&vk.PipelineLayoutCreateInfo{
			SetLayouts:         vkLayouts,
			PushConstantRanges: pcRanges,
		})
		if err != nil {
			return 0, vk.PipelineLayout{}, fmt.Errorf("descriptor: create pipeline layout: %w", err)
		}
	}
	entry.cachedLayout = pl
	m.pipelineLayoutCache[key] = entry
	return key, pl, nil
}

func (e *pipelineLayoutCacheEntry) layout(m *Manager) vk.PipelineLayout { return e.cachedLayout }

// BindDescriptors implements §4.1 bind_descriptors: binds exactly the sets
// the caller passes, as consecutive set indices starting at 0. It does not
// look sets up by name and does not add the shared bindless or material
// sets itself; the caller includes them in sets. dynamicOffsets carries one entry per UniformBufferDynamic/
// StorageBufferDynamic binding in sets, in the same order the validation
// layers expect (here: the Global set's PerFrame offset first).
func (m *Manager) BindDescriptors(cmd vk.CommandBuffer, layout vk.PipelineLayout, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	if m.device == (vk.Device{}) || len(sets) == 0 {
		return
	}
	cmd.BindDescriptorSets(vk.PIPELINE_BIND_POINT_GRAPHICS, layout, 0, sets, dynamicOffsets)
}
