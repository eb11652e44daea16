package texture

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/handle"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// Reserved bindless indices 1..4 hold the defaults below; index 0 is the
// descriptor manager's "no texture" sentinel (see descriptor.reservedTex2D).
const (
	DefaultWhite uint32 = iota + 1
	DefaultBlack
	DefaultNormal
	DefaultMetallicRoughness
)

// Manager owns every Texture's GPU resources and installs defaults into the
// shared bindless array at construction, matching §4.6's "pre-install
// default textures" requirement.
type Manager struct {
	device         vk.Device
	physicalDevice vk.PhysicalDevice
	queue          vk.Queue
	pool           vk.CommandPool
	descriptors    *descriptor.Manager

	textures *handle.Table[*Texture]

	White, Black, Normal, MetallicRoughness Handle
}

// NewManager creates the upload command pool and installs the four default
// textures at their reserved bindless slots. A zero-value device leaves the
// manager in pure bookkeeping mode (used by tests).
func NewManager(device vk.Device, physicalDevice vk.PhysicalDevice, queue vk.Queue, queueFamilyIndex uint32, descriptors *descriptor.Manager) (*Manager, error) {
	m := &Manager{
		device:         device,
		physicalDevice: physicalDevice,
		queue:          queue,
		descriptors:    descriptors,
		textures:       handle.NewTable[*Texture](),
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

	var err error
	if m.White, err = m.createSolid(DefaultWhite, [4]byte{255, 255, 255, 255}); err != nil {
		return nil, fmt.Errorf("default white texture: %w", err)
	}
	if m.Black, err = m.createSolid(DefaultBlack, [4]byte{0, 0, 0, 255}); err != nil {
		return nil, fmt.Errorf("default black texture: %w", err)
	}
	// Tangent-space up, encoded as the Vulkan-standard (0.5, 0.5, 1.0) normal.
	if m.Normal, err = m.createSolid(DefaultNormal, [4]byte{128, 128, 255, 255}); err != nil {
		return nil, fmt.Errorf("default normal texture: %w", err)
	}
	// R = 1.0, roughness = 0.5, metallic = 0.0, matching the glTF
	// metallic-roughness channel packing (G = roughness, B = metallic).
	if m.MetallicRoughness, err = m.createSolid(DefaultMetallicRoughness, [4]byte{255, 128, 0, 255}); err != nil {
		return nil, fmt.Errorf("default metallic-roughness texture: %w", err)
	}

	return m, nil
}

// Destroy releases the command pool. Individual textures should be freed
// with Free before calling this.
func (m *Manager) Destroy() {
	if m.device != (vk.Device{}) && m.pool != (vk.CommandPool{}) {
		m.device.DestroyCommandPool(m.pool)
	}
}

// Load creates a sampled RGBA8 2D texture from decoded pixel data, uploads
// it, and installs it into the next free bindless slot.
func (m *Manager) Load(width, height uint32, pixels []byte, cfg descriptor.SamplerConfig) (Handle, error) {
	tex, err := m.create(width, height, vk.FORMAT_R8G8B8A8_UNORM, pixels, cfg)
	if err != nil {
		return handle.Invalid, err
	}
	if m.descriptors != nil {
		tex.bindlessIndex = m.descriptors.AllocateBindlessTexture(tex)
	}
	return m.textures.Alloc(tex), nil
}

// createSolid builds a 1x1 texture and pins it to a specific reserved
// bindless index rather than pulling from the free list.
func (m *Manager) createSolid(reservedIndex uint32, rgba [4]byte) (Handle, error) {
	tex, err := m.create(1, 1, vk.FORMAT_R8G8B8A8_UNORM, rgba[:], descriptor.DefaultSamplerConfig(1.0))
	if err != nil {
		return handle.Invalid, err
	}
	tex.bindlessIndex = reservedIndex
	if m.descriptors != nil {
		m.descriptors.AllocateBindlessTextureAt(reservedIndex, tex)
	}
	return m.textures.Alloc(tex), nil
}

func (m *Manager) create(width, height uint32, format vk.Format, pixels []byte, cfg descriptor.SamplerConfig) (*Texture, error) {
	tex := &Texture{device: m.device, format: format, width: width, height: height}

	if m.device == (vk.Device{}) {
		return tex, nil
	}

	image, memory, err := m.device.CreateImageWithMemory(
		width, height, format,
		vk.IMAGE_TILING_OPTIMAL,
		vk.IMAGE_USAGE_TRANSFER_DST_BIT|vk.IMAGE_USAGE_SAMPLED_BIT,
		vk.MEMORY_PROPERTY_DEVICE_LOCAL_BIT,
		m.physicalDevice,
	)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	tex.image = image
	tex.memory = memory

	view, err := m.device.CreateImageViewForTexture(image, format)
	if err != nil {
		m.device.DestroyImage(image)
		m.device.FreeMemory(memory)
		return nil, fmt.Errorf("create image view: %w", err)
	}
	tex.view = view

	sampler, err := m.descriptors.GetOrCreateSampler(cfg)
	if err != nil {
		m.device.DestroyImageView(view)
		m.device.DestroyImage(image)
		m.device.FreeMemory(memory)
		return nil, fmt.Errorf("get or create sampler: %w", err)
	}
	tex.sampler = sampler

	if err := uploadPixels(m.device, m.physicalDevice, m.pool, m.queue, image, width, height, pixels); err != nil {
		tex.destroy()
		return nil, fmt.Errorf("upload pixels: %w", err)
	}

	return tex, nil
}

// Get resolves a Handle to its Texture, following the generation-checked
// sparse-slot convention shared across the manager packages.
func (m *Manager) Get(h Handle) (*Texture, bool) {
	return m.textures.Get(h)
}

// Free destroys the texture's GPU resources and releases its bindless slot
// back to the free list.
func (m *Manager) Free(h Handle) {
	tex, ok := m.textures.Get(h)
	if !ok {
		return
	}
	if m.descriptors != nil && tex.bindlessIndex >= 5 {
		m.descriptors.FreeBindlessTexture(tex.bindlessIndex)
	}
	tex.destroy()
	m.textures.Free(h)
}
