package render

import (
	"unsafe"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

func mappedBytes(ptr unsafe.Pointer, size uint64) []byte {
	return unsafe.Slice((*byte)(ptr), size)
}

// PerFrameUniforms owns the single persistently-mapped UBO backing
// GlobalUBO, one aligned_stride slice per in-flight frame, addressed with a
// dynamic offset (§5 "current_frame in DescriptorManager is set before any
// descriptor binding in a frame, giving PerFrame uniforms a deterministic
// dynamic offset"; §8 invariant "dynamic offsets always equal current_frame
// x aligned_stride").
type PerFrameUniforms struct {
	device vk.Device

	alignedStride uint32
	framesInFlight uint32

	buffer vk.Buffer
	memory vk.DeviceMemory
	mapped []byte

	currentFrame uint32
}

// alignUp rounds size up to the next multiple of alignment (alignment must
// be a power of two, as minUniformBufferOffsetAlignment always is).
func alignUp(size, alignment uint32) uint32 {
	if alignment == 0 {
		return size
	}
	return (size + alignment - 1) &^ (alignment - 1)
}

// NewPerFrameUniforms allocates framesInFlight slots of GlobalUBOSize bytes
// each, aligned to minUniformBufferOffsetAlignment (§8: "aligned_stride is a
// multiple of minUniformBufferOffsetAlignment"). A zero-value device leaves
// the buffer backed by a plain Go slice, exercising the same offset
// arithmetic without touching Vulkan.
func NewPerFrameUniforms(device vk.Device, physicalDevice vk.PhysicalDevice, framesInFlight, minUniformBufferOffsetAlignment uint32) (*PerFrameUniforms, error) {
	stride := alignUp(GlobalUBOSize, minUniformBufferOffsetAlignment)
	p := &PerFrameUniforms{
		device:         device,
		alignedStride:  stride,
		framesInFlight: framesInFlight,
	}

	size := uint64(stride) * uint64(framesInFlight)
	if device == (vk.Device{}) {
		p.mapped = make([]byte, size)
		return p, nil
	}

	buf, mem, err := device.CreateBufferWithMemory(
		size,
		vk.BUFFER_USAGE_UNIFORM_BUFFER_BIT,
		vk.MEMORY_PROPERTY_HOST_VISIBLE_BIT|vk.MEMORY_PROPERTY_HOST_COHERENT_BIT,
		physicalDevice,
	)
	if err != nil {
		return nil, err
	}
	ptr, err := device.MapMemory(mem, 0, size)
	if err != nil {
		return nil, err
	}
	p.buffer, p.memory = buf, mem
	p.mapped = mappedBytes(ptr, size)
	return p, nil
}

// AlignedStride returns the per-frame byte stride used for dynamic offsets.
func (p *PerFrameUniforms) AlignedStride() uint32 { return p.alignedStride }

// SetCurrentFrame records which in-flight frame slot subsequent writes and
// binds address.
func (p *PerFrameUniforms) SetCurrentFrame(frame uint32) { p.currentFrame = frame % max1(p.framesInFlight) }

func max1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// DynamicOffset returns current_frame x aligned_stride (§8 invariant).
func (p *PerFrameUniforms) DynamicOffset() uint32 { return p.currentFrame * p.alignedStride }

// Write copies data (a GlobalUBO.Encode() result) into the current frame's
// slot.
func (p *PerFrameUniforms) Write(data []byte) {
	off := p.DynamicOffset()
	copy(p.mapped[off:off+uint32(len(data))], data)
}

// Buffer returns the backing VkBuffer for descriptor set writes.
func (p *PerFrameUniforms) Buffer() vk.Buffer { return p.buffer }

func (p *PerFrameUniforms) Destroy() {
	if p.device == (vk.Device{}) {
		return
	}
	if p.buffer != (vk.Buffer{}) {
		p.device.DestroyBuffer(p.buffer)
		p.device.FreeMemory(p.memory)
	}
}
