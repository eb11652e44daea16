// Package descriptor implements the DescriptorManager: the single source of
// truth for descriptor set layouts, pools, pipeline layouts, bindless
// tables, and the material SSBO (§4.1). It is grounded on the teacher's
// descriptor.go (Vulkan descriptor set layout/pool/write plumbing) and on
// original_source/src/renderer/vulkan/DescriptorManager.hpp for the
// content-hash discipline the distilled spec only gestures at.
package descriptor

import (
	"hash/fnv"
	"math"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

// LayoutHandle, PushConstantHandle and PipelineLayoutCacheHandle are content
// hashes: identical descriptions collapse to the same handle (§3, §9).
type LayoutHandle uint32
type PushConstantHandle uint32
type PipelineLayoutCacheHandle uint32

// InvalidLayoutHandle is returned by RegisterLayout on malformed input.
const InvalidLayoutHandle LayoutHandle = 0

// NoPushConstants is the reserved "no push constants" handle.
const NoPushConstants PushConstantHandle = 0

type UpdateFrequency int

const (
	PerFrame UpdateFrequency = iota
	PerPass
	PerMaterial
	Static
)

// poolMultiplier implements the §4.1 pool-growth sizing rule.
func (f UpdateFrequency) poolMultiplier() uint32 {
	switch f {
	case PerFrame:
		return 10
	case PerPass:
		return 20
	case PerMaterial:
		return 100
	case Static:
		return 50
	default:
		return 10
	}
}

// BindingFlags mirrors VkDescriptorBindingFlagBits bits relevant to bindless
// arrays; kept as a plain bitmask rather than importing all of vk's
// constant surface for a two-bit concern.
type BindingFlags uint32

const (
	BindingFlagNone                   BindingFlags = 0
	BindingFlagUpdateAfterBind        BindingFlags = 1 << 0
	BindingFlagPartiallyBound         BindingFlags = 1 << 1
	BindingFlagVariableDescriptorCount BindingFlags = 1 << 2
)

type BindingDesc struct {
	Binding        uint32
	Type           vk.DescriptorType
	Stages         vk.ShaderStageFlags
	Count          uint32
	PerBindingFlag BindingFlags
}

// DescriptorLayoutDesc declaratively describes one descriptor set layout.
// Name is excluded from the hash: it exists purely for debug logging and
// legacy name-based lookup (§9 "Hashing over nominal naming").
type DescriptorLayoutDesc struct {
	Name       string
	Bindings   []BindingDesc
	Frequency  UpdateFrequency
	IsBindless bool
	// CreateFlags mirrors VkDescriptorSetLayoutCreateFlags (e.g.
	// UPDATE_AFTER_BIND_POOL). It is carried as given: RegisterLayout neither
	// sets it nor passes it to vkCreateDescriptorSetLayout.
	CreateFlags uint32
}

// Hash computes the LayoutHandle for this description. Field order and
// inclusion exactly determines equality, matching the round-trip law in
// §8 ("DescriptorLayoutDesc content equality ⟺ handle equality").
func (d DescriptorLayoutDesc) Hash() LayoutHandle {
	h := fnv.New32a()
	writeU32(h, uint32(d.Frequency))
	writeBool(h, d.IsBindless)
	for _, b := range d.Bindings {
		writeU32(h, b.Binding)
		writeU32(h, uint32(b.Type))
		writeU32(h, uint32(b.Stages))
		writeU32(h, b.Count)
		writeU32(h, uint32(b.PerBindingFlag))
	}
	return LayoutHandle(h.Sum32())
}

// Valid reports whether the description is well-formed per §4.1's error
// condition: every non-bindless binding must declare a non-zero count.
func (d DescriptorLayoutDesc) Valid() bool {
	for _, b := range d.Bindings {
		if b.Count == 0 && !d.IsBindless {
			return false
		}
	}
	return true
}

type PushConstantRange struct {
	Offset uint32
	Size   uint32
	Stages vk.ShaderStageFlags
}

type PushConstantDesc struct {
	Ranges []PushConstantRange
}

func (p PushConstantDesc) Hash() PushConstantHandle {
	if len(p.Ranges) == 0 {
		return NoPushConstants
	}
	h := fnv.New32a()
	for _, r := range p.Ranges {
		writeU32(h, r.Offset)
		writeU32(h, r.Size)
		writeU32(h, uint32(r.Stages))
	}
	return PushConstantHandle(h.Sum32())
}

// SamplerType enumerates the predefined sampler recipes (§4.1
// "get_or_create_sampler").
type SamplerType int

const (
	SamplerDefault SamplerType = iota
	SamplerClampToEdge
	SamplerNearest
	SamplerShadow
	SamplerCubemap
	SamplerNearestClamp
)

// SamplerConfig is grounded on original_source's SamplerConfig struct: every
// field that participates in vkCreateSampler participates in the hash.
type SamplerConfig struct {
	MagFilter      vk.Filter
	MinFilter      vk.Filter
	AddressModeU   vk.SamplerAddressMode
	AddressModeV   vk.SamplerAddressMode
	AddressModeW   vk.SamplerAddressMode
	MipmapMode     vk.SamplerMipmapMode
	MinLod         float32
	MaxLod         float32
	MipLodBias     float32
	AnisotropyOn   bool
	MaxAnisotropy  float32
	BorderColor    vk.BorderColor
	CompareEnable  bool
	CompareOp      vk.CompareOp
}

const lodClampNone = 1000.0

func (c SamplerConfig) Hash() uint64 {
	h := fnv.New64a()
	writeU32(h, uint32(c.MagFilter))
	writeU32(h, uint32(c.MinFilter))
	writeU32(h, uint32(c.AddressModeU))
	writeU32(h, uint32(c.AddressModeV))
	writeU32(h, uint32(c.AddressModeW))
	writeU32(h, uint32(c.MipmapMode))
	writeF32(h, c.MinLod)
	writeF32(h, c.MaxLod)
	writeF32(h, c.MipLodBias)
	writeBool(h, c.AnisotropyOn)
	writeF32(h, c.MaxAnisotropy)
	writeU32(h, uint32(c.BorderColor))
	writeBool(h, c.CompareEnable)
	writeU32(h, uint32(c.CompareOp))
	return h.Sum64()
}

func DefaultSamplerConfig(maxAnisotropy float32) SamplerConfig {
	return SamplerConfig{
		MagFilter: vk.FILTER_LINEAR, MinFilter: vk.FILTER_LINEAR,
		AddressModeU: vk.SAMPLER_ADDRESS_MODE_REPEAT,
		AddressModeV: vk.SAMPLER_ADDRESS_MODE_REPEAT,
		AddressModeW: vk.SAMPLER_ADDRESS_MODE_REPEAT,
		MipmapMode:   vk.SAMPLER_MIPMAP_MODE_LINEAR,
		MaxLod:       lodClampNone,
		AnisotropyOn: maxAnisotropy > 1.0,
		MaxAnisotropy: maxAnisotropy,
		BorderColor:  vk.BORDER_COLOR_FLOAT_OPAQUE_BLACK,
	}
}

func ClampToEdgeSamplerConfig() SamplerConfig {
	return SamplerConfig{
		MagFilter: vk.FILTER_LINEAR, MinFilter: vk.FILTER_LINEAR,
		AddressModeU: vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE,
		AddressModeV: vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE,
		AddressModeW: vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_EDGE,
		MipmapMode:   vk.SAMPLER_MIPMAP_MODE_LINEAR,
		MaxLod:       lodClampNone,
		BorderColor:  vk.BORDER_COLOR_FLOAT_OPAQUE_BLACK,
	}
}

func NearestSamplerConfig() SamplerConfig {
	c := DefaultSamplerConfig(1.0)
	c.MagFilter, c.MinFilter = vk.FILTER_NEAREST, vk.FILTER_NEAREST
	c.MipmapMode = vk.SAMPLER_MIPMAP_MODE_NEAREST
	c.AnisotropyOn = false
	return c
}

func ShadowSamplerConfig() SamplerConfig {
	c := ClampToEdgeSamplerConfig()
	c.AddressModeU, c.AddressModeV, c.AddressModeW =
		vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER,
		vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER,
		vk.SAMPLER_ADDRESS_MODE_CLAMP_TO_BORDER
	c.CompareEnable = true
	c.CompareOp = vk.COMPARE_OP_LESS_OR_EQUAL
	return c
}

func CubemapSamplerConfig() SamplerConfig {
	return ClampToEdgeSamplerConfig()
}

func NearestClampSamplerConfig() SamplerConfig {
	c := ClampToEdgeSamplerConfig()
	c.MagFilter, c.MinFilter = vk.FILTER_NEAREST, vk.FILTER_NEAREST
	c.MipmapMode = vk.SAMPLER_MIPMAP_MODE_NEAREST
	return c
}

func ConfigFor(t SamplerType, deviceMaxAnisotropy float32) SamplerConfig {
	switch t {
	case SamplerClampToEdge:
		return ClampToEdgeSamplerConfig()
	case SamplerNearest:
		return NearestSamplerConfig()
	case SamplerShadow:
		return ShadowSamplerConfig()
	case SamplerCubemap:
		return CubemapSamplerConfig()
	case SamplerNearestClamp:
		return NearestClampSamplerConfig()
	default:
		return DefaultSamplerConfig(deviceMaxAnisotropy)
	}
}

type hasher interface {
	Write(p []byte) (n int, err error)
}

func writeU32(h hasher, v uint32) {
	_, _ = h.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

func writeF32(h hasher, v float32) {
	writeU32(h, math.Float32bits(v))
}

func writeBool(h hasher, v bool) {
	if v {
		writeU32(h, 1)
	} else {
		writeU32(h, 0)
	}
}
