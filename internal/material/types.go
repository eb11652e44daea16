// Package material implements the MaterialManager and MaterialInstance
// variants of §4.4/§4.5: material definitions (pipeline + descriptor layout
// list) and per-instance rows in the shared MaterialData SSBO. Grounded on
// the teacher's vala/systems/render.go material-binding sequence, adapted
// from per-draw descriptor sets to the bindless/SSBO model the spec
// requires.
package material

import (
	"math"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/logging"
	"github.com/BANANASJIM/violet/internal/pipeline"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

var log = logging.For("material")

type Type int

const (
	TypePBR Type = iota
	TypeUnlit
	TypePostProcess
	TypeSkybox
	TypeCustom
)

type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// InstanceID identifies a MaterialInstance; 0 denotes allocation failure or
// "no material" (§4.4 create_material_instance).
type InstanceID uint32

// MaterialDataSize is the declared GPU row stride (§3 "MaterialData (GPU
// row, 128 B, 16-B-aligned)"). The field list below serializes to 68 bytes;
// the rest is reserved padding so the row never needs to grow and shift
// every other instance's offset.
const MaterialDataSize = 128

// MaterialData is the CPU-side mirror of one SSBO row (§3). Field order
// matches the fragment shader's struct exactly.
type MaterialData struct {
	BaseColorFactor   [4]float32
	Metallic          float32
	Roughness         float32
	NormalScale       float32
	OcclusionStrength float32
	EmissiveFactor    [3]float32
	AlphaCutoff       float32
	BaseColorTexIndex uint32
	MrTexIndex        uint32
	NormalTexIndex    uint32
	OcclusionTexIndex uint32
	EmissiveTexIndex  uint32
	reservedPadding   [15]uint32 // pads the 68 content bytes out to 128
}

// Byte offsets of the texture-index fields within the serialized row, used
// by the read-modify-write texture setters in §4.5 step 1 ("read the
// current SSBO row to discover the previous bindless index").
const (
	baseColorTexOffset = 4*4 + 4*4 + 3*4 + 4 // after BaseColorFactor, 4 scalars, EmissiveFactor, AlphaCutoff
	mrTexOffset         = baseColorTexOffset + 4
	normalTexOffset     = mrTexOffset + 4
	occlusionTexOffset  = normalTexOffset + 4
	emissiveTexOffset   = occlusionTexOffset + 4
)

func encodeMaterialData(d MaterialData) []byte {
	buf := make([]byte, MaterialDataSize)
	putVec4(buf[0:], d.BaseColorFactor)
	putF32(buf[16:], d.Metallic)
	putF32(buf[20:], d.Roughness)
	putF32(buf[24:], d.NormalScale)
	putF32(buf[28:], d.OcclusionStrength)
	putVec3(buf[32:], d.EmissiveFactor)
	putF32(buf[44:], d.AlphaCutoff)
	putU32(buf[baseColorTexOffset:], d.BaseColorTexIndex)
	putU32(buf[mrTexOffset:], d.MrTexIndex)
	putU32(buf[normalTexOffset:], d.NormalTexIndex)
	putU32(buf[occlusionTexOffset:], d.OcclusionTexIndex)
	putU32(buf[emissiveTexOffset:], d.EmissiveTexIndex)
	return buf
}

// CreateDesc is the create_material argument of §4.4.
type CreateDesc struct {
	Name               string
	VertexShader       string
	FragmentShader     string
	DescriptorSetLayoutNames []string
	PipelineConfig     pipeline.Config
	Type               Type
	AlphaMode          AlphaMode
	DoubleSided        bool
}

// Material is the §3 Material record: a built pipeline plus the descriptor
// layout sequence it was built against.
type Material struct {
	Name                  string
	Pipeline              *pipeline.Graphics
	DeclaredLayoutHandles []descriptor.LayoutHandle
	Type                  Type
	AlphaMode             AlphaMode
	DoubleSided           bool
}

func putF32(b []byte, v float32) { putU32(b, math.Float32bits(v)) }
func putVec3(b []byte, v [3]float32) {
	for i, f := range v {
		putF32(b[i*4:], f)
	}
}
func putVec4(b []byte, v [4]float32) {
	for i, f := range v {
		putF32(b[i*4:], f)
	}
}
func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func getU32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// pbrPushConstantRanges implements §4.4's PBR recipe: 80 B, vertex+fragment.
func pbrPushConstantRanges() descriptor.PushConstantDesc {
	return descriptor.PushConstantDesc{Ranges: []descriptor.PushConstantRange{
		{Offset: 0, Size: 80, Stages: vk.SHADER_STAGE_VERTEX_BIT | vk.SHADER_STAGE_FRAGMENT_BIT},
	}}
}

// postProcessPushConstantRanges implements the PostProcess recipe: 16 B,
// vertex+fragment (the unused stage flag is included to satisfy validation,
// per §4.4).
func postProcessPushConstantRanges() descriptor.PushConstantDesc {
	return descriptor.PushConstantDesc{Ranges: []descriptor.PushConstantRange{
		{Offset: 0, Size: 16, Stages: vk.SHADER_STAGE_VERTEX_BIT | vk.SHADER_STAGE_FRAGMENT_BIT},
	}}
}
