// Package shaderlib compiles shader source to SPIR-V, caches it by name,
// exposes reflection, and re-registers descriptor layouts on reload (§4.2).
// Grounded on the teacher's shaderc cgo wrapper (internal/shaderc) for the
// GLSL frontend and a new slangc cgo wrapper (internal/slangc, written in
// the same calloc/vulkanize/free idiom the teacher uses for direct Vulkan
// calls) for the Slang frontend.
package shaderlib

import (
	"github.com/BANANASJIM/violet/internal/descriptor"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
	StageGeometry
	StageTessControl
	StageTessEvaluation
)

func (s Stage) VkStageFlag() vk.ShaderStageFlags {
	switch s {
	case StageVertex:
		return vk.SHADER_STAGE_VERTEX_BIT
	case StageFragment:
		return vk.SHADER_STAGE_FRAGMENT_BIT
	case StageCompute:
		return vk.SHADER_STAGE_COMPUTE_BIT
	case StageGeometry:
		return vk.SHADER_STAGE_GEOMETRY_BIT
	case StageTessControl:
		return vk.SHADER_STAGE_TESSELLATION_CONTROL_BIT
	case StageTessEvaluation:
		return vk.SHADER_STAGE_TESSELLATION_EVALUATION_BIT
	default:
		return 0
	}
}

type Language int

const (
	LanguageGLSL Language = iota
	LanguageSlang
)

// FieldType enumerates the scalar/vector/matrix kinds reflection can report
// for a UBO/SSBO field (§4.2 reflection extraction, step 3).
type FieldType int

const (
	FieldUnknown FieldType = iota
	FieldFloat
	FieldVec2
	FieldVec3
	FieldVec4
	FieldInt
	FieldUInt
	FieldMat4
)

type UBOField struct {
	Name   string
	Offset uint32
	Size   uint32
	Type   FieldType
}

type BufferLayout struct {
	Name       string
	Set        uint32
	Binding    uint32
	TotalSize  uint32
	Fields     []UBOField
}

// ReflectedDescriptor mirrors §3 ShaderReflection's per-descriptor entry.
type ReflectedDescriptor struct {
	Set          uint32
	Binding      uint32
	Type         vk.DescriptorType
	Count        uint32
	StageFlags   vk.ShaderStageFlags
	IsBindless   bool
	ArraySize    uint32
	BufferLayout *BufferLayout
}

type ReflectedPushConstant struct {
	Offset     uint32
	Size       uint32
	StageFlags vk.ShaderStageFlags
}

// Reflection holds everything §4.2 step 1-5 extracts from a Slang module.
// GLSL-compiled shaders carry a nil Reflection (the teacher's shaderc
// binding has no structural reflection API), matching §3's "Reflection is
// populated only when compiled from a language with structural reflection".
type Reflection struct {
	Descriptors    []ReflectedDescriptor
	PushConstants  []ReflectedPushConstant
}

// Shader is the library's unit of ownership (§3 Shader). ShaderLibrary
// holds the authoritative copy; pipelines reference it only through a
// Handle (see handle.go) so a reload never needs to chase live pointers.
type Shader struct {
	Name        string
	SourcePath  string
	EntryPoint  string
	Stage       Stage
	Language    Language
	SPIRV       []uint32
	SourceHash  uint64
	Reflection  *Reflection
	Layouts     []descriptor.LayoutHandle
	PushConst   descriptor.PushConstantHandle

	module vk.ShaderModule
}

// Module returns the compiled VkShaderModule, valid only once the Library's
// device is non-zero (see Library.createModule).
func (s *Shader) Module() vk.ShaderModule { return s.module }
