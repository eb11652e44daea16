package shaderlib

import (
	"fmt"

	"github.com/BANANASJIM/violet/internal/slangc"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

// slangCompiler adapts internal/slangc into the Compiler interface and
// performs the §4.2 reflection extraction (steps 1-5) on every compile.
type slangCompiler struct {
	global *slangc.GlobalSession
}

func newSlangCompiler() (*slangCompiler, error) {
	g, err := slangc.NewGlobalSession()
	if err != nil {
		return nil, fmt.Errorf("shaderlib: slang global session: %w", err)
	}
	return &slangCompiler{global: g}, nil
}

func (s *slangCompiler) Close() { s.global.Close() }

func (s *slangCompiler) Compile(info CompileInfo) (CompileOutput, error) {
	hash, err := computeSourceHash(info.Path)
	if err != nil {
		return CompileOutput{}, err
	}

	req, err := s.global.NewCompileRequest(info.IncludePaths, info.Defines)
	if err != nil {
		return CompileOutput{}, err
	}
	defer req.Close()

	unit, err := req.LoadModule(info.Path)
	if err != nil {
		return CompileOutput{}, err
	}
	epIdx, err := req.AddEntryPoint(unit, info.EntryPoint, toSlangStage(info.Stage))
	if err != nil {
		return CompileOutput{}, err
	}
	if err := req.Compile(); err != nil {
		return CompileOutput{}, fmt.Errorf("shaderlib: %s: %w", info.Name, err)
	}

	spirv, err := req.EntryPointCode(epIdx)
	if err != nil {
		return CompileOutput{}, err
	}

	layout, err := req.Layout()
	if err != nil {
		return CompileOutput{SPIRV: spirv, SourceHash: hash}, nil
	}
	refl := extractReflection(layout)
	return CompileOutput{SPIRV: spirv, SourceHash: hash, Reflection: refl}, nil
}

func (s *slangCompiler) HasSourceChanged(path string, lastHash uint64) (bool, error) {
	h, err := computeSourceHash(path)
	if err != nil {
		return false, err
	}
	return h != lastHash, nil
}

func (s *slangCompiler) ComputeSourceHash(path string) (uint64, error) { return computeSourceHash(path) }

// ModuleEntryPoints implements §4.2's "get_module_entry_points(path)":
// enumerate every {name, stage} a Slang module defines.
func (s *slangCompiler) ModuleEntryPoints(path string) ([]CompileInfo, error) {
	req, err := s.global.NewCompileRequest(nil, nil)
	if err != nil {
		return nil, err
	}
	defer req.Close()

	unit, err := req.LoadModule(path)
	if err != nil {
		return nil, err
	}
	if err := req.Compile(); err != nil {
		return nil, err
	}
	eps, err := req.GetModuleEntryPoints(unit)
	if err != nil {
		return nil, err
	}

	out := make([]CompileInfo, 0, len(eps))
	for _, ep := range eps {
		out = append(out, CompileInfo{
			Name:       ep.Name,
			Path:       path,
			EntryPoint: ep.Name,
			Stage:      fromSlangStage(ep.Stage),
			Language:   LanguageSlang,
		})
	}
	return out, nil
}

func toSlangStage(s Stage) slangc.Stage {
	switch s {
	case StageFragment:
		return slangc.StageFragment
	case StageCompute:
		return slangc.StageCompute
	case StageGeometry:
		return slangc.StageGeometry
	case StageTessControl:
		return slangc.StageTessControl
	case StageTessEvaluation:
		return slangc.StageTessEvaluation
	default:
		return slangc.StageVertex
	}
}

func fromSlangStage(s slangc.Stage) Stage {
	switch s {
	case slangc.StageFragment:
		return StageFragment
	case slangc.StageCompute:
		return StageCompute
	case slangc.StageGeometry:
		return StageGeometry
	case slangc.StageTessControl:
		return StageTessControl
	case slangc.StageTessEvaluation:
		return StageTessEvaluation
	default:
		return StageVertex
	}
}

// bindlessThreshold triggers the §4.2 step 2 bindless-array inference for
// parameters whose element count is zero (unbounded) or implausibly large.
const bindlessThreshold = 10000

// staticArrayThreshold is the §4.2 step 5 UpdateFrequency inference cutoff.
const staticArrayThreshold = 100

// slangCategoryResource/Buffer mirror the SlangParameterCategory values
// relevant to descriptor-type inference; only the categories step 2 names
// are handled, others fall back to FieldUnknown-equivalent "skip".
const (
	slangCategoryConstantBuffer  = 8  // SLANG_PARAMETER_CATEGORY_CONSTANT_BUFFER in slang.h
	slangCategoryShaderResource  = 10 // SLANG_PARAMETER_CATEGORY_SHADER_RESOURCE
	slangCategoryUnorderedAccess = 11 // SLANG_PARAMETER_CATEGORY_UNORDERED_ACCESS
	slangCategorySamplerState    = 12 // SLANG_PARAMETER_CATEGORY_SAMPLER_STATE
	slangCategoryPushConstant    = 19 // SLANG_PARAMETER_CATEGORY_PUSH_CONSTANT_BUFFER
)

func extractReflection(layout *slangc.Layout) *Reflection {
	refl := &Reflection{}
	for i := 0; i < layout.ParameterCount(); i++ {
		p := layout.ParameterAt(i)

		switch p.Category {
		case slangCategoryPushConstant:
			refl.PushConstants = append(refl.PushConstants, ReflectedPushConstant{
				Offset:     0,
				Size:       p.ElementSize,
				StageFlags: vk.SHADER_STAGE_VERTEX_BIT | vk.SHADER_STAGE_FRAGMENT_BIT,
			})
			continue
		case slangCategoryConstantBuffer:
			refl.Descriptors = append(refl.Descriptors, reflectedDescriptorFor(p, vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER))
		case slangCategoryShaderResource:
			refl.Descriptors = append(refl.Descriptors, reflectedDescriptorFor(p, vk.DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER))
		case slangCategoryUnorderedAccess:
			refl.Descriptors = append(refl.Descriptors, reflectedDescriptorFor(p, vk.DESCRIPTOR_TYPE_STORAGE_BUFFER))
		case slangCategorySamplerState:
			refl.Descriptors = append(refl.Descriptors, reflectedDescriptorFor(p, vk.DESCRIPTOR_TYPE_SAMPLER))
		}
	}
	return refl
}

func reflectedDescriptorFor(p slangc.Parameter, t vk.DescriptorType) ReflectedDescriptor {
	count := p.Count
	bindless := count == 0 || count > bindlessThreshold
	if bindless {
		count = 1024
	}
	return ReflectedDescriptor{
		Set:        p.BindingSet,
		Binding:    p.Binding,
		Type:       t,
		Count:      count,
		StageFlags: vk.SHADER_STAGE_VERTEX_BIT | vk.SHADER_STAGE_FRAGMENT_BIT,
		IsBindless: bindless,
		ArraySize:  count,
	}
}
