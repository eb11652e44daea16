// Package slangc is a cgo binding against the Slang shader compiler's
// classic C compile-request API (slang.h's spCreateSession /
// spCreateCompileRequest / spCompile / spGetEntryPointCode family, plus
// spReflection_* for structural reflection). Unlike the Vulkan bindings it
// has no calloc/vulkanize/free struct marshaling: Slang's API takes opaque
// handles and C strings, which are passed with C.CString.
package slangc

/*
#cgo pkg-config: slang
#include <slang.h>
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"unsafe"
)

type GlobalSession struct {
	handle C.SlangSession
}

// NewGlobalSession creates the process-wide Slang session once; a fresh
// SlangCompileRequest is created per compilation from it (§4.2 "create a
// global session once, a local session per compilation").
func NewGlobalSession() (*GlobalSession, error) {
	s := C.spCreateSession(nil)
	if s == nil {
		return nil, fmt.Errorf("slangc: spCreateSession failed")
	}
	return &GlobalSession{handle: s}, nil
}

func (g *GlobalSession) Close() {
	C.spDestroySession(g.handle)
}

type CompileRequest struct {
	handle C.SlangCompileRequest
	global *GlobalSession
}

type EntryPoint struct {
	Name  string
	Stage Stage
}

type Stage int

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
	StageGeometry
	StageTessControl
	StageTessEvaluation
)

func (s Stage) slangStage() C.SlangStage {
	switch s {
	case StageFragment:
		return C.SLANG_STAGE_FRAGMENT
	case StageCompute:
		return C.SLANG_STAGE_COMPUTE
	case StageGeometry:
		return C.SLANG_STAGE_GEOMETRY
	case StageTessControl:
		return C.SLANG_STAGE_HULL
	case StageTessEvaluation:
		return C.SLANG_STAGE_DOMAIN
	default:
		return C.SLANG_STAGE_VERTEX
	}
}

// NewCompileRequest builds a local session for one compilation: SPIR-V
// target, include search paths, and preprocessor macros, matching §4.2's
// "SPIR-V target, search paths from include_paths, preprocessor macros from
// defines".
func (g *GlobalSession) NewCompileRequest(searchPaths []string, defines map[string]string) (*CompileRequest, error) {
	req := C.spCreateCompileRequest(g.handle)
	if req == nil {
		return nil, fmt.Errorf("slangc: spCreateCompileRequest failed")
	}
	C.spSetCodeGenTarget(req, C.SLANG_SPIRV)
	C.spSetTargetProfile(req, 0, C.spFindProfile(g.handle, C.CString("sm_6_6")))

	for _, p := range searchPaths {
		cp := C.CString(p)
		C.spAddSearchPath(req, cp)
		C.free(unsafe.Pointer(cp))
	}
	for k, v := range defines {
		ck, cv := C.CString(k), C.CString(v)
		C.spAddPreprocessorDefine(req, ck, cv)
		C.free(unsafe.Pointer(ck))
		C.free(unsafe.Pointer(cv))
	}

	return &CompileRequest{handle: req, global: g}, nil
}

func (r *CompileRequest) Close() {
	C.spDestroyCompileRequest(r.handle)
}

// LoadModule adds path as a translation unit and returns its index, used
// by both single-entry-point compiles and §4.2's
// get_module_entry_points(path) batch-load path.
func (r *CompileRequest) LoadModule(path string) (int, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	unit := C.spAddTranslationUnit(r.handle, C.SLANG_SOURCE_LANGUAGE_SLANG, nil)
	C.spAddTranslationUnitSourceFile(r.handle, unit, cPath)
	return int(unit), nil
}

// AddEntryPoint registers a named entry point on translation unit `unit`.
func (r *CompileRequest) AddEntryPoint(unit int, name string, stage Stage) (int, error) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	idx := C.spAddEntryPoint(r.handle, C.int(unit), cName, stage.slangStage())
	if idx < 0 {
		return 0, fmt.Errorf("slangc: entry point %q not found", name)
	}
	return int(idx), nil
}

// Compile runs the full compile; callers then pull per-entry-point SPIR-V
// via EntryPointCode and reflection via Layout.
func (r *CompileRequest) Compile() error {
	result := C.spCompile(r.handle)
	if C.SLANG_FAILED(result) != 0 {
		msg := C.GoString(C.spGetDiagnosticOutput(r.handle))
		return fmt.Errorf("slangc: compile failed: %s", msg)
	}
	return nil
}

// EntryPointCode returns the compiled SPIR-V for entryPointIndex as a
// []uint32 (spGetEntryPointCode hands back a raw byte blob; Slang emits
// SPIR-V word-aligned so the reinterpretation is safe).
func (r *CompileRequest) EntryPointCode(entryPointIndex int) ([]uint32, error) {
	var size C.size_t
	ptr := C.spGetEntryPointCode(r.handle, C.int(entryPointIndex), &size)
	if ptr == nil || size == 0 {
		return nil, fmt.Errorf("slangc: no code for entry point %d", entryPointIndex)
	}
	raw := C.GoBytes(ptr, C.int(size))
	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
	}
	return words, nil
}

// Layout returns the request's reflection handle (slang::ProgramLayout*),
// retained by the caller (shaderlib) for immediate post-compile extraction
// per §4.2 step "Reflection ... is retained on the compiler for immediate
// post-compile extraction by ShaderLibrary".
func (r *CompileRequest) Layout() (*Layout, error) {
	l := C.spGetReflection(r.handle)
	if l == nil {
		return nil, fmt.Errorf("slangc: no reflection layout available")
	}
	return &Layout{handle: l}, nil
}

type Layout struct {
	handle C.SlangReflection
}

func (l *Layout) ParameterCount() int {
	return int(C.spReflection_GetParameterCount(l.handle))
}

// Parameter holds the subset of a slang::VariableLayoutReflection's surface
// the shaderlib reflection extractor walks (§4.2 steps 1-4): binding
// space/index, category (resource kind), element count, and the variable
// type's reported size. Buffer field layouts are not extracted.
type Parameter struct {
	Name        string
	BindingSet  uint32
	Binding     uint32
	Category    int
	ElementSize uint32
	Count       uint32
}

func (l *Layout) ParameterAt(index int) Parameter {
	p := C.spReflection_GetParameterByIndex(l.handle, C.uint(index))
	return Parameter{
		Name:        C.GoString(C.spReflectionVariable_GetName(C.spReflectionParameter_GetVariable(p))),
		BindingSet:  uint32(C.spReflectionParameter_GetBindingSpace(p)),
		Binding:     uint32(C.spReflectionParameter_GetBindingIndex(p)),
		Category:    int(C.spReflectionParameter_GetCategory(p)),
		ElementSize: uint32(C.spReflectionType_GetSize(C.spReflectionVariable_GetType(C.spReflectionParameter_GetVariable(p)), 0)),
		Count:       uint32(C.spReflectionType_GetElementCount(C.spReflectionVariable_GetType(C.spReflectionParameter_GetVariable(p)))),
	}
}

// GetModuleEntryPoints returns every entry point a module defines, so
// ShaderLibrary can batch-load multi-entry modules in one call (§4.2
// "get_module_entry_points(path)").
func (r *CompileRequest) GetModuleEntryPoints(unit int) ([]EntryPoint, error) {
	count := int(C.spReflection_GetEntryPointCount(C.spGetReflection(r.handle)))
	out := make([]EntryPoint, 0, count)
	refl := C.spGetReflection(r.handle)
	for i := 0; i < count; i++ {
		ep := C.spReflection_GetEntryPointByIndex(refl, C.SlangUInt(i))
		name := C.GoString(C.spReflectionEntryPoint_GetName(ep))
		stage := C.spReflectionEntryPoint_getStage(ep)
		out = append(out, EntryPoint{Name: name, Stage: fromSlangStage(stage)})
	}
	return out, nil
}

func fromSlangStage(s C.SlangStage) Stage {
	switch s {
	case C.SLANG_STAGE_FRAGMENT:
		return StageFragment
	case C.SLANG_STAGE_COMPUTE:
		return StageCompute
	case C.SLANG_STAGE_GEOMETRY:
		return StageGeometry
	case C.SLANG_STAGE_HULL:
		return StageTessControl
	case C.SLANG_STAGE_DOMAIN:
		return StageTessEvaluation
	default:
		return StageVertex
	}
}
