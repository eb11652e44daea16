package shaderlib

import (
	"fmt"
	"os"

	"github.com/BANANASJIM/violet/internal/shaderc"
)

// CompileInfo is the Compiler interface's request shape (§4.2).
type CompileInfo struct {
	Name         string
	Path         string
	EntryPoint   string
	Stage        Stage
	Language     Language
	IncludePaths []string
	Defines      map[string]string
}

type CompileOutput struct {
	SPIRV      []uint32
	SourceHash uint64
	Reflection *Reflection
}

// Compiler is implemented by glslCompiler and slangCompiler.
type Compiler interface {
	Compile(info CompileInfo) (CompileOutput, error)
	HasSourceChanged(path string, lastHash uint64) (bool, error)
	ComputeSourceHash(path string) (uint64, error)
}

// computeSourceHash implements the cheap `(st_size ^ st_mtime)` recipe
// §4.2 specifies for both frontends.
func computeSourceHash(path string) (uint64, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("shaderlib: stat %s: %w", path, err)
	}
	return uint64(fi.Size()) ^ uint64(fi.ModTime().UnixNano()), nil
}

// glslCompiler is backed by the teacher's shaderc cgo binding. It attempts
// a runtime compile first and falls back to a pre-compiled SPIR-V blob at
// build/shaders/<filename>.spv, per §4.2.
type glslCompiler struct {
	compiler shaderc.Compiler
}

func newGLSLCompiler() *glslCompiler {
	return &glslCompiler{compiler: shaderc.NewCompiler()}
}

func (g *glslCompiler) Close() { g.compiler.Release() }

func (g *glslCompiler) Compile(info CompileInfo) (CompileOutput, error) {
	hash, err := computeSourceHash(info.Path)
	if err != nil {
		return CompileOutput{}, err
	}

	source, readErr := os.ReadFile(info.Path)
	if readErr == nil {
		opts := shaderc.NewCompileOptions()
		defer opts.Release()
		opts.SetTargetEnv(shaderc.TargetEnvVulkan, shaderc.EnvVersionVulkan_1_3)
		opts.SetOptimizationLevel(shaderc.OptimizationLevelPerformance)

		result, compileErr := g.compiler.CompileIntoSPV(string(source), info.Path, glslShaderKind(info.Stage), opts)
		if compileErr == nil {
			defer result.Release()
			return CompileOutput{SPIRV: bytesToWords(result.GetBytes()), SourceHash: hash}, nil
		}
	}

	spv, fallbackErr := os.ReadFile(precompiledPath(info.Name))
	if fallbackErr != nil {
		return CompileOutput{}, fmt.Errorf("shaderlib: %s: runtime compile unavailable and no precompiled SPIR-V found: %w", info.Name, fallbackErr)
	}
	return CompileOutput{SPIRV: bytesToWords(spv), SourceHash: hash}, nil
}

func (g *glslCompiler) HasSourceChanged(path string, lastHash uint64) (bool, error) {
	h, err := computeSourceHash(path)
	if err != nil {
		return false, err
	}
	return h != lastHash, nil
}

func (g *glslCompiler) ComputeSourceHash(path string) (uint64, error) { return computeSourceHash(path) }

func precompiledPath(name string) string {
	return "build/shaders/" + name + ".spv"
}

func glslShaderKind(stage Stage) shaderc.ShaderKind {
	switch stage {
	case StageFragment:
		return shaderc.FragmentShader
	case StageCompute:
		return shaderc.ComputeShader
	default:
		return shaderc.VertexShader
	}
}

func bytesToWords(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
	}
	return words
}
