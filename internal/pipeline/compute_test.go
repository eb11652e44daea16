package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/shaderlib"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

const testCompSource = "#version 450\nlayout(local_size_x = 64) in;\nvoid main() {}\n"

func TestComputeBuildWithZeroDeviceIsBookkeepingOnly(t *testing.T) {
	lib := newTestLibrary()
	path := filepath.Join(t.TempDir(), "luminance.glsl")
	if err := os.WriteFile(path, []byte(testCompSource), 0o644); err != nil {
		t.Fatalf("write test shader source: %v", err)
	}
	if _, err := lib.Load("luminance", shaderlib.CompileInfo{
		Name: "luminance", Path: path, EntryPoint: "main", Stage: shaderlib.StageCompute, Language: shaderlib.LanguageGLSL,
	}); err != nil {
		t.Fatalf("load luminance: %v", err)
	}

	p, err := NewCompute(vk.Device{}, nil, lib, "luminance", nil, descriptor.PushConstantDesc{})
	if err != nil {
		t.Fatalf("NewCompute: %v", err)
	}
	if p.Handle() != (vk.Pipeline{}) {
		t.Fatalf("a zero-value device must never produce a real VkPipeline handle")
	}
}

func TestComputeRebuildFailsWhenShaderWasNeverLoaded(t *testing.T) {
	lib := newTestLibrary()
	p := &Compute{device: vk.Device{}, shaders: lib, computeName: "never_loaded"}
	if p.Rebuild() {
		t.Fatalf("Rebuild must fail for a shader name that was never loaded")
	}
}
