package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BANANASJIM/violet/internal/descriptor"
	"github.com/BANANASJIM/violet/internal/shaderlib"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

const testVertSource = "#version 450\nvoid main() { gl_Position = vec4(0.0); }\n"
const testFragSource = "#version 450\nlayout(location = 0) out vec4 outColor;\nvoid main() { outColor = vec4(1.0); }\n"

func newTestLibrary() *shaderlib.Library {
	return shaderlib.New(vk.Device{}, nil, nil, nil)
}

// loadTestShader writes a minimal valid GLSL source to a temp file and loads
// it; computeSourceHash requires the path to exist on disk, and the glsl
// frontend needs real compilable source since there is no precompiled
// fallback under test.
func loadTestShader(t *testing.T, lib *shaderlib.Library, name string, stage shaderlib.Stage) {
	t.Helper()
	source := testVertSource
	if stage == shaderlib.StageFragment {
		source = testFragSource
	}
	path := filepath.Join(t.TempDir(), name+".glsl")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write test shader source: %v", err)
	}
	_, err := lib.Load(name, shaderlib.CompileInfo{
		Name: name, Path: path, EntryPoint: "main", Stage: stage, Language: shaderlib.LanguageGLSL,
	})
	if err != nil {
		t.Fatalf("load %q: %v", name, err)
	}
}

func TestGraphicsBuildWithZeroDeviceIsBookkeepingOnly(t *testing.T) {
	lib := newTestLibrary()
	loadTestShader(t, lib, "unlit.vert", shaderlib.StageVertex)
	loadTestShader(t, lib, "unlit.frag", shaderlib.StageFragment)

	p, err := NewGraphics(vk.Device{}, nil, lib, "unlit.vert", "unlit.frag", Config{
		PrimitiveTopology: vk.PRIMITIVE_TOPOLOGY_TRIANGLE_LIST,
		ColorFormats:      []vk.Format{vk.FORMAT_R16G16B16A16_SFLOAT},
	})
	if err != nil {
		t.Fatalf("NewGraphics: %v", err)
	}
	if p.Handle() != (vk.Pipeline{}) {
		t.Fatalf("a zero-value device must never produce a real VkPipeline handle")
	}
}

func TestGraphicsBuildFailsWhenShaderNeverLoaded(t *testing.T) {
	lib := newTestLibrary()
	loadTestShader(t, lib, "present.vert", shaderlib.StageVertex)
	if _, err := NewGraphics(vk.Device{}, nil, lib, "present.vert", "missing.frag", Config{}); err == nil {
		t.Fatalf("expected an error when the fragment shader was never loaded")
	}
}

func TestGraphicsRebuildSucceedsWhileShadersResolvable(t *testing.T) {
	lib := newTestLibrary()
	loadTestShader(t, lib, "tonemap.vert", shaderlib.StageVertex)
	loadTestShader(t, lib, "tonemap.frag", shaderlib.StageFragment)

	p, err := NewGraphics(vk.Device{}, nil, lib, "tonemap.vert", "tonemap.frag", Config{
		ColorFormats: []vk.Format{vk.FORMAT_R8G8B8A8_UNORM},
	})
	if err != nil {
		t.Fatalf("NewGraphics: %v", err)
	}
	if !p.Rebuild() {
		t.Fatalf("Rebuild should succeed when both shaders are still resolvable")
	}
}

func TestOrderedLayoutsSkipsNullSlots(t *testing.T) {
	c := Config{AdditionalDescriptorSetLayouts: []descriptor.LayoutHandle{42}}
	got := c.orderedLayouts()
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("expected only the additional layout when global/material are unset, got %v", got)
	}

	c.GlobalDescriptorSetLayout = 7
	c.MaterialDescriptorSetLayout = 9
	got = c.orderedLayouts()
	want := []descriptor.LayoutHandle{7, 9, 42}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v want %v", i, got, want)
		}
	}
}
