package shaderlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

const testFragSource = "#version 450\nlayout(location = 0) out vec4 outColor;\nvoid main() { outColor = vec4(1.0); }\n"

func writeShader(t *testing.T, dir, name, source string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadCachesByName(t *testing.T) {
	lib := New(vk.Device{}, nil, nil, nil)
	path := writeShader(t, t.TempDir(), "unlit.frag", testFragSource)
	info := CompileInfo{Name: "unlit", Path: path, EntryPoint: "main", Stage: StageFragment, Language: LanguageGLSL}

	h1, err := lib.Load("unlit", info)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	h2, err := lib.Load("unlit", info)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("loading the same name twice should return the cached handle: %v vs %v", h1, h2)
	}
}

func TestHandleForMatchesLoadedGeneration(t *testing.T) {
	lib := New(vk.Device{}, nil, nil, nil)
	path := writeShader(t, t.TempDir(), "unlit.frag", testFragSource)
	h, err := lib.Load("unlit", CompileInfo{Name: "unlit", Path: path, EntryPoint: "main", Stage: StageFragment, Language: LanguageGLSL})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := lib.HandleFor("unlit")
	if !ok || got != h {
		t.Fatalf("HandleFor(unlit) = (%v, %v), want (%v, true)", got, ok, h)
	}
}

func TestReloadBumpsGenerationAndExpiresOldHandle(t *testing.T) {
	lib := New(vk.Device{}, nil, nil, nil)
	dir := t.TempDir()
	path := writeShader(t, dir, "unlit.frag", testFragSource)
	h, err := lib.Load("unlit", CompileInfo{Name: "unlit", Path: path, EntryPoint: "main", Stage: StageFragment, Language: LanguageGLSL})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// Force a different stat (size+mtime) so HasSourceChanged reports true.
	time.Sleep(2 * time.Millisecond)
	if err := os.WriteFile(path, []byte(testFragSource+"\n"), 0o644); err != nil {
		t.Fatalf("rewrite shader source: %v", err)
	}

	changed, err := lib.Reload("unlit")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !changed {
		t.Fatalf("expected reload to report a change after the source was modified")
	}

	if _, ok := lib.Resolve(h); ok {
		t.Fatalf("a handle taken before reload must expire once the slot's generation advances")
	}

	fresh, ok := lib.HandleFor("unlit")
	if !ok {
		t.Fatalf("HandleFor must still resolve the name after reload")
	}
	if _, ok := lib.Resolve(fresh); !ok {
		t.Fatalf("the freshly looked-up handle must resolve")
	}
}

func TestReloadNoOpWhenSourceUnchanged(t *testing.T) {
	lib := New(vk.Device{}, nil, nil, nil)
	path := writeShader(t, t.TempDir(), "unlit.frag", testFragSource)
	if _, err := lib.Load("unlit", CompileInfo{Name: "unlit", Path: path, EntryPoint: "main", Stage: StageFragment, Language: LanguageGLSL}); err != nil {
		t.Fatalf("load: %v", err)
	}
	changed, err := lib.Reload("unlit")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if changed {
		t.Fatalf("reload should report no change when the source file didn't change")
	}
}

func TestResolveRejectsUnknownHandle(t *testing.T) {
	lib := New(vk.Device{}, nil, nil, nil)
	if _, ok := lib.Resolve(Handle{index: 99, generation: 0}); ok {
		t.Fatalf("an out-of-range handle must not resolve")
	}
	if _, ok := lib.Resolve(Invalid); ok {
		t.Fatalf("the zero Handle must never resolve")
	}
}

func TestBasename(t *testing.T) {
	cases := map[string]string{
		"shaders/unlit.slang":     "unlit",
		"unlit.slang":             "unlit",
		"a/b/c/pbr.forward.slang": "pbr.forward",
		"noext":                   "noext",
	}
	for in, want := range cases {
		if got := basename(in); got != want {
			t.Errorf("basename(%q) = %q, want %q", in, got, want)
		}
	}
}
