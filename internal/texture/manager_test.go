package texture

import (
	"testing"

	"github.com/BANANASJIM/violet/internal/descriptor"
	vk "github.com/BANANASJIM/violet/internal/vk"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(vk.Device{}, vk.PhysicalDevice{}, vk.Queue{}, 0, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManagerInstallsFourDefaultsAtReservedIndices(t *testing.T) {
	m := newTestManager(t)

	defaults := map[string]struct {
		h    Handle
		want uint32
	}{
		"white":               {m.White, DefaultWhite},
		"black":               {m.Black, DefaultBlack},
		"normal":              {m.Normal, DefaultNormal},
		"metallic-roughness": {m.MetallicRoughness, DefaultMetallicRoughness},
	}
	for name, d := range defaults {
		tex, ok := m.Get(d.h)
		if !ok {
			t.Fatalf("%s: handle did not resolve", name)
		}
		if tex.BindlessIndex() != d.want {
			t.Fatalf("%s: bindless index = %d, want %d", name, tex.BindlessIndex(), d.want)
		}
	}
}

func TestZeroDeviceManagerProducesBookkeepingOnlyTextures(t *testing.T) {
	m := newTestManager(t)
	tex, ok := m.Get(m.White)
	if !ok {
		t.Fatalf("expected default white to resolve")
	}
	if tex.View() != (vk.ImageView{}) || tex.Sampler() != (vk.Sampler{}) {
		t.Fatalf("a zero-value device must never produce real VkImageView/VkSampler handles")
	}
}

func TestLoadAllocatesBeyondReservedRange(t *testing.T) {
	m := newTestManager(t)
	h, err := m.Load(2, 2, make([]byte, 2*2*4), descriptor.DefaultSamplerConfig(1.0))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	tex, ok := m.Get(h)
	if !ok {
		t.Fatalf("loaded texture did not resolve")
	}
	if tex.Width() != 2 || tex.Height() != 2 {
		t.Fatalf("got %dx%d, want 2x2", tex.Width(), tex.Height())
	}
}

func TestFreeInvalidatesHandle(t *testing.T) {
	m := newTestManager(t)
	h, err := m.Load(1, 1, make([]byte, 4), descriptor.DefaultSamplerConfig(1.0))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.Free(h)
	if _, ok := m.Get(h); ok {
		t.Fatalf("a freed handle must not resolve")
	}
}
