package descriptor

import (
	"testing"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

// TestLayoutHashRoundTrip checks §8's "DescriptorLayoutDesc content equality
// ⟺ handle equality" in both directions.
func TestLayoutHashRoundTrip(t *testing.T) {
	a := DescriptorLayoutDesc{
		Frequency: PerFrame,
		Bindings: []BindingDesc{
			{Binding: 0, Type: vk.DESCRIPTOR_TYPE_UNIFORM_BUFFER, Stages: vk.SHADER_STAGE_VERTEX_BIT, Count: 1},
		},
	}
	b := a
	b.Bindings = append([]BindingDesc{}, a.Bindings...)
	if a.Hash() != b.Hash() {
		t.Fatalf("structurally identical descs hashed differently")
	}

	c := a
	c.IsBindless = true
	if a.Hash() == c.Hash() {
		t.Fatalf("IsBindless must participate in the hash")
	}
}

func TestDescriptorLayoutDescValid(t *testing.T) {
	zeroCount := DescriptorLayoutDesc{Bindings: []BindingDesc{{Count: 0}}}
	if zeroCount.Valid() {
		t.Fatalf("zero-count non-bindless binding should be invalid")
	}
	zeroCount.IsBindless = true
	if !zeroCount.Valid() {
		t.Fatalf("zero-count binding should be valid once IsBindless is set")
	}
}

func TestPushConstantDescHashEmptyIsNoPushConstants(t *testing.T) {
	if (PushConstantDesc{}).Hash() != NoPushConstants {
		t.Fatalf("an empty PushConstantDesc must hash to NoPushConstants")
	}
}

func TestSamplerConfigHashDistinguishesFilters(t *testing.T) {
	linear := DefaultSamplerConfig(16.0)
	nearest := NearestSamplerConfig()
	if linear.Hash() == nearest.Hash() {
		t.Fatalf("distinct sampler configs must not collide")
	}
	if linear.Hash() != DefaultSamplerConfig(16.0).Hash() {
		t.Fatalf("identical sampler configs must hash identically")
	}
}
