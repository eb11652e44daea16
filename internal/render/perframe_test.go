package render

import (
	"testing"

	vk "github.com/BANANASJIM/violet/internal/vk"
)

// TestPerFrameDynamicOffset implements §8 scenario 6: with frames_in_flight
// = 2 and aligned_stride = 256, set_current_frame(1) yields dynamicOffsets =
// [256]; set_current_frame(0) yields [0]. The scenario's stride (256) is
// smaller than this core's actual GlobalUBOSize, so it is constructed
// directly here rather than through NewPerFrameUniforms (which always
// aligns up to at least GlobalUBOSize bytes per slot).
func TestPerFrameDynamicOffset(t *testing.T) {
	p := &PerFrameUniforms{alignedStride: 256, framesInFlight: 2}

	p.SetCurrentFrame(1)
	if got := p.DynamicOffset(); got != 256 {
		t.Fatalf("expected dynamic offset 256 for frame 1, got %d", got)
	}

	p.SetCurrentFrame(0)
	if got := p.DynamicOffset(); got != 0 {
		t.Fatalf("expected dynamic offset 0 for frame 0, got %d", got)
	}
}

func TestNewPerFrameUniformsAlignsStrideToAtLeastGlobalUBOSize(t *testing.T) {
	p, err := NewPerFrameUniforms(vk.Device{}, vk.PhysicalDevice{}, 2, 256)
	if err != nil {
		t.Fatalf("NewPerFrameUniforms: %v", err)
	}
	if p.AlignedStride() < GlobalUBOSize || p.AlignedStride()%256 != 0 {
		t.Fatalf("expected aligned_stride >= %d and a multiple of 256, got %d", GlobalUBOSize, p.AlignedStride())
	}
}

func TestAlignUpRoundsToAlignment(t *testing.T) {
	cases := []struct{ size, align, want uint32 }{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{100, 0, 100},
	}
	for _, c := range cases {
		if got := alignUp(c.size, c.align); got != c.want {
			t.Fatalf("alignUp(%d, %d) = %d, want %d", c.size, c.align, got, c.want)
		}
	}
}

func TestPerFrameWriteAndReadBack(t *testing.T) {
	p, err := NewPerFrameUniforms(vk.Device{}, vk.PhysicalDevice{}, 2, 16)
	if err != nil {
		t.Fatalf("NewPerFrameUniforms: %v", err)
	}

	p.SetCurrentFrame(0)
	p.Write([]byte{1, 2, 3, 4})
	p.SetCurrentFrame(1)
	p.Write([]byte{9, 9, 9, 9})

	off0 := uint32(0)
	off1 := p.AlignedStride()
	if p.mapped[off0] != 1 || p.mapped[off1] != 9 {
		t.Fatalf("expected frame 0 and frame 1 slots to hold independent data")
	}
}
