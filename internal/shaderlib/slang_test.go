package shaderlib

import (
	"testing"

	"github.com/BANANASJIM/violet/internal/slangc"
)

func TestSlangStageRoundTrip(t *testing.T) {
	stages := []Stage{StageVertex, StageFragment, StageCompute, StageGeometry, StageTessControl, StageTessEvaluation}
	for _, s := range stages {
		got := fromSlangStage(toSlangStage(s))
		if got != s {
			t.Errorf("round trip for stage %v produced %v", s, got)
		}
	}
}

func TestToSlangStageUnknownDefaultsToVertex(t *testing.T) {
	if toSlangStage(Stage(99)) != slangc.StageVertex {
		t.Fatalf("an unrecognized Stage value should default to StageVertex, matching the teacher's fallback idiom")
	}
}

func TestReflectedDescriptorForInfersBindlessOnUnboundedCount(t *testing.T) {
	unbounded := slangc.Parameter{BindingSet: 1, Binding: 2, Count: 0}
	d := reflectedDescriptorFor(unbounded, 0)
	if !d.IsBindless {
		t.Fatalf("a zero element count (unbounded array) must infer bindless")
	}
	if d.ArraySize != 1024 {
		t.Fatalf("bindless arrays should clamp ArraySize to 1024, got %d", d.ArraySize)
	}
}

func TestReflectedDescriptorForInfersBindlessAboveThreshold(t *testing.T) {
	huge := slangc.Parameter{Count: bindlessThreshold + 1}
	if !reflectedDescriptorFor(huge, 0).IsBindless {
		t.Fatalf("a count above bindlessThreshold must infer bindless")
	}
}

func TestReflectedDescriptorForOrdinaryArrayIsNotBindless(t *testing.T) {
	small := slangc.Parameter{Count: 4}
	d := reflectedDescriptorFor(small, 0)
	if d.IsBindless {
		t.Fatalf("a small fixed-size array must not infer bindless")
	}
	if d.Count != 4 || d.ArraySize != 4 {
		t.Fatalf("expected Count and ArraySize to stay at 4 for a non-bindless array, got Count=%d ArraySize=%d", d.Count, d.ArraySize)
	}
}
