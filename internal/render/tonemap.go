package render

import "math"

// TonemapMode selects the PostProcess fragment shader's tonemap operator
// (§4.10).
type TonemapMode uint32

const (
	TonemapACESFitted TonemapMode = iota
	TonemapACESNarkowicz
	TonemapUncharted2
	TonemapReinhard
	TonemapNone
)

// TonemapConfig is surfaced from config.json under renderer.tonemap (§6).
type TonemapConfig struct {
	Mode  TonemapMode
	Gamma float32
}

func DefaultTonemapConfig() TonemapConfig {
	return TonemapConfig{Mode: TonemapACESFitted, Gamma: 2.2}
}

// PostProcessPushConstants is the 16-byte push-constant block the
// PostProcess pipeline reads (§4.8 step 5: "push {ev100, gamma, tonemap_mode,
// padding}").
type PostProcessPushConstants struct {
	EV100       float32
	Gamma       float32
	TonemapMode TonemapMode
	padding     uint32
}

const PostProcessPushConstantsSize = 16

// Encode serializes the push-constant block in the field order the
// PostProcess shader expects.
func (p PostProcessPushConstants) Encode() []byte {
	buf := make([]byte, PostProcessPushConstantsSize)
	putF32(buf[0:], p.EV100)
	putF32(buf[4:], p.Gamma)
	putU32(buf[8:], uint32(p.TonemapMode))
	putU32(buf[12:], p.padding)
	return buf
}

// Exposure converts an EV100 value into the linear multiplier the fragment
// shader applies before tonemapping: exposure = 2^-ev100 (§4.10).
func Exposure(ev100 float32) float32 {
	return float32(math.Exp2(float64(-ev100)))
}
