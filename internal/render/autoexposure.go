package render

import "math"

// AutoExposureMethod selects between the two luminance-estimation techniques
// of §4.9.
type AutoExposureMethod int

const (
	MethodSimple AutoExposureMethod = iota
	MethodHistogram
)

// ReadbackDelay is the number of frames the GPU->CPU luminance readback lags
// behind the frame that produced it (§4.9 "READBACK_DELAY = 2 frames"),
// avoiding a queueWaitIdle stall (§9 "Avoiding GPU->CPU stalls").
const ReadbackDelay = 2

const histogramBins = 64

// Params configures one AutoExposure instance, surfaced from config.json
// under renderer.autoExposure (§6 "External interfaces").
type Params struct {
	Enabled              bool
	Method               AutoExposureMethod
	AdaptationSpeed      float32
	MinEV100             float32
	MaxEV100             float32
	ExposureCompensation float32
	LowPercentile        float32
	HighPercentile       float32
	CenterWeightPower    float32
	MinLogLuminance      float32
	MaxLogLuminance      float32
}

// DefaultParams matches the Frostbite-derived defaults the design notes
// assume (§4.9, §8 scenario 5).
func DefaultParams() Params {
	return Params{
		Enabled:         true,
		Method:          MethodHistogram,
		AdaptationSpeed: 1.5,
		MinEV100:        -6,
		MaxEV100:        18,
		LowPercentile:   0.6,
		HighPercentile:  0.94,
	}
}

// simpleReadback mirrors §4.9's Simple compute output.
type simpleReadback struct {
	AvgLogLuminance float32
	Min, Max        float32
	SampleCount     uint32
}

// histogramReadback mirrors §4.9's Histogram compute output.
type histogramReadback struct {
	Bins                           [histogramBins]uint32
	MinLogLuminance, MaxLogLuminance float32
	PixelCount                      uint32
}

// pendingReadback is one frame's GPU readback, queued until ReadbackDelay
// frames have elapsed (§4.9 "after READBACK_DELAY = 2 frames, read the
// mapped buffer").
type pendingReadback struct {
	frame     uint64
	simple    simpleReadback
	histogram histogramReadback
}

// AutoExposure implements §4.9: GPU luminance compute feeds a delayed CPU
// readback, smoothed into a current EV100 used by Tonemap.
type AutoExposure struct {
	params Params

	currentEV100 float32
	targetEV100  float32
	manualEV100  float32

	frame   uint64
	pending []pendingReadback
}

func NewAutoExposure(params Params) *AutoExposure {
	return &AutoExposure{params: params, currentEV100: 9.0, targetEV100: 9.0, manualEV100: 9.0}
}

// SubmitReadback records the GPU result produced at the current frame, to be
// consumed ReadbackDelay frames later by Update.
func (a *AutoExposure) SubmitReadback(simple simpleReadback, histogram histogramReadback) {
	a.pending = append(a.pending, pendingReadback{frame: a.frame, simple: simple, histogram: histogram})
}

// clampEV100 clamps v to [MinEV100, MaxEV100].
func (a *AutoExposure) clampEV100(v float32) float32 {
	if v < a.params.MinEV100 {
		return a.params.MinEV100
	}
	if v > a.params.MaxEV100 {
		return a.params.MaxEV100
	}
	return v
}

// targetFromAvgLuminance implements the Frostbite EV100 formula (§4.9):
// target_ev100 = clamp(log2(avg_lum * 100 / 12.5) + exposure_compensation, min, max).
func (a *AutoExposure) targetFromAvgLuminance(avgLum float32) float32 {
	if avgLum <= 0 {
		return a.currentEV100
	}
	const iso, k = 100.0, 12.5
	ev100 := float32(math.Log2(float64(avgLum*iso/k))) + a.params.ExposureCompensation
	return a.clampEV100(ev100)
}

// avgLuminanceFromHistogram drops the low/high percentile tails and computes
// the weighted-mean-bin average log luminance (§4.9 Histogram CPU update).
func avgLuminanceFromHistogram(h histogramReadback, lowPercentile, highPercentile float32) float32 {
	if h.PixelCount == 0 {
		return 0
	}
	total := float64(h.PixelCount)
	lowCut := float64(lowPercentile) * total
	highCut := float64(highPercentile) * total

	var cumulative, weightedSum, weightTotal float64
	binWidth := float64(h.MaxLogLuminance-h.MinLogLuminance) / float64(histogramBins)
	for i, count := range h.Bins {
		binStart := cumulative
		binEnd := cumulative + float64(count)
		cumulative = binEnd

		// overlap of [binStart, binEnd) with the kept percentile window
		lo := math.Max(binStart, lowCut)
		hi := math.Min(binEnd, highCut)
		if hi <= lo {
			continue
		}
		weight := hi - lo
		center := float64(h.MinLogLuminance) + (float64(i)+0.5)*binWidth
		weightedSum += weight * center
		weightTotal += weight
	}
	if weightTotal == 0 {
		return 0
	}
	avgLogLum := weightedSum / weightTotal
	return float32(math.Exp2(avgLogLum))
}

// Update implements §4.9's CPU update(dt): once a readback submitted
// ReadbackDelay frames ago becomes available, recompute target_ev100, then
// exponentially interpolate current_ev100 toward it.
func (a *AutoExposure) Update(dt float32) {
	a.frame++

	var ready *pendingReadback
	kept := a.pending[:0]
	for i := range a.pending {
		r := a.pending[i]
		if a.frame-r.frame >= ReadbackDelay {
			ready = &a.pending[i]
			continue
		}
		kept = append(kept, r)
	}
	a.pending = kept

	if ready != nil {
		var avgLum float32
		switch a.params.Method {
		case MethodSimple:
			if ready.simple.SampleCount > 0 {
				avgLum = float32(math.Exp2(float64(ready.simple.AvgLogLuminance)))
			}
		case MethodHistogram:
			avgLum = avgLuminanceFromHistogram(ready.histogram, a.params.LowPercentile, a.params.HighPercentile)
		}
		if avgLum > 0 {
			a.targetEV100 = a.targetFromAvgLuminance(avgLum)
		}
	}

	if !a.params.Enabled {
		return
	}
	a.smoothTowardTarget(dt)
}

// smoothTowardTarget applies the exponential-interpolation formula in
// isolation from readback bookkeeping: current += (target - current) *
// (1 - e^(-adaptation_speed*dt)) (§4.9, §8 scenario 5).
func (a *AutoExposure) smoothTowardTarget(dt float32) {
	factor := float32(1 - math.Exp(-float64(a.params.AdaptationSpeed*dt)))
	a.currentEV100 += (a.targetEV100 - a.currentEV100) * factor
	a.currentEV100 = a.clampEV100(a.currentEV100)
}

// CurrentEV100 returns the smoothed value Tonemap samples when auto-exposure
// is enabled.
func (a *AutoExposure) CurrentEV100() float32 { return a.currentEV100 }

// SetManualEV100/ManualEV100 implement §4.9's expansion: an operator-supplied
// value Tonemap uses verbatim whenever Params.Enabled == false, grounded on
// original_source's AutoExposure.hpp public accessor pair.
func (a *AutoExposure) SetManualEV100(v float32) { a.manualEV100 = v }
func (a *AutoExposure) ManualEV100() float32     { return a.manualEV100 }

// EffectiveEV100 is the value Tonemap should actually sample (§4.10: "When
// auto-exposure is enabled, ev100 comes from AutoExposure::current_ev100;
// otherwise from a UI-controlled value").
func (a *AutoExposure) EffectiveEV100() float32 {
	if a.params.Enabled {
		return a.currentEV100
	}
	return a.manualEV100
}
