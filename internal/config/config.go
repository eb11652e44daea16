// Package config loads the renderer's JSON configuration file.
//
// There is no third-party JSON configuration library in the reference pack
// this engine is grounded on (the pack's config libraries — pelletier/go-toml,
// BurntSushi/toml, yaml.v3 — all target TOML/YAML, and the spec fixes the
// on-disk format as JSON) so this package is one of the few places that
// leans on the standard library directly; see DESIGN.md for the full
// justification.
package config

import (
	"encoding/json"
	"os"

	"github.com/BANANASJIM/violet/internal/logging"
)

var log = logging.For("config")

const (
	DefaultPath = "config.json"
	PathEnvVar  = "VIOLET_CONFIG_PATH"
)

type AnisotropicFiltering struct {
	Enabled       bool    `json:"enabled"`
	MaxAnisotropy float32 `json:"maxAnisotropy"`
}

type MSAA struct {
	Enabled bool  `json:"enabled"`
	Samples int32 `json:"samples"`
}

type AutoExposureConfig struct {
	Enabled              bool    `json:"enabled"`
	Method               string  `json:"method"` // "simple" | "histogram"
	AdaptationSpeed      float32 `json:"adaptationSpeed"`
	MinEV100             float32 `json:"minEV100"`
	MaxEV100             float32 `json:"maxEV100"`
	ExposureCompensation float32 `json:"exposureCompensation"`
	LowPercentile        float32 `json:"lowPercentile"`
	HighPercentile       float32 `json:"highPercentile"`
	CenterWeightPower    float32 `json:"centerWeightPower"`
	MinLogLuminance      float32 `json:"minLogLuminance"`
	MaxLogLuminance      float32 `json:"maxLogLuminance"`
}

type TonemapConfig struct {
	Mode  string  `json:"mode"` // "aces_fitted" | "aces_narkowicz" | "uncharted2" | "reinhard" | "none"
	Gamma float32 `json:"gamma"`
}

type RendererConfig struct {
	AnisotropicFiltering AnisotropicFiltering `json:"anisotropicFiltering"`
	MSAA                 MSAA                 `json:"msaa"`
	AutoExposure         AutoExposureConfig   `json:"autoExposure"`
	Tonemap              TonemapConfig        `json:"tonemap"`
}

type Config struct {
	Renderer RendererConfig `json:"renderer"`
}

// Default returns the device-derived-default configuration used whenever
// the file is absent or malformed (§7 silent degradation).
func Default() Config {
	return Config{
		Renderer: RendererConfig{
			AnisotropicFiltering: AnisotropicFiltering{Enabled: true, MaxAnisotropy: 16},
			MSAA:                 MSAA{Enabled: false, Samples: 1},
			AutoExposure: AutoExposureConfig{
				Enabled:              false,
				Method:               "histogram",
				AdaptationSpeed:      2.0,
				MinEV100:             1.0,
				MaxEV100:             16.0,
				ExposureCompensation: 0.0,
				LowPercentile:        0.05,
				HighPercentile:       0.95,
				CenterWeightPower:    2.0,
				MinLogLuminance:      -4.0,
				MaxLogLuminance:      12.0,
			},
			Tonemap: TonemapConfig{Mode: "aces_fitted", Gamma: 2.2},
		},
	}
}

var supportedSampleCounts = map[int32]bool{1: true, 2: true, 4: true, 8: true}

// Load reads the config file named by VIOLET_CONFIG_PATH, falling back to
// DefaultPath, then to Default() on any read or parse failure. It never
// returns an error: a malformed config is, per §7, silent degradation, not
// a startup failure.
func Load() Config {
	path := os.Getenv(PathEnvVar)
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Debug("config file absent, using defaults", "path", path, "err", err)
		return Default()
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Warn("config file malformed, using defaults", "path", path, "err", err)
		return Default()
	}

	if !supportedSampleCounts[cfg.Renderer.MSAA.Samples] {
		log.Warn("unsupported MSAA sample count, disabling MSAA", "requested", cfg.Renderer.MSAA.Samples)
		cfg.Renderer.MSAA = MSAA{Enabled: false, Samples: 1}
	}

	return cfg
}

// ClampAnisotropy clamps the configured max anisotropy to what the physical
// device actually supports.
func ClampAnisotropy(requested, deviceLimit float32) float32 {
	if requested > deviceLimit {
		log.Debug("clamping anisotropy to device limit", "requested", requested, "limit", deviceLimit)
		return deviceLimit
	}
	return requested
}
