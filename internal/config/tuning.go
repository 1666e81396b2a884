package config

import (
	"encoding/json"
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical pipeline defaults file.
const DefaultConfigPath = "config/pulse.defaults.json"

// PulseConfig holds the tunable parameters of the rPPG pipeline. Every field
// is optional; the Get* accessors fall back to the built-in defaults so a
// partial JSON file is safe.
type PulseConfig struct {
	// Spectral analysis
	SampleRateHz     *int     `json:"sample_rate_hz,omitempty"`
	FFTSampleCount   *int     `json:"fft_sample_count,omitempty"`
	MinBPM           *int     `json:"min_bpm,omitempty"`
	MaxBPM           *int     `json:"max_bpm,omitempty"`
	DecibelReference *float64 `json:"decibel_reference,omitempty"`
	DecimationFactor *int     `json:"decimation_factor,omitempty"`

	// Rolling histories
	RegionHistory   *int    `json:"region_history,omitempty"`
	SpectrumHistory *int    `json:"spectrum_history,omitempty"`
	RawHistory      *int    `json:"raw_history,omitempty"`
	BPMWindow       *string `json:"bpm_window,omitempty"` // duration string like "60s"

	// Fusion and tracking
	MaxConfidenceWeight *float64 `json:"max_confidence_weight,omitempty"`
	TrackMinConfidence  *float64 `json:"track_min_confidence,omitempty"`

	// Cadences, duration strings like "100ms"
	SamplingInterval   *string `json:"sampling_interval,omitempty"`
	FaceInterval       *string `json:"face_interval,omitempty"`
	SpectralInterval   *string `json:"spectral_interval,omitempty"`
	EstimationInterval *string `json:"estimation_interval,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPulseConfig returns a PulseConfig with all fields unset.
func EmptyPulseConfig() *PulseConfig {
	return &PulseConfig{}
}

// DefaultPulseConfig returns a PulseConfig with every field populated with
// the built-in defaults.
func DefaultPulseConfig() *PulseConfig {
	return &PulseConfig{
		SampleRateHz:        ptrInt(30),
		FFTSampleCount:      ptrInt(512),
		MinBPM:              ptrInt(50),
		MaxBPM:              ptrInt(100),
		DecibelReference:    ptrFloat64(10),
		DecimationFactor:    ptrInt(4),
		RegionHistory:       ptrInt(120),
		SpectrumHistory:     ptrInt(200),
		RawHistory:          ptrInt(100),
		BPMWindow:           ptrString("60s"),
		MaxConfidenceWeight: ptrFloat64(5),
		TrackMinConfidence:  ptrFloat64(0.3),
		SamplingInterval:    ptrString("33333333ns"),
		FaceInterval:        ptrString("10ms"),
		SpectralInterval:    ptrString("100ms"),
		EstimationInterval:  ptrString("100ms"),
	}
}

// LoadPulseConfig loads a PulseConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadPulseConfig(path string) (*PulseConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyPulseConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *PulseConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadPulseConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configured values are usable.
func (c *PulseConfig) Validate() error {
	if c.SampleRateHz != nil && *c.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive, got %d", *c.SampleRateHz)
	}
	if c.FFTSampleCount != nil {
		n := *c.FFTSampleCount
		if n < 4 || bits.OnesCount(uint(n)) != 1 {
			return fmt.Errorf("fft_sample_count must be a power of two >= 4, got %d", n)
		}
	}
	if c.GetMinBPM() <= 0 || c.GetMinBPM() >= c.GetMaxBPM() {
		return fmt.Errorf("bpm band must satisfy 0 < min_bpm < max_bpm, got [%d, %d]", c.GetMinBPM(), c.GetMaxBPM())
	}
	if c.DecibelReference != nil && *c.DecibelReference <= 0 {
		return fmt.Errorf("decibel_reference must be positive, got %f", *c.DecibelReference)
	}
	if c.DecimationFactor != nil && *c.DecimationFactor < 1 {
		return fmt.Errorf("decimation_factor must be >= 1, got %d", *c.DecimationFactor)
	}
	for name, v := range map[string]*int{
		"region_history":   c.RegionHistory,
		"spectrum_history": c.SpectrumHistory,
		"raw_history":      c.RawHistory,
	} {
		if v != nil && *v < 1 {
			return fmt.Errorf("%s must be >= 1, got %d", name, *v)
		}
	}
	if c.MaxConfidenceWeight != nil && *c.MaxConfidenceWeight <= 0 {
		return fmt.Errorf("max_confidence_weight must be positive, got %f", *c.MaxConfidenceWeight)
	}
	if c.TrackMinConfidence != nil {
		if *c.TrackMinConfidence < 0 || *c.TrackMinConfidence > 1 {
			return fmt.Errorf("track_min_confidence must be between 0 and 1, got %f", *c.TrackMinConfidence)
		}
	}
	for name, v := range map[string]*string{
		"bpm_window":          c.BPMWindow,
		"sampling_interval":   c.SamplingInterval,
		"face_interval":       c.FaceInterval,
		"spectral_interval":   c.SpectralInterval,
		"estimation_interval": c.EstimationInterval,
	} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}
	return nil
}

func durationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil || d <= 0 {
		return def // default on parse error
	}
	return d
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// GetSampleRateHz returns the camera sampling rate in frames per second.
func (c *PulseConfig) GetSampleRateHz() int { return intOr(c.SampleRateHz, 30) }

// GetFFTSampleCount returns the sample window length fed to the FFT.
func (c *PulseConfig) GetFFTSampleCount() int { return intOr(c.FFTSampleCount, 512) }

// GetMinBPM returns the lower edge of the plausible heart-rate band.
func (c *PulseConfig) GetMinBPM() int { return intOr(c.MinBPM, 50) }

// GetMaxBPM returns the upper edge of the plausible heart-rate band.
func (c *PulseConfig) GetMaxBPM() int { return intOr(c.MaxBPM, 100) }

// GetDecibelReference returns the zero reference of the decibel conversion.
func (c *PulseConfig) GetDecibelReference() float64 { return floatOr(c.DecibelReference, 10) }

// GetDecimationFactor returns the bytes-per-pixel decimation of the extractor.
func (c *PulseConfig) GetDecimationFactor() int { return intOr(c.DecimationFactor, 4) }

// GetRegionHistory returns how many regions are averaged by the tracker.
func (c *PulseConfig) GetRegionHistory() int { return intOr(c.RegionHistory, 120) }

// GetSpectrumHistory returns how many spectra are averaged.
func (c *PulseConfig) GetSpectrumHistory() int { return intOr(c.SpectrumHistory, 200) }

// GetRawHistory returns how many raw BPM estimates are fused.
func (c *PulseConfig) GetRawHistory() int { return intOr(c.RawHistory, 100) }

// GetBPMWindow returns the retention window of the BPM history.
func (c *PulseConfig) GetBPMWindow() time.Duration { return durationOr(c.BPMWindow, 60*time.Second) }

// GetMaxConfidenceWeight returns the clip bound applied to confidence weights.
func (c *PulseConfig) GetMaxConfidenceWeight() float64 { return floatOr(c.MaxConfidenceWeight, 5) }

// GetTrackMinConfidence returns the tracker confidence at or below which a
// face track is dropped.
func (c *PulseConfig) GetTrackMinConfidence() float64 { return floatOr(c.TrackMinConfidence, 0.3) }

// GetSamplingInterval returns the sampling cadence period.
func (c *PulseConfig) GetSamplingInterval() time.Duration {
	return durationOr(c.SamplingInterval, time.Second/30)
}

// GetFaceInterval returns the face detection/tracking cadence period.
func (c *PulseConfig) GetFaceInterval() time.Duration {
	return durationOr(c.FaceInterval, 10*time.Millisecond)
}

// GetSpectralInterval returns the spectral analysis cadence period.
func (c *PulseConfig) GetSpectralInterval() time.Duration {
	return durationOr(c.SpectralInterval, 100*time.Millisecond)
}

// GetEstimationInterval returns the BPM estimation cadence period.
func (c *PulseConfig) GetEstimationInterval() time.Duration {
	return durationOr(c.EstimationInterval, 100*time.Millisecond)
}
