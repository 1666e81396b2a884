package pipeline

import (
	"fmt"
	"time"

	"github.com/banshee-data/pulse.report/internal/config"
	"github.com/banshee-data/pulse.report/internal/estimate"
	"github.com/banshee-data/pulse.report/internal/facetrack"
	"github.com/banshee-data/pulse.report/internal/roi"
	"github.com/banshee-data/pulse.report/internal/sample"
	"github.com/banshee-data/pulse.report/internal/spectral"
)

// Config holds the tunables of a Pipeline.
type Config struct {
	Analyzer           spectral.AnalyzerConfig
	Decimation         int
	RegionHistory      int
	SpectrumHistory    int
	Estimator          estimate.Config
	TrackMinConfidence float32

	SamplingInterval   time.Duration
	FaceInterval       time.Duration
	SpectralInterval   time.Duration
	EstimationInterval time.Duration
}

// DefaultConfig returns the standard 30 fps, 512-sample configuration.
func DefaultConfig() Config {
	return Config{
		Analyzer:           spectral.DefaultAnalyzerConfig(),
		Decimation:         sample.DefaultDecimation,
		RegionHistory:      roi.DefaultHistory,
		SpectrumHistory:    spectral.DefaultSpectrumHistory,
		Estimator:          estimate.DefaultConfig(),
		TrackMinConfidence: facetrack.DefaultMinConfidence,
		SamplingInterval:   time.Second / 30,
		FaceInterval:       10 * time.Millisecond,
		SpectralInterval:   100 * time.Millisecond,
		EstimationInterval: 100 * time.Millisecond,
	}
}

// ConfigFromPulse converts a loaded PulseConfig, applying its defaults.
func ConfigFromPulse(c *config.PulseConfig) Config {
	if c == nil {
		c = config.EmptyPulseConfig()
	}
	return Config{
		Analyzer: spectral.AnalyzerConfig{
			SampleCount:      c.GetFFTSampleCount(),
			SampleRateHz:     c.GetSampleRateHz(),
			MinBPM:           c.GetMinBPM(),
			MaxBPM:           c.GetMaxBPM(),
			DecibelReference: float32(c.GetDecibelReference()),
		},
		Decimation:      c.GetDecimationFactor(),
		RegionHistory:   c.GetRegionHistory(),
		SpectrumHistory: c.GetSpectrumHistory(),
		Estimator: estimate.Config{
			RawHistory: c.GetRawHistory(),
			Window:     c.GetBPMWindow(),
			MaxWeight:  float32(c.GetMaxConfidenceWeight()),
		},
		TrackMinConfidence: float32(c.GetTrackMinConfidence()),
		SamplingInterval:   c.GetSamplingInterval(),
		FaceInterval:       c.GetFaceInterval(),
		SpectralInterval:   c.GetSpectralInterval(),
		EstimationInterval: c.GetEstimationInterval(),
	}
}

func (c Config) validate() error {
	intervals := []struct {
		name string
		d    time.Duration
	}{
		{"sampling", c.SamplingInterval},
		{"face", c.FaceInterval},
		{"spectral", c.SpectralInterval},
		{"estimation", c.EstimationInterval},
	}
	for _, iv := range intervals {
		if iv.d <= 0 {
			return fmt.Errorf("%s interval must be positive, got %v", iv.name, iv.d)
		}
	}
	return nil
}
