package pipeline

import (
	"image"
	"time"

	"github.com/banshee-data/pulse.report/internal/estimate"
	"github.com/banshee-data/pulse.report/internal/facetrack"
	"github.com/banshee-data/pulse.report/internal/roi"
	"github.com/banshee-data/pulse.report/internal/sample"
	"github.com/banshee-data/pulse.report/internal/source"
	"github.com/banshee-data/pulse.report/internal/spectral"
)

// AccuracyReport is the latest confidence weight and its band.
type AccuracyReport struct {
	Value  float32               `json:"value"`
	Status estimate.AccuracyKind `json:"status"`
}

// Stats are the cumulative cycle counters of a pipeline.
type Stats struct {
	Samples          uint64 `json:"samples"`
	SpectralCycles   uint64 `json:"spectral_cycles"`
	EstimationCycles uint64 `json:"estimation_cycles"`
	SkippedNoFrame   uint64 `json:"skipped_no_frame"`
	SkippedNoFace    uint64 `json:"skipped_no_face"`
	SkippedSamples   uint64 `json:"skipped_insufficient_samples"`
	ExtractionErrors uint64 `json:"extraction_errors"`
	BusySkips        uint64 `json:"busy_skips"`
	Errors           uint64 `json:"errors"`
	Resets           uint64 `json:"resets"`

	Face   facetrack.SessionStats `json:"face"`
	Frames *source.MailboxStats   `json:"frames,omitempty"`
}

// Snapshot is a read-only copy of everything a display needs. Slices and
// images are never shared with the running pipeline.
type Snapshot struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`

	TrackState facetrack.TrackState   `json:"track_state"`
	Face       *facetrack.Observation `json:"face,omitempty"`
	Region     *roi.Rect              `json:"region,omitempty"`

	Green            []sample.Sample  `json:"green"`
	Spectrum         []spectral.Point `json:"spectrum"`
	AveragedSpectrum []spectral.Point `json:"averaged_spectrum"`
	BinWidthBPM      float32          `json:"bin_width_bpm"`

	BPM          *estimate.BPMPoint     `json:"bpm,omitempty"`
	BPMHistory   []estimate.BPMPoint    `json:"bpm_history"`
	RawEstimates []estimate.RawEstimate `json:"raw_estimates"`
	Accuracy     *AccuracyReport        `json:"accuracy,omitempty"`

	Stats Stats `json:"stats"`

	Preview     image.Image `json:"-"`
	Measurement image.Image `json:"-"`
}

// Snapshot assembles the current state.
func (p *Pipeline) Snapshot() Snapshot {
	s := Snapshot{
		SessionID:        p.sessionID,
		Timestamp:        p.clock.Now(),
		TrackState:       p.session.State(),
		Green:            p.samples.Snapshot(),
		Spectrum:         loadPoints(p.lastSpectrum.Load()),
		AveragedSpectrum: loadPoints(p.averagedSpectrum.Load()),
		BinWidthBPM:      p.analyzer.BinWidthBPM(),
		BPMHistory:       p.estimator.History(),
		RawEstimates:     p.estimator.RawEstimates(),
		Stats:            p.Stats(),
		Preview:          p.Preview(),
		Measurement:      p.Measurement(),
	}
	if obs, ok := p.session.Observation(); ok {
		s.Face = &obs
	}
	if r, ok := p.regions.Current(); ok {
		s.Region = &r
	}
	if bpm, ok := p.estimator.Latest(); ok {
		s.BPM = &bpm
	}
	if acc, ok := p.estimator.Accuracy(); ok {
		s.Accuracy = &AccuracyReport{Value: acc.Value, Status: acc.Kind()}
	}
	return s
}

// Preview returns the last frame seen by the face cadence, or nil.
func (p *Pipeline) Preview() image.Image {
	if ref := p.preview.Load(); ref != nil {
		return ref.img
	}
	return nil
}

// Measurement returns the last sampled crop, or nil.
func (p *Pipeline) Measurement() image.Image {
	if ref := p.measurement.Load(); ref != nil {
		return ref.img
	}
	return nil
}

// Stats returns the current cycle counters.
func (p *Pipeline) Stats() Stats {
	st := Stats{
		Samples:          p.stats.samples.Load(),
		SpectralCycles:   p.stats.spectralCycles.Load(),
		EstimationCycles: p.stats.estimationCycles.Load(),
		SkippedNoFrame:   p.stats.noFrame.Load(),
		SkippedNoFace:    p.stats.noFace.Load(),
		SkippedSamples:   p.stats.insufficient.Load(),
		ExtractionErrors: p.stats.extractionErrors.Load(),
		BusySkips:        p.stats.busySkips.Load(),
		Errors:           p.stats.otherErrors.Load(),
		Resets:           p.stats.resets.Load(),
		Face:             p.session.Stats(),
	}
	if ms, ok := p.source.(interface{ Stats() source.MailboxStats }); ok {
		frames := ms.Stats()
		st.Frames = &frames
	}
	return st
}

func loadPoints(ptr *[]spectral.Point) []spectral.Point {
	if ptr == nil {
		return []spectral.Point{}
	}
	return append([]spectral.Point{}, (*ptr)...)
}
