package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/pulse.report/internal/estimate"
	"github.com/banshee-data/pulse.report/internal/facetrack"
	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/roi"
	"github.com/banshee-data/pulse.report/internal/sample"
	"github.com/banshee-data/pulse.report/internal/source"
	"github.com/banshee-data/pulse.report/internal/spectral"
	"github.com/banshee-data/pulse.report/internal/timeutil"
)

// Per-tick conditions that skip a cycle.
var (
	ErrNoFrame             = errors.New("no frame available")
	ErrNoFaceTrack         = errors.New("no face track")
	ErrInsufficientSamples = errors.New("insufficient samples")

	ErrAlreadyRunning = errors.New("pipeline already running")
)

// imageRef boxes an image.Image for atomic publication.
type imageRef struct {
	img image.Image
}

// counters are the lock-free cycle statistics.
type counters struct {
	samples          atomic.Uint64
	spectralCycles   atomic.Uint64
	estimationCycles atomic.Uint64
	noFrame          atomic.Uint64
	noFace           atomic.Uint64
	insufficient     atomic.Uint64
	extractionErrors atomic.Uint64
	busySkips        atomic.Uint64
	otherErrors      atomic.Uint64
	resets           atomic.Uint64
}

// Pipeline owns every component of one measurement session.
type Pipeline struct {
	cfg       Config
	clock     timeutil.Clock
	source    source.Source
	sessionID string

	session    *facetrack.Session
	regions    *roi.Tracker
	extractor  *sample.Extractor
	samples    *sample.Buffer
	analyzer   *spectral.Analyzer
	aggregator *spectral.Aggregator
	estimator  *estimate.Estimator

	lastSpectrum     atomic.Pointer[[]spectral.Point]
	averagedSpectrum atomic.Pointer[[]spectral.Point]
	preview          atomic.Pointer[imageRef]
	measurement      atomic.Pointer[imageRef]

	sampling atomic.Bool
	running  atomic.Bool
	stats    counters
}

// New assembles a pipeline reading frames from src. A nil clock uses the
// wall clock.
func New(cfg Config, src source.Source, d facetrack.Detector, tr facetrack.Tracker, clock timeutil.Clock) (*Pipeline, error) {
	if src == nil || d == nil || tr == nil {
		return nil, errors.New("pipeline requires a source, detector and tracker")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	analyzer, err := spectral.NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, fmt.Errorf("failed to create spectral analyzer: %w", err)
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	return &Pipeline{
		cfg:        cfg,
		clock:      clock,
		source:     src,
		sessionID:  uuid.NewString(),
		session:    facetrack.NewSession(d, tr, cfg.TrackMinConfidence),
		regions:    roi.NewTracker(cfg.RegionHistory),
		extractor:  sample.NewExtractor(cfg.Decimation),
		samples:    sample.NewBuffer(cfg.Analyzer.SampleCount),
		analyzer:   analyzer,
		aggregator: spectral.NewAggregator(cfg.SpectrumHistory),
		estimator:  estimate.New(cfg.Estimator),
	}, nil
}

// SessionID identifies this pipeline instance in snapshots and logs.
func (p *Pipeline) SessionID() string { return p.sessionID }

// Reset discards the measurement state: smoothed regions, samples, spectra
// and estimates. The face track and the cycle counters are kept, so the next
// sampling tick starts a fresh window on the current face.
func (p *Pipeline) Reset() {
	p.regions.Reset()
	p.samples.Reset()
	p.aggregator.Reset()
	p.estimator.Reset()
	p.lastSpectrum.Store(nil)
	p.averagedSpectrum.Store(nil)
	p.measurement.Store(nil)
	p.stats.resets.Add(1)
	monitoring.Logf("[Pipeline] session %s measurement reset", p.sessionID)
}

// Run drives the four cadences until ctx is cancelled. It returns nil on
// clean shutdown, after any in-flight detection has finished.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer p.running.Store(false)

	monitoring.Logf("[Pipeline] session %s started: sampling=%v face=%v spectral=%v estimation=%v",
		p.sessionID, p.cfg.SamplingInterval, p.cfg.FaceInterval, p.cfg.SpectralInterval, p.cfg.EstimationInterval)

	var wg sync.WaitGroup
	p.every(ctx, &wg, "sampling", p.cfg.SamplingInterval, p.SampleOnce)
	p.every(ctx, &wg, "face", p.cfg.FaceInterval, p.TrackOnce)
	p.every(ctx, &wg, "spectral", p.cfg.SpectralInterval, func(context.Context) error { return p.SpectrumOnce() })
	p.every(ctx, &wg, "estimation", p.cfg.EstimationInterval, func(context.Context) error { return p.EstimateOnce() })
	wg.Wait()
	p.session.Wait()

	monitoring.Logf("[Pipeline] session %s stopped", p.sessionID)
	return nil
}

// every runs fn on each tick of a clock ticker in its own goroutine.
func (p *Pipeline) every(ctx context.Context, wg *sync.WaitGroup, name string, interval time.Duration, fn func(context.Context) error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := p.clock.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				p.observe(name, fn(ctx))
			}
		}
	}()
}

// observe counts a cycle outcome. Expected skips are debug-logged only.
func (p *Pipeline) observe(name string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrNoFrame):
		p.stats.noFrame.Add(1)
	case errors.Is(err, ErrNoFaceTrack):
		p.stats.noFace.Add(1)
	case errors.Is(err, ErrInsufficientSamples):
		p.stats.insufficient.Add(1)
	case errors.Is(err, sample.ErrExtraction):
		p.stats.extractionErrors.Add(1)
	default:
		p.stats.otherErrors.Add(1)
		monitoring.Logf("[Pipeline] %s cycle failed: %v", name, err)
		return
	}
	monitoring.Debugf("[Pipeline] %s cycle skipped: %v", name, err)
}
