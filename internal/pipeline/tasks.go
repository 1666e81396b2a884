package pipeline

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/banshee-data/pulse.report/internal/estimate"
	"github.com/banshee-data/pulse.report/internal/roi"
	"github.com/banshee-data/pulse.report/internal/sample"
	"github.com/banshee-data/pulse.report/internal/spectral"
)

// TrackOnce runs one face cadence: it advances the face-track lifecycle on
// the latest frame. The observation it leaves behind is consumed by the
// sampling cadence.
func (p *Pipeline) TrackOnce(ctx context.Context) error {
	frame, ok := p.source.Latest()
	if !ok || frame.Image == nil {
		return ErrNoFrame
	}
	p.preview.Store(&imageRef{img: frame.Image})

	p.session.Step(ctx, frame.Image)
	return nil
}

// SampleOnce runs one sampling cadence: it adds the current face observation
// to the region smoother, crops the smoothed measurement region out of the
// latest frame and pushes its green brightness. A tick arriving while the
// previous one is still extracting is skipped.
//
// Sampling continues against the last smoothed region while the face track
// is lost, so a brief detection gap does not interrupt the signal.
func (p *Pipeline) SampleOnce(_ context.Context) error {
	if !p.sampling.CompareAndSwap(false, true) {
		p.stats.busySkips.Add(1)
		return nil
	}
	defer p.sampling.Store(false)

	frame, ok := p.source.Latest()
	if !ok || frame.Image == nil {
		return ErrNoFrame
	}
	size := roi.SizeOf(frame.Image)
	var region roi.Rect
	if obs, tracking := p.session.Observation(); tracking {
		region, ok = p.regions.Update(obs.Box, size)
	} else {
		region, ok = p.regions.Current()
	}
	if !ok {
		return ErrNoFaceTrack
	}
	bounds := frame.Image.Bounds()
	rect := region.ImageRectangle(bounds.Min, size)
	if rect.Empty() {
		return fmt.Errorf("%w: region %+v outside frame %v", ErrNoFaceTrack, region, bounds)
	}

	crop := imaging.Crop(frame.Image, rect)
	value, err := p.extractor.ExtractImage(crop)
	if err != nil {
		return fmt.Errorf("failed to sample frame %d: %w", frame.Seq, err)
	}
	p.measurement.Store(&imageRef{img: crop})
	p.samples.Push(sample.Sample{Value: value, Timestamp: p.clock.Now()})
	p.stats.samples.Add(1)
	return nil
}

// SpectrumOnce runs one spectral cadence: it analyzes the sample window and
// publishes the in-band spectrum for the next estimation cycle. Until the
// window is full the published spectrum is empty.
func (p *Pipeline) SpectrumOnce() error {
	values := p.samples.Values()
	spectrum := p.analyzer.Analyze(values)
	p.lastSpectrum.Store(&spectrum)
	p.stats.spectralCycles.Add(1)

	if len(values) < p.analyzer.SampleCount() {
		return fmt.Errorf("%w: have %d of %d", ErrInsufficientSamples, len(values), p.analyzer.SampleCount())
	}
	return nil
}

// EstimateOnce runs one estimation cadence: it weights the last published
// spectrum by the confidence of the current sample window, folds it into
// the running average and records the dominant BPM. The BPM history is
// trimmed to its window on every call, including skipped ones.
func (p *Pipeline) EstimateOnce() error {
	now := p.clock.Now()
	defer p.estimator.Evict(now)
	p.stats.estimationCycles.Add(1)

	var spectrum []spectral.Point
	if ptr := p.lastSpectrum.Load(); ptr != nil {
		spectrum = *ptr
	}
	if len(spectrum) == 0 {
		return fmt.Errorf("%w: no spectrum yet", ErrInsufficientSamples)
	}

	weight := estimate.ConfidenceWeight(p.samples.Values(), p.estimator.MaxWeight())
	avg, dominant, ok := p.aggregator.Aggregate(spectrum, weight)
	if !ok {
		return fmt.Errorf("%w: empty averaged spectrum", ErrInsufficientSamples)
	}
	p.averagedSpectrum.Store(&avg)
	p.estimator.Record(now, dominant, weight)
	return nil
}
