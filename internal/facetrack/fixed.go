package facetrack

import (
	"context"
	"image"

	"github.com/banshee-data/pulse.report/internal/roi"
)

// FixedDetector reports the same result for every frame.
type FixedDetector struct {
	Box   roi.FaceBox
	Found bool
	Err   error
}

// Detect implements Detector.
func (d FixedDetector) Detect(ctx context.Context, _ image.Image) (roi.FaceBox, bool, error) {
	if err := ctx.Err(); err != nil {
		return roi.FaceBox{}, false, err
	}
	return d.Box, d.Found, d.Err
}

// HoldTracker keeps the prior box with a fixed confidence.
type HoldTracker struct {
	Confidence float32
	Err        error
}

// Track implements Tracker.
func (t HoldTracker) Track(_ context.Context, prior Observation, _ image.Image) (Observation, error) {
	if t.Err != nil {
		return Observation{}, t.Err
	}
	return Observation{Box: prior.Box, Confidence: t.Confidence}, nil
}
