package facetrack

import (
	"context"
	"image"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/roi"
)

// TrackState is the lifecycle state of the face track.
type TrackState string

const (
	StateIdle      TrackState = "idle"      // no track, detection may start
	StateDetecting TrackState = "detecting" // detection in flight
	StateTracking  TrackState = "tracking"  // following a detected face
)

// DefaultMinConfidence is the tracker confidence a track must exceed to be
// kept.
const DefaultMinConfidence = 0.3

// Observation is a tracked face with the tracker's confidence in [0, 1].
type Observation struct {
	Box        roi.FaceBox `json:"box"`
	Confidence float32     `json:"confidence"`
}

// Detector finds a face in a full frame. ok is false when no face is present.
type Detector interface {
	Detect(ctx context.Context, img image.Image) (box roi.FaceBox, ok bool, err error)
}

// Tracker follows a previously observed face into a new frame.
type Tracker interface {
	Track(ctx context.Context, prior Observation, img image.Image) (Observation, error)
}

// SessionStats counts lifecycle transitions.
type SessionStats struct {
	Detections      uint64 `json:"detections"`
	DetectionMisses uint64 `json:"detection_misses"`
	TracksLost      uint64 `json:"tracks_lost"`
}

// Session runs the face-track lifecycle for one frame stream. It is safe for
// concurrent use.
type Session struct {
	detector      Detector
	tracker       Tracker
	minConfidence float32

	detecting atomic.Bool
	wg        sync.WaitGroup

	mu    sync.Mutex
	state TrackState
	obs   Observation
	stats SessionStats
}

// NewSession returns an idle session. Tracks whose confidence is at or below
// minConfidence are dropped.
func NewSession(d Detector, t Tracker, minConfidence float32) *Session {
	return &Session{
		detector:      d,
		tracker:       t,
		minConfidence: minConfidence,
		state:         StateIdle,
	}
}

// Step advances the lifecycle with a new frame. When idle it starts an
// asynchronous detection; when tracking it runs the tracker synchronously.
// Step never blocks on detection.
func (s *Session) Step(ctx context.Context, img image.Image) {
	s.mu.Lock()
	state := s.state
	prior := s.obs
	s.mu.Unlock()

	switch state {
	case StateIdle:
		s.startDetection(ctx, img)
	case StateTracking:
		s.track(ctx, prior, img)
	}
}

func (s *Session) startDetection(ctx context.Context, img image.Image) {
	if !s.detecting.CompareAndSwap(false, true) {
		return
	}
	s.mu.Lock()
	s.state = StateDetecting
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.detecting.Store(false)

		box, ok, err := s.detector.Detect(ctx, img)

		s.mu.Lock()
		defer s.mu.Unlock()
		switch {
		case err != nil:
			monitoring.Debugf("[FaceTrack] detection failed: %v", err)
			s.state = StateIdle
			s.stats.DetectionMisses++
		case !ok || ctx.Err() != nil:
			s.state = StateIdle
			s.stats.DetectionMisses++
		default:
			s.state = StateTracking
			s.obs = Observation{Box: box, Confidence: 1}
			s.stats.Detections++
		}
	}()
}

func (s *Session) track(ctx context.Context, prior Observation, img image.Image) {
	obs, err := s.tracker.Track(ctx, prior, img)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateTracking {
		return
	}
	if err != nil || obs.Confidence <= s.minConfidence {
		if err != nil {
			monitoring.Debugf("[FaceTrack] tracking failed: %v", err)
		}
		s.state = StateIdle
		s.obs = Observation{}
		s.stats.TracksLost++
		return
	}
	s.obs = obs
}

// State returns the current lifecycle state.
func (s *Session) State() TrackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Observation returns the current face observation; ok is false unless the
// session is tracking.
func (s *Session) Observation() (Observation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.obs, s.state == StateTracking
}

// Stats returns a copy of the lifecycle counters.
func (s *Session) Stats() SessionStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Wait blocks until any in-flight detection has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}
