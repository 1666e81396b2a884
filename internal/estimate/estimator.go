package estimate

import (
	"sync"
	"time"

	"github.com/banshee-data/pulse.report/internal/ring"
)

// RawEstimate is one per-cycle dominant BPM candidate with its confidence.
type RawEstimate struct {
	BPM    float32 `json:"bpm"`
	Weight float32 `json:"weight"`
}

// BPMPoint is one fused BPM value.
type BPMPoint struct {
	BPM       float32   `json:"bpm"`
	Timestamp time.Time `json:"timestamp"`
}

// Config configures an Estimator.
type Config struct {
	RawHistory int           // raw estimates fused per cycle
	Window     time.Duration // retention of the fused BPM history
	MaxWeight  float32       // clip bound of confidence weights
}

// DefaultConfig fuses 100 raw estimates, keeps a minute of history and
// clips weights at 5.
func DefaultConfig() Config {
	return Config{
		RawHistory: 100,
		Window:     60 * time.Second,
		MaxWeight:  5,
	}
}

// Estimator fuses raw BPM candidates into a smoothed BPM history. It is safe
// for concurrent use.
type Estimator struct {
	cfg Config

	mu       sync.Mutex
	raw      *ring.Buffer[RawEstimate]
	history  []BPMPoint
	accuracy Accuracy
	hasAcc   bool
}

// New returns an Estimator; zero fields of cfg take their defaults.
func New(cfg Config) *Estimator {
	def := DefaultConfig()
	if cfg.RawHistory < 1 {
		cfg.RawHistory = def.RawHistory
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.MaxWeight <= 0 {
		cfg.MaxWeight = def.MaxWeight
	}
	return &Estimator{
		cfg: cfg,
		raw: ring.New[RawEstimate](cfg.RawHistory),
	}
}

// MaxWeight returns the configured clip bound.
func (e *Estimator) MaxWeight() float32 { return e.cfg.MaxWeight }

// Record appends a raw estimate, appends the fused BPM at now to the history
// and evicts points that fell out of the window. It returns the fused BPM.
func (e *Estimator) Record(now time.Time, bpm, weight float32) (float32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.raw.Add(RawEstimate{BPM: bpm, Weight: weight})
	e.accuracy = Accuracy{Value: weight}
	e.hasAcc = true

	fused, ok := WeightedMean(e.raw.All(), e.cfg.MaxWeight)
	if ok {
		e.history = append(e.history, BPMPoint{BPM: fused, Timestamp: now})
	}
	e.evictLocked(now)
	return fused, ok
}

// Evict drops history points whose timestamp plus the window is not after now.
func (e *Estimator) Evict(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.evictLocked(now)
}

func (e *Estimator) evictLocked(now time.Time) {
	kept := e.history[:0]
	for _, p := range e.history {
		if p.Timestamp.Add(e.cfg.Window).After(now) {
			kept = append(kept, p)
		}
	}
	// Zero the tail so evicted points are not retained by the backing array.
	for i := len(kept); i < len(e.history); i++ {
		e.history[i] = BPMPoint{}
	}
	e.history = kept
}

// History returns a copy of the retained fused BPM points, oldest first.
func (e *Estimator) History() []BPMPoint {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]BPMPoint(nil), e.history...)
}

// Latest returns the most recent fused BPM, absent when the history is empty.
func (e *Estimator) Latest() (BPMPoint, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.history) == 0 {
		return BPMPoint{}, false
	}
	return e.history[len(e.history)-1], true
}

// Accuracy returns the classification of the latest raw weight.
func (e *Estimator) Accuracy() (Accuracy, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accuracy, e.hasAcc
}

// RawEstimates returns the retained raw estimates, oldest first.
func (e *Estimator) RawEstimates() []RawEstimate {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.raw.All()
}

// Reset forgets all estimates.
func (e *Estimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.raw.Clear()
	e.history = nil
	e.accuracy = Accuracy{}
	e.hasAcc = false
}
