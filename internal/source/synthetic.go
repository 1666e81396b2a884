package source

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/banshee-data/pulse.report/internal/timeutil"
)

// SyntheticConfig describes a rendered test subject.
type SyntheticConfig struct {
	Width, Height int
	Face          image.Rectangle // image coordinates, top-left origin
	Skin          color.NRGBA
	Background    color.NRGBA
	BPM           float64 // pulse rate modulating the skin's green channel
	Amplitude     float64 // peak green deviation in 8-bit units
	Noise         float64 // standard deviation of per-frame green noise
	Seed          uint64
}

// DefaultSyntheticConfig renders a 320×240 frame with a centred face pulsing
// at 72 BPM.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		Width:      320,
		Height:     240,
		Face:       image.Rect(100, 40, 220, 200),
		Skin:       color.NRGBA{R: 224, G: 172, B: 140, A: 255},
		Background: color.NRGBA{R: 40, G: 60, B: 120, A: 255},
		BPM:        72,
		Amplitude:  3,
		Noise:      0.5,
		Seed:       1,
	}
}

// Synthetic renders frames of a face whose green channel follows a sinusoid
// at the configured BPM.
type Synthetic struct {
	*Mailbox
	cfg      SyntheticConfig
	clock    timeutil.Clock
	interval time.Duration

	mu    sync.Mutex
	start time.Time
	noise distuv.Normal
}

// NewSynthetic returns a generator emitting every interval.
func NewSynthetic(cfg SyntheticConfig, interval time.Duration, clock timeutil.Clock) *Synthetic {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Synthetic{
		Mailbox:  NewMailbox(),
		cfg:      cfg,
		clock:    clock,
		interval: interval,
		start:    clock.Now(),
		noise: distuv.Normal{
			Mu:    0,
			Sigma: math.Max(cfg.Noise, 1e-12),
			Src:   rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15),
		},
	}
}

// Green returns the noiseless skin green level at elapsed time t.
func (s *Synthetic) Green(t time.Duration) float64 {
	phase := 2 * math.Pi * s.cfg.BPM / 60 * t.Seconds()
	return float64(s.cfg.Skin.G) + s.cfg.Amplitude*math.Sin(phase)
}

// Render draws the frame at elapsed time t.
func (s *Synthetic) Render(t time.Duration) *image.NRGBA {
	g := s.Green(t)
	if s.cfg.Noise > 0 {
		s.mu.Lock()
		g += s.noise.Rand()
		s.mu.Unlock()
	}
	skin := s.cfg.Skin
	skin.G = uint8(math.Round(math.Min(255, math.Max(0, g))))

	img := imaging.New(s.cfg.Width, s.cfg.Height, s.cfg.Background)
	draw.Draw(img, s.cfg.Face, &image.Uniform{C: skin}, image.Point{}, draw.Src)
	return img
}

// Emit renders and publishes a frame for the current time.
func (s *Synthetic) Emit() Frame {
	now := s.clock.Now()
	return s.Publish(s.Render(now.Sub(s.start)), now)
}

// Run emits a frame immediately and then once per interval until ctx is done.
func (s *Synthetic) Run(ctx context.Context) error {
	return emitEvery(ctx, s.clock, s.interval, func() { s.Emit() })
}
