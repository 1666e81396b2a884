package source

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/banshee-data/pulse.report/internal/timeutil"
)

// Still repeats a single image at a fixed rate, standing in for a camera.
type Still struct {
	*Mailbox
	img      *image.NRGBA
	clock    timeutil.Clock
	interval time.Duration
}

// NewStill returns a Still emitting img every interval.
func NewStill(img image.Image, interval time.Duration, clock timeutil.Clock) *Still {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Still{
		Mailbox:  NewMailbox(),
		img:      imaging.Clone(img),
		clock:    clock,
		interval: interval,
	}
}

// OpenStill loads an image file and returns a Still emitting it.
func OpenStill(path string, interval time.Duration, clock timeutil.Clock) (*Still, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open still image %s: %w", path, err)
	}
	return NewStill(img, interval, clock), nil
}

// Emit publishes the image once, stamped with the current time.
func (s *Still) Emit() Frame {
	return s.Publish(s.img, s.clock.Now())
}

// Run emits a frame immediately and then once per interval until ctx is done.
func (s *Still) Run(ctx context.Context) error {
	return emitEvery(ctx, s.clock, s.interval, func() { s.Emit() })
}

func emitEvery(ctx context.Context, clock timeutil.Clock, interval time.Duration, emit func()) error {
	if interval <= 0 {
		return fmt.Errorf("invalid frame interval %v", interval)
	}
	emit()
	ticker := clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			emit()
		}
	}
}
