package source

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pulse.report/internal/timeutil"
)

func TestOpenStill(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "face.png")
	require.NoError(t, imaging.Save(imaging.New(12, 9, color.NRGBA{G: 200, A: 255}), path))

	clock := timeutil.NewMockClock(t0)
	s, err := OpenStill(path, time.Second/30, clock)
	require.NoError(t, err)

	f := s.Emit()
	assert.Equal(t, image.Rect(0, 0, 12, 9), f.Image.Bounds())
	assert.Equal(t, t0, f.Timestamp)
}

func TestOpenStill_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := OpenStill(filepath.Join(t.TempDir(), "missing.png"), time.Second, nil)
	assert.Error(t, err)
}

func TestStill_RunEmitsOnTicks(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(t0)
	s := NewStill(imaging.New(4, 4, color.NRGBA{A: 255}), 100*time.Millisecond, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return clock.TickerCount() == 1 }, time.Second, time.Millisecond)
	require.Equal(t, uint64(1), s.Stats().Published)

	clock.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool { return s.Stats().Published == 2 }, time.Second, time.Millisecond)

	f, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, t0.Add(100*time.Millisecond), f.Timestamp)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStill_RejectsBadInterval(t *testing.T) {
	t.Parallel()

	s := NewStill(imaging.New(1, 1, color.NRGBA{}), 0, timeutil.NewMockClock(t0))
	assert.Error(t, s.Run(context.Background()))
}
