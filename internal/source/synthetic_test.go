package source

import (
	"image"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pulse.report/internal/timeutil"
)

func TestSynthetic_GreenFollowsPulse(t *testing.T) {
	t.Parallel()

	cfg := DefaultSyntheticConfig()
	cfg.BPM = 60
	cfg.Noise = 0
	s := NewSynthetic(cfg, time.Second/30, timeutil.NewMockClock(t0))

	assert.InDelta(t, 172, s.Green(0), 1e-9)
	assert.InDelta(t, 175, s.Green(250*time.Millisecond), 1e-9)
	assert.InDelta(t, 169, s.Green(750*time.Millisecond), 1e-9)

	img := s.Render(250 * time.Millisecond)
	assert.Equal(t, image.Rect(0, 0, 320, 240), img.Bounds())
	assert.Equal(t, uint8(175), img.NRGBAAt(160, 120).G)
	assert.Equal(t, cfg.Background, img.NRGBAAt(5, 5))
}

func TestSynthetic_NoiseIsDeterministic(t *testing.T) {
	t.Parallel()

	render := func() []uint8 {
		s := NewSynthetic(DefaultSyntheticConfig(), time.Second/30, timeutil.NewMockClock(t0))
		var out []uint8
		for i := 0; i < 20; i++ {
			out = append(out, s.Render(time.Duration(i)*time.Second/30).NRGBAAt(160, 120).G)
		}
		return out
	}
	assert.Equal(t, render(), render())
}

func TestSynthetic_EmitStampsClock(t *testing.T) {
	t.Parallel()

	clock := timeutil.NewMockClock(t0)
	s := NewSynthetic(DefaultSyntheticConfig(), time.Second/30, clock)
	clock.Advance(time.Second)

	f := s.Emit()
	assert.Equal(t, t0.Add(time.Second), f.Timestamp)
	latest, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, f.Seq, latest.Seq)
}
