package monitor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/pulse.report/internal/estimate"
	"github.com/banshee-data/pulse.report/internal/facetrack"
	"github.com/banshee-data/pulse.report/internal/pipeline"
	"github.com/banshee-data/pulse.report/internal/sample"
	"github.com/banshee-data/pulse.report/internal/spectral"
	"github.com/banshee-data/pulse.report/internal/testutil"
	"github.com/banshee-data/pulse.report/internal/version"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	snap pipeline.Snapshot
}

func (s staticSource) Snapshot() pipeline.Snapshot { return s.snap }

func emptySnapshot() pipeline.Snapshot {
	return pipeline.Snapshot{
		SessionID:        "session-empty",
		Timestamp:        t0,
		TrackState:       facetrack.StateIdle,
		Green:            []sample.Sample{},
		Spectrum:         []spectral.Point{},
		AveragedSpectrum: []spectral.Point{},
		BPMHistory:       []estimate.BPMPoint{},
	}
}

func fullSnapshot() pipeline.Snapshot {
	snap := emptySnapshot()
	snap.SessionID = "session-full"
	snap.TrackState = facetrack.StateTracking
	for i := 0; i < 64; i++ {
		snap.Green = append(snap.Green, sample.Sample{Value: 43 + float32(i%8)/10, Timestamp: t0.Add(time.Duration(i) * time.Second / 30)})
	}
	for i := 0; i < 15; i++ {
		bpm := 49.21875 + float32(i)*3.515625
		snap.Spectrum = append(snap.Spectrum, spectral.Point{BPM: bpm, Intensity: float32(-i)})
		snap.AveragedSpectrum = append(snap.AveragedSpectrum, spectral.Point{BPM: bpm, Intensity: float32(-2 * i)})
	}
	for i := 0; i < 10; i++ {
		snap.BPMHistory = append(snap.BPMHistory, estimate.BPMPoint{BPM: 70 + float32(i)/10, Timestamp: t0.Add(-time.Duration(10-i) * time.Second)})
	}
	last := snap.BPMHistory[len(snap.BPMHistory)-1]
	snap.BPM = &last
	snap.Accuracy = &pipeline.AccuracyReport{Value: 4.2, Status: estimate.AccuracyGood}
	snap.Stats = pipeline.Stats{Samples: 64, SpectralCycles: 3}
	snap.Preview = imaging.New(32, 24, color.NRGBA{R: 200, A: 255})
	snap.Measurement = imaging.New(8, 4, color.NRGBA{G: 200, A: 255})
	return snap
}

var _ Resetter = (*pipeline.Pipeline)(nil)

// resettableSource counts Reset calls.
type resettableSource struct {
	staticSource
	resets int
}

func (s *resettableSource) Reset() { s.resets++ }

func newServer(snap pipeline.Snapshot) http.Handler {
	return NewWebServer(WebServerConfig{Address: "127.0.0.1:0", Source: staticSource{snap: snap}}).Handler()
}

func TestHandleBPM(t *testing.T) {
	t.Parallel()

	t.Run("absent before first estimate", func(t *testing.T) {
		rec := testutil.Serve(newServer(emptySnapshot()), http.MethodGet, "/api/bpm")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		assert.JSONEq(t, `{"session_id":"session-empty","timestamp":"2024-03-01T12:00:00Z","bpm":null,"accuracy":null}`, rec.Body.String())
	})

	t.Run("latest estimate", func(t *testing.T) {
		rec := testutil.Serve(newServer(fullSnapshot()), http.MethodGet, "/api/bpm")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var resp BPMResponse
		testutil.DecodeJSON(t, rec, &resp)
		require.NotNil(t, resp.BPM)
		assert.InDelta(t, 70.9, resp.BPM.BPM, 1e-5)
		require.NotNil(t, resp.Accuracy)
		assert.Equal(t, float32(4.2), resp.Accuracy.Value)
	})
}

func TestHandleBPM_AccuracyStatusByName(t *testing.T) {
	t.Parallel()

	rec := testutil.Serve(newServer(fullSnapshot()), http.MethodGet, "/api/bpm")
	var raw map[string]any
	testutil.DecodeJSON(t, rec, &raw)
	acc := raw["accuracy"].(map[string]any)
	assert.Equal(t, "good", acc["status"])
}

func TestHandleReset(t *testing.T) {
	t.Parallel()

	t.Run("resets a resettable source", func(t *testing.T) {
		src := &resettableSource{staticSource: staticSource{snap: fullSnapshot()}}
		h := NewWebServer(WebServerConfig{Source: src}).Handler()

		rec := testutil.Serve(h, http.MethodPost, "/api/reset")
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
		assert.JSONEq(t, `{"status":"reset"}`, rec.Body.String())
		assert.Equal(t, 1, src.resets)
	})

	t.Run("rejects GET", func(t *testing.T) {
		src := &resettableSource{staticSource: staticSource{snap: fullSnapshot()}}
		h := NewWebServer(WebServerConfig{Source: src}).Handler()

		rec := testutil.Serve(h, http.MethodGet, "/api/reset")
		testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
		assert.Zero(t, src.resets)
	})

	t.Run("read-only source", func(t *testing.T) {
		rec := testutil.Serve(newServer(fullSnapshot()), http.MethodPost, "/api/reset")
		testutil.AssertStatusCode(t, rec.Code, http.StatusNotImplemented)
	})
}

func TestHandleSnapshot(t *testing.T) {
	t.Parallel()

	rec := testutil.Serve(newServer(fullSnapshot()), http.MethodGet, "/api/snapshot")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var raw map[string]any
	testutil.DecodeJSON(t, rec, &raw)
	assert.Equal(t, "session-full", raw["session_id"])
	assert.Equal(t, "tracking", raw["track_state"])
	assert.Len(t, raw["green"], 64)
	assert.Len(t, raw["spectrum"], 15)
	assert.Len(t, raw["bpm_history"], 10)
	assert.NotContains(t, raw, "Preview")
}

func TestHandleStatsAndVersion(t *testing.T) {
	t.Parallel()

	h := newServer(fullSnapshot())

	rec := testutil.Serve(h, http.MethodGet, "/api/stats")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	var stats pipeline.Stats
	testutil.DecodeJSON(t, rec, &stats)
	assert.Equal(t, uint64(64), stats.Samples)
	assert.Equal(t, uint64(3), stats.SpectralCycles)

	rec = testutil.Serve(h, http.MethodGet, "/api/version")
	var info version.Info
	testutil.DecodeJSON(t, rec, &info)
	assert.Equal(t, version.Current(), info)
}

func TestHandleImages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		snap pipeline.Snapshot
		code int
		size image.Rectangle
	}{
		{"/preview.png", fullSnapshot(), http.StatusOK, image.Rect(0, 0, 32, 24)},
		{"/measurement.png", fullSnapshot(), http.StatusOK, image.Rect(0, 0, 8, 4)},
		{"/preview.png", emptySnapshot(), http.StatusNotFound, image.Rectangle{}},
		{"/measurement.png", emptySnapshot(), http.StatusNotFound, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := testutil.Serve(newServer(tt.snap), http.MethodGet, tt.path)
			testutil.AssertStatusCode(t, rec.Code, tt.code)
			if tt.code != http.StatusOK {
				return
			}
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			img, err := imaging.Decode(rec.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.size, img.Bounds())
		})
	}
}

func TestDebugCharts(t *testing.T) {
	t.Parallel()

	for _, snap := range []pipeline.Snapshot{emptySnapshot(), fullSnapshot()} {
		h := newServer(snap)
		for _, path := range []string{"/debug/charts/spectrum", "/debug/charts/green", "/debug/charts/bpm"} {
			rec := testutil.Serve(h, http.MethodGet, path)
			testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			assert.Contains(t, rec.Body.String(), "echarts", path)
			assert.Contains(t, rec.Body.String(), snap.SessionID, path)
		}
	}
}

func TestDashboardAndRouting(t *testing.T) {
	t.Parallel()

	h := newServer(emptySnapshot())

	rec := testutil.Serve(h, http.MethodGet, "/debug/")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Contains(t, rec.Body.String(), "/debug/charts/spectrum")

	rec = testutil.Serve(h, http.MethodGet, "/")
	testutil.AssertStatusCode(t, rec.Code, http.StatusFound)
	assert.Equal(t, "/debug/", rec.Header().Get("Location"))

	rec = testutil.Serve(h, http.MethodGet, "/nope")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	rec = testutil.Serve(h, http.MethodPost, "/api/bpm")
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}

func TestWebServer_StartStops(t *testing.T) {
	t.Parallel()

	ws := NewWebServer(WebServerConfig{Address: "127.0.0.1:0", Source: staticSource{snap: emptySnapshot()}})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ws.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestWriteSessionPlot(t *testing.T) {
	t.Parallel()

	for _, snap := range []pipeline.Snapshot{emptySnapshot(), fullSnapshot()} {
		var buf bytes.Buffer
		require.NoError(t, WriteSessionPlot(&buf, snap), snap.SessionID)
		img, err := imaging.Decode(&buf)
		require.NoError(t, err)
		assert.Greater(t, img.Bounds().Dx(), 0)
		assert.Greater(t, img.Bounds().Dy(), img.Bounds().Dx())
	}
}

func TestSaveSessionPlot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.png")
	require.NoError(t, SaveSessionPlot(path, fullSnapshot()))
	img, err := imaging.Open(path)
	require.NoError(t, err)
	assert.NotZero(t, img.Bounds().Dx())

	assert.Error(t, SaveSessionPlot(filepath.Join(t.TempDir(), "missing", "x.png"), fullSnapshot()))
}
