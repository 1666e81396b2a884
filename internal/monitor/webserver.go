// Package monitor serves the live measurement over HTTP: JSON snapshots,
// preview images and go-echarts debug pages. It also renders offline session
// plots with gonum/plot.
package monitor

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"time"

	"github.com/banshee-data/pulse.report/internal/monitoring"
	"github.com/banshee-data/pulse.report/internal/pipeline"
)

//go:embed dashboard.html
var dashboardHTML []byte

// DefaultAssetsHost serves the echarts JavaScript for debug pages.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// SnapshotSource is the read side of a running pipeline.
type SnapshotSource interface {
	Snapshot() pipeline.Snapshot
}

// Resetter is implemented by sources whose measurement can be restarted
// through POST /api/reset.
type Resetter interface {
	Reset()
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address    string
	Source     SnapshotSource
	AssetsHost string // echarts assets; DefaultAssetsHost when empty
}

// WebServer exposes a pipeline's snapshots.
type WebServer struct {
	address    string
	source     SnapshotSource
	assetsHost string
	server     *http.Server
}

// NewWebServer creates a web server for cfg.Source.
func NewWebServer(cfg WebServerConfig) *WebServer {
	ws := &WebServer{
		address:    cfg.Address,
		source:     cfg.Source,
		assetsHost: cfg.AssetsHost,
	}
	if ws.assetsHost == "" {
		ws.assetsHost = DefaultAssetsHost
	}
	ws.server = &http.Server{
		Addr:              ws.address,
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return ws
}

// Handler returns the routed handler.
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/snapshot", getOnly(ws.handleSnapshot))
	mux.HandleFunc("/api/bpm", getOnly(ws.handleBPM))
	mux.HandleFunc("/api/stats", getOnly(ws.handleStats))
	mux.HandleFunc("/api/version", getOnly(ws.handleVersion))
	mux.HandleFunc("/api/reset", ws.handleReset)
	mux.HandleFunc("/preview.png", getOnly(ws.handlePreview))
	mux.HandleFunc("/measurement.png", getOnly(ws.handleMeasurement))
	mux.HandleFunc("/debug/charts/spectrum", getOnly(ws.handleSpectrumChart))
	mux.HandleFunc("/debug/charts/green", getOnly(ws.handleGreenChart))
	mux.HandleFunc("/debug/charts/bpm", getOnly(ws.handleBPMChart))
	mux.HandleFunc("/debug/", getOnly(ws.handleDashboard))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/debug/", http.StatusFound)
	})
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		monitoring.Logf("[Monitor] starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	monitoring.Logf("[Monitor] shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("[Monitor] HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("[Monitor] HTTP server force close error: %v", err)
		}
	}
	monitoring.Logf("[Monitor] HTTP server routine stopped")
	return nil
}

// Close stops the server immediately.
func (ws *WebServer) Close() error {
	if ws.server != nil {
		return ws.server.Close()
	}
	return nil
}
