package monitor

import (
	"net/http"
	"time"

	"github.com/banshee-data/pulse.report/internal/estimate"
	"github.com/banshee-data/pulse.report/internal/httputil"
	"github.com/banshee-data/pulse.report/internal/pipeline"
	"github.com/banshee-data/pulse.report/internal/version"
)

var getOnly = httputil.GetOnly

// BPMResponse is the body of /api/bpm. BPM and Accuracy are null until the
// first estimate.
type BPMResponse struct {
	SessionID string                   `json:"session_id"`
	Timestamp time.Time                `json:"timestamp"`
	BPM       *estimate.BPMPoint       `json:"bpm"`
	Accuracy  *pipeline.AccuracyReport `json:"accuracy"`
}

func (ws *WebServer) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, ws.source.Snapshot())
}

func (ws *WebServer) handleBPM(w http.ResponseWriter, r *http.Request) {
	snap := ws.source.Snapshot()
	httputil.WriteJSONOK(w, BPMResponse{
		SessionID: snap.SessionID,
		Timestamp: snap.Timestamp,
		BPM:       snap.BPM,
		Accuracy:  snap.Accuracy,
	})
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, ws.source.Snapshot().Stats)
}

func (ws *WebServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, version.Current())
}

func (ws *WebServer) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	rs, ok := ws.source.(Resetter)
	if !ok {
		httputil.WriteJSONError(w, http.StatusNotImplemented, "source cannot be reset")
		return
	}
	rs.Reset()
	httputil.WriteJSONOK(w, map[string]string{"status": "reset"})
}

func (ws *WebServer) handlePreview(w http.ResponseWriter, r *http.Request) {
	httputil.WritePNG(w, ws.source.Snapshot().Preview)
}

func (ws *WebServer) handleMeasurement(w http.ResponseWriter, r *http.Request) {
	httputil.WritePNG(w, ws.source.Snapshot().Measurement)
}

func (ws *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	httputil.WriteHTML(w, dashboardHTML)
}
