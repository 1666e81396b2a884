package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/pulse.report/internal/httputil"
	"github.com/banshee-data/pulse.report/internal/spectral"
)

func (ws *WebServer) newLineChart(title, subtitle, xName, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "420px", AssetsHost: ws.assetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: xName, NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: yName, Scale: opts.Bool(true)}),
	)
	return line
}

func renderChart(w http.ResponseWriter, line *charts.Line) {
	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}
	httputil.WriteHTML(w, buf.Bytes())
}

func spectrumData(points []spectral.Point) []opts.LineData {
	data := make([]opts.LineData, len(points))
	for i, p := range points {
		data[i] = opts.LineData{Value: []interface{}{p.BPM, p.Intensity}}
	}
	return data
}

// handleSpectrumChart plots the last and the averaged in-band spectrum.
func (ws *WebServer) handleSpectrumChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.source.Snapshot()
	line := ws.newLineChart("Spectrum", fmt.Sprintf("session=%s bins=%d", snap.SessionID, len(snap.Spectrum)), "BPM", "dB")
	line.AddSeries("last", spectrumData(snap.Spectrum), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.AddSeries("averaged", spectrumData(snap.AveragedSpectrum), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	renderChart(w, line)
}

// handleGreenChart plots the green-channel sample history against seconds
// since the oldest retained sample.
func (ws *WebServer) handleGreenChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.source.Snapshot()
	data := make([]opts.LineData, len(snap.Green))
	for i, s := range snap.Green {
		x := s.Timestamp.Sub(snap.Green[0].Timestamp).Seconds()
		data[i] = opts.LineData{Value: []interface{}{x, s.Value}}
	}
	line := ws.newLineChart("Green channel", fmt.Sprintf("session=%s samples=%d", snap.SessionID, len(data)), "seconds", "brightness")
	line.AddSeries("green", data, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	renderChart(w, line)
}

// handleBPMChart plots the fused BPM history against seconds before the
// snapshot.
func (ws *WebServer) handleBPMChart(w http.ResponseWriter, r *http.Request) {
	snap := ws.source.Snapshot()
	data := make([]opts.LineData, len(snap.BPMHistory))
	for i, p := range snap.BPMHistory {
		x := -snap.Timestamp.Sub(p.Timestamp).Seconds()
		data[i] = opts.LineData{Value: []interface{}{x, p.BPM}}
	}
	subtitle := fmt.Sprintf("session=%s at %s", snap.SessionID, snap.Timestamp.Format(time.RFC3339))
	if snap.Accuracy != nil {
		subtitle += fmt.Sprintf(" accuracy=%s", snap.Accuracy.Status)
	}
	line := ws.newLineChart("Heart rate", subtitle, "seconds", "BPM")
	line.AddSeries("bpm", data, charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	renderChart(w, line)
}
