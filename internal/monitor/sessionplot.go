package monitor

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/banshee-data/pulse.report/internal/pipeline"
	"github.com/banshee-data/pulse.report/internal/spectral"
)

var (
	greenColor    = color.RGBA{R: 30, G: 160, B: 60, A: 255}
	lastColor     = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	averagedColor = color.RGBA{R: 200, G: 40, B: 40, A: 255}
	bpmColor      = color.RGBA{R: 40, G: 80, B: 200, A: 255}
)

// WriteSessionPlot renders the green-channel history, the spectra and the
// BPM history of snap as a three-panel PNG.
func WriteSessionPlot(w io.Writer, snap pipeline.Snapshot) error {
	pGreen := plot.New()
	pGreen.Title.Text = "Green channel"
	pGreen.X.Label.Text = "Time (s)"
	pGreen.Y.Label.Text = "Brightness"
	green := make(plotter.XYs, len(snap.Green))
	for i, s := range snap.Green {
		green[i] = plotter.XY{X: s.Timestamp.Sub(snap.Green[0].Timestamp).Seconds(), Y: float64(s.Value)}
	}
	if err := addLine(pGreen, "", green, greenColor); err != nil {
		return err
	}

	pSpec := plot.New()
	pSpec.Title.Text = "Spectrum"
	pSpec.X.Label.Text = "BPM"
	pSpec.Y.Label.Text = "Intensity (dB)"
	if err := addLine(pSpec, "last", spectrumXYs(snap.Spectrum), lastColor); err != nil {
		return err
	}
	if err := addLine(pSpec, "averaged", spectrumXYs(snap.AveragedSpectrum), averagedColor); err != nil {
		return err
	}

	pBPM := plot.New()
	pBPM.Title.Text = "Heart rate"
	if snap.Accuracy != nil {
		pBPM.Title.Text = fmt.Sprintf("Heart rate (accuracy %s)", snap.Accuracy.Status)
	}
	pBPM.X.Label.Text = "Time before snapshot (s)"
	pBPM.Y.Label.Text = "BPM"
	bpm := make(plotter.XYs, len(snap.BPMHistory))
	for i, p := range snap.BPMHistory {
		bpm[i] = plotter.XY{X: -snap.Timestamp.Sub(p.Timestamp).Seconds(), Y: float64(p.BPM)}
	}
	if err := addLine(pBPM, "", bpm, bpmColor); err != nil {
		return err
	}

	img := vgimg.New(10*vg.Inch, 12*vg.Inch)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 3, Cols: 1, PadY: vg.Millimeter * 4, PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2}
	plots := [][]*plot.Plot{{pGreen}, {pSpec}, {pBPM}}
	canvases := plot.Align(plots, tiles, dc)
	for i := range plots {
		plots[i][0].Draw(canvases[i][0])
	}

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("failed to encode session plot: %w", err)
	}
	return nil
}

// SaveSessionPlot writes WriteSessionPlot output to path.
func SaveSessionPlot(path string, snap pipeline.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create plot file: %w", err)
	}
	if err := WriteSessionPlot(f, snap); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func spectrumXYs(points []spectral.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, p := range points {
		xys[i] = plotter.XY{X: float64(p.BPM), Y: float64(p.Intensity)}
	}
	return xys
}

// addLine adds a line to p; empty series are skipped.
func addLine(p *plot.Plot, label string, xys plotter.XYs, c color.Color) error {
	if len(xys) == 0 {
		return nil
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return fmt.Errorf("failed to create %q line: %w", p.Title.Text, err)
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	if label != "" {
		p.Legend.Add(label, line)
	}
	return nil
}
