// Package testutil provides shared test fixtures: synthetic brightness
// signals, face frames and HTTP recorder helpers.
package testutil

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/disintegration/imaging"
)

// Colors used by synthetic frames. SkinTone lies inside the skin chroma
// range; Background does not.
var (
	SkinTone   = color.NRGBA{R: 224, G: 172, B: 140, A: 255}
	Background = color.NRGBA{R: 40, G: 60, B: 120, A: 255}
)

// Sinusoid returns n samples of offset + amplitude·sin(2π·bpm/60·t) taken at
// fps frames per second.
func Sinusoid(n int, fps, bpm, amplitude, offset float64) []float32 {
	out := make([]float32, n)
	f := bpm / 60
	for i := range out {
		t := float64(i) / fps
		out[i] = float32(offset + amplitude*math.Sin(2*math.Pi*f*t))
	}
	return out
}

// Flat returns n copies of v.
func Flat(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// FaceFrame returns a w×h frame filled with bg and a face-coloured rectangle
// at face (image coordinates, top-left origin).
func FaceFrame(w, h int, face image.Rectangle, skin, bg color.NRGBA) *image.NRGBA {
	img := imaging.New(w, h, bg)
	draw.Draw(img, face, &image.Uniform{C: skin}, image.Point{}, draw.Src)
	return img
}

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Serve runs handler on a method/path request and returns the recorder.
func Serve(handler http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

// DecodeJSON decodes the recorder body into v, failing the test on error.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}
