// Package spectral converts the rolling brightness window into a heart-rate
// spectrum and averages spectra over time.
//
// Analyzer applies a normalized Hann window, a radix-2 real FFT computed in
// float32, squared magnitudes and a decibel conversion, then keeps only the
// bins of the plausible heart-rate band. Aggregator keeps the most recent
// confidence-weighted spectra and reports their mean and its dominant BPM.
package spectral
