// Package sample turns measurement-region crops into scalar brightness
// samples and keeps the rolling window of samples the spectral analysis runs
// on.
package sample
