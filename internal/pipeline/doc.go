// Package pipeline wires frame source, face tracking, sampling, spectral
// analysis and BPM estimation into one measurement session.
//
// Four cadences run independently on a shared clock:
//
//	sampling    1/30 s  latest frame + smoothed region → crop → green sample
//	face        10 ms   detect when idle, otherwise track
//	spectral    100 ms  sample window → in-band spectrum
//	estimation  100 ms  spectrum → aggregate → fused BPM
//
// Results cross cadences through whole-value atomic swaps, so readers never
// observe a half-written spectrum or image. Each cadence swallows its own
// per-tick errors; the next tick is the only retry.
package pipeline
