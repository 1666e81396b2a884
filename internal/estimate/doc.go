// Package estimate fuses per-cycle BPM candidates into the reported heart
// rate.
//
// Every candidate carries a confidence weight, the inverse standard deviation
// of the sample window it came from. The reported BPM is the weighted mean of
// the most recent candidates with weights clipped to [0, MaxWeight], and the
// latest unclipped weight is exposed as an Accuracy band.
package estimate
