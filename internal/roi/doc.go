// Package roi derives the measurement region of interest from face
// observations.
//
// Face boxes arrive normalized to [0,1] with a bottom-left origin (y grows
// upwards). The measurement region is the lower-face band of the box: the
// sub-rectangle centered at relative (0.5, 0.2) covering 100%x40% of it,
// which keeps eyes and hair out of the sample. Regions are smoothed by a
// coordinate-wise mean over the most recent observations to damp tracking
// jitter.
package roi
