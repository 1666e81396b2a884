// Package facetrack owns the face-track lifecycle that feeds the measurement
// region.
//
// A Session alternates between full-frame detection and cheaper frame-to-frame
// tracking:
//
//	Idle ──detect──▶ Detecting ──found──▶ Tracking
//	  ▲                  │                   │
//	  └──── none/error ──┘◀── confidence ≤ min or error
//
// Detection is slow and runs on its own goroutine behind an in-flight guard so
// a stalled detector never blocks the other cadences. Face boxes are
// normalized with a bottom-left origin (see package roi).
package facetrack
