package estimate

import (
	"fmt"
	"math"
)

// AccuracyKind is the ordered classification of a confidence weight.
type AccuracyKind int

const (
	AccuracyInsufficient AccuracyKind = iota // [0, 2)
	AccuracyLow                              // [2, 4)
	AccuracyGood                             // [4, 7)
	AccuracyExcellent                        // [7, ∞)
)

// String implements fmt.Stringer.
func (k AccuracyKind) String() string {
	switch k {
	case AccuracyLow:
		return "low"
	case AccuracyGood:
		return "good"
	case AccuracyExcellent:
		return "excellent"
	default:
		return "insufficient"
	}
}

// MarshalText encodes the kind by name in JSON payloads.
func (k AccuracyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *AccuracyKind) UnmarshalText(text []byte) error {
	for c := AccuracyInsufficient; c <= AccuracyExcellent; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown accuracy %q", text)
}

// Accuracy wraps the most recent unclipped confidence weight.
type Accuracy struct {
	Value float32 `json:"value"`
}

// Kind classifies the weight. Lower band edges are inclusive; negative and
// NaN values are insufficient.
func (a Accuracy) Kind() AccuracyKind {
	v := float64(a.Value)
	switch {
	case math.IsNaN(v) || v < 2:
		return AccuracyInsufficient
	case v < 4:
		return AccuracyLow
	case v < 7:
		return AccuracyGood
	default:
		return AccuracyExcellent
	}
}
