// Package detect defines the boundaries to the external capture and
// face-detection collaborators. The core never talks to a camera or a
// landmark model directly; it consumes these interfaces and treats every
// missing optional field as "indeterminate", never as an error.
package detect

import (
	"context"
	"image"
)

// Camera produces raw image bytes on request. Failures surface as errors the
// caller wraps with common.ErrCapture.
type Camera interface {
	Capture(ctx context.Context) ([]byte, error)
}

// Detector analyzes raw image bytes for a face. Implementations wrap whatever
// third-party landmark/liveness model is available on the platform.
type Detector interface {
	Detect(ctx context.Context, raw []byte) (Result, error)
}

// Outcome tags a detection result so that the fail-open branch is an
// explicit, exhaustively handled case instead of a nil-check.
type Outcome int

const (
	// OutcomeIndeterminate means the detector could not produce a usable
	// answer (unavailable, first run, model not loaded). Liveness fails open
	// on this outcome.
	OutcomeIndeterminate Outcome = iota
	// OutcomeNotFound means the detector ran and saw no face.
	OutcomeNotFound
	// OutcomeFound means a face was detected; see the Face fields.
	OutcomeFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotFound:
		return "not_found"
	case OutcomeFound:
		return "found"
	default:
		return "indeterminate"
	}
}

// Face carries the optional measurements a detector may produce. Each group
// has a Has* flag; absent groups are indeterminate, not zero.
type Face struct {
	Box    image.Rectangle
	HasBox bool

	// Head pose angles in degrees.
	Yaw     float64
	Roll    float64
	HasPose bool

	// Per-eye open probability in [0,1].
	LeftEyeOpen  float64
	RightEyeOpen float64
	HasEyeProbs  bool
}

// Result is the tagged outcome of one detection call.
type Result struct {
	Outcome Outcome
	Face    *Face // non-nil iff Outcome == OutcomeFound
}

// Found wraps a detected face.
func Found(face Face) Result {
	return Result{Outcome: OutcomeFound, Face: &face}
}

// NotFound reports that the detector ran but saw no face.
func NotFound() Result {
	return Result{Outcome: OutcomeNotFound}
}

// Indeterminate reports that the detector could not answer.
func Indeterminate() Result {
	return Result{Outcome: OutcomeIndeterminate}
}

// EyeProbs returns the per-eye open probabilities, or ok=false when the
// result has no usable eye measurement (no face, or probabilities absent).
func (r Result) EyeProbs() (left, right float64, ok bool) {
	if r.Outcome != OutcomeFound || r.Face == nil || !r.Face.HasEyeProbs {
		return 0, 0, false
	}
	return r.Face.LeftEyeOpen, r.Face.RightEyeOpen, true
}
