// Package common defines shared constants and sentinel errors used across
// facelock components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound = errors.New("not found")

	// Capture/decode errors (local, user-retriable).
	ErrDecode  = errors.New("image decode failed")
	ErrCapture = errors.New("capture failed")

	// Matching errors.
	ErrNotEnrolled       = errors.New("not enrolled")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// Crypto/storage corruption errors. ErrDecryption must never be
	// conflated with ErrNotEnrolled: an absent record means "enroll first",
	// a failing decrypt means the store is corrupt or the key context is wrong.
	ErrDecryption = errors.New("decryption failed")

	// Evaluator errors.
	ErrInsufficientData = errors.New("insufficient data for evaluation")
)
