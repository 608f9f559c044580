// Package feature computes fixed-length face embeddings from canonical
// images. Two independent hand-designed descriptor channels — local binary
// pattern texture histograms and Sobel gradient statistics — are concatenated
// and globally L2-normalized. Texture codes are person-discriminative; raw
// brightness statistics alone are not, so the two channels are deliberately
// uncorrelated signal sources.
package feature

import "math"

const (
	// TextureDims is the size of the LBP histogram channel.
	TextureDims = 512
	// GradientDims is the size of the gradient statistics channel.
	GradientDims = 128
	// Dim is the total embedding length.
	Dim = TextureDims + GradientDims
)

// Embedding is an ordered, fixed-length vector summarizing a face image.
// Every embedding used for matching or storage must be L2-normalized;
// un-normalized vectors are a contract violation.
type Embedding []float64

// Norm returns the Euclidean norm of the embedding.
func (e Embedding) Norm() float64 {
	var sum float64
	for _, v := range e {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize divides every component by the Euclidean norm, in place, and
// returns the receiver. A zero vector is returned unchanged rather than
// divided by zero; that degenerate case does not occur for real images.
func (e Embedding) Normalize() Embedding {
	n := e.Norm()
	if n == 0 {
		return e
	}
	for i := range e {
		e[i] /= n
	}
	return e
}

// Clone returns an independent copy of the embedding.
func (e Embedding) Clone() Embedding {
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}
