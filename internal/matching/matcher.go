// Package matching compares embeddings and renders accept/reject decisions.
package matching

import "github.com/dmitrijs2005/facelock/internal/feature"

// DefaultThreshold is the empirically chosen operating point for the
// 640-dimensional descriptor: genuine-user mean scores cluster above ~0.80
// and impostor scores below ~0.65.
const DefaultThreshold = 0.78

// Similarity returns the cosine similarity of two embeddings, clamped to
// [-1,1] to absorb floating round-off. Both inputs are unit vectors, so the
// dot product is the cosine. Mismatched dimensions are a caller contract
// violation and yield 0 rather than a panic.
func Similarity(a, b feature.Embedding) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	if dot > 1 {
		return 1
	}
	if dot < -1 {
		return -1
	}
	return dot
}

// MatchGallery returns the arithmetic mean similarity of the probe across the
// whole gallery. The mean — not the maximum — is deliberate: one fortuitously
// similar template must not alone authorize acceptance; the user has to be
// consistently similar across every enrolled capture.
func MatchGallery(probe feature.Embedding, gallery []feature.Embedding) float64 {
	if len(gallery) == 0 {
		return 0
	}
	var sum float64
	for _, g := range gallery {
		sum += Similarity(probe, g)
	}
	return sum / float64(len(gallery))
}

// BestMatch returns the index and similarity of the single closest gallery
// entry. Diagnostic only; decisions always use MatchGallery.
func BestMatch(probe feature.Embedding, gallery []feature.Embedding) (int, float64) {
	best := -1
	bestScore := -2.0
	for i, g := range gallery {
		if s := Similarity(probe, g); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best == -1 {
		return -1, 0
	}
	return best, bestScore
}

// MeanEmbedding averages a gallery into a single normalized vector. Useful
// for diagnostics over an enrollment set; not used in the decision rule.
func MeanEmbedding(gallery []feature.Embedding) feature.Embedding {
	if len(gallery) == 0 {
		return nil
	}
	mean := make(feature.Embedding, len(gallery[0]))
	for _, g := range gallery {
		if len(g) != len(mean) {
			return nil
		}
		for i, v := range g {
			mean[i] += v
		}
	}
	n := float64(len(gallery))
	for i := range mean {
		mean[i] /= n
	}
	return mean.Normalize()
}

// Decision is the result of matching a probe against a gallery.
type Decision struct {
	Score    float64
	Accepted bool
}

// Matcher renders decisions at a configurable threshold.
type Matcher struct {
	threshold float64
}

// New returns a matcher with the given acceptance threshold. Thresholds
// outside (0,1] fall back to DefaultThreshold.
func New(threshold float64) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold returns the operating threshold.
func (m *Matcher) Threshold() float64 { return m.threshold }

// Decide accepts iff the gallery-mean similarity is at or above the
// threshold. The boundary is inclusive.
func (m *Matcher) Decide(probe feature.Embedding, gallery []feature.Embedding) Decision {
	score := MatchGallery(probe, gallery)
	return Decision{Score: score, Accepted: score >= m.threshold}
}
