// Package evaluate implements the leave-pairs-out statistical self-test for
// an enrollment set: genuine pair scores, synthetic impostor scores, and the
// derived FAR/FRR/TAR/accuracy/EER metrics. It consumes decrypted embeddings
// and never influences runtime authentication decisions.
package evaluate

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/facelock/internal/feature"
	"github.com/dmitrijs2005/facelock/internal/matching"
)

// ImpostorCount is the number of synthetic random unit vectors generated per
// evaluation, simulating zero-knowledge attackers with no correlation to the
// real user's descriptor.
const ImpostorCount = 50

// Report holds the raw score distributions and the metrics derived at the
// operating threshold. It is recomputed on demand and never persisted.
// Success is false when fewer than 2 embeddings were available (no genuine
// pairs can be formed); all other fields are zero in that case.
type Report struct {
	ID        string
	Success   bool
	Threshold float64

	GenuineScores  []float64
	ImpostorScores []float64

	GenuineMean  float64
	ImpostorMean float64

	// Confusion matrix at Threshold.
	TP, FN, FP, TN int

	FAR      float64
	FRR      float64
	TAR      float64
	Accuracy float64
	EER      float64

	GenuineTrials  int
	ImpostorTrials int
}

// Evaluate runs the self-test against the enrolled embeddings at the given
// threshold. The impostor sample uses a time-seeded non-crypto PRNG; only
// self-test statistics depend on it, never security.
func Evaluate(embeddings []feature.Embedding, threshold float64) *Report {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return EvaluateWithRand(embeddings, threshold, rng)
}

// EvaluateWithRand is Evaluate with an injected randomness source, for
// reproducible runs.
func EvaluateWithRand(embeddings []feature.Embedding, threshold float64, rng *rand.Rand) *Report {
	report := &Report{ID: uuid.NewString(), Threshold: threshold}

	if len(embeddings) < 2 {
		return report // insufficient data sentinel: Success stays false
	}

	// Genuine scores: every unordered pair among the enrolled embeddings —
	// an intra-class similarity sample of C(n,2) scores.
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			report.GenuineScores = append(report.GenuineScores, matching.Similarity(embeddings[i], embeddings[j]))
		}
	}

	// Impostor scores: each synthetic vector scored against every enrolled
	// embedding.
	dim := len(embeddings[0])
	for i := 0; i < ImpostorCount; i++ {
		imp := randomUnitVector(rng, dim)
		for _, e := range embeddings {
			report.ImpostorScores = append(report.ImpostorScores, matching.Similarity(imp, e))
		}
	}

	report.GenuineTrials = len(report.GenuineScores)
	report.ImpostorTrials = len(report.ImpostorScores)
	report.GenuineMean = mean(report.GenuineScores)
	report.ImpostorMean = mean(report.ImpostorScores)

	for _, s := range report.GenuineScores {
		if s >= threshold {
			report.TP++
		} else {
			report.FN++
		}
	}
	for _, s := range report.ImpostorScores {
		if s >= threshold {
			report.FP++
		} else {
			report.TN++
		}
	}

	report.FAR = float64(report.FP) / float64(report.ImpostorTrials)
	report.FRR = float64(report.FN) / float64(report.GenuineTrials)
	report.TAR = 1 - report.FRR
	report.Accuracy = float64(report.TP+report.TN) / float64(report.GenuineTrials+report.ImpostorTrials)
	report.EER = equalErrorRate(report.GenuineScores, report.ImpostorScores)

	report.Success = true
	return report
}

// equalErrorRate sweeps candidate thresholds from 0.01 to 0.99 in 0.01 steps
// and returns the mean of FAR and FRR at the threshold minimizing |FAR−FRR|.
// Grid search, not exact crossing interpolation; the granularity is part of
// the contract so results stay comparable across runs.
func equalErrorRate(genuine, impostor []float64) float64 {
	best := math.Inf(1)
	eer := 0.0

	for step := 1; step <= 99; step++ {
		thr := float64(step) / 100

		fn := 0
		for _, s := range genuine {
			if s < thr {
				fn++
			}
		}
		fp := 0
		for _, s := range impostor {
			if s >= thr {
				fp++
			}
		}

		frr := float64(fn) / float64(len(genuine))
		far := float64(fp) / float64(len(impostor))

		if d := math.Abs(far - frr); d < best {
			best = d
			eer = (far + frr) / 2
		}
	}
	return eer
}

// randomUnitVector draws each component with Box–Muller Gaussian sampling and
// L2-normalizes the result, giving a uniform direction on the unit sphere.
func randomUnitVector(rng *rand.Rand, dim int) feature.Embedding {
	v := make(feature.Embedding, dim)
	for i := range v {
		v[i] = boxMuller(rng)
	}
	return v.Normalize()
}

func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
