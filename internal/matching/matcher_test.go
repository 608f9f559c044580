package matching

import (
	"math"
	"math/rand"
	"testing"

	"github.com/dmitrijs2005/facelock/internal/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomUnit(t *testing.T, rng *rand.Rand) feature.Embedding {
	t.Helper()
	e := make(feature.Embedding, feature.Dim)
	for i := range e {
		e[i] = rng.NormFloat64()
	}
	e.Normalize()
	require.InDelta(t, 1.0, e.Norm(), 1e-9)
	return e
}

// unitAt returns a unit vector that has cosine similarity exactly cos with
// the given base unit vector, built in the plane spanned by base and an
// orthogonal direction.
func unitAt(t *testing.T, base feature.Embedding, cos float64) feature.Embedding {
	t.Helper()
	rng := rand.New(rand.NewSource(99))
	other := randomUnit(t, rng)

	// Gram–Schmidt: orthogonalize other against base.
	dot := Similarity(base, other)
	ortho := make(feature.Embedding, len(base))
	for i := range ortho {
		ortho[i] = other[i] - dot*base[i]
	}
	ortho.Normalize()

	sin := math.Sqrt(1 - cos*cos)
	out := make(feature.Embedding, len(base))
	for i := range out {
		out[i] = cos*base[i] + sin*ortho[i]
	}
	return out
}

func TestSimilarity_Symmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := randomUnit(t, rng)
	b := randomUnit(t, rng)
	assert.Equal(t, Similarity(a, b), Similarity(b, a))
}

func TestSimilarity_SelfIsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := randomUnit(t, rng)
	assert.InDelta(t, 1.0, Similarity(a, a), 1e-9)
}

func TestSimilarity_DimensionMismatch(t *testing.T) {
	a := make(feature.Embedding, feature.Dim)
	b := make(feature.Embedding, feature.Dim/2)
	assert.Zero(t, Similarity(a, b))
}

func TestSimilarity_Clamped(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	a := randomUnit(t, rng)
	s := Similarity(a, a)
	assert.LessOrEqual(t, s, 1.0)
	assert.GreaterOrEqual(t, s, -1.0)
}

func TestMatchGallery_SingleEntryEqualsSimilarity(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	p := randomUnit(t, rng)
	a := randomUnit(t, rng)
	assert.Equal(t, Similarity(p, a), MatchGallery(p, []feature.Embedding{a}))
}

func TestMatchGallery_MeanBetweenExtremes(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := randomUnit(t, rng)

	similar := unitAt(t, p, 0.95)
	dissimilar := unitAt(t, p, 0.10)

	sHigh := Similarity(p, similar)
	sLow := Similarity(p, dissimilar)
	mean := MatchGallery(p, []feature.Embedding{similar, dissimilar})

	assert.Greater(t, mean, sLow)
	assert.Less(t, mean, sHigh)
}

func TestMatchGallery_EmptyGallery(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	p := randomUnit(t, rng)
	assert.Zero(t, MatchGallery(p, nil))
}

func TestDecide_InclusiveBoundary(t *testing.T) {
	// Basis-vector construction keeps the dot product exactly 0.78: the only
	// nonzero term is 1.0 * 0.78, so no summation round-off can push the
	// score below the threshold.
	p := make(feature.Embedding, feature.Dim)
	p[0] = 1

	g := make(feature.Embedding, feature.Dim)
	g[0] = 0.78
	g[1] = math.Sqrt(1 - 0.78*0.78)

	m := New(0.78)
	d := m.Decide(p, []feature.Embedding{g})
	assert.Equal(t, 0.78, d.Score)
	// Score exactly at the threshold accepts: the rule is >=.
	assert.True(t, d.Accepted)
}

func TestDecide_RejectBelowThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	p := randomUnit(t, rng)
	g := unitAt(t, p, 0.5)

	d := New(0.78).Decide(p, []feature.Embedding{g})
	assert.False(t, d.Accepted)
}

func TestNew_InvalidThresholdFallsBack(t *testing.T) {
	assert.Equal(t, DefaultThreshold, New(0).Threshold())
	assert.Equal(t, DefaultThreshold, New(-1).Threshold())
	assert.Equal(t, DefaultThreshold, New(1.5).Threshold())
	assert.Equal(t, 0.9, New(0.9).Threshold())
}

func TestBestMatch(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	p := randomUnit(t, rng)
	gallery := []feature.Embedding{
		unitAt(t, p, 0.2),
		unitAt(t, p, 0.9),
		unitAt(t, p, 0.5),
	}
	idx, score := BestMatch(p, gallery)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 0.9, score, 1e-9)

	idx, score = BestMatch(p, nil)
	assert.Equal(t, -1, idx)
	assert.Zero(t, score)
}

func TestMeanEmbedding_Normalized(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	gallery := []feature.Embedding{randomUnit(t, rng), randomUnit(t, rng), randomUnit(t, rng)}
	mean := MeanEmbedding(gallery)
	require.NotNil(t, mean)
	assert.InDelta(t, 1.0, mean.Norm(), 1e-9)

	assert.Nil(t, MeanEmbedding(nil))
}
