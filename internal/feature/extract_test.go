package feature

import (
	"math/rand"
	"testing"

	"github.com/dmitrijs2005/facelock/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomCanonical(t *testing.T, seed int64) *imaging.CanonicalImage {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	pix := make([]float64, imaging.Size*imaging.Size)
	for i := range pix {
		pix[i] = rng.Float64() * 255
	}
	img := imaging.FromPixels(pix)
	require.NotNil(t, img)
	return img
}

func flatCanonical(t *testing.T, v float64) *imaging.CanonicalImage {
	t.Helper()
	pix := make([]float64, imaging.Size*imaging.Size)
	for i := range pix {
		pix[i] = v
	}
	img := imaging.FromPixels(pix)
	require.NotNil(t, img)
	return img
}

func TestExtract_Length(t *testing.T) {
	emb := Extract(randomCanonical(t, 1))
	assert.Len(t, emb, Dim)
	assert.Equal(t, 640, Dim)
}

func TestExtract_Deterministic(t *testing.T) {
	img := randomCanonical(t, 2)
	a := Extract(img)
	b := Extract(img)
	assert.Equal(t, a, b)
}

func TestExtract_L2Normalized(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		emb := Extract(randomCanonical(t, seed))
		assert.InDelta(t, 1.0, emb.Norm(), 1e-6, "seed %d", seed)
	}
}

func TestExtract_DifferentImagesDiffer(t *testing.T) {
	a := Extract(randomCanonical(t, 10))
	b := Extract(randomCanonical(t, 11))
	assert.NotEqual(t, a, b)
}

func TestExtract_FlatImage(t *testing.T) {
	emb := Extract(flatCanonical(t, 128))

	// A flat image has no gradients, so the gradient channel is all zero.
	for i := TextureDims; i < Dim; i++ {
		assert.Zero(t, emb[i])
	}

	// Ties favor "set": every neighbor equals the center, so every code is
	// 0xFF and each cell piles into the top bin.
	assert.InDelta(t, 1.0, emb.Norm(), 1e-6)
	for i := 0; i < TextureDims; i++ {
		bin := i % 32
		if bin == 31 {
			assert.Greater(t, emb[i], 0.0, "dim %d", i)
		} else {
			assert.Zero(t, emb[i], "dim %d", i)
		}
	}
}

func TestNormalize_ZeroVectorUnchanged(t *testing.T) {
	zero := make(Embedding, Dim)
	out := zero.Normalize()
	assert.Equal(t, make(Embedding, Dim), out)
}

func TestClone_Independent(t *testing.T) {
	a := Extract(randomCanonical(t, 3))
	b := a.Clone()
	b[0] += 1
	assert.NotEqual(t, a[0], b[0])
}
