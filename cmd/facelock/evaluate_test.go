package main

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/facelock/internal/common"
	"github.com/dmitrijs2005/facelock/internal/cryptox"
	"github.com/dmitrijs2005/facelock/internal/feature"
	"github.com/dmitrijs2005/facelock/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// basisEmbedding returns a unit embedding with a single nonzero component.
func basisEmbedding(axis int) feature.Embedding {
	e := make(feature.Embedding, feature.Dim)
	e[axis] = 1
	return e
}

func setupTestStore(t *testing.T) {
	t.Helper()
	prev := store
	store = templates.NewStore(templates.NewInMemoryStorage(), cryptox.DefaultIterations, nil)
	t.Cleanup(func() { store = prev })
}

func TestEvaluateUser_NotEnrolled(t *testing.T) {
	setupTestStore(t)

	report, err := evaluateUser(context.Background(), "nobody", 0.78)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, common.ErrNotEnrolled)
}

func TestEvaluateUser_InsufficientEnrollment(t *testing.T) {
	setupTestStore(t)
	ctx := context.Background()

	_, err := store.SaveEmbeddings(ctx, "alice", []feature.Embedding{basisEmbedding(0)})
	require.NoError(t, err)

	report, err := evaluateUser(ctx, "alice", 0.78)
	assert.ErrorIs(t, err, common.ErrInsufficientData)
	require.NotNil(t, report)
	assert.False(t, report.Success)
}

func TestEvaluateUser_Succeeds(t *testing.T) {
	setupTestStore(t)
	ctx := context.Background()

	_, err := store.SaveEmbeddings(ctx, "alice", []feature.Embedding{
		basisEmbedding(0), basisEmbedding(1),
	})
	require.NoError(t, err)

	report, err := evaluateUser(ctx, "alice", 0.78)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.GenuineTrials)
}
