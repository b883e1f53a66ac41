package ddb

import (
	"context"
	"testing"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRevisionRepo(t *testing.T) *RevisionCandidateRepository {
	t.Helper()
	return NewRevisionCandidateRepository(newFakeDBClient(), "test-table", zap.NewNop())
}

// The status transition is guarded by a conditional write: the stored status
// must be pending or already equal to the target. These tests drive that
// expression end to end through the store client.
func TestRevisionCandidateStatusConditionalWrite(t *testing.T) {
	repo := newTestRevisionRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.RevisionCandidate{
		RestaurantID: "rest-1",
		MenuItemID:   "item-1",
		ProposedName: "Wood-Fired Margherita",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.CandidatePending, created.Status)

	t.Run("pending to approved", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, "rest-1", created.ID, domain.CandidateApproved))

		got, err := repo.GetByID(ctx, "rest-1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CandidateApproved, got.Status)
	})

	t.Run("same target is a no-op", func(t *testing.T) {
		require.NoError(t, repo.UpdateStatus(ctx, "rest-1", created.ID, domain.CandidateApproved))

		got, err := repo.GetByID(ctx, "rest-1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CandidateApproved, got.Status)
	})

	t.Run("terminal to different status conflicts", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, "rest-1", created.ID, domain.CandidateRejected)
		require.Error(t, err)
		assert.True(t, appErrors.IsConflict(err))

		got, err := repo.GetByID(ctx, "rest-1", created.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.CandidateApproved, got.Status)
	})

	t.Run("missing candidate is not found", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, "rest-1", "missing", domain.CandidateApproved)
		require.Error(t, err)
		assert.True(t, repository.IsNotFound(err))
	})
}

func TestSuggestionCandidateStatusConditionalWrite(t *testing.T) {
	repo := NewSuggestionCandidateRepository(newFakeDBClient(), "test-table", zap.NewNop())
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.SuggestionCandidate{
		RestaurantID: "rest-1",
		Name:         "Charred Cauliflower Steak",
	})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, "rest-1", created.ID, domain.CandidateRejected))
	require.NoError(t, repo.UpdateStatus(ctx, "rest-1", created.ID, domain.CandidateRejected))

	err = repo.UpdateStatus(ctx, "rest-1", created.ID, domain.CandidateApproved)
	require.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
}
