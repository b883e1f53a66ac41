package optimization

import (
	"context"
	"testing"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/provider/ai"
	"menuwise-backend/internal/repository/memory"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc          *Service
	menuItems    *memory.MenuItemRepository
	revisions    *memory.RevisionCandidateRepository
	suggestions  *memory.SuggestionCandidateRepository
	demographics *memory.DemographicSnapshotRepository
	competitors  *memory.CompetitorSnapshotRepository
	provider     *ai.MockProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		menuItems:    memory.NewMenuItemRepository(),
		revisions:    memory.NewRevisionCandidateRepository(),
		suggestions:  memory.NewSuggestionCandidateRepository(),
		demographics: memory.NewDemographicSnapshotRepository(),
		competitors:  memory.NewCompetitorSnapshotRepository(),
		provider:     ai.NewMockProvider(),
	}
	env.svc = NewService(env.menuItems, env.revisions, env.suggestions,
		env.demographics, env.competitors, ai.NewService(env.provider), zap.NewNop())
	return env
}

func (e *testEnv) seedMenuItem(t *testing.T, name string) *domain.MenuItem {
	t.Helper()
	item, err := e.menuItems.Create(context.Background(), &domain.MenuItem{
		RestaurantID: "rest-1",
		Name:         name,
		Description:  "plain " + name,
		Price:        10,
		Category:     "mains",
	})
	require.NoError(t, err)
	return item
}

func (e *testEnv) seedCompetitorSnapshot(t *testing.T) {
	t.Helper()
	err := e.competitors.CreateOrUpdate(context.Background(), &domain.CompetitorDishSnapshot{
		RestaurantID: "rest-1",
		Dishes: []domain.CompetitorDish{
			{ID: "comp-1", CompetitorName: "Rival", DishName: "Signature Stew", Price: 13, Category: "mains"},
		},
	})
	require.NoError(t, err)
}

func TestSubmitRevisionRequiresActiveItem(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Submit(context.Background(), Request{
		RestaurantID: "rest-1",
		Mode:         domain.ModeReviseExisting,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))

	pending, err := env.revisions.GetByStatus(context.Background(), "rest-1", domain.CandidatePending)
	require.NoError(t, err)
	assert.Empty(t, pending, "validation failure must write zero candidates")
}

func TestSubmitSuggestionRequiresCompetitorSnapshot(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Submit(context.Background(), Request{
		RestaurantID: "rest-1",
		Mode:         domain.ModeSuggestNew,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestSubmitRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Submit(context.Background(), Request{
		RestaurantID: "rest-1",
		Mode:         "optimize-everything",
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestRevisionPassWritesPendingCandidates(t *testing.T) {
	env := newTestEnv(t)
	item1 := env.seedMenuItem(t, "Lentil Soup")
	item2 := env.seedMenuItem(t, "Garden Salad")

	env.svc.process(Request{RestaurantID: "rest-1", Mode: domain.ModeReviseExisting})

	pending, err := env.revisions.GetByStatus(context.Background(), "rest-1", domain.CandidatePending)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	for _, cand := range pending {
		assert.Equal(t, domain.CandidatePending, cand.Status)
		assert.NotEmpty(t, cand.ProposedDescription)
		assert.Contains(t, []string{item1.ID, item2.ID}, cand.MenuItemID)
	}

	// The source items are marked pending with one history entry each.
	for _, id := range []string{item1.ID, item2.ID} {
		got, err := env.menuItems.GetByID(context.Background(), "rest-1", id)
		require.NoError(t, err)
		assert.Equal(t, domain.EnhancementPending, got.EnhancementStatus)
		assert.Len(t, got.EnhancementHistory, 1)
	}
}

func TestSuggestionPassWritesPendingCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.seedCompetitorSnapshot(t)

	env.svc.process(Request{RestaurantID: "rest-1", Mode: domain.ModeSuggestNew})

	pending, err := env.suggestions.GetByStatus(context.Background(), "rest-1", domain.CandidatePending)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	for _, cand := range pending {
		assert.Equal(t, domain.CandidatePending, cand.Status)
		assert.NotEmpty(t, cand.Name)
	}
}

func TestProviderFailureWritesNoCandidates(t *testing.T) {
	env := newTestEnv(t)
	env.seedMenuItem(t, "Lentil Soup")
	env.provider.SetAvailable(false)

	env.svc.process(Request{RestaurantID: "rest-1", Mode: domain.ModeReviseExisting})

	pending, err := env.revisions.GetByStatus(context.Background(), "rest-1", domain.CandidatePending)
	require.NoError(t, err)
	assert.Empty(t, pending, "provider failure must leave no candidates")
}

func TestSubmitEnqueuesAndWorkersProcess(t *testing.T) {
	env := newTestEnv(t)
	env.seedMenuItem(t, "Lentil Soup")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.svc.Start(ctx)

	ack, err := env.svc.Submit(ctx, Request{RestaurantID: "rest-1", Mode: domain.ModeReviseExisting})
	require.NoError(t, err)
	assert.Equal(t, "rest-1", ack.RestaurantID)
	assert.False(t, ack.SubmittedAt.IsZero())

	assert.Eventually(t, func() bool {
		pending, err := env.revisions.GetByStatus(context.Background(), "rest-1", domain.CandidatePending)
		return err == nil && len(pending) > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListPendingCandidatesByMode(t *testing.T) {
	env := newTestEnv(t)
	env.seedMenuItem(t, "Lentil Soup")
	env.seedCompetitorSnapshot(t)

	env.svc.process(Request{RestaurantID: "rest-1", Mode: domain.ModeReviseExisting})
	env.svc.process(Request{RestaurantID: "rest-1", Mode: domain.ModeSuggestNew})

	revs, err := env.svc.ListPendingCandidates(context.Background(), "rest-1", domain.ModeReviseExisting)
	require.NoError(t, err)
	for _, c := range revs {
		assert.Equal(t, domain.ModeReviseExisting, c.Mode())
	}
	sugs, err := env.svc.ListPendingCandidates(context.Background(), "rest-1", domain.ModeSuggestNew)
	require.NoError(t, err)
	for _, c := range sugs {
		assert.Equal(t, domain.ModeSuggestNew, c.Mode())
	}
	assert.NotEmpty(t, revs)
	assert.NotEmpty(t, sugs)
}
