package menu

import (
	"context"
	"testing"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/provider/ai"
	"menuwise-backend/internal/provider/marketdata"
	"menuwise-backend/internal/repository"
	"menuwise-backend/internal/repository/memory"
	"menuwise-backend/internal/storage"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	svc          *Service
	items        *memory.MenuItemRepository
	restaurants  *memory.RestaurantRepository
	demographics *memory.DemographicSnapshotRepository
	competitors  *memory.CompetitorSnapshotRepository
	market       *marketdata.MockClient
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		items:        memory.NewMenuItemRepository(),
		restaurants:  memory.NewRestaurantRepository(),
		demographics: memory.NewDemographicSnapshotRepository(),
		competitors:  memory.NewCompetitorSnapshotRepository(),
		market:       marketdata.NewMockClient(),
	}
	env.svc = NewService(env.items, env.restaurants, env.demographics, env.competitors,
		env.market, ai.NewService(ai.NewMockProvider()), storage.NewMockUploader(), zap.NewNop())
	return env
}

func (e *testEnv) seedRestaurant(t *testing.T) *domain.Restaurant {
	t.Helper()
	restaurant, err := e.restaurants.Create(context.Background(), &domain.Restaurant{
		OwnerID:     "user-1",
		Name:        "Trattoria Uno",
		CuisineType: "italian",
		City:        "Portland",
	})
	require.NoError(t, err)
	return restaurant
}

func TestCreateItemValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		item domain.MenuItem
	}{
		{"missing restaurant", domain.MenuItem{Name: "Dish", Price: 5}},
		{"missing name", domain.MenuItem{RestaurantID: "rest-1", Price: 5}},
		{"negative price", domain.MenuItem{RestaurantID: "rest-1", Name: "Dish", Price: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateItem(ctx, &tt.item)
			require.Error(t, err)
			assert.True(t, appErrors.IsValidation(err))
		})
	}
}

func TestImportMenuParsesAndStores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.seedRestaurant(t)

	menuText := "Margherita Pizza 12.50\nCaesar Salad $9\n"
	result, err := env.svc.ImportMenu(ctx, restaurant.ID, "menus/key-1", menuText)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Parsed)
	assert.Equal(t, 2, result.Written)

	items, err := env.svc.ListItems(ctx, restaurant.ID, nil)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// The uploaded file key lands on the restaurant profile.
	got, err := env.restaurants.GetByID(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, "menus/key-1", got.MenuFileKey)
}

func TestImportMenuUnknownRestaurant(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.ImportMenu(context.Background(), "missing", "", "Pizza 10\n")
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}

func TestImportMenuNoExtractableItems(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t)

	_, err := env.svc.ImportMenu(context.Background(), restaurant.ID, "", "just a paragraph of prose with no prices")
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestRequestUploadURL(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t)

	upload, err := env.svc.RequestUploadURL(context.Background(), restaurant.ID, "menu.pdf", "application/pdf")
	require.NoError(t, err)
	assert.NotEmpty(t, upload.URL)
	assert.Contains(t, upload.Key, restaurant.ID)
	assert.Contains(t, upload.Key, "menu.pdf")
	assert.False(t, upload.ExpiresAt.IsZero())
}

func TestRefreshSnapshotsReplacesBoth(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	restaurant := env.seedRestaurant(t)

	// Pre-existing stale competitor data gets replaced wholesale.
	require.NoError(t, env.competitors.CreateOrUpdate(ctx, &domain.CompetitorDishSnapshot{
		RestaurantID: restaurant.ID,
		Dishes:       []domain.CompetitorDish{{ID: "stale", DishName: "Old Dish"}},
	}))

	require.NoError(t, env.svc.RefreshSnapshots(ctx, restaurant.ID))

	demo, err := env.demographics.Get(ctx, restaurant.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, demo.Segments)

	comp, err := env.competitors.Get(ctx, restaurant.ID)
	require.NoError(t, err)
	require.NotEmpty(t, comp.Dishes)
	for _, dish := range comp.Dishes {
		assert.NotEqual(t, "stale", dish.ID)
	}
}

func TestRefreshSnapshotsProviderFailure(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t)
	env.market.SetAvailable(false)

	err := env.svc.RefreshSnapshots(context.Background(), restaurant.ID)
	require.Error(t, err)

	// Nothing was stored.
	_, err = env.demographics.Get(context.Background(), restaurant.ID)
	assert.True(t, repository.IsNotFound(err))
}

func TestBatchCreateItemsStampsRestaurant(t *testing.T) {
	env := newTestEnv(t)
	restaurant := env.seedRestaurant(t)

	items := []domain.MenuItem{
		{Name: "Dish A", Price: 5},
		{Name: "Dish B", Price: 6},
	}
	stored, written, err := env.svc.BatchCreateItems(context.Background(), restaurant.ID, items)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	for _, item := range stored {
		assert.Equal(t, restaurant.ID, item.RestaurantID)
	}
}
