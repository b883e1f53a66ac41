package ai

import (
	"context"
	"testing"

	"menuwise-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRevisionsReturnsOnePerItem(t *testing.T) {
	svc := NewService(NewMockProvider())

	items := []domain.MenuItem{
		{ID: "item-1", RestaurantID: "rest-1", Name: "Lentil Soup", Description: "plain soup"},
		{ID: "item-2", RestaurantID: "rest-1", Name: "Garden Salad", Description: "greens"},
	}

	payloads, err := svc.GenerateRevisions(context.Background(), items, nil, []string{"young professionals"})
	require.NoError(t, err)
	require.Len(t, payloads, 2)

	seen := map[string]bool{}
	for _, p := range payloads {
		seen[p.MenuItemID] = true
		assert.NotEmpty(t, p.ProposedName)
		assert.NotEmpty(t, p.ProposedDescription)
		assert.NotEmpty(t, p.Rationale)
	}
	assert.True(t, seen["item-1"])
	assert.True(t, seen["item-2"])
}

func TestGenerateRevisionsUnavailableProvider(t *testing.T) {
	provider := NewMockProvider()
	provider.SetAvailable(false)
	svc := NewService(provider)

	_, err := svc.GenerateRevisions(context.Background(), []domain.MenuItem{{ID: "item-1"}}, nil, nil)
	require.Error(t, err)
}

func TestGenerateSuggestionsTiedToCompetitorDish(t *testing.T) {
	svc := NewService(NewMockProvider())

	competitors := &domain.CompetitorDishSnapshot{
		RestaurantID: "rest-1",
		Dishes: []domain.CompetitorDish{
			{ID: "comp-1", CompetitorName: "Rival", DishName: "Signature Stew", Price: 13},
		},
	}

	payloads, err := svc.GenerateSuggestions(context.Background(), competitors, nil, "american")
	require.NoError(t, err)
	require.NotEmpty(t, payloads)
	assert.Equal(t, "comp-1", payloads[0].CompetitorDishID)
	for _, p := range payloads {
		assert.NotEmpty(t, p.Name)
		assert.Greater(t, p.EstimatedPrice, 0.0)
	}
}

func TestParseMenuExtractsPricedLines(t *testing.T) {
	svc := NewService(NewMockProvider())

	menuText := "Margherita Pizza 12.50\nCaesar Salad $9\nHouse Lemonade 4.25\n"

	items, err := svc.ParseMenu(context.Background(), menuText)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Margherita Pizza", items[0].Name)
	assert.Equal(t, 12.50, items[0].Price)
	assert.Equal(t, "Caesar Salad", items[1].Name)
	assert.Equal(t, 9.0, items[1].Price)
}
