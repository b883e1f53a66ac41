package marketdata

import (
	"context"
	"time"

	"menuwise-backend/internal/domain"
	appErrors "menuwise-backend/pkg/errors"
)

// MockClient returns canned market data for local development and tests.
type MockClient struct {
	available bool
}

// NewMockClient creates a mock market-data provider.
func NewMockClient() *MockClient {
	return &MockClient{available: true}
}

// SetAvailable toggles simulated upstream availability.
func (m *MockClient) SetAvailable(available bool) {
	m.available = available
}

func (m *MockClient) FetchDemographics(_ context.Context, restaurant domain.Restaurant) (*domain.DemographicSnapshot, error) {
	if !m.available {
		return nil, appErrors.NewInternal("market-data service unavailable", nil)
	}

	return &domain.DemographicSnapshot{
		RestaurantID: restaurant.ID,
		Segments: []domain.DemographicSegment{
			{
				Name:        "young professionals",
				Share:       0.42,
				AgeRange:    "25-34",
				Preferences: []string{"bold flavors", "shareable plates", "weekend brunch"},
			},
			{
				Name:        "families with children",
				Share:       0.31,
				AgeRange:    "35-49",
				Preferences: []string{"kid-friendly options", "value portions"},
			},
		},
		RetrievedAt: time.Now().UTC(),
	}, nil
}

func (m *MockClient) FetchCompetitorDishes(_ context.Context, restaurant domain.Restaurant) (*domain.CompetitorDishSnapshot, error) {
	if !m.available {
		return nil, appErrors.NewInternal("market-data service unavailable", nil)
	}

	return &domain.CompetitorDishSnapshot{
		RestaurantID: restaurant.ID,
		Dishes: []domain.CompetitorDish{
			{
				ID:             "comp-dish-1",
				CompetitorName: "The Copper Skillet",
				DishName:       "Smoked Brisket Tacos",
				Description:    "Slow-smoked brisket with pickled onions and lime crema",
				Price:          14.50,
				Category:       "mains",
			},
			{
				ID:             "comp-dish-2",
				CompetitorName: "Verdant Table",
				DishName:       "Charred Cauliflower Steak",
				Description:    "Harissa-rubbed cauliflower with herbed tahini",
				Price:          16.00,
				Category:       "mains",
			},
		},
		RetrievedAt: time.Now().UTC(),
	}, nil
}
