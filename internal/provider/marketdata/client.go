// Package marketdata fetches demographic and competitor-dish data for a
// restaurant from the external market-data service. Results are cached by the
// snapshot repositories; this package only fetches.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"menuwise-backend/internal/domain"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Provider supplies fresh demographic and competitor-dish data on demand.
type Provider interface {
	FetchDemographics(ctx context.Context, restaurant domain.Restaurant) (*domain.DemographicSnapshot, error)
	FetchCompetitorDishes(ctx context.Context, restaurant domain.Restaurant) (*domain.CompetitorDishSnapshot, error)
}

// Client is an HTTP implementation of Provider guarded by a circuit breaker,
// so a degraded upstream fails fast instead of piling up requests.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

// NewClient creates a market-data client for the given base URL.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	settings := gobreaker.Settings{
		Name:    "marketdata",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("market-data circuit state change",
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// FetchDemographics retrieves demographic segments around the restaurant.
func (c *Client) FetchDemographics(ctx context.Context, restaurant domain.Restaurant) (*domain.DemographicSnapshot, error) {
	var payload struct {
		Segments []domain.DemographicSegment `json:"segments"`
	}
	if err := c.get(ctx, "/v1/demographics", restaurant, &payload); err != nil {
		return nil, err
	}

	return &domain.DemographicSnapshot{
		RestaurantID: restaurant.ID,
		Segments:     payload.Segments,
		RetrievedAt:  time.Now().UTC(),
	}, nil
}

// FetchCompetitorDishes retrieves dishes served by nearby competitors.
func (c *Client) FetchCompetitorDishes(ctx context.Context, restaurant domain.Restaurant) (*domain.CompetitorDishSnapshot, error) {
	var payload struct {
		Dishes []domain.CompetitorDish `json:"dishes"`
	}
	if err := c.get(ctx, "/v1/competitor-dishes", restaurant, &payload); err != nil {
		return nil, err
	}

	return &domain.CompetitorDishSnapshot{
		RestaurantID: restaurant.ID,
		Dishes:       payload.Dishes,
		RetrievedAt:  time.Now().UTC(),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, restaurant domain.Restaurant, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		query := url.Values{}
		query.Set("city", restaurant.City)
		query.Set("cuisine", restaurant.CuisineType)
		query.Set("name", restaurant.Name)

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("market-data service returned %d", resp.StatusCode)
		}
		return nil, json.NewDecoder(resp.Body).Decode(out)
	})
	if err != nil {
		return appErrors.Wrap(err, fmt.Sprintf("market-data fetch %s failed", path))
	}
	return nil
}
