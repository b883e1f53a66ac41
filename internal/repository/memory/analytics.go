package memory

import (
	"context"
	"sync"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"
)

// AnalyticsRepository is an in-memory repository.AnalyticsRepository. The
// append happens under one lock, matching the atomicity of the server-side
// list_append in the DynamoDB implementation.
type AnalyticsRepository struct {
	mu       sync.Mutex
	records  map[string]domain.AnalyticsRecord
	failures *failures
}

// NewAnalyticsRepository creates an empty in-memory analytics repository.
func NewAnalyticsRepository() *AnalyticsRepository {
	return &AnalyticsRepository{
		records:  make(map[string]domain.AnalyticsRecord),
		failures: newFailures(),
	}
}

// SetError configures an error for a method.
func (r *AnalyticsRepository) SetError(k string, err error) { r.failures.set(k, err) }

func (r *AnalyticsRepository) AddTrendData(ctx context.Context, restaurantID string, points ...domain.TrendPoint) error {
	if err := r.failures.check("AddTrendData", restaurantID); err != nil {
		return err
	}
	if restaurantID == "" {
		return appErrors.NewValidation("restaurantId is required")
	}
	if len(points) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.records[restaurantID]
	rec.RestaurantID = restaurantID
	rec.TrendData = append(rec.TrendData, points...)
	rec.UpdatedAt = time.Now().UTC()
	r.records[restaurantID] = rec
	return nil
}

func (r *AnalyticsRepository) Get(ctx context.Context, restaurantID string) (*domain.AnalyticsRecord, error) {
	if err := r.failures.check("Get", restaurantID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[restaurantID]
	if !ok {
		return nil, repository.NewNotFound("analytics record", restaurantID, restaurantID)
	}
	copied := rec
	copied.TrendData = append([]domain.TrendPoint(nil), rec.TrendData...)
	return &copied, nil
}
