package ddb

import (
	"context"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// skRestaurantProfile is the fixed sort key of the restaurant profile record.
const skRestaurantProfile = "PROFILE"

type restaurantConfig struct{}

func (restaurantConfig) SortKey(string) string { return skRestaurantProfile }
func (restaurantConfig) SortKeyPrefix() string { return skRestaurantProfile }
func (restaurantConfig) EntityType() string    { return "Restaurant" }
func (restaurantConfig) GetID(r domain.Restaurant) string {
	return r.ID
}
func (restaurantConfig) GetRestaurantID(r domain.Restaurant) string {
	return r.ID
}

// RestaurantRepository is the DynamoDB implementation of repository.RestaurantRepository.
type RestaurantRepository struct {
	*GenericRepository[domain.Restaurant]
}

// NewRestaurantRepository creates a restaurant repository backed by DynamoDB.
func NewRestaurantRepository(client DBClient, tableName string, logger *zap.Logger) *RestaurantRepository {
	return &RestaurantRepository{
		GenericRepository: NewGenericRepository[domain.Restaurant](client, tableName, restaurantConfig{}, logger),
	}
}

// Create stores a new restaurant profile.
func (r *RestaurantRepository) Create(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error) {
	if restaurant.OwnerID == "" {
		return nil, appErrors.NewValidation("ownerId is required")
	}

	stored := *restaurant
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	if err := r.Put(ctx, stored, true); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetByID retrieves a restaurant profile.
func (r *RestaurantRepository) GetByID(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	restaurant, err := r.Get(ctx, restaurantID, restaurantID)
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// Update applies a sparse patch to the restaurant profile.
func (r *RestaurantRepository) Update(ctx context.Context, restaurantID string, patch repository.Patch) (*domain.Restaurant, error) {
	if len(patch) > 0 {
		patch["UpdatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	restaurant, err := r.UpdatePatch(ctx, restaurantID, restaurantID, patch)
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// Delete removes a restaurant profile.
func (r *RestaurantRepository) Delete(ctx context.Context, restaurantID string) error {
	return r.GenericRepository.Delete(ctx, restaurantID, restaurantID)
}
