package memory

import (
	"context"
	"sync"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/google/uuid"
)

// DemographicSnapshotRepository is an in-memory repository.DemographicSnapshotRepository.
type DemographicSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]domain.DemographicSnapshot
	failures  *failures
}

// NewDemographicSnapshotRepository creates an empty in-memory demographic snapshot repository.
func NewDemographicSnapshotRepository() *DemographicSnapshotRepository {
	return &DemographicSnapshotRepository{
		snapshots: make(map[string]domain.DemographicSnapshot),
		failures:  newFailures(),
	}
}

// SetError configures an error for a method.
func (r *DemographicSnapshotRepository) SetError(k string, err error) { r.failures.set(k, err) }

func (r *DemographicSnapshotRepository) CreateOrUpdate(ctx context.Context, snap *domain.DemographicSnapshot) error {
	if err := r.failures.check("CreateOrUpdate", snap.RestaurantID); err != nil {
		return err
	}
	if snap.RestaurantID == "" {
		return appErrors.NewValidation("restaurantId is required")
	}
	stored := *snap
	stored.RetrievedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.RestaurantID] = stored
	return nil
}

func (r *DemographicSnapshotRepository) Get(ctx context.Context, restaurantID string) (*domain.DemographicSnapshot, error) {
	if err := r.failures.check("Get", restaurantID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[restaurantID]
	if !ok {
		return nil, repository.NewNotFound("demographic snapshot", restaurantID, restaurantID)
	}
	copied := snap
	return &copied, nil
}

// CompetitorSnapshotRepository is an in-memory repository.CompetitorSnapshotRepository.
type CompetitorSnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[string]domain.CompetitorDishSnapshot
	failures  *failures
}

// NewCompetitorSnapshotRepository creates an empty in-memory competitor snapshot repository.
func NewCompetitorSnapshotRepository() *CompetitorSnapshotRepository {
	return &CompetitorSnapshotRepository{
		snapshots: make(map[string]domain.CompetitorDishSnapshot),
		failures:  newFailures(),
	}
}

// SetError configures an error for a method.
func (r *CompetitorSnapshotRepository) SetError(k string, err error) { r.failures.set(k, err) }

func (r *CompetitorSnapshotRepository) CreateOrUpdate(ctx context.Context, snap *domain.CompetitorDishSnapshot) error {
	if err := r.failures.check("CreateOrUpdate", snap.RestaurantID); err != nil {
		return err
	}
	if snap.RestaurantID == "" {
		return appErrors.NewValidation("restaurantId is required")
	}
	stored := *snap
	stored.RetrievedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.RestaurantID] = stored
	return nil
}

func (r *CompetitorSnapshotRepository) Get(ctx context.Context, restaurantID string) (*domain.CompetitorDishSnapshot, error) {
	if err := r.failures.check("Get", restaurantID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[restaurantID]
	if !ok {
		return nil, repository.NewNotFound("competitor snapshot", restaurantID, restaurantID)
	}
	copied := snap
	return &copied, nil
}

// RestaurantRepository is an in-memory repository.RestaurantRepository.
type RestaurantRepository struct {
	mu          sync.RWMutex
	restaurants map[string]domain.Restaurant
	failures    *failures
}

// NewRestaurantRepository creates an empty in-memory restaurant repository.
func NewRestaurantRepository() *RestaurantRepository {
	return &RestaurantRepository{
		restaurants: make(map[string]domain.Restaurant),
		failures:    newFailures(),
	}
}

// SetError configures an error for a method.
func (r *RestaurantRepository) SetError(k string, err error) { r.failures.set(k, err) }

func (r *RestaurantRepository) Create(ctx context.Context, restaurant *domain.Restaurant) (*domain.Restaurant, error) {
	if err := r.failures.check("Create", restaurant.ID); err != nil {
		return nil, err
	}
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

	r.mu.Lock()
	defer r.mu.Unlock()
	r.restaurants[stored.ID] = stored
	return &stored, nil
}

func (r *RestaurantRepository) GetByID(ctx context.Context, restaurantID string) (*domain.Restaurant, error) {
	if err := r.failures.check("GetByID", restaurantID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	restaurant, ok := r.restaurants[restaurantID]
	if !ok {
		return nil, repository.NewNotFound("restaurant", "", restaurantID)
	}
	copied := restaurant
	return &copied, nil
}

func (r *RestaurantRepository) Update(ctx context.Context, restaurantID string, patch repository.Patch) (*domain.Restaurant, error) {
	if err := r.failures.check("Update", restaurantID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	restaurant, ok := r.restaurants[restaurantID]
	if !ok {
		return nil, repository.NewNotFound("restaurant", "", restaurantID)
	}
	if len(patch) == 0 {
		copied := restaurant
		return &copied, nil
	}
	patch["UpdatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	updated, err := applyPatch(restaurant, patch)
	if err != nil {
		return nil, err
	}
	r.restaurants[restaurantID] = updated
	copied := updated
	return &copied, nil
}

func (r *RestaurantRepository) Delete(ctx context.Context, restaurantID string) error {
	if err := r.failures.check("Delete", restaurantID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.restaurants[restaurantID]; !ok {
		return repository.NewNotFound("restaurant", "", restaurantID)
	}
	delete(r.restaurants, restaurantID)
	return nil
}
