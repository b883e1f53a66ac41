package ddb

import (
	"context"
	"time"

	"menuwise-backend/internal/domain"
	appErrors "menuwise-backend/pkg/errors"

	"go.uber.org/zap"
)

// Snapshots are singleton records per restaurant with fixed sort keys. A
// refresh overwrites the whole record; there is no partial-merge path.
const (
	skDemographicSnapshot = "DEMOSNAP"
	skCompetitorSnapshot  = "COMPSNAP"
)

type demographicSnapshotConfig struct{}

func (demographicSnapshotConfig) SortKey(string) string { return skDemographicSnapshot }
func (demographicSnapshotConfig) SortKeyPrefix() string { return skDemographicSnapshot }
func (demographicSnapshotConfig) EntityType() string    { return "DemographicSnapshot" }
func (demographicSnapshotConfig) GetID(s domain.DemographicSnapshot) string {
	return s.RestaurantID
}
func (demographicSnapshotConfig) GetRestaurantID(s domain.DemographicSnapshot) string {
	return s.RestaurantID
}

type competitorSnapshotConfig struct{}

func (competitorSnapshotConfig) SortKey(string) string { return skCompetitorSnapshot }
func (competitorSnapshotConfig) SortKeyPrefix() string { return skCompetitorSnapshot }
func (competitorSnapshotConfig) EntityType() string    { return "CompetitorDishSnapshot" }
func (competitorSnapshotConfig) GetID(s domain.CompetitorDishSnapshot) string {
	return s.RestaurantID
}
func (competitorSnapshotConfig) GetRestaurantID(s domain.CompetitorDishSnapshot) string {
	return s.RestaurantID
}

// DemographicSnapshotRepository is the DynamoDB implementation of
// repository.DemographicSnapshotRepository.
type DemographicSnapshotRepository struct {
	*GenericRepository[domain.DemographicSnapshot]
}

// NewDemographicSnapshotRepository creates a demographic snapshot repository.
func NewDemographicSnapshotRepository(client DBClient, tableName string, logger *zap.Logger) *DemographicSnapshotRepository {
	return &DemographicSnapshotRepository{
		GenericRepository: NewGenericRepository[domain.DemographicSnapshot](client, tableName, demographicSnapshotConfig{}, logger),
	}
}

// CreateOrUpdate overwrites the snapshot wholesale with a fresh RetrievedAt.
func (r *DemographicSnapshotRepository) CreateOrUpdate(ctx context.Context, snap *domain.DemographicSnapshot) error {
	if snap.RestaurantID == "" {
		return appErrors.NewValidation("restaurantId is required")
	}
	stored := *snap
	stored.RetrievedAt = time.Now().UTC()
	return r.Put(ctx, stored, false)
}

// Get retrieves the cached demographic snapshot for a restaurant.
func (r *DemographicSnapshotRepository) Get(ctx context.Context, restaurantID string) (*domain.DemographicSnapshot, error) {
	snap, err := r.GenericRepository.Get(ctx, restaurantID, restaurantID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// CompetitorSnapshotRepository is the DynamoDB implementation of
// repository.CompetitorSnapshotRepository.
type CompetitorSnapshotRepository struct {
	*GenericRepository[domain.CompetitorDishSnapshot]
}

// NewCompetitorSnapshotRepository creates a competitor-dish snapshot repository.
func NewCompetitorSnapshotRepository(client DBClient, tableName string, logger *zap.Logger) *CompetitorSnapshotRepository {
	return &CompetitorSnapshotRepository{
		GenericRepository: NewGenericRepository[domain.CompetitorDishSnapshot](client, tableName, competitorSnapshotConfig{}, logger),
	}
}

// CreateOrUpdate overwrites the snapshot wholesale with a fresh RetrievedAt.
func (r *CompetitorSnapshotRepository) CreateOrUpdate(ctx context.Context, snap *domain.CompetitorDishSnapshot) error {
	if snap.RestaurantID == "" {
		return appErrors.NewValidation("restaurantId is required")
	}
	stored := *snap
	stored.RetrievedAt = time.Now().UTC()
	return r.Put(ctx, stored, false)
}

// Get retrieves the cached competitor-dish snapshot for a restaurant.
func (r *CompetitorSnapshotRepository) Get(ctx context.Context, restaurantID string) (*domain.CompetitorDishSnapshot, error) {
	snap, err := r.GenericRepository.Get(ctx, restaurantID, restaurantID)
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
