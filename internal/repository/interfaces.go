// Package repository defines the persistence contracts for all domain entities.
// Repositories are the sole mutators of stored entities; no other component
// writes them directly. No retries happen at this layer - retry is caller policy.
package repository

import (
	"context"

	"menuwise-backend/internal/domain"
)

// Patch is a sparse set of attribute-name/value pairs describing a partial
// update. Primary-key attributes are ignored even if present. An empty patch
// is not an error: the update returns the current record and issues no write.
type Patch map[string]any

// Filters is an equality-conjunction filter set for list operations. When the
// filter names the owning restaurant id the implementation may use an
// index-backed query; otherwise it falls back to a filtered scan.
type Filters map[string]any

// FilterRestaurantID is the filter key that enables the index-backed list path.
const FilterRestaurantID = "RestaurantID"

// MenuItemRepository persists menu items and their enhancement lifecycle.
type MenuItemRepository interface {
	// Create stores a new item, assigning identity, timestamps and the
	// IsActive=true / IsAIGenerated=false defaults when absent.
	Create(ctx context.Context, item *domain.MenuItem) (*domain.MenuItem, error)
	GetByID(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error)
	Update(ctx context.Context, restaurantID, itemID string, patch Patch) (*domain.MenuItem, error)
	Delete(ctx context.Context, restaurantID, itemID string) error
	List(ctx context.Context, filters Filters) ([]domain.MenuItem, error)

	// BatchCreate writes items in chunks of at most 25 per underlying call.
	// Chunks are not atomic with respect to each other: a failure mid-sequence
	// leaves earlier chunks committed. Returns the items written so far and the
	// count of successfully written items.
	BatchCreate(ctx context.Context, items []domain.MenuItem) ([]domain.MenuItem, int, error)

	// UpdateEnhancedDescription appends a revision to the append-only
	// enhancement history and sets the enhancement status to pending.
	UpdateEnhancedDescription(ctx context.Context, restaurantID, itemID string, rev domain.EnhancementRevision) error

	// UpdateEnhancedDescriptionStatus transitions the enhancement status to
	// approved or rejected without touching the history. On approval the
	// enhanced overlay fields are written as well when provided.
	UpdateEnhancedDescriptionStatus(ctx context.Context, restaurantID, itemID string, status domain.EnhancementStatus, enhancedName, enhancedDescription *string) error
}

// RevisionCandidateRepository persists revision candidates.
type RevisionCandidateRepository interface {
	// Create stores a candidate, defaulting status to pending.
	Create(ctx context.Context, c *domain.RevisionCandidate) (*domain.RevisionCandidate, error)
	GetByID(ctx context.Context, restaurantID, candidateID string) (*domain.RevisionCandidate, error)

	// UpdateStatus is the sole status mutator. It is idempotent: applying the
	// same target status twice is a no-op. Moving an already-terminal status to
	// a different one fails with a conflict.
	UpdateStatus(ctx context.Context, restaurantID, candidateID string, status domain.CandidateStatus) error
	GetByStatus(ctx context.Context, restaurantID string, status domain.CandidateStatus) ([]domain.RevisionCandidate, error)
}

// SuggestionCandidateRepository persists suggestion candidates with the same
// lifecycle semantics as RevisionCandidateRepository.
type SuggestionCandidateRepository interface {
	Create(ctx context.Context, c *domain.SuggestionCandidate) (*domain.SuggestionCandidate, error)
	GetByID(ctx context.Context, restaurantID, candidateID string) (*domain.SuggestionCandidate, error)
	UpdateStatus(ctx context.Context, restaurantID, candidateID string, status domain.CandidateStatus) error
	GetByStatus(ctx context.Context, restaurantID string, status domain.CandidateStatus) ([]domain.SuggestionCandidate, error)
}

// AnalyticsRepository persists per-restaurant trend feeds.
type AnalyticsRepository interface {
	// AddTrendData atomically appends points to the trend list, creating the
	// list if absent. Implementations must not read-modify-write client-side.
	AddTrendData(ctx context.Context, restaurantID string, points ...domain.TrendPoint) error
	Get(ctx context.Context, restaurantID string) (*domain.AnalyticsRecord, error)
}

// DemographicSnapshotRepository caches one demographic snapshot per restaurant.
type DemographicSnapshotRepository interface {
	// CreateOrUpdate overwrites the whole record with a fresh RetrievedAt.
	CreateOrUpdate(ctx context.Context, snap *domain.DemographicSnapshot) error
	Get(ctx context.Context, restaurantID string) (*domain.DemographicSnapshot, error)
}

// CompetitorSnapshotRepository caches one competitor-dish snapshot per restaurant.
type CompetitorSnapshotRepository interface {
	CreateOrUpdate(ctx context.Context, snap *domain.CompetitorDishSnapshot) error
	Get(ctx context.Context, restaurantID string) (*domain.CompetitorDishSnapshot, error)
}

// RestaurantRepository persists restaurant profiles.
type RestaurantRepository interface {
	Create(ctx context.Context, r *domain.Restaurant) (*domain.Restaurant, error)
	GetByID(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
	Update(ctx context.Context, restaurantID string, patch Patch) (*domain.Restaurant, error)
	Delete(ctx context.Context, restaurantID string) error
}
