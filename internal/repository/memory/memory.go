// Package memory provides in-memory implementations of the repository
// interfaces for unit testing and local development. Semantics mirror the
// DynamoDB implementations: empty patches issue no write, candidate status
// updates are idempotent, enhancement history is append-only.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
)

// applyPatch applies a sparse patch by round-tripping through attributevalue,
// so patch keys follow the same attribute names the DynamoDB layer uses.
func applyPatch[T any](entity T, patch repository.Patch) (T, error) {
	var out T
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return out, appErrors.Wrap(err, "failed to marshal entity for patch")
	}
	for name, value := range patch {
		if name == "ID" || name == "RestaurantID" {
			continue
		}
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return out, appErrors.Wrap(err, fmt.Sprintf("failed to marshal patch attribute %q", name))
		}
		item[name] = av
	}
	if err := attributevalue.UnmarshalMap(item, &out); err != nil {
		return out, appErrors.Wrap(err, "failed to unmarshal patched entity")
	}
	return out, nil
}

// failures supports injecting errors per method, optionally scoped to one
// entity id via the "Method:id" key.
type failures struct {
	mu         sync.Mutex
	shouldFail map[string]error
}

func newFailures() *failures {
	return &failures{shouldFail: make(map[string]error)}
}

func (f *failures) set(key string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shouldFail[key] = err
}

func (f *failures) check(method, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.shouldFail[method+":"+id]; ok {
		return err
	}
	return f.shouldFail[method]
}

func key(restaurantID, id string) string {
	return restaurantID + "/" + id
}

// MenuItemRepository is an in-memory repository.MenuItemRepository.
type MenuItemRepository struct {
	mu        sync.RWMutex
	items     map[string]domain.MenuItem
	mutations int
	failures  *failures
}

// NewMenuItemRepository creates an empty in-memory menu item repository.
func NewMenuItemRepository() *MenuItemRepository {
	return &MenuItemRepository{
		items:    make(map[string]domain.MenuItem),
		failures: newFailures(),
	}
}

// SetError configures an error for a method, optionally scoped as "Method:id".
func (r *MenuItemRepository) SetError(k string, err error) { r.failures.set(k, err) }

// MutationCount reports how many writes the repository has performed.
func (r *MenuItemRepository) MutationCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.mutations
}

func (r *MenuItemRepository) Create(ctx context.Context, item *domain.MenuItem) (*domain.MenuItem, error) {
	if err := r.failures.check("Create", item.ID); err != nil {
		return nil, err
	}
	if item.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurantId is required")
	}

	stored := *item
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	if stored.EnhancementStatus == "" {
		stored.EnhancementStatus = domain.EnhancementNone
	}
	stored.IsActive = true

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[key(stored.RestaurantID, stored.ID)]; exists {
		return nil, appErrors.NewConflict("entity already exists")
	}
	r.items[key(stored.RestaurantID, stored.ID)] = stored
	r.mutations++
	return &stored, nil
}

func (r *MenuItemRepository) GetByID(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	if err := r.failures.check("GetByID", itemID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[key(restaurantID, itemID)]
	if !ok {
		return nil, repository.NewNotFound("menu item", restaurantID, itemID)
	}
	copied := item
	return &copied, nil
}

func (r *MenuItemRepository) Update(ctx context.Context, restaurantID, itemID string, patch repository.Patch) (*domain.MenuItem, error) {
	if err := r.failures.check("Update", itemID); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key(restaurantID, itemID)]
	if !ok {
		return nil, repository.NewNotFound("menu item", restaurantID, itemID)
	}
	// Empty patch: return the current record, issue no write.
	if len(patch) == 0 {
		copied := item
		return &copied, nil
	}

	patch["UpdatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	updated, err := applyPatch(item, patch)
	if err != nil {
		return nil, err
	}
	r.items[key(restaurantID, itemID)] = updated
	r.mutations++
	copied := updated
	return &copied, nil
}

func (r *MenuItemRepository) Delete(ctx context.Context, restaurantID, itemID string) error {
	if err := r.failures.check("Delete", itemID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[key(restaurantID, itemID)]; !ok {
		return repository.NewNotFound("menu item", restaurantID, itemID)
	}
	delete(r.items, key(restaurantID, itemID))
	r.mutations++
	return nil
}

func (r *MenuItemRepository) List(ctx context.Context, filters repository.Filters) ([]domain.MenuItem, error) {
	if err := r.failures.check("List", ""); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.MenuItem
	for _, item := range r.items {
		if matchesMenuItem(item, filters) {
			out = append(out, item)
		}
	}
	return out, nil
}

func matchesMenuItem(item domain.MenuItem, filters repository.Filters) bool {
	for name, value := range filters {
		switch name {
		case repository.FilterRestaurantID:
			if item.RestaurantID != value {
				return false
			}
		case "Category":
			if item.Category != value {
				return false
			}
		case "IsActive":
			if b, ok := value.(bool); !ok || item.IsActive != b {
				return false
			}
		case "IsAIGenerated":
			if b, ok := value.(bool); !ok || item.IsAIGenerated != b {
				return false
			}
		}
	}
	return true
}

func (r *MenuItemRepository) BatchCreate(ctx context.Context, items []domain.MenuItem) ([]domain.MenuItem, int, error) {
	now := time.Now().UTC()
	stored := make([]domain.MenuItem, len(items))
	written := 0
	for i := range items {
		stored[i] = items[i]
		if stored[i].ID == "" {
			stored[i].ID = uuid.New().String()
		}
		if stored[i].CreatedAt.IsZero() {
			stored[i].CreatedAt = now
		}
		stored[i].UpdatedAt = now
		if stored[i].EnhancementStatus == "" {
			stored[i].EnhancementStatus = domain.EnhancementNone
		}
		stored[i].IsActive = true
	}

	// Mirror the chunked commit behavior: a configured chunk failure leaves
	// earlier chunks written.
	for start := 0; start < len(stored); start += 25 {
		end := start + 25
		if end > len(stored) {
			end = len(stored)
		}
		if err := r.failures.check("BatchCreateChunk", fmt.Sprint(start/25)); err != nil {
			return stored[:written], written, err
		}
		r.mu.Lock()
		for _, item := range stored[start:end] {
			r.items[key(item.RestaurantID, item.ID)] = item
		}
		r.mutations++
		r.mu.Unlock()
		written += end - start
	}
	return stored, written, nil
}

func (r *MenuItemRepository) UpdateEnhancedDescription(ctx context.Context, restaurantID, itemID string, rev domain.EnhancementRevision) error {
	if err := r.failures.check("UpdateEnhancedDescription", itemID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key(restaurantID, itemID)]
	if !ok {
		return repository.NewNotFound("menu item", restaurantID, itemID)
	}
	item.EnhancementHistory = append(item.EnhancementHistory, rev)
	item.EnhancementStatus = domain.EnhancementPending
	item.UpdatedAt = time.Now().UTC()
	r.items[key(restaurantID, itemID)] = item
	r.mutations++
	return nil
}

func (r *MenuItemRepository) UpdateEnhancedDescriptionStatus(ctx context.Context, restaurantID, itemID string, status domain.EnhancementStatus, enhancedName, enhancedDescription *string) error {
	if err := r.failures.check("UpdateEnhancedDescriptionStatus", itemID); err != nil {
		return err
	}
	if status != domain.EnhancementApproved && status != domain.EnhancementRejected {
		return appErrors.NewValidation(fmt.Sprintf("invalid enhancement status transition target %q", status))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[key(restaurantID, itemID)]
	if !ok {
		return repository.NewNotFound("menu item", restaurantID, itemID)
	}
	item.EnhancementStatus = status
	if status == domain.EnhancementApproved {
		if enhancedName != nil {
			item.EnhancedName = enhancedName
		}
		if enhancedDescription != nil {
			item.EnhancedDescription = enhancedDescription
		}
	}
	item.UpdatedAt = time.Now().UTC()
	r.items[key(restaurantID, itemID)] = item
	r.mutations++
	return nil
}
