package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/google/uuid"
)

// transitionStatus applies the shared candidate status rules: same target is
// a no-op, pending may move to any status, a terminal status never changes.
func transitionStatus(current, target domain.CandidateStatus, resource, id string) (domain.CandidateStatus, error) {
	if current == target {
		return current, nil
	}
	if current.IsTerminal() {
		return current, appErrors.NewConflict(fmt.Sprintf("%s %s already decided", resource, id))
	}
	return target, nil
}

// RevisionCandidateRepository is an in-memory repository.RevisionCandidateRepository.
type RevisionCandidateRepository struct {
	mu         sync.RWMutex
	candidates map[string]domain.RevisionCandidate
	failures   *failures
}

// NewRevisionCandidateRepository creates an empty in-memory revision candidate repository.
func NewRevisionCandidateRepository() *RevisionCandidateRepository {
	return &RevisionCandidateRepository{
		candidates: make(map[string]domain.RevisionCandidate),
		failures:   newFailures(),
	}
}

// SetError configures an error for a method, optionally scoped as "Method:id".
func (r *RevisionCandidateRepository) SetError(k string, err error) { r.failures.set(k, err) }

func (r *RevisionCandidateRepository) Create(ctx context.Context, c *domain.RevisionCandidate) (*domain.RevisionCandidate, error) {
	if err := r.failures.check("Create", c.ID); err != nil {
		return nil, err
	}
	if c.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurantId is required")
	}
	if c.MenuItemID == "" {
		return nil, appErrors.NewValidation("menuItemId is required")
	}

	stored := *c
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Status == "" {
		stored.Status = domain.CandidatePending
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[key(stored.RestaurantID, stored.ID)] = stored
	return &stored, nil
}

func (r *RevisionCandidateRepository) GetByID(ctx context.Context, restaurantID, candidateID string) (*domain.RevisionCandidate, error) {
	if err := r.failures.check("GetByID", candidateID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.candidates[key(restaurantID, candidateID)]
	if !ok {
		return nil, repository.NewNotFound("revision candidate", restaurantID, candidateID)
	}
	copied := c
	return &copied, nil
}

func (r *RevisionCandidateRepository) UpdateStatus(ctx context.Context, restaurantID, candidateID string, status domain.CandidateStatus) error {
	if err := r.failures.check("UpdateStatus", candidateID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[key(restaurantID, candidateID)]
	if !ok {
		return repository.NewNotFound("revision candidate", restaurantID, candidateID)
	}
	next, err := transitionStatus(c.Status, status, "revision candidate", candidateID)
	if err != nil {
		return err
	}
	c.Status = next
	r.candidates[key(restaurantID, candidateID)] = c
	return nil
}

func (r *RevisionCandidateRepository) GetByStatus(ctx context.Context, restaurantID string, status domain.CandidateStatus) ([]domain.RevisionCandidate, error) {
	if err := r.failures.check("GetByStatus", ""); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.RevisionCandidate
	for _, c := range r.candidates {
		if c.RestaurantID == restaurantID && c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

// SuggestionCandidateRepository is an in-memory repository.SuggestionCandidateRepository.
type SuggestionCandidateRepository struct {
	mu         sync.RWMutex
	candidates map[string]domain.SuggestionCandidate
	failures   *failures
}

// NewSuggestionCandidateRepository creates an empty in-memory suggestion candidate repository.
func NewSuggestionCandidateRepository() *SuggestionCandidateRepository {
	return &SuggestionCandidateRepository{
		candidates: make(map[string]domain.SuggestionCandidate),
		failures:   newFailures(),
	}
}

// SetError configures an error for a method, optionally scoped as "Method:id".
func (r *SuggestionCandidateRepository) SetError(k string, err error) { r.failures.set(k, err) }

func (r *SuggestionCandidateRepository) Create(ctx context.Context, c *domain.SuggestionCandidate) (*domain.SuggestionCandidate, error) {
	if err := r.failures.check("Create", c.ID); err != nil {
		return nil, err
	}
	if c.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurantId is required")
	}
	if c.Name == "" {
		return nil, appErrors.NewValidation("name is required")
	}

	stored := *c
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Status == "" {
		stored.Status = domain.CandidatePending
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.candidates[key(stored.RestaurantID, stored.ID)] = stored
	return &stored, nil
}

func (r *SuggestionCandidateRepository) GetByID(ctx context.Context, restaurantID, candidateID string) (*domain.SuggestionCandidate, error) {
	if err := r.failures.check("GetByID", candidateID); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.candidates[key(restaurantID, candidateID)]
	if !ok {
		return nil, repository.NewNotFound("suggestion candidate", restaurantID, candidateID)
	}
	copied := c
	return &copied, nil
}

func (r *SuggestionCandidateRepository) UpdateStatus(ctx context.Context, restaurantID, candidateID string, status domain.CandidateStatus) error {
	if err := r.failures.check("UpdateStatus", candidateID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.candidates[key(restaurantID, candidateID)]
	if !ok {
		return repository.NewNotFound("suggestion candidate", restaurantID, candidateID)
	}
	next, err := transitionStatus(c.Status, status, "suggestion candidate", candidateID)
	if err != nil {
		return err
	}
	c.Status = next
	r.candidates[key(restaurantID, candidateID)] = c
	return nil
}

func (r *SuggestionCandidateRepository) GetByStatus(ctx context.Context, restaurantID string, status domain.CandidateStatus) ([]domain.SuggestionCandidate, error) {
	if err := r.failures.check("GetByStatus", ""); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.SuggestionCandidate
	for _, c := range r.candidates {
		if c.RestaurantID == restaurantID && c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}
