// Package review drives the approve/reject workflow over pending optimization
// candidates. The controller holds the pending set and per-candidate decision
// intents in memory; every commit goes through the candidate repositories,
// which own the status state machine.
package review

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/observability"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"
)

// Decision is an intended or committed verdict on one candidate.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// CommitResult reports the outcome of a batch apply. Batch commits are
// sequential and not atomic: a mid-sequence failure leaves earlier decisions
// committed, so the result is counts, never a single pass/fail.
type CommitResult struct {
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Controller tracks pending candidates for one restaurant and commits
// decisions against the store.
type Controller struct {
	revisions   repository.RevisionCandidateRepository
	suggestions repository.SuggestionCandidateRepository
	menuItems   repository.MenuItemRepository
	analytics   repository.AnalyticsRepository
	logger      *zap.Logger
	metrics     *observability.Collector

	mu      sync.Mutex
	pending map[string]domain.Candidate
	intents map[string]Decision
}

// NewController creates a review controller.
func NewController(
	revisions repository.RevisionCandidateRepository,
	suggestions repository.SuggestionCandidateRepository,
	menuItems repository.MenuItemRepository,
	analytics repository.AnalyticsRepository,
	logger *zap.Logger,
) *Controller {
	return &Controller{
		revisions:   revisions,
		suggestions: suggestions,
		menuItems:   menuItems,
		analytics:   analytics,
		logger:      logger,
		pending:     make(map[string]domain.Candidate),
		intents:     make(map[string]Decision),
	}
}

// SetMetrics attaches a metrics collector. A nil collector disables metrics.
func (c *Controller) SetMetrics(m *observability.Collector) {
	c.metrics = m
}

// Load replaces the pending set with the store's current pending candidates
// for the restaurant and mode. Stale intents for candidates no longer pending
// are dropped.
func (c *Controller) Load(ctx context.Context, restaurantID string, mode domain.OptimizationMode) ([]domain.Candidate, error) {
	var candidates []domain.Candidate

	switch mode {
	case domain.ModeReviseExisting:
		revs, err := c.revisions.GetByStatus(ctx, restaurantID, domain.CandidatePending)
		if err != nil {
			return nil, err
		}
		for i := range revs {
			candidates = append(candidates, &revs[i])
		}
	case domain.ModeSuggestNew:
		sugs, err := c.suggestions.GetByStatus(ctx, restaurantID, domain.CandidatePending)
		if err != nil {
			return nil, err
		}
		for i := range sugs {
			candidates = append(candidates, &sugs[i])
		}
	default:
		return nil, appErrors.NewValidation("unknown optimization mode: " + string(mode))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, cand := range c.pending {
		if cand.Mode() == mode && cand.CandidateRestaurant() == restaurantID {
			delete(c.pending, id)
			delete(c.intents, id)
		}
	}
	for _, cand := range candidates {
		c.pending[cand.CandidateID()] = cand
	}
	return candidates, nil
}

// Pending returns the candidates still awaiting a committed decision.
func (c *Controller) Pending() []domain.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Candidate, 0, len(c.pending))
	for _, cand := range c.pending {
		out = append(out, cand)
	}
	return out
}

// SetIntent records a decision to be committed later by CommitAll.
func (c *Controller) SetIntent(candidateID string, decision Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[candidateID]; !ok {
		return appErrors.NewNotFound("no pending candidate with id " + candidateID)
	}
	c.intents[candidateID] = decision
	return nil
}

// Decide commits a single decision immediately. The candidate is removed from
// the pending set only after the store confirms the write.
func (c *Controller) Decide(ctx context.Context, candidateID string, decision Decision) error {
	c.mu.Lock()
	candidate, ok := c.pending[candidateID]
	c.mu.Unlock()
	if !ok {
		return appErrors.NewNotFound("no pending candidate with id " + candidateID)
	}

	if err := c.commit(ctx, candidate, decision); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.pending, candidateID)
	delete(c.intents, candidateID)
	c.mu.Unlock()
	return nil
}

// CommitAll applies every recorded intent sequentially. Candidates whose
// commit succeeds are removed from the pending set; failed ones stay pending
// with their intent intact so the caller can retry.
func (c *Controller) CommitAll(ctx context.Context) CommitResult {
	c.mu.Lock()
	batch := make(map[string]Decision, len(c.intents))
	for id, d := range c.intents {
		batch[id] = d
	}
	c.mu.Unlock()

	var result CommitResult
	for id, decision := range batch {
		c.mu.Lock()
		candidate, ok := c.pending[id]
		c.mu.Unlock()
		if !ok {
			continue
		}

		if err := c.commit(ctx, candidate, decision); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, id+": "+err.Error())
			c.logger.Error("candidate decision failed",
				zap.String("candidate_id", id),
				zap.String("decision", string(decision)),
				zap.Error(err))
			continue
		}

		result.Succeeded++
		c.mu.Lock()
		delete(c.pending, id)
		delete(c.intents, id)
		c.mu.Unlock()
	}
	return result
}

func (c *Controller) commit(ctx context.Context, candidate domain.Candidate, decision Decision) error {
	status := domain.CandidateRejected
	if decision == DecisionApprove {
		status = domain.CandidateApproved
	}

	var err error
	switch cand := candidate.(type) {
	case *domain.RevisionCandidate:
		err = c.commitRevision(ctx, cand, status)
	case *domain.SuggestionCandidate:
		err = c.commitSuggestion(ctx, cand, status)
	default:
		return appErrors.NewInternal("unknown candidate shape", nil)
	}
	if err != nil {
		c.metrics.DecisionCommitted(string(decision), "error")
		return err
	}
	c.metrics.DecisionCommitted(string(decision), "ok")

	c.recordDecision(ctx, candidate.CandidateRestaurant(), status)
	return nil
}

// commitRevision transitions the candidate, then mirrors the verdict onto the
// menu item's enhancement status. Approval writes the proposed name and
// description as the item's enhanced overlay.
func (c *Controller) commitRevision(ctx context.Context, cand *domain.RevisionCandidate, status domain.CandidateStatus) error {
	if err := c.revisions.UpdateStatus(ctx, cand.RestaurantID, cand.ID, status); err != nil {
		return err
	}

	var name, description *string
	itemStatus := domain.EnhancementRejected
	if status == domain.CandidateApproved {
		itemStatus = domain.EnhancementApproved
		name = &cand.ProposedName
		description = &cand.ProposedDescription
	}
	return c.menuItems.UpdateEnhancedDescriptionStatus(ctx, cand.RestaurantID, cand.MenuItemID, itemStatus, name, description)
}

// commitSuggestion transitions the candidate; approval materializes the
// proposal as a new AI-generated menu item.
func (c *Controller) commitSuggestion(ctx context.Context, cand *domain.SuggestionCandidate, status domain.CandidateStatus) error {
	if err := c.suggestions.UpdateStatus(ctx, cand.RestaurantID, cand.ID, status); err != nil {
		return err
	}
	if status != domain.CandidateApproved {
		return nil
	}

	item := &domain.MenuItem{
		RestaurantID:  cand.RestaurantID,
		Name:          cand.Name,
		Description:   cand.Description,
		Price:         cand.EstimatedPrice,
		Category:      cand.Category,
		Ingredients:   cand.Ingredients,
		DietaryTags:   cand.DietaryTags,
		IsAIGenerated: true,
	}
	_, err := c.menuItems.Create(ctx, item)
	return err
}

// recordDecision appends a trend point per committed decision. Analytics is
// best-effort: a failed append never rolls back a committed decision.
func (c *Controller) recordDecision(ctx context.Context, restaurantID string, status domain.CandidateStatus) {
	metric := "candidates_rejected"
	if status == domain.CandidateApproved {
		metric = "candidates_approved"
	}

	point := domain.TrendPoint{
		Date:   time.Now().UTC().Format("2006-01-02"),
		Metric: metric,
		Value:  1,
	}
	if err := c.analytics.AddTrendData(ctx, restaurantID, point); err != nil {
		c.logger.Warn("failed to record decision trend point",
			zap.String("restaurant_id", restaurantID),
			zap.Error(err))
	}
}
