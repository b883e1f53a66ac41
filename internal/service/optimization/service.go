// Package optimization runs AI menu-optimization passes. A submission is
// validated synchronously, then handed to background workers over a buffered
// queue; the caller gets an acknowledgment, never a result. Readiness is
// observed by polling for pending candidates.
package optimization

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/observability"
	"menuwise-backend/internal/provider/ai"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"
)

const (
	defaultQueueSize   = 64
	defaultWorkerCount = 2

	// jobTimeout bounds one generation pass. Jobs run on a detached context:
	// tearing down a caller or poller never cancels in-flight generation.
	jobTimeout = 2 * time.Minute
)

// Criteria narrows an optimization pass.
type Criteria struct {
	Segments    []string `json:"segments,omitempty"`
	CuisineHint string   `json:"cuisineHint,omitempty"`
}

// Request is one queued optimization job. It is ephemeral: no request record
// is persisted, only the candidates it produces.
type Request struct {
	RestaurantID string
	Mode         domain.OptimizationMode
	Criteria     Criteria
}

// Acknowledgment confirms a request was accepted for asynchronous processing.
type Acknowledgment struct {
	RestaurantID string                  `json:"restaurantId"`
	Mode         domain.OptimizationMode `json:"mode"`
	SubmittedAt  time.Time               `json:"submittedAt"`
}

// Service validates, queues and executes optimization requests.
type Service struct {
	menuItems    repository.MenuItemRepository
	revisions    repository.RevisionCandidateRepository
	suggestions  repository.SuggestionCandidateRepository
	demographics repository.DemographicSnapshotRepository
	competitors  repository.CompetitorSnapshotRepository
	generator    *ai.Service
	logger       *zap.Logger
	metrics      *observability.Collector

	jobs chan Request
	wg   sync.WaitGroup
}

// NewService creates an optimization service. Start must be called before
// submitted jobs are processed.
func NewService(
	menuItems repository.MenuItemRepository,
	revisions repository.RevisionCandidateRepository,
	suggestions repository.SuggestionCandidateRepository,
	demographics repository.DemographicSnapshotRepository,
	competitors repository.CompetitorSnapshotRepository,
	generator *ai.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		menuItems:    menuItems,
		revisions:    revisions,
		suggestions:  suggestions,
		demographics: demographics,
		competitors:  competitors,
		generator:    generator,
		logger:       logger,
		jobs:         make(chan Request, defaultQueueSize),
	}
}

// SetMetrics attaches a metrics collector. A nil collector disables metrics.
func (s *Service) SetMetrics(m *observability.Collector) {
	s.metrics = m
}

// Start launches the background workers. Workers stop accepting new jobs when
// ctx is cancelled; a job already picked up runs to completion on its own
// detached context.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < defaultWorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
}

// Wait blocks until all workers have exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	log := s.logger.With(zap.Int("worker", id))
	log.Info("optimization worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info("optimization worker stopping")
			return
		case req := <-s.jobs:
			s.process(req)
		}
	}
}

// Submit validates the request and enqueues it. The call blocks only long
// enough to enqueue, not for generation to complete.
func (s *Service) Submit(ctx context.Context, req Request) (*Acknowledgment, error) {
	if req.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurant id is required")
	}

	switch req.Mode {
	case domain.ModeReviseExisting:
		items, err := s.activeItems(ctx, req.RestaurantID)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			return nil, appErrors.NewValidation("revision requires at least one active menu item")
		}
	case domain.ModeSuggestNew:
		snap, err := s.competitors.Get(ctx, req.RestaurantID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil, appErrors.NewValidation("suggestion requires competitor data; refresh snapshots first")
			}
			return nil, appErrors.Wrap(err, "failed to check competitor snapshot")
		}
		if len(snap.Dishes) == 0 {
			return nil, appErrors.NewValidation("suggestion requires at least one competitor dish")
		}
	default:
		return nil, appErrors.NewValidation("unknown optimization mode: " + string(req.Mode))
	}

	select {
	case s.jobs <- req:
	case <-ctx.Done():
		return nil, appErrors.Wrap(ctx.Err(), "optimization submit cancelled")
	}

	return &Acknowledgment{
		RestaurantID: req.RestaurantID,
		Mode:         req.Mode,
		SubmittedAt:  time.Now().UTC(),
	}, nil
}

// ListPendingCandidates returns the pending candidates for one restaurant and
// mode, as the shared Candidate view.
func (s *Service) ListPendingCandidates(ctx context.Context, restaurantID string, mode domain.OptimizationMode) ([]domain.Candidate, error) {
	switch mode {
	case domain.ModeReviseExisting:
		candidates, err := s.revisions.GetByStatus(ctx, restaurantID, domain.CandidatePending)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Candidate, len(candidates))
		for i := range candidates {
			out[i] = &candidates[i]
		}
		return out, nil
	case domain.ModeSuggestNew:
		candidates, err := s.suggestions.GetByStatus(ctx, restaurantID, domain.CandidatePending)
		if err != nil {
			return nil, err
		}
		out := make([]domain.Candidate, len(candidates))
		for i := range candidates {
			out[i] = &candidates[i]
		}
		return out, nil
	default:
		return nil, appErrors.NewValidation("unknown optimization mode: " + string(mode))
	}
}

// process runs one generation pass. Provider failures write no candidates and
// surface only in logs: callers observe them as "still pending".
func (s *Service) process(req Request) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	log := s.logger.With(
		zap.String("restaurant_id", req.RestaurantID),
		zap.String("mode", string(req.Mode)),
	)

	var err error
	switch req.Mode {
	case domain.ModeReviseExisting:
		err = s.generateRevisions(ctx, req)
	case domain.ModeSuggestNew:
		err = s.generateSuggestions(ctx, req)
	}
	if err != nil {
		s.metrics.JobProcessed(string(req.Mode), "error")
		log.Error("optimization pass failed", zap.Error(err))
		return
	}
	s.metrics.JobProcessed(string(req.Mode), "ok")
	log.Info("optimization pass finished")
}

func (s *Service) generateRevisions(ctx context.Context, req Request) error {
	items, err := s.activeItems(ctx, req.RestaurantID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return appErrors.NewValidation("no active menu items to revise")
	}

	demographics := s.demographicsOrNil(ctx, req.RestaurantID)

	payloads, err := s.generator.GenerateRevisions(ctx, items, demographics, req.Criteria.Segments)
	if err != nil {
		return appErrors.Wrap(err, "revision generation failed")
	}

	byID := make(map[string]*domain.MenuItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	for _, payload := range payloads {
		item, ok := byID[payload.MenuItemID]
		if !ok {
			s.logger.Warn("revision payload references unknown item",
				zap.String("menu_item_id", payload.MenuItemID))
			continue
		}

		candidate := &domain.RevisionCandidate{
			RestaurantID:        req.RestaurantID,
			MenuItemID:          item.ID,
			OriginalName:        item.Name,
			OriginalDescription: item.Description,
			ProposedName:        payload.ProposedName,
			ProposedDescription: payload.ProposedDescription,
			Rationale:           payload.Rationale,
			DemographicInsights: payload.DemographicInsights,
		}
		if _, err := s.revisions.Create(ctx, candidate); err != nil {
			return appErrors.Wrap(err, "failed to store revision candidate")
		}
		s.metrics.CandidateCreated(string(domain.ModeReviseExisting))

		rev := domain.EnhancementRevision{
			Text:        payload.ProposedDescription,
			GeneratedAt: time.Now().UTC(),
			Params:      domain.GenerationParams{Model: "default", Temperature: 0.7, MaxTokens: 1200},
		}
		if err := s.menuItems.UpdateEnhancedDescription(ctx, req.RestaurantID, item.ID, rev); err != nil {
			return appErrors.Wrap(err, "failed to record enhancement on menu item")
		}
	}
	return nil
}

func (s *Service) generateSuggestions(ctx context.Context, req Request) error {
	competitors, err := s.competitors.Get(ctx, req.RestaurantID)
	if err != nil {
		return appErrors.Wrap(err, "failed to load competitor snapshot")
	}

	demographics := s.demographicsOrNil(ctx, req.RestaurantID)

	payloads, err := s.generator.GenerateSuggestions(ctx, competitors, demographics, req.Criteria.CuisineHint)
	if err != nil {
		return appErrors.Wrap(err, "suggestion generation failed")
	}

	for _, payload := range payloads {
		candidate := &domain.SuggestionCandidate{
			RestaurantID:      req.RestaurantID,
			Name:              payload.Name,
			Description:       payload.Description,
			EstimatedPrice:    payload.EstimatedPrice,
			Category:          payload.Category,
			Ingredients:       payload.Ingredients,
			DietaryTags:       payload.DietaryTags,
			InspirationSource: payload.InspirationSource,
			CompetitorDishID:  payload.CompetitorDishID,
		}
		if _, err := s.suggestions.Create(ctx, candidate); err != nil {
			return appErrors.Wrap(err, "failed to store suggestion candidate")
		}
		s.metrics.CandidateCreated(string(domain.ModeSuggestNew))
	}
	return nil
}

func (s *Service) activeItems(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	return s.menuItems.List(ctx, repository.Filters{
		repository.FilterRestaurantID: restaurantID,
		"IsActive":                    true,
	})
}

// demographicsOrNil loads the demographic snapshot if one exists. Demographic
// data enriches prompts but is never a prerequisite.
func (s *Service) demographicsOrNil(ctx context.Context, restaurantID string) *domain.DemographicSnapshot {
	snap, err := s.demographics.Get(ctx, restaurantID)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Warn("failed to load demographic snapshot", zap.Error(err))
		}
		return nil
	}
	return snap
}
