package ddb

import (
	"context"
	"fmt"
	"time"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	skPrefixRevisionCandidate   = "REVCAND#"
	skPrefixSuggestionCandidate = "SUGCAND#"
)

type revisionCandidateConfig struct{}

func (revisionCandidateConfig) SortKey(id string) string { return skPrefixRevisionCandidate + id }
func (revisionCandidateConfig) SortKeyPrefix() string    { return skPrefixRevisionCandidate }
func (revisionCandidateConfig) EntityType() string       { return "RevisionCandidate" }
func (revisionCandidateConfig) GetID(c domain.RevisionCandidate) string {
	return c.ID
}
func (revisionCandidateConfig) GetRestaurantID(c domain.RevisionCandidate) string {
	return c.RestaurantID
}

type suggestionCandidateConfig struct{}

func (suggestionCandidateConfig) SortKey(id string) string { return skPrefixSuggestionCandidate + id }
func (suggestionCandidateConfig) SortKeyPrefix() string    { return skPrefixSuggestionCandidate }
func (suggestionCandidateConfig) EntityType() string       { return "SuggestionCandidate" }
func (suggestionCandidateConfig) GetID(c domain.SuggestionCandidate) string {
	return c.ID
}
func (suggestionCandidateConfig) GetRestaurantID(c domain.SuggestionCandidate) string {
	return c.RestaurantID
}

// updateCandidateStatus performs the shared idempotent status transition for
// both candidate shapes. The write is conditional on the stored status being
// pending or already equal to the target, which makes repeated calls with the
// same target a no-op and rejects moving a terminal status to a different one.
func updateCandidateStatus[T Entity](ctx context.Context, r *GenericRepository[T], resource, restaurantID, candidateID string, status domain.CandidateStatus) error {
	if status != domain.CandidateApproved && status != domain.CandidateRejected && status != domain.CandidatePending {
		return appErrors.NewValidation(fmt.Sprintf("invalid candidate status %q", status))
	}

	condition := expression.AttributeExists(expression.Name(attrPK)).
		And(expression.Name("Status").Equal(expression.Value(domain.CandidatePending)).
			Or(expression.Name("Status").Equal(expression.Value(status))))

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Status"), expression.Value(status))).
		WithCondition(condition).
		Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build status update expression")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.TableName()),
		Key:                       r.buildKey(restaurantID, candidateID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.Client().UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			// Distinguish a missing candidate from a terminal-status violation.
			if _, getErr := r.Get(ctx, restaurantID, candidateID); repository.IsNotFound(getErr) {
				return getErr
			}
			return appErrors.NewConflict(fmt.Sprintf("%s %s already decided", resource, candidateID))
		}
		return appErrors.Wrap(err, "candidate status update failed")
	}
	return nil
}

// RevisionCandidateRepository is the DynamoDB implementation of
// repository.RevisionCandidateRepository.
type RevisionCandidateRepository struct {
	*GenericRepository[domain.RevisionCandidate]
}

// NewRevisionCandidateRepository creates a revision candidate repository.
func NewRevisionCandidateRepository(client DBClient, tableName string, logger *zap.Logger) *RevisionCandidateRepository {
	return &RevisionCandidateRepository{
		GenericRepository: NewGenericRepository[domain.RevisionCandidate](client, tableName, revisionCandidateConfig{}, logger),
	}
}

// Create stores a candidate, defaulting status to pending.
func (r *RevisionCandidateRepository) Create(ctx context.Context, c *domain.RevisionCandidate) (*domain.RevisionCandidate, error) {
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

	if err := r.Put(ctx, stored, true); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetByID retrieves a revision candidate.
func (r *RevisionCandidateRepository) GetByID(ctx context.Context, restaurantID, candidateID string) (*domain.RevisionCandidate, error) {
	c, err := r.Get(ctx, restaurantID, candidateID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateStatus transitions the candidate status; see updateCandidateStatus.
func (r *RevisionCandidateRepository) UpdateStatus(ctx context.Context, restaurantID, candidateID string, status domain.CandidateStatus) error {
	return updateCandidateStatus(ctx, r.GenericRepository, "revision candidate", restaurantID, candidateID, status)
}

// GetByStatus is the primary read path for the review workflow.
func (r *RevisionCandidateRepository) GetByStatus(ctx context.Context, restaurantID string, status domain.CandidateStatus) ([]domain.RevisionCandidate, error) {
	return r.List(ctx, repository.Filters{
		repository.FilterRestaurantID: restaurantID,
		"Status":                      status,
	})
}

// SuggestionCandidateRepository is the DynamoDB implementation of
// repository.SuggestionCandidateRepository.
type SuggestionCandidateRepository struct {
	*GenericRepository[domain.SuggestionCandidate]
}

// NewSuggestionCandidateRepository creates a suggestion candidate repository.
func NewSuggestionCandidateRepository(client DBClient, tableName string, logger *zap.Logger) *SuggestionCandidateRepository {
	return &SuggestionCandidateRepository{
		GenericRepository: NewGenericRepository[domain.SuggestionCandidate](client, tableName, suggestionCandidateConfig{}, logger),
	}
}

// Create stores a candidate, defaulting status to pending.
func (r *SuggestionCandidateRepository) Create(ctx context.Context, c *domain.SuggestionCandidate) (*domain.SuggestionCandidate, error) {
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

	if err := r.Put(ctx, stored, true); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetByID retrieves a suggestion candidate.
func (r *SuggestionCandidateRepository) GetByID(ctx context.Context, restaurantID, candidateID string) (*domain.SuggestionCandidate, error) {
	c, err := r.Get(ctx, restaurantID, candidateID)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateStatus transitions the candidate status; see updateCandidateStatus.
func (r *SuggestionCandidateRepository) UpdateStatus(ctx context.Context, restaurantID, candidateID string, status domain.CandidateStatus) error {
	return updateCandidateStatus(ctx, r.GenericRepository, "suggestion candidate", restaurantID, candidateID, status)
}

// GetByStatus is the primary read path for the review workflow.
func (r *SuggestionCandidateRepository) GetByStatus(ctx context.Context, restaurantID string, status domain.CandidateStatus) ([]domain.SuggestionCandidate, error) {
	return r.List(ctx, repository.Filters{
		repository.FilterRestaurantID: restaurantID,
		"Status":                      status,
	})
}
