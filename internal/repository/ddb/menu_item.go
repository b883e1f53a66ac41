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

const skPrefixMenuItem = "ITEM#"

type menuItemConfig struct{}

func (menuItemConfig) SortKey(itemID string) string { return skPrefixMenuItem + itemID }
func (menuItemConfig) SortKeyPrefix() string        { return skPrefixMenuItem }
func (menuItemConfig) EntityType() string           { return "MenuItem" }
func (menuItemConfig) GetID(item domain.MenuItem) string {
	return item.ID
}
func (menuItemConfig) GetRestaurantID(item domain.MenuItem) string {
	return item.RestaurantID
}

// MenuItemRepository is the DynamoDB implementation of repository.MenuItemRepository.
type MenuItemRepository struct {
	*GenericRepository[domain.MenuItem]
}

// NewMenuItemRepository creates a menu item repository backed by DynamoDB.
func NewMenuItemRepository(client DBClient, tableName string, logger *zap.Logger) *MenuItemRepository {
	return &MenuItemRepository{
		GenericRepository: NewGenericRepository[domain.MenuItem](client, tableName, menuItemConfig{}, logger),
	}
}

// applyCreateDefaults assigns identity, timestamps and flag defaults.
func applyCreateDefaults(item *domain.MenuItem, now time.Time) {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	if item.EnhancementStatus == "" {
		item.EnhancementStatus = domain.EnhancementNone
	}
	// New items are active by default; IsAIGenerated stays whatever the
	// caller set (false unless the item came from an approved suggestion).
	item.IsActive = true
}

// Create stores a new item with IsActive=true and IsAIGenerated=false defaults.
func (r *MenuItemRepository) Create(ctx context.Context, item *domain.MenuItem) (*domain.MenuItem, error) {
	if item.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurantId is required")
	}

	stored := *item
	applyCreateDefaults(&stored, time.Now().UTC())

	if err := r.Put(ctx, stored, true); err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetByID retrieves a menu item.
func (r *MenuItemRepository) GetByID(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	item, err := r.Get(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update applies a sparse patch. An empty patch returns the current record.
func (r *MenuItemRepository) Update(ctx context.Context, restaurantID, itemID string, patch repository.Patch) (*domain.MenuItem, error) {
	if len(patch) > 0 {
		patch["UpdatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	item, err := r.UpdatePatch(ctx, restaurantID, itemID, patch)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// List retrieves menu items matching the filter set.
func (r *MenuItemRepository) List(ctx context.Context, filters repository.Filters) ([]domain.MenuItem, error) {
	return r.GenericRepository.List(ctx, filters)
}

// BatchCreate writes items in chunks of at most 25 per call. A mid-sequence
// failure leaves earlier chunks committed; the count reports how many items
// were written.
func (r *MenuItemRepository) BatchCreate(ctx context.Context, items []domain.MenuItem) ([]domain.MenuItem, int, error) {
	now := time.Now().UTC()
	stored := make([]domain.MenuItem, len(items))
	for i := range items {
		stored[i] = items[i]
		applyCreateDefaults(&stored[i], now)
	}

	written, err := r.BatchPut(ctx, stored)
	if err != nil {
		return stored[:written], written, appErrors.Wrap(err, fmt.Sprintf("batch create failed after %d items", written))
	}
	return stored, written, nil
}

// UpdateEnhancedDescription appends a revision to the enhancement history and
// resets the enhancement status to pending. The append happens server-side
// with list_append so the history is never rewritten.
func (r *MenuItemRepository) UpdateEnhancedDescription(ctx context.Context, restaurantID, itemID string, rev domain.EnhancementRevision) error {
	emptyList := make([]domain.EnhancementRevision, 0)
	update := expression.
		Set(expression.Name("EnhancementHistory"),
			expression.ListAppend(
				expression.IfNotExists(expression.Name("EnhancementHistory"), expression.Value(emptyList)),
				expression.Value([]domain.EnhancementRevision{rev}))).
		Set(expression.Name("EnhancementStatus"), expression.Value(domain.EnhancementPending)).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build enhancement update expression")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.TableName()),
		Key:                       r.buildKey(restaurantID, itemID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.Client().UpdateItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return repository.NewNotFound("menu item", restaurantID, itemID)
		}
		return appErrors.Wrap(err, "failed to append enhancement revision")
	}
	return nil
}

// UpdateEnhancedDescriptionStatus transitions the enhancement status without
// touching the history. On approval the enhanced overlay fields are written
// when provided.
func (r *MenuItemRepository) UpdateEnhancedDescriptionStatus(ctx context.Context, restaurantID, itemID string, status domain.EnhancementStatus, enhancedName, enhancedDescription *string) error {
	if status != domain.EnhancementApproved && status != domain.EnhancementRejected {
		return appErrors.NewValidation(fmt.Sprintf("invalid enhancement status transition target %q", status))
	}

	patch := repository.Patch{"EnhancementStatus": status}
	if status == domain.EnhancementApproved {
		if enhancedName != nil {
			patch["EnhancedName"] = *enhancedName
		}
		if enhancedDescription != nil {
			patch["EnhancedDescription"] = *enhancedDescription
		}
	}

	_, err := r.Update(ctx, restaurantID, itemID, patch)
	return err
}
