package ddb

import (
	"context"
	"time"

	"menuwise-backend/internal/domain"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// skAnalytics is the fixed sort key of the singleton analytics record per restaurant.
const skAnalytics = "ANALYTICS"

type analyticsConfig struct{}

func (analyticsConfig) SortKey(string) string { return skAnalytics }
func (analyticsConfig) SortKeyPrefix() string { return skAnalytics }
func (analyticsConfig) EntityType() string    { return "Analytics" }
func (analyticsConfig) GetID(rec domain.AnalyticsRecord) string {
	return rec.RestaurantID
}
func (analyticsConfig) GetRestaurantID(rec domain.AnalyticsRecord) string {
	return rec.RestaurantID
}

// AnalyticsRepository is the DynamoDB implementation of repository.AnalyticsRepository.
type AnalyticsRepository struct {
	*GenericRepository[domain.AnalyticsRecord]
}

// NewAnalyticsRepository creates an analytics repository backed by DynamoDB.
func NewAnalyticsRepository(client DBClient, tableName string, logger *zap.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{
		GenericRepository: NewGenericRepository[domain.AnalyticsRecord](client, tableName, analyticsConfig{}, logger),
	}
}

// AddTrendData appends points to the trend list server-side, creating the
// list (and the record) if absent. list_append with if_not_exists keeps
// concurrent appends from losing updates; there is no client-side
// read-modify-write here.
func (r *AnalyticsRepository) AddTrendData(ctx context.Context, restaurantID string, points ...domain.TrendPoint) error {
	if restaurantID == "" {
		return appErrors.NewValidation("restaurantId is required")
	}
	if len(points) == 0 {
		return nil
	}

	emptyList := make([]domain.TrendPoint, 0)
	update := expression.
		Set(expression.Name("TrendData"),
			expression.ListAppend(
				expression.IfNotExists(expression.Name("TrendData"), expression.Value(emptyList)),
				expression.Value(points))).
		Set(expression.Name("RestaurantID"), expression.Value(restaurantID)).
		Set(expression.Name(attrEntityType), expression.Value(analyticsConfig{}.EntityType())).
		Set(expression.Name("UpdatedAt"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano)))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return appErrors.Wrap(err, "failed to build trend append expression")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.TableName()),
		Key:                       r.buildKey(restaurantID, restaurantID),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	if _, err := r.Client().UpdateItem(ctx, input); err != nil {
		return appErrors.Wrap(err, "failed to append trend data")
	}
	return nil
}

// Get retrieves the analytics record for a restaurant.
func (r *AnalyticsRepository) Get(ctx context.Context, restaurantID string) (*domain.AnalyticsRecord, error) {
	rec, err := r.GenericRepository.Get(ctx, restaurantID, restaurantID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
