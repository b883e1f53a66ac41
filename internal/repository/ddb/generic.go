package ddb

import (
	"context"

	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Entity is a marker constraint for storable domain entities.
type Entity any

// EntityConfig defines entity-specific behavior for the generic repository.
// Marshaling is shared: entities are converted with attributevalue and the
// key attributes are layered on top.
type EntityConfig[T Entity] interface {
	// SortKey builds the sort key for an entity id ("" for singleton records).
	SortKey(entityID string) string
	// SortKeyPrefix is the prefix shared by all items of this entity type,
	// used for restaurant-partition queries.
	SortKeyPrefix() string
	// EntityType returns the type name stored for scan filtering.
	EntityType() string
	// GetID extracts the entity id.
	GetID(entity T) string
	// GetRestaurantID extracts the owning restaurant id.
	GetRestaurantID(entity T) string
}

// GenericRepository provides the common DynamoDB operations shared by every
// entity repository. Domain repositories compose with it and add only their
// entity-specific semantics.
type GenericRepository[T Entity] struct {
	client    DBClient
	tableName string
	config    EntityConfig[T]
	logger    *zap.Logger
}

// NewGenericRepository creates a generic repository for one entity type.
func NewGenericRepository[T Entity](client DBClient, tableName string, config EntityConfig[T], logger *zap.Logger) *GenericRepository[T] {
	return &GenericRepository[T]{
		client:    client,
		tableName: tableName,
		config:    config,
		logger:    logger,
	}
}

// toItem marshals an entity and layers the key attributes on top.
func (r *GenericRepository[T]) toItem(entity T) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(entity)
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to marshal entity")
	}
	restaurantID := r.config.GetRestaurantID(entity)
	item[attrPK] = StringAttr(BuildRestaurantPK(restaurantID))
	item[attrSK] = StringAttr(r.config.SortKey(r.config.GetID(entity)))
	item[attrEntityType] = StringAttr(r.config.EntityType())
	return item, nil
}

// parseItem unmarshals a DynamoDB item into the entity type.
func (r *GenericRepository[T]) parseItem(item map[string]types.AttributeValue) (T, error) {
	var entity T
	if err := attributevalue.UnmarshalMap(item, &entity); err != nil {
		return entity, appErrors.Wrap(err, "failed to unmarshal item")
	}
	return entity, nil
}

// buildKey creates the primary key for an entity id.
func (r *GenericRepository[T]) buildKey(restaurantID, entityID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: StringAttr(BuildRestaurantPK(restaurantID)),
		attrSK: StringAttr(r.config.SortKey(entityID)),
	}
}

// Put stores a new entity. When mustNotExist is set the write is conditional
// on the key being absent, so accidental overwrites of existing records fail.
func (r *GenericRepository[T]) Put(ctx context.Context, entity T, mustNotExist bool) error {
	item, err := r.toItem(entity)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}
	if mustNotExist {
		input.ConditionExpression = aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)")
	}

	if _, err := r.client.PutItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return appErrors.NewConflict("entity already exists")
		}
		return appErrors.Wrap(err, "DynamoDB PutItem failed")
	}
	return nil
}

// Get retrieves an entity by id, returning a typed not-found error when absent.
func (r *GenericRepository[T]) Get(ctx context.Context, restaurantID, entityID string) (T, error) {
	var zero T

	input := &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       r.buildKey(restaurantID, entityID),
	}

	result, err := r.client.GetItem(ctx, input)
	if err != nil {
		return zero, appErrors.Wrap(err, "DynamoDB GetItem failed")
	}
	if result.Item == nil {
		return zero, repository.NewNotFound(r.config.EntityType(), restaurantID, entityID)
	}

	return r.parseItem(result.Item)
}

// UpdatePatch applies a sparse patch to an entity and returns the stored
// record. Key attributes are stripped from the patch even if present. An
// empty patch issues no write and returns the current record unchanged.
func (r *GenericRepository[T]) UpdatePatch(ctx context.Context, restaurantID, entityID string, patch repository.Patch) (T, error) {
	var zero T

	update := expression.UpdateBuilder{}
	set := 0
	for name, value := range patch {
		if name == attrPK || name == attrSK || name == attrEntityType || name == "ID" || name == "RestaurantID" {
			continue
		}
		update = update.Set(expression.Name(name), expression.Value(value))
		set++
	}

	if set == 0 {
		return r.Get(ctx, restaurantID, entityID)
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return zero, appErrors.Wrap(err, "failed to build update expression")
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       r.buildKey(restaurantID, entityID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	}

	result, err := r.client.UpdateItem(ctx, input)
	if err != nil {
		if isConditionalCheckFailed(err) {
			return zero, repository.NewNotFound(r.config.EntityType(), restaurantID, entityID)
		}
		return zero, appErrors.Wrap(err, "DynamoDB UpdateItem failed")
	}

	return r.parseItem(result.Attributes)
}

// Delete removes an entity, surfacing not-found to the caller.
func (r *GenericRepository[T]) Delete(ctx context.Context, restaurantID, entityID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 r.buildKey(restaurantID, entityID),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	}

	if _, err := r.client.DeleteItem(ctx, input); err != nil {
		if isConditionalCheckFailed(err) {
			return repository.NewNotFound(r.config.EntityType(), restaurantID, entityID)
		}
		return appErrors.Wrap(err, "DynamoDB DeleteItem failed")
	}
	return nil
}

// List retrieves entities matching the filter set. When the filters name the
// owning restaurant id the restaurant partition is queried directly; any
// remaining filters become an equality filter expression. Without a
// restaurant filter the whole table is scanned - O(table), a deliberate
// simplicity tradeoff for rarely used admin paths.
func (r *GenericRepository[T]) List(ctx context.Context, filters repository.Filters) ([]T, error) {
	if restaurantID, ok := filters[repository.FilterRestaurantID].(string); ok && restaurantID != "" {
		rest := make(repository.Filters, len(filters))
		for k, v := range filters {
			if k != repository.FilterRestaurantID {
				rest[k] = v
			}
		}
		return r.queryPartition(ctx, restaurantID, rest)
	}
	return r.scan(ctx, filters)
}

func (r *GenericRepository[T]) queryPartition(ctx context.Context, restaurantID string, filters repository.Filters) ([]T, error) {
	keyCondition := expression.Key(attrPK).Equal(expression.Value(BuildRestaurantPK(restaurantID))).
		And(expression.Key(attrSK).BeginsWith(r.config.SortKeyPrefix()))

	builder := expression.NewBuilder().WithKeyCondition(keyCondition)
	if filter, ok := buildEqualityFilter(filters); ok {
		builder = builder.WithFilter(filter)
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build query expression")
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var entities []T
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, appErrors.Wrap(err, "DynamoDB Query failed")
		}
		for _, item := range result.Items {
			entity, err := r.parseItem(item)
			if err != nil {
				r.logger.Warn("failed to parse item, skipping", zap.Error(err))
				continue
			}
			entities = append(entities, entity)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return entities, nil
}

func (r *GenericRepository[T]) scan(ctx context.Context, filters repository.Filters) ([]T, error) {
	filter := expression.Name(attrEntityType).Equal(expression.Value(r.config.EntityType()))
	if extra, ok := buildEqualityFilter(filters); ok {
		filter = filter.And(extra)
	}

	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, appErrors.Wrap(err, "failed to build scan expression")
	}

	input := &dynamodb.ScanInput{
		TableName:                 aws.String(r.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	var entities []T
	for {
		result, err := r.client.Scan(ctx, input)
		if err != nil {
			return nil, appErrors.Wrap(err, "DynamoDB Scan failed")
		}
		for _, item := range result.Items {
			entity, err := r.parseItem(item)
			if err != nil {
				r.logger.Warn("failed to parse item, skipping", zap.Error(err))
				continue
			}
			entities = append(entities, entity)
		}
		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
	return entities, nil
}

// BatchPut writes entities in chunks of MaxBatchWriteItems per BatchWriteItem
// call. Chunks are committed independently: the returned count covers all
// chunks written before the first failure. Callers must not assume atomicity
// across chunks.
func (r *GenericRepository[T]) BatchPut(ctx context.Context, entities []T) (int, error) {
	written := 0
	for start := 0; start < len(entities); start += MaxBatchWriteItems {
		end := start + MaxBatchWriteItems
		if end > len(entities) {
			end = len(entities)
		}

		chunk := entities[start:end]
		if err := r.batchPutChunk(ctx, chunk); err != nil {
			return written, err
		}
		written += len(chunk)
	}
	return written, nil
}

func (r *GenericRepository[T]) batchPutChunk(ctx context.Context, entities []T) error {
	writeRequests := make([]types.WriteRequest, 0, len(entities))
	for _, entity := range entities {
		item, err := r.toItem(entity)
		if err != nil {
			return err
		}
		writeRequests = append(writeRequests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: item},
		})
	}

	input := &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			r.tableName: writeRequests,
		},
	}

	output, err := r.client.BatchWriteItem(ctx, input)
	if err != nil {
		return appErrors.Wrap(err, "BatchWriteItem failed")
	}
	if len(output.UnprocessedItems) > 0 {
		r.logger.Warn("BatchWriteItem had unprocessed items",
			zap.Int("count", len(output.UnprocessedItems[r.tableName])))
	}
	return nil
}

// Client returns the underlying DB client for entity-specific operations.
func (r *GenericRepository[T]) Client() DBClient {
	return r.client
}

// TableName returns the table this repository writes to.
func (r *GenericRepository[T]) TableName() string {
	return r.tableName
}

// buildEqualityFilter combines filters into an AND-ed equality condition.
func buildEqualityFilter(filters repository.Filters) (expression.ConditionBuilder, bool) {
	var cond expression.ConditionBuilder
	first := true
	for name, value := range filters {
		eq := expression.Name(name).Equal(expression.Value(value))
		if first {
			cond = eq
			first = false
		} else {
			cond = cond.And(eq)
		}
	}
	return cond, !first
}
