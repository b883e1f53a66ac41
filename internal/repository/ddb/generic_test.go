package ddb

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/repository"
	appErrors "menuwise-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDBClient is an in-memory DBClient that stores items keyed by PK|SK and
// counts calls per operation.
type fakeDBClient struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	putCalls    int
	updateCalls int
	queryCalls  int
	scanCalls   int
	batchCalls  int
	batchSizes  []int

	batchErrAfter int // fail the Nth BatchWriteItem call (1-based), 0 = never
}

func newFakeDBClient() *fakeDBClient {
	return &fakeDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(attrs map[string]types.AttributeValue) string {
	pk := attrs[attrPK].(*types.AttributeValueMemberS).Value
	sk := attrs[attrSK].(*types.AttributeValueMemberS).Value
	return pk + "|" + sk
}

func (f *fakeDBClient) GetItem(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[itemKey(params.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: item}, nil
}

func (f *fakeDBClient) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putCalls++
	key := itemKey(params.Item)
	if params.ConditionExpression != nil {
		if _, exists := f.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	f.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

var attrEqualityPattern = regexp.MustCompile(`(#\w+)\s*=\s*(:\w+)`)

func attrEqual(a, b types.AttributeValue) bool {
	as, aok := a.(*types.AttributeValueMemberS)
	bs, bok := b.(*types.AttributeValueMemberS)
	if aok && bok {
		return as.Value == bs.Value
	}
	return reflect.DeepEqual(a, b)
}

func (f *fakeDBClient) UpdateItem(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	key := itemKey(params.Key)
	item, ok := f.items[key]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}

	// Equality clauses in the condition are evaluated with OR semantics: the
	// update passes when any named attribute equals one of the candidate
	// values. That covers the pending-or-same-target status guard.
	if params.ConditionExpression != nil {
		pairs := attrEqualityPattern.FindAllStringSubmatch(*params.ConditionExpression, -1)
		if len(pairs) > 0 {
			matched := false
			for _, pair := range pairs {
				name := params.ExpressionAttributeNames[pair[1]]
				want := params.ExpressionAttributeValues[pair[2]]
				if got, present := item[name]; present && attrEqual(got, want) {
					matched = true
					break
				}
			}
			if !matched {
				return nil, &types.ConditionalCheckFailedException{}
			}
		}
	}

	// Simple "SET #a = :b" clauses are applied; list_append and other
	// functions are not simulated.
	if params.UpdateExpression != nil {
		expr := *params.UpdateExpression
		if i := strings.Index(expr, "SET "); i >= 0 {
			updated := make(map[string]types.AttributeValue, len(item)+1)
			for k, v := range item {
				updated[k] = v
			}
			for _, clause := range strings.Split(expr[i+4:], ",") {
				m := attrEqualityPattern.FindStringSubmatch(strings.TrimSpace(clause))
				if m == nil {
					continue
				}
				updated[params.ExpressionAttributeNames[m[1]]] = params.ExpressionAttributeValues[m[2]]
			}
			f.items[key] = updated
			item = updated
		}
	}
	return &dynamodb.UpdateItemOutput{Attributes: item}, nil
}

func (f *fakeDBClient) DeleteItem(_ context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := itemKey(params.Key)
	if _, ok := f.items[key]; !ok {
		return nil, &types.ConditionalCheckFailedException{}
	}
	delete(f.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeDBClient) Query(_ context.Context, _ *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	out := &dynamodb.QueryOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDBClient) Scan(_ context.Context, _ *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanCalls++
	out := &dynamodb.ScanOutput{}
	for _, item := range f.items {
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDBClient) BatchWriteItem(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.batchErrAfter > 0 && f.batchCalls == f.batchErrAfter {
		return nil, fmt.Errorf("provisioned throughput exceeded")
	}
	for _, requests := range params.RequestItems {
		f.batchSizes = append(f.batchSizes, len(requests))
		for _, req := range requests {
			f.items[itemKey(req.PutRequest.Item)] = req.PutRequest.Item
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func newTestMenuItemRepo(t *testing.T) (*MenuItemRepository, *fakeDBClient) {
	t.Helper()
	client := newFakeDBClient()
	return NewMenuItemRepository(client, "test-table", zap.NewNop()), client
}

func TestCreateGetRoundTrip(t *testing.T) {
	repo, _ := newTestMenuItemRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.MenuItem{
		RestaurantID: "rest-1",
		Name:         "Margherita Pizza",
		Description:  "Tomato, mozzarella, basil",
		Price:        12.50,
		Category:     "mains",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.IsActive)
	assert.False(t, created.IsAIGenerated)
	assert.Equal(t, domain.EnhancementNone, created.EnhancementStatus)

	got, err := repo.GetByID(ctx, "rest-1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Description, got.Description)
	assert.Equal(t, created.Price, got.Price)
	assert.Equal(t, created.ID, got.ID)
}

func TestCreateRequiresRestaurantID(t *testing.T) {
	repo, _ := newTestMenuItemRepo(t)

	_, err := repo.Create(context.Background(), &domain.MenuItem{Name: "Orphan Dish"})
	require.Error(t, err)
	assert.True(t, appErrors.IsValidation(err))
}

func TestCreateDuplicateConflicts(t *testing.T) {
	repo, _ := newTestMenuItemRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.MenuItem{RestaurantID: "rest-1", Name: "Dish"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.MenuItem{RestaurantID: "rest-1", ID: created.ID, Name: "Dish"})
	require.Error(t, err)
	assert.True(t, appErrors.IsConflict(err))
}

func TestGetNotFound(t *testing.T) {
	repo, _ := newTestMenuItemRepo(t)

	_, err := repo.GetByID(context.Background(), "rest-1", "missing")
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}

func TestEmptyPatchIssuesNoWrite(t *testing.T) {
	repo, client := newTestMenuItemRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, &domain.MenuItem{RestaurantID: "rest-1", Name: "Dish", Price: 9.00})
	require.NoError(t, err)

	got, err := repo.Update(ctx, "rest-1", created.ID, repository.Patch{})
	require.NoError(t, err)
	assert.Equal(t, 0, client.updateCalls, "empty patch must not write")
	assert.Equal(t, created.Name, got.Name)
	assert.Equal(t, created.Price, got.Price)
}

func TestUpdateNotFound(t *testing.T) {
	repo, _ := newTestMenuItemRepo(t)

	_, err := repo.Update(context.Background(), "rest-1", "missing", repository.Patch{"Price": 10.0})
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}

func TestDeleteNotFound(t *testing.T) {
	repo, _ := newTestMenuItemRepo(t)

	err := repo.Delete(context.Background(), "rest-1", "missing")
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
}

func TestBatchCreateChunking(t *testing.T) {
	tests := []struct {
		name       string
		count      int
		wantChunks int
	}{
		{"single partial chunk", 10, 1},
		{"exactly one chunk", 25, 1},
		{"one item over", 26, 2},
		{"many chunks", 60, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, client := newTestMenuItemRepo(t)
			ctx := context.Background()

			items := make([]domain.MenuItem, tt.count)
			for i := range items {
				items[i] = domain.MenuItem{RestaurantID: "rest-1", Name: fmt.Sprintf("Dish %d", i)}
			}

			stored, written, err := repo.BatchCreate(ctx, items)
			require.NoError(t, err)
			assert.Equal(t, tt.count, written)
			assert.Equal(t, tt.wantChunks, client.batchCalls)
			for _, size := range client.batchSizes {
				assert.LessOrEqual(t, size, MaxBatchWriteItems)
			}

			// Every item is individually retrievable afterward.
			for _, item := range stored {
				got, err := repo.GetByID(ctx, "rest-1", item.ID)
				require.NoError(t, err)
				assert.Equal(t, item.Name, got.Name)
			}
		})
	}
}

func TestBatchCreatePartialFailure(t *testing.T) {
	repo, client := newTestMenuItemRepo(t)
	client.batchErrAfter = 2
	ctx := context.Background()

	items := make([]domain.MenuItem, 60)
	for i := range items {
		items[i] = domain.MenuItem{RestaurantID: "rest-1", Name: fmt.Sprintf("Dish %d", i)}
	}

	stored, written, err := repo.BatchCreate(ctx, items)
	require.Error(t, err)
	assert.Equal(t, 25, written, "first chunk stays committed")
	assert.Len(t, stored, 25)

	// Items from the committed chunk remain retrievable.
	got, err := repo.GetByID(ctx, "rest-1", stored[0].ID)
	require.NoError(t, err)
	assert.Equal(t, stored[0].Name, got.Name)
}

func TestListRoutesToQueryWithRestaurantFilter(t *testing.T) {
	repo, client := newTestMenuItemRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, &domain.MenuItem{RestaurantID: "rest-1", Name: "Dish"})
	require.NoError(t, err)

	_, err = repo.List(ctx, repository.Filters{repository.FilterRestaurantID: "rest-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, client.queryCalls)
	assert.Equal(t, 0, client.scanCalls)
}

func TestListFallsBackToScanWithoutRestaurantFilter(t *testing.T) {
	repo, client := newTestMenuItemRepo(t)
	ctx := context.Background()

	_, err := repo.List(ctx, repository.Filters{"Category": "mains"})
	require.NoError(t, err)
	assert.Equal(t, 0, client.queryCalls)
	assert.Equal(t, 1, client.scanCalls)
}
