// Package menu implements menu management: item CRUD, batch import of parsed
// menus, upload-URL issuance and market snapshot refresh.
package menu

import (
	"context"

	"go.uber.org/zap"

	"menuwise-backend/internal/domain"
	"menuwise-backend/internal/provider/ai"
	"menuwise-backend/internal/provider/marketdata"
	"menuwise-backend/internal/repository"
	"menuwise-backend/internal/storage"
	appErrors "menuwise-backend/pkg/errors"
)

// Service wires menu item persistence to the parser, uploader and market-data
// provider.
type Service struct {
	items        repository.MenuItemRepository
	restaurants  repository.RestaurantRepository
	demographics repository.DemographicSnapshotRepository
	competitors  repository.CompetitorSnapshotRepository
	marketData   marketdata.Provider
	parser       *ai.Service
	uploader     storage.Uploader
	logger       *zap.Logger
}

// NewService creates a menu service.
func NewService(
	items repository.MenuItemRepository,
	restaurants repository.RestaurantRepository,
	demographics repository.DemographicSnapshotRepository,
	competitors repository.CompetitorSnapshotRepository,
	marketData marketdata.Provider,
	parser *ai.Service,
	uploader storage.Uploader,
	logger *zap.Logger,
) *Service {
	return &Service{
		items:        items,
		restaurants:  restaurants,
		demographics: demographics,
		competitors:  competitors,
		marketData:   marketData,
		parser:       parser,
		uploader:     uploader,
		logger:       logger,
	}
}

// CreateItem validates and stores one menu item.
func (s *Service) CreateItem(ctx context.Context, item *domain.MenuItem) (*domain.MenuItem, error) {
	if item.RestaurantID == "" {
		return nil, appErrors.NewValidation("restaurant id is required")
	}
	if item.Name == "" {
		return nil, appErrors.NewValidation("item name is required")
	}
	if item.Price < 0 {
		return nil, appErrors.NewValidation("item price cannot be negative")
	}
	return s.items.Create(ctx, item)
}

// GetItem fetches one item scoped to its restaurant.
func (s *Service) GetItem(ctx context.Context, restaurantID, itemID string) (*domain.MenuItem, error) {
	return s.items.GetByID(ctx, restaurantID, itemID)
}

// UpdateItem applies a sparse patch. An empty patch returns the current record
// without writing.
func (s *Service) UpdateItem(ctx context.Context, restaurantID, itemID string, patch repository.Patch) (*domain.MenuItem, error) {
	if price, ok := patch["Price"].(float64); ok && price < 0 {
		return nil, appErrors.NewValidation("item price cannot be negative")
	}
	return s.items.Update(ctx, restaurantID, itemID, patch)
}

// DeleteItem removes one item.
func (s *Service) DeleteItem(ctx context.Context, restaurantID, itemID string) error {
	return s.items.Delete(ctx, restaurantID, itemID)
}

// ListItems returns the restaurant's items, optionally narrowed by extra
// equality filters.
func (s *Service) ListItems(ctx context.Context, restaurantID string, extra repository.Filters) ([]domain.MenuItem, error) {
	filters := repository.Filters{repository.FilterRestaurantID: restaurantID}
	for k, v := range extra {
		filters[k] = v
	}
	return s.items.List(ctx, filters)
}

// BatchCreateItems stores the items in chunks. The returned count reflects
// items actually written; on a mid-sequence chunk failure earlier chunks stay
// committed.
func (s *Service) BatchCreateItems(ctx context.Context, restaurantID string, items []domain.MenuItem) ([]domain.MenuItem, int, error) {
	if restaurantID == "" {
		return nil, 0, appErrors.NewValidation("restaurant id is required")
	}
	for i := range items {
		items[i].RestaurantID = restaurantID
	}
	return s.items.BatchCreate(ctx, items)
}

// RequestUploadURL issues a presigned URL the client uploads the menu file to.
func (s *Service) RequestUploadURL(ctx context.Context, restaurantID, fileName, contentType string) (*storage.PresignedUpload, error) {
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}
	return s.uploader.PresignMenuUpload(ctx, restaurantID, fileName, contentType)
}

// ImportResult summarizes a menu import.
type ImportResult struct {
	Parsed  int               `json:"parsed"`
	Written int               `json:"written"`
	Items   []domain.MenuItem `json:"items"`
}

// ImportMenu parses raw menu text into structured items and stores them in
// batch. The uploaded file's key is recorded on the restaurant profile.
func (s *Service) ImportMenu(ctx context.Context, restaurantID, fileKey, menuText string) (*ImportResult, error) {
	if menuText == "" {
		return nil, appErrors.NewValidation("menu text is empty")
	}
	if _, err := s.restaurants.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}

	parsed, err := s.parser.ParseMenu(ctx, menuText)
	if err != nil {
		return nil, appErrors.Wrap(err, "menu parsing failed")
	}
	if len(parsed) == 0 {
		return nil, appErrors.NewValidation("no menu items could be extracted")
	}

	items := make([]domain.MenuItem, len(parsed))
	for i, p := range parsed {
		items[i] = domain.MenuItem{
			RestaurantID: restaurantID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			Category:     p.Category,
			Ingredients:  p.Ingredients,
			DietaryTags:  p.DietaryTags,
		}
	}

	written, count, err := s.items.BatchCreate(ctx, items)
	if err != nil {
		// Earlier chunks are committed; report what landed.
		return &ImportResult{Parsed: len(parsed), Written: count, Items: written}, err
	}

	if fileKey != "" {
		if _, err := s.restaurants.Update(ctx, restaurantID, repository.Patch{"MenuFileKey": fileKey}); err != nil {
			s.logger.Warn("failed to record menu file key",
				zap.String("restaurant_id", restaurantID),
				zap.Error(err))
		}
	}

	return &ImportResult{Parsed: len(parsed), Written: count, Items: written}, nil
}

// RefreshSnapshots fetches fresh demographic and competitor data and replaces
// both cached snapshots wholesale. There is no partial merge: each refresh is
// all-or-nothing per snapshot.
func (s *Service) RefreshSnapshots(ctx context.Context, restaurantID string) error {
	restaurant, err := s.restaurants.GetByID(ctx, restaurantID)
	if err != nil {
		return err
	}

	demo, err := s.marketData.FetchDemographics(ctx, *restaurant)
	if err != nil {
		return appErrors.Wrap(err, "demographic fetch failed")
	}
	if err := s.demographics.CreateOrUpdate(ctx, demo); err != nil {
		return appErrors.Wrap(err, "failed to store demographic snapshot")
	}

	comp, err := s.marketData.FetchCompetitorDishes(ctx, *restaurant)
	if err != nil {
		return appErrors.Wrap(err, "competitor fetch failed")
	}
	if err := s.competitors.CreateOrUpdate(ctx, comp); err != nil {
		return appErrors.Wrap(err, "failed to store competitor snapshot")
	}

	s.logger.Info("snapshots refreshed",
		zap.String("restaurant_id", restaurantID),
		zap.Int("segments", len(demo.Segments)),
		zap.Int("competitor_dishes", len(comp.Dishes)))
	return nil
}
