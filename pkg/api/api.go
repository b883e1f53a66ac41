// Package api defines the contracts for API requests and responses.
// It decouples the API structure from the internal domain models.
package api

// CreateMenuItemRequest is the expected body for a POST /menu/items request.
type CreateMenuItemRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients"`
	DietaryTags []string `json:"dietaryTags"`
}

// UpdateMenuItemRequest is a sparse patch body for PUT /menu/items/{itemId}.
// Only non-nil fields are applied.
type UpdateMenuItemRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *string  `json:"category,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// BatchCreateMenuItemsRequest is the body for POST /menu/items/batch.
type BatchCreateMenuItemsRequest struct {
	Items []CreateMenuItemRequest `json:"items" validate:"required,min=1,dive"`
}

// BatchCreateMenuItemsResponse reports how many items were written. Written
// may be less than Requested when a chunk fails mid-sequence.
type BatchCreateMenuItemsResponse struct {
	Requested int    `json:"requested"`
	Written   int    `json:"written"`
	Error     string `json:"error,omitempty"`
}

// UploadURLRequest is the body for POST /menu/upload-url.
type UploadURLRequest struct {
	FileName    string `json:"fileName" validate:"required"`
	ContentType string `json:"contentType"`
}

// ImportMenuRequest is the body for POST /menu/import.
type ImportMenuRequest struct {
	FileKey  string `json:"fileKey"`
	MenuText string `json:"menuText" validate:"required"`
}

// SubmitOptimizationRequest is the body for POST /optimizations.
type SubmitOptimizationRequest struct {
	Mode        string   `json:"mode" validate:"required,oneof=revise-existing suggest-new"`
	Segments    []string `json:"segments"`
	CuisineHint string   `json:"cuisineHint"`
}

// DecideCandidateRequest is the body for POST /optimizations/candidates/{id}/decision.
type DecideCandidateRequest struct {
	Mode     string `json:"mode" validate:"required,oneof=revise-existing suggest-new"`
	Approved bool   `json:"approved"`
}

// CommitDecisionsRequest is the body for POST /optimizations/candidates/commit.
type CommitDecisionsRequest struct {
	Mode      string          `json:"mode" validate:"required,oneof=revise-existing suggest-new"`
	Decisions map[string]bool `json:"decisions" validate:"required,min=1"`
}

// CreateRestaurantRequest is the body for POST /restaurants.
type CreateRestaurantRequest struct {
	Name        string `json:"name" validate:"required"`
	CuisineType string `json:"cuisineType"`
	City        string `json:"city"`
}

// ErrorResponse is a standardized error message for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
