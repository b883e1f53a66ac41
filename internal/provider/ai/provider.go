// Package ai provides AI-powered menu optimization: rewriting existing dishes
// and proposing new ones from demographic and competitor data.
package ai

import (
	"context"
)

// Provider defines the interface for LLM providers (OpenAI, Anthropic, etc.)
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures LLM completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}

// RevisionPayload is one proposed rewrite of an existing menu item.
type RevisionPayload struct {
	MenuItemID          string   `json:"menu_item_id"`
	ProposedName        string   `json:"proposed_name"`
	ProposedDescription string   `json:"proposed_description"`
	Rationale           string   `json:"rationale"`
	DemographicInsights []string `json:"demographic_insights"`
}

// SuggestionPayload is one proposed new dish.
type SuggestionPayload struct {
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	EstimatedPrice    float64  `json:"estimated_price"`
	Category          string   `json:"category"`
	Ingredients       []string `json:"ingredients"`
	DietaryTags       []string `json:"dietary_tags"`
	InspirationSource string   `json:"inspiration_source"`
	CompetitorDishID  string   `json:"competitor_dish_id"`
}

// ParsedMenuItem is one item extracted from an uploaded menu file.
type ParsedMenuItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Ingredients []string `json:"ingredients"`
	DietaryTags []string `json:"dietary_tags"`
}
