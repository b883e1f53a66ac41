package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"menuwise-backend/internal/domain"
)

// Service builds prompts for the configured provider and parses its
// structured responses into optimization payloads.
type Service struct {
	provider Provider
}

// NewService creates a new AI service with the specified provider
func NewService(provider Provider) *Service {
	return &Service{
		provider: provider,
	}
}

// IsAvailable returns true if the AI service is available
func (s *Service) IsAvailable() bool {
	return s.provider != nil && s.provider.IsAvailable()
}

// GenerateRevisions proposes rewritten names/descriptions for the given items,
// guided by the demographic snapshot and selection criteria. May return zero
// payloads.
func (s *Service) GenerateRevisions(
	ctx context.Context,
	items []domain.MenuItem,
	demographics *domain.DemographicSnapshot,
	segments []string,
) ([]RevisionPayload, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("AI service is not available")
	}

	prompt := s.buildRevisionPrompt(items, demographics, segments)

	response, err := s.provider.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.7,
		MaxTokens:   1200,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get revision response: %w", err)
	}

	var payloads []RevisionPayload
	if err := unmarshalResponse(response, &payloads); err != nil {
		return nil, fmt.Errorf("failed to parse revision response: %w", err)
	}

	// Drop payloads that don't reference a requested item.
	known := make(map[string]bool, len(items))
	for _, item := range items {
		known[item.ID] = true
	}
	valid := payloads[:0]
	for _, p := range payloads {
		if known[p.MenuItemID] && p.ProposedName != "" {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

// GenerateSuggestions proposes new dishes inspired by the competitor snapshot
// and demographic data. May return zero payloads.
func (s *Service) GenerateSuggestions(
	ctx context.Context,
	competitors *domain.CompetitorDishSnapshot,
	demographics *domain.DemographicSnapshot,
	cuisineHint string,
) ([]SuggestionPayload, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("AI service is not available")
	}

	prompt := s.buildSuggestionPrompt(competitors, demographics, cuisineHint)

	response, err := s.provider.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.8,
		MaxTokens:   1200,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion response: %w", err)
	}

	var payloads []SuggestionPayload
	if err := unmarshalResponse(response, &payloads); err != nil {
		return nil, fmt.Errorf("failed to parse suggestion response: %w", err)
	}

	valid := payloads[:0]
	for _, p := range payloads {
		if p.Name != "" {
			valid = append(valid, p)
		}
	}
	return valid, nil
}

// ParseMenu extracts structured menu items from raw menu file text.
func (s *Service) ParseMenu(ctx context.Context, menuText string) ([]ParsedMenuItem, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("AI service is not available")
	}

	prompt := s.buildParsePrompt(menuText)

	response, err := s.provider.Complete(ctx, prompt, CompletionOptions{
		Temperature: 0.2,
		MaxTokens:   2000,
		Format:      "json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get menu parse response: %w", err)
	}

	var parsed struct {
		Items []ParsedMenuItem `json:"items"`
	}
	if err := unmarshalResponse(response, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse menu response: %w", err)
	}

	valid := parsed.Items[:0]
	for _, item := range parsed.Items {
		if item.Name != "" {
			valid = append(valid, item)
		}
	}
	return valid, nil
}

// buildRevisionPrompt creates a prompt for rewriting existing menu items
func (s *Service) buildRevisionPrompt(items []domain.MenuItem, demographics *domain.DemographicSnapshot, segments []string) string {
	itemList := make([]string, len(items))
	for i, item := range items {
		itemList[i] = fmt.Sprintf(`{"id": "%s", "name": "%s", "description": "%s", "category": "%s"}`,
			item.ID, item.Name, item.Description, item.Category)
	}

	return fmt.Sprintf(`You are an expert restaurant menu copywriter. Rewrite the following menu items so they appeal to the local audience.

Local demographics:
%s

Target segments: %s

Menu items to revise:
%s

Return a JSON array with this structure:
[
  {"menu_item_id": "id", "proposed_name": "new name", "proposed_description": "new description", "rationale": "why this works", "demographic_insights": ["insight one", "insight two"]}
]

Rules:
1. Keep the dish recognizably the same; change presentation, not substance
2. Reference a demographic segment in each rationale
3. Descriptions should be 1-2 sentences, appetizing, no superlatives stacking
4. Return one entry per input item, keyed by its exact id
`, formatDemographics(demographics), strings.Join(segments, ", "), strings.Join(itemList, ",\n"))
}

// buildSuggestionPrompt creates a prompt for proposing new dishes
func (s *Service) buildSuggestionPrompt(competitors *domain.CompetitorDishSnapshot, demographics *domain.DemographicSnapshot, cuisineHint string) string {
	dishList := make([]string, len(competitors.Dishes))
	for i, dish := range competitors.Dishes {
		dishList[i] = fmt.Sprintf(`{"id": "%s", "competitor": "%s", "dish": "%s", "price": %.2f, "category": "%s"}`,
			dish.ID, dish.CompetitorName, dish.DishName, dish.Price, dish.Category)
	}

	return fmt.Sprintf(`You are a restaurant menu consultant. Propose 2-4 new dishes that fill gaps against nearby competitors.

Cuisine: %s

Local demographics:
%s

Competitor dishes:
%s

Return a JSON array with this structure:
[
  {"name": "dish name", "description": "description", "estimated_price": 12.50, "category": "Mains", "ingredients": ["a", "b"], "dietary_tags": ["vegetarian"], "inspiration_source": "what inspired it", "competitor_dish_id": "id or empty"}
]

Rules:
1. Price within the range of the competitor dishes shown
2. Set competitor_dish_id only when a specific competitor dish inspired the proposal
3. Respect the stated cuisine
4. Do not duplicate competitor dishes outright
`, cuisineHint, formatDemographics(demographics), strings.Join(dishList, ",\n"))
}

// buildParsePrompt creates a prompt for extracting items from menu text
func (s *Service) buildParsePrompt(menuText string) string {
	return fmt.Sprintf(`Extract every dish from the following restaurant menu text.

Menu text:
%s

Return a JSON object with this structure:
{"items": [{"name": "dish", "description": "description or empty", "price": 9.99, "category": "section heading", "ingredients": [], "dietary_tags": []}]}

Rules:
1. One entry per dish, preserve menu order
2. Use 0 for missing prices, empty string for missing descriptions
3. dietary_tags only when explicitly marked on the menu
`, menuText)
}

// formatDemographics formats a demographic snapshot for inclusion in a prompt
func formatDemographics(snapshot *domain.DemographicSnapshot) string {
	if snapshot == nil || len(snapshot.Segments) == 0 {
		return "No demographic data available."
	}

	var formatted []string
	for _, seg := range snapshot.Segments {
		formatted = append(formatted, fmt.Sprintf("- %s (%.0f%%, ages %s): %s",
			seg.Name, seg.Share*100, seg.AgeRange, strings.Join(seg.Preferences, ", ")))
	}
	return strings.Join(formatted, "\n")
}

// unmarshalResponse parses a provider response, tolerating markdown fences.
func unmarshalResponse(response string, out any) error {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}

	if err := json.Unmarshal([]byte(response), out); err != nil {
		return fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return nil
}
