package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MockProvider provides a simple mock implementation for testing and development
type MockProvider struct {
	available bool
}

// NewMockProvider creates a new mock AI provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		available: true,
	}
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	return m.available
}

// SetAvailable controls whether the mock provider is available (for testing)
func (m *MockProvider) SetAvailable(available bool) {
	m.available = available
}

// Complete provides mock completions based on simple pattern matching
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}

	if strings.Contains(prompt, "Rewrite the following menu items") {
		return m.mockRevisions(prompt)
	}

	if strings.Contains(prompt, "Propose 2-4 new dishes") {
		return m.mockSuggestions(prompt)
	}

	if strings.Contains(prompt, "Extract every dish") {
		return m.mockParsedMenu(prompt)
	}

	return "", fmt.Errorf("unsupported prompt type")
}

var (
	itemIDPattern = regexp.MustCompile(`\{"id": "([^"]+)", "name": "([^"]+)"`)
	dishIDPattern = regexp.MustCompile(`\{"id": "([^"]+)", "competitor"`)
)

// mockRevisions returns one canned revision per item found in the prompt
func (m *MockProvider) mockRevisions(prompt string) (string, error) {
	matches := itemIDPattern.FindAllStringSubmatch(prompt, -1)

	payloads := make([]RevisionPayload, 0, len(matches))
	for _, match := range matches {
		payloads = append(payloads, RevisionPayload{
			MenuItemID:          match[1],
			ProposedName:        "House " + match[2],
			ProposedDescription: fmt.Sprintf("Our take on %s, made fresh daily.", match[2]),
			Rationale:           "Plain language tested well with the local audience",
			DemographicInsights: []string{"young families respond to 'fresh daily'"},
		})
	}

	data, err := json.Marshal(payloads)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mockSuggestions returns two canned dish proposals
func (m *MockProvider) mockSuggestions(prompt string) (string, error) {
	payloads := []SuggestionPayload{
		{
			Name:              "Charred Corn Flatbread",
			Description:       "Wood-fired flatbread with charred corn, cotija and lime crema.",
			EstimatedPrice:    11.50,
			Category:          "Starters",
			Ingredients:       []string{"corn", "flatbread", "cotija", "lime"},
			DietaryTags:       []string{"vegetarian"},
			InspirationSource: "competitor starter gap",
		},
		{
			Name:              "Smoked Short Rib Bowl",
			Description:       "Slow-smoked short rib over rice with pickled vegetables.",
			EstimatedPrice:    16.00,
			Category:          "Mains",
			Ingredients:       []string{"short rib", "rice", "pickled vegetables"},
			InspirationSource: "top seller at nearby smokehouse",
		},
	}

	// Tie the first proposal to a competitor dish when the prompt lists one.
	if match := dishIDPattern.FindStringSubmatch(prompt); match != nil {
		payloads[0].CompetitorDishID = match[1]
	}

	data, err := json.Marshal(payloads)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// mockParsedMenu extracts "name ... price" lines from the embedded menu text
func (m *MockProvider) mockParsedMenu(prompt string) (string, error) {
	var items []ParsedMenuItem
	linePattern := regexp.MustCompile(`(?m)^([A-Za-z][A-Za-z '&-]+?)\s+\$?(\d+(?:\.\d{1,2})?)\s*$`)
	for _, match := range linePattern.FindAllStringSubmatch(prompt, -1) {
		var price float64
		fmt.Sscanf(match[2], "%f", &price)
		items = append(items, ParsedMenuItem{
			Name:     strings.TrimSpace(match[1]),
			Price:    price,
			Category: "Uncategorized",
		})
	}

	data, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
