// Package domain defines the core entities of the menu optimization system.
package domain

import "time"

// EnhancementStatus tracks the lifecycle of an AI-generated enhancement on a menu item.
type EnhancementStatus string

const (
	EnhancementNone     EnhancementStatus = "none"
	EnhancementPending  EnhancementStatus = "pending"
	EnhancementApproved EnhancementStatus = "approved"
	EnhancementRejected EnhancementStatus = "rejected"
)

// GenerationParams records the parameters used to produce an enhancement revision.
type GenerationParams struct {
	Model       string  `json:"model" dynamodbav:"Model"`
	Temperature float64 `json:"temperature" dynamodbav:"Temperature"`
	MaxTokens   int     `json:"maxTokens" dynamodbav:"MaxTokens"`
}

// EnhancementRevision is one entry in a menu item's append-only enhancement history.
type EnhancementRevision struct {
	Text        string           `json:"text" dynamodbav:"Text"`
	GeneratedAt time.Time        `json:"generatedAt" dynamodbav:"GeneratedAt"`
	Params      GenerationParams `json:"params" dynamodbav:"Params"`
}

// MenuItem is the persisted dish record.
//
// EnhancedName and EnhancedDescription are a nullable overlay: when present they
// are displayed in place of the base fields. EnhancementHistory is append-only;
// it is never rewritten across any sequence of operations.
type MenuItem struct {
	ID                  string                `json:"id" dynamodbav:"ID"`
	RestaurantID        string                `json:"restaurantId" dynamodbav:"RestaurantID"`
	Name                string                `json:"name" dynamodbav:"Name"`
	Description         string                `json:"description" dynamodbav:"Description"`
	EnhancedName        *string               `json:"enhancedName,omitempty" dynamodbav:"EnhancedName,omitempty"`
	EnhancedDescription *string               `json:"enhancedDescription,omitempty" dynamodbav:"EnhancedDescription,omitempty"`
	Price               float64               `json:"price" dynamodbav:"Price"`
	Category            string                `json:"category" dynamodbav:"Category"`
	Ingredients         []string              `json:"ingredients,omitempty" dynamodbav:"Ingredients,omitempty"`
	DietaryTags         []string              `json:"dietaryTags,omitempty" dynamodbav:"DietaryTags,omitempty"`
	TasteProfile        map[string]float64    `json:"tasteProfile,omitempty" dynamodbav:"TasteProfile,omitempty"`
	AITags              []string              `json:"aiTags,omitempty" dynamodbav:"AITags,omitempty"`
	IsActive            bool                  `json:"isActive" dynamodbav:"IsActive"`
	IsAIGenerated       bool                  `json:"isAiGenerated" dynamodbav:"IsAIGenerated"`
	EnhancementStatus   EnhancementStatus     `json:"enhancementStatus" dynamodbav:"EnhancementStatus"`
	EnhancementHistory  []EnhancementRevision `json:"enhancementHistory,omitempty" dynamodbav:"EnhancementHistory,omitempty"`
	CreatedAt           time.Time             `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt           time.Time             `json:"updatedAt" dynamodbav:"UpdatedAt"`
}

// DisplayName returns the enhanced name when one is present, otherwise the base name.
func (m *MenuItem) DisplayName() string {
	if m.EnhancedName != nil && *m.EnhancedName != "" {
		return *m.EnhancedName
	}
	return m.Name
}

// DisplayDescription returns the enhanced description when present, otherwise the base one.
func (m *MenuItem) DisplayDescription() string {
	if m.EnhancedDescription != nil && *m.EnhancedDescription != "" {
		return *m.EnhancedDescription
	}
	return m.Description
}
