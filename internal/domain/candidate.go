package domain

import "time"

// CandidateStatus is the shared lifecycle of both optimization candidate shapes.
// Transitions: pending -> approved | rejected. Approved and rejected are terminal;
// a candidate is immutable except for its status and is pruned from pending views
// rather than deleted, to preserve audit history.
type CandidateStatus string

const (
	CandidatePending  CandidateStatus = "pending"
	CandidateApproved CandidateStatus = "approved"
	CandidateRejected CandidateStatus = "rejected"
)

// IsTerminal reports whether the status permits no further transitions.
func (s CandidateStatus) IsTerminal() bool {
	return s == CandidateApproved || s == CandidateRejected
}

// OptimizationMode selects which candidate shape an optimization pass produces.
type OptimizationMode string

const (
	ModeReviseExisting OptimizationMode = "revise-existing"
	ModeSuggestNew     OptimizationMode = "suggest-new"
)

// Candidate is the common view over both candidate shapes, used by the review workflow.
type Candidate interface {
	CandidateID() string
	CandidateRestaurant() string
	CurrentStatus() CandidateStatus
	Mode() OptimizationMode
}

// RevisionCandidate proposes a changed name/description for an existing menu item.
type RevisionCandidate struct {
	ID                  string          `json:"id" dynamodbav:"ID"`
	RestaurantID        string          `json:"restaurantId" dynamodbav:"RestaurantID"`
	MenuItemID          string          `json:"menuItemId" dynamodbav:"MenuItemID"`
	OriginalName        string          `json:"originalName" dynamodbav:"OriginalName"`
	OriginalDescription string          `json:"originalDescription" dynamodbav:"OriginalDescription"`
	ProposedName        string          `json:"proposedName" dynamodbav:"ProposedName"`
	ProposedDescription string          `json:"proposedDescription" dynamodbav:"ProposedDescription"`
	Rationale           string          `json:"rationale" dynamodbav:"Rationale"`
	DemographicInsights []string        `json:"demographicInsights,omitempty" dynamodbav:"DemographicInsights,omitempty"`
	Status              CandidateStatus `json:"status" dynamodbav:"Status"`
	CreatedAt           time.Time       `json:"createdAt" dynamodbav:"CreatedAt"`
}

func (c *RevisionCandidate) CandidateID() string            { return c.ID }
func (c *RevisionCandidate) CandidateRestaurant() string    { return c.RestaurantID }
func (c *RevisionCandidate) CurrentStatus() CandidateStatus { return c.Status }
func (c *RevisionCandidate) Mode() OptimizationMode         { return ModeReviseExisting }

// SuggestionCandidate proposes a wholly new dish, optionally inspired by a competitor dish.
type SuggestionCandidate struct {
	ID                string          `json:"id" dynamodbav:"ID"`
	RestaurantID      string          `json:"restaurantId" dynamodbav:"RestaurantID"`
	Name              string          `json:"name" dynamodbav:"Name"`
	Description       string          `json:"description" dynamodbav:"Description"`
	EstimatedPrice    float64         `json:"estimatedPrice" dynamodbav:"EstimatedPrice"`
	Category          string          `json:"category" dynamodbav:"Category"`
	Ingredients       []string        `json:"ingredients,omitempty" dynamodbav:"Ingredients,omitempty"`
	DietaryTags       []string        `json:"dietaryTags,omitempty" dynamodbav:"DietaryTags,omitempty"`
	InspirationSource string          `json:"inspirationSource" dynamodbav:"InspirationSource"`
	CompetitorDishID  string          `json:"competitorDishId,omitempty" dynamodbav:"CompetitorDishID,omitempty"`
	Status            CandidateStatus `json:"status" dynamodbav:"Status"`
	CreatedAt         time.Time       `json:"createdAt" dynamodbav:"CreatedAt"`
}

func (c *SuggestionCandidate) CandidateID() string            { return c.ID }
func (c *SuggestionCandidate) CandidateRestaurant() string    { return c.RestaurantID }
func (c *SuggestionCandidate) CurrentStatus() CandidateStatus { return c.Status }
func (c *SuggestionCandidate) Mode() OptimizationMode         { return ModeSuggestNew }
