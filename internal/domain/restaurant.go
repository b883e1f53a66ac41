package domain

import "time"

// Restaurant is the owning aggregate for menu items, candidates and snapshots.
// A restaurant belongs to exactly one user account.
type Restaurant struct {
	ID          string    `json:"id" dynamodbav:"ID"`
	OwnerID     string    `json:"ownerId" dynamodbav:"OwnerID"`
	Name        string    `json:"name" dynamodbav:"Name"`
	CuisineType string    `json:"cuisineType" dynamodbav:"CuisineType"`
	City        string    `json:"city" dynamodbav:"City"`
	MenuFileKey string    `json:"menuFileKey,omitempty" dynamodbav:"MenuFileKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt" dynamodbav:"CreatedAt"`
	UpdatedAt   time.Time `json:"updatedAt" dynamodbav:"UpdatedAt"`
}
