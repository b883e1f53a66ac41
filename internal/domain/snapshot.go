package domain

import "time"

// DemographicSegment describes one audience segment around a restaurant.
type DemographicSegment struct {
	Name        string   `json:"name" dynamodbav:"Name"`
	Share       float64  `json:"share" dynamodbav:"Share"`
	AgeRange    string   `json:"ageRange" dynamodbav:"AgeRange"`
	Preferences []string `json:"preferences,omitempty" dynamodbav:"Preferences,omitempty"`
}

// DemographicSnapshot is the cached demographic data for one restaurant.
// Snapshots are refreshed wholesale: each re-fetch replaces the entire record,
// there is no partial merge.
type DemographicSnapshot struct {
	RestaurantID string               `json:"restaurantId" dynamodbav:"RestaurantID"`
	Segments     []DemographicSegment `json:"segments" dynamodbav:"Segments"`
	RetrievedAt  time.Time            `json:"retrievedAt" dynamodbav:"RetrievedAt"`
}

// CompetitorDish is one dish observed at a nearby competitor.
type CompetitorDish struct {
	ID             string  `json:"id" dynamodbav:"ID"`
	CompetitorName string  `json:"competitorName" dynamodbav:"CompetitorName"`
	DishName       string  `json:"dishName" dynamodbav:"DishName"`
	Description    string  `json:"description" dynamodbav:"Description"`
	Price          float64 `json:"price" dynamodbav:"Price"`
	Category       string  `json:"category" dynamodbav:"Category"`
}

// CompetitorDishSnapshot is the cached competitor dish data for one restaurant,
// refreshed wholesale like DemographicSnapshot.
type CompetitorDishSnapshot struct {
	RestaurantID string           `json:"restaurantId" dynamodbav:"RestaurantID"`
	Dishes       []CompetitorDish `json:"dishes" dynamodbav:"Dishes"`
	RetrievedAt  time.Time        `json:"retrievedAt" dynamodbav:"RetrievedAt"`
}

// Dish returns the snapshot entry with the given id, or nil.
func (s *CompetitorDishSnapshot) Dish(id string) *CompetitorDish {
	for i := range s.Dishes {
		if s.Dishes[i].ID == id {
			return &s.Dishes[i]
		}
	}
	return nil
}
