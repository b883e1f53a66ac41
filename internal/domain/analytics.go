package domain

import "time"

// TrendPoint is a single dated metric observation in a restaurant's trend feed.
type TrendPoint struct {
	Date   string  `json:"date" dynamodbav:"Date"`
	Metric string  `json:"metric" dynamodbav:"Metric"`
	Value  float64 `json:"value" dynamodbav:"Value"`
}

// AnalyticsRecord holds the trend feed for one restaurant. TrendData grows by
// atomic append only; concurrent appenders must not lose entries.
type AnalyticsRecord struct {
	RestaurantID string       `json:"restaurantId" dynamodbav:"RestaurantID"`
	TrendData    []TrendPoint `json:"trendData,omitempty" dynamodbav:"TrendData,omitempty"`
	UpdatedAt    time.Time    `json:"updatedAt" dynamodbav:"UpdatedAt"`
}
