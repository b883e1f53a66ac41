package repository

import (
	"errors"
	"fmt"
)

// ErrNotFound represents a resource not found error in the repository layer.
type ErrNotFound struct {
	Resource     string // The type of resource (e.g., "menu item", "candidate")
	ID           string // The identifier that was not found
	RestaurantID string // The restaurant context, if applicable
}

func (e ErrNotFound) Error() string {
	if e.RestaurantID != "" {
		return fmt.Sprintf("%s with ID '%s' not found for restaurant '%s'", e.Resource, e.ID, e.RestaurantID)
	}
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

// NewNotFound builds an ErrNotFound for the given resource and identifiers.
func NewNotFound(resource, restaurantID, id string) error {
	return ErrNotFound{Resource: resource, ID: id, RestaurantID: restaurantID}
}

// IsNotFound reports whether err is a repository not-found error.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
