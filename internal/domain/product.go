package domain

import "fmt"

const (
	maxProductNameLength        = 120
	maxProductDescriptionLength = 500
	maxProductPrice             = 999999
)

// Product is a catalog item. ID is assigned by the store on insert.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description,omitempty"`
}

// Validate checks field constraints and returns one message per violation.
func (p Product) Validate() []string {
	var violations []string
	if p.Name == "" {
		violations = append(violations, "name is required")
	}
	if len(p.Name) > maxProductNameLength {
		violations = append(violations, fmt.Sprintf("name must be at most %d characters", maxProductNameLength))
	}
	if p.Price < 0 || p.Price > maxProductPrice {
		violations = append(violations, fmt.Sprintf("price must be between 0 and %d", maxProductPrice))
	}
	if len(p.Description) > maxProductDescriptionLength {
		violations = append(violations, fmt.Sprintf("description must be at most %d characters", maxProductDescriptionLength))
	}
	return violations
}
