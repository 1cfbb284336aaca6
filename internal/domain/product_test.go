package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductValidate(t *testing.T) {
	tests := []struct {
		name       string
		product    Product
		violations int
	}{
		{name: "valid", product: Product{Name: "Keyboard", Price: 499.99, Description: "Wireless"}, violations: 0},
		{name: "valid without description", product: Product{Name: "Mouse", Price: 249.50}, violations: 0},
		{name: "missing name", product: Product{Price: 10}, violations: 1},
		{name: "name too long", product: Product{Name: strings.Repeat("x", 121), Price: 10}, violations: 1},
		{name: "negative price", product: Product{Name: "Keyboard", Price: -1}, violations: 1},
		{name: "price too high", product: Product{Name: "Keyboard", Price: 1000000}, violations: 1},
		{name: "description too long", product: Product{Name: "Keyboard", Price: 10, Description: strings.Repeat("x", 501)}, violations: 1},
		{name: "everything wrong", product: Product{Name: "", Price: -5, Description: strings.Repeat("x", 501)}, violations: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.product.Validate(), tt.violations)
		})
	}
}

func TestNewValidationError(t *testing.T) {
	assert.NoError(t, NewValidationError(nil))

	err := NewValidationError([]string{"name is required"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}
