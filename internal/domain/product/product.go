package product

import (
	"errors"
	"time"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CategoryID  string    `json:"categoryId"`
	Quantity    int       `json:"quantity"`
	Shipping    bool      `json:"shipping"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

var (
	ErrNotFound        = errors.New("product not found")
	ErrDuplicate       = errors.New("product already exists")
	ErrUnknownCategory = errors.New("category does not exist")
)

type CreateRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=160"`
	Description string  `json:"description" binding:"required,max=4000"`
	Price       float64 `json:"price" binding:"gte=0"`
	CategoryID  string  `json:"categoryId" binding:"required,uuid"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
	Shipping    bool    `json:"shipping"`
}

// UpdateRequest is a full replacement, matching the create payload.
type UpdateRequest struct {
	Name        string  `json:"name" binding:"required,min=2,max=160"`
	Description string  `json:"description" binding:"required,max=4000"`
	Price       float64 `json:"price" binding:"gte=0"`
	CategoryID  string  `json:"categoryId" binding:"required,uuid"`
	Quantity    int     `json:"quantity" binding:"gte=0"`
	Shipping    bool    `json:"shipping"`
}

// with pointers if optional, it will be nil
type ListFilter struct {
	CategoryIDs []string
	MinPrice    *float64
	MaxPrice    *float64
	Limit       int
}

type FilterRequest struct {
	Categories []string `json:"categories" binding:"omitempty,dive,uuid"`
	MinPrice   *float64 `json:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice   *float64 `json:"maxPrice" binding:"omitempty,gte=0"`
}

func (f ListFilter) Matches(p Product) bool {
	if len(f.CategoryIDs) > 0 {
		found := false
		for _, id := range f.CategoryIDs {
			if id == p.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}
