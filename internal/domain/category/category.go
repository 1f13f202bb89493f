package category

import (
	"errors"
	"time"
)

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound  = errors.New("category not found")
	ErrDuplicate = errors.New("category already exists")
	// ErrInUse is returned when products still reference the category.
	ErrInUse = errors.New("category has products")
)

type CreateRequest struct {
	Name string `json:"name" binding:"required,min=2,max=80"`
}

type UpdateRequest struct {
	Name string `json:"name" binding:"required,min=2,max=80"`
}
