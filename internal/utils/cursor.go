package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ProductCursor marks the last row of a newest-first product page.
type ProductCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

var ErrInvalidCursor = errors.New("invalid cursor")

func EncodeProductCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(ProductCursor{CreatedAt: createdAt.UTC(), ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeProductCursor(cursor string) (ProductCursor, error) {
	if cursor == "" {
		return ProductCursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return ProductCursor{}, ErrInvalidCursor
	}

	var c ProductCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return ProductCursor{}, ErrInvalidCursor
	}
	if c.CreatedAt.IsZero() {
		return ProductCursor{}, ErrInvalidCursor
	}
	if _, err := uuid.Parse(c.ID); err != nil {
		return ProductCursor{}, ErrInvalidCursor
	}
	return c, nil
}

// Before reports whether a row at (createdAt, id) sorts after the cursor in
// newest-first order.
func (c ProductCursor) Before(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}
