package product

import (
	"strings"
	"time"

	"github.com/geocoder89/shopapi/internal/utils"
	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateRequest) Product {
	now := time.Now().UTC()
	name := strings.TrimSpace(req.Name)

	return Product{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        utils.Slugify(name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Quantity:    req.Quantity,
		Shipping:    req.Shipping,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
