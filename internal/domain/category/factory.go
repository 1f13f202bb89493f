package category

import (
	"strings"
	"time"

	"github.com/geocoder89/shopapi/internal/utils"
	"github.com/google/uuid"
)

func NewFromCreateRequest(req CreateRequest) Category {
	now := time.Now().UTC()
	name := strings.TrimSpace(req.Name)

	return Category{
		ID:        uuid.NewString(),
		Name:      name,
		Slug:      utils.Slugify(name),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
