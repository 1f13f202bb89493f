package comment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	User      string    `json:"user"` // author display name at time of writing
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var ErrNotFound = errors.New("comment not found")

type CreateRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}

type UpdateRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}

func New(productID, userID, userName, text string) Comment {
	now := time.Now().UTC()

	return Comment{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		User:      userName,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
