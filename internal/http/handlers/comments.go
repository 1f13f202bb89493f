package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/shopapi/internal/actorctx"
	"github.com/geocoder89/shopapi/internal/domain/comment"
	"github.com/geocoder89/shopapi/internal/domain/product"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type CommentStore interface {
	Create(ctx context.Context, c comment.Comment) (comment.Comment, error)
	ListByProduct(ctx context.Context, productID string) ([]comment.Comment, error)
	GetByID(ctx context.Context, id string) (comment.Comment, error)
	UpdateText(ctx context.Context, id, text string) (comment.Comment, error)
	Delete(ctx context.Context, id string) error
}

type ProductLookup interface {
	GetByID(ctx context.Context, id string) (product.Product, error)
}

type AuthorLookup interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type CommentsHandler struct {
	comments CommentStore
	products ProductLookup
	users    AuthorLookup
}

func NewCommentsHandler(comments CommentStore, products ProductLookup, users AuthorLookup) *CommentsHandler {
	return &CommentsHandler{comments: comments, products: products, users: users}
}

func (h *CommentsHandler) ListForProduct(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	productID := ctx.Param("productId")
	if _, err := h.products.GetByID(cctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		respondFailure(ctx, "comments.list", err, "Could not list comments")
		return
	}

	items, err := h.comments.ListByProduct(cctx, productID)
	if err != nil {
		respondFailure(ctx, "comments.list", err, "Could not list comments")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (h *CommentsHandler) Create(ctx *gin.Context) {
	var req comment.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		RespondBadRequest(ctx, "Comment text is required", nil)
		return
	}

	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Sign in to comment")
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	author, err := h.users.FindByID(cctx, id.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondUnauthorized(ctx, "unauthorized", "Account no longer exists")
			return
		}
		respondFailure(ctx, "comments.create", err, "Could not post comment")
		return
	}

	c, err := h.comments.Create(cctx, comment.New(ctx.Param("productId"), author.ID, author.Name, text))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		respondFailure(ctx, "comments.create", err, "Could not post comment")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"comment": c})
}

func (h *CommentsHandler) Update(ctx *gin.Context) {
	var req comment.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		RespondBadRequest(ctx, "Comment text is required", nil)
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	commentID := ctx.Param("commentId")
	if !h.authorize(cctx, ctx, commentID) {
		return
	}

	c, err := h.comments.UpdateText(cctx, commentID, text)
	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		respondFailure(ctx, "comments.update", err, "Could not update comment")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"comment": c})
}

func (h *CommentsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	commentID := ctx.Param("commentId")
	if !h.authorize(cctx, ctx, commentID) {
		return
	}

	if err := h.comments.Delete(cctx, commentID); err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return
		}
		respondFailure(ctx, "comments.delete", err, "Could not delete comment")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "message": "Comment deleted"})
}

// authorize lets the author or an admin through. Admin status is read from
// the store, never from the token claim.
func (h *CommentsHandler) authorize(cctx context.Context, ctx *gin.Context, commentID string) bool {
	id, ok := actorctx.IdentityFrom(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Sign in required")
		return false
	}

	c, err := h.comments.GetByID(cctx, commentID)
	if err != nil {
		if errors.Is(err, comment.ErrNotFound) {
			RespondNotFound(ctx, "Comment not found")
			return false
		}
		respondFailure(ctx, "comments.authorize", err, "Could not load comment")
		return false
	}

	if c.UserID == id.UserID {
		return true
	}

	u, err := h.users.FindByID(cctx, id.UserID)
	if err == nil && u.IsAdmin() {
		return true
	}

	RespondForbidden(ctx, "Only the author or an admin can change this comment")
	return false
}
