package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/geocoder89/shopapi/internal/cache"
	"github.com/geocoder89/shopapi/internal/domain/category"
	"github.com/geocoder89/shopapi/internal/utils"
	"github.com/gin-gonic/gin"
)

type CategoryStore interface {
	Create(ctx context.Context, req category.CreateRequest) (category.Category, error)
	Update(ctx context.Context, id string, req category.UpdateRequest) (category.Category, error)
	List(ctx context.Context) ([]category.Category, error)
	GetBySlug(ctx context.Context, slug string) (category.Category, error)
	Delete(ctx context.Context, id string) error
}

type CategoriesHandler struct {
	repo  CategoryStore
	cache cache.Store
}

// NewCategoriesHandler builds the handler; c may be nil to disable caching.
func NewCategoriesHandler(repo CategoryStore, c cache.Store) *CategoriesHandler {
	return &CategoriesHandler{repo: repo, cache: c}
}

type categoryList struct {
	Items []category.Category `json:"items"`
	Count int                 `json:"count"`
}

func (h *CategoriesHandler) Create(ctx *gin.Context) {
	var req category.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if utils.Slugify(req.Name) == "" {
		RespondBadRequest(ctx, "Category name must contain letters or digits", nil)
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, req)
	if err != nil {
		if errors.Is(err, category.ErrDuplicate) {
			RespondConflict(ctx, "category_exists", "Category already exists")
			return
		}
		respondFailure(ctx, "categories.create", err, "Could not create category")
		return
	}

	invalidateCache(cctx, h.cache, utils.CategoryListCacheKey)

	ctx.JSON(http.StatusCreated, gin.H{"category": c})
}

func (h *CategoriesHandler) Update(ctx *gin.Context) {
	var req category.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if utils.Slugify(req.Name) == "" {
		RespondBadRequest(ctx, "Category name must contain letters or digits", nil)
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	c, err := h.repo.Update(cctx, ctx.Param("id"), req)
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			RespondNotFound(ctx, "Category not found")
		case errors.Is(err, category.ErrDuplicate):
			RespondConflict(ctx, "category_exists", "Category already exists")
		default:
			respondFailure(ctx, "categories.update", err, "Could not update category")
		}
		return
	}

	invalidateCache(cctx, h.cache, utils.CategoryListCacheKey)

	ctx.JSON(http.StatusOK, gin.H{"category": c})
}

func (h *CategoriesHandler) List(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	if raw, ok := readCache(cctx, h.cache, utils.CategoryListCacheKey); ok {
		ctx.Header("X-Cache", "HIT")
		RespondJSONWithETag(ctx, http.StatusOK, raw)
		return
	}

	items, err := h.repo.List(cctx)
	if err != nil {
		respondFailure(ctx, "categories.list", err, "Could not list categories")
		return
	}

	resp := categoryList{Items: items, Count: len(items)}
	writeCache(cctx, h.cache, utils.CategoryListCacheKey, resp)

	ctx.Header("X-Cache", "MISS")
	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

func (h *CategoriesHandler) GetBySlug(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	c, err := h.repo.GetBySlug(cctx, ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, category.ErrNotFound) {
			RespondNotFound(ctx, "Category not found")
			return
		}
		respondFailure(ctx, "categories.get", err, "Could not fetch category")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"category": c})
}

func (h *CategoriesHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, ctx.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, category.ErrNotFound):
			RespondNotFound(ctx, "Category not found")
		case errors.Is(err, category.ErrInUse):
			RespondConflict(ctx, "category_in_use", "Category still has products")
		default:
			respondFailure(ctx, "categories.delete", err, "Could not delete category")
		}
		return
	}

	invalidateCache(cctx, h.cache, utils.CategoryListCacheKey)

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "message": "Category deleted"})
}
