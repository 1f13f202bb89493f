package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/shopapi/internal/cache"
	"github.com/geocoder89/shopapi/internal/domain/product"
	"github.com/geocoder89/shopapi/internal/utils"
	"github.com/gin-gonic/gin"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type ProductStore interface {
	Create(ctx context.Context, req product.CreateRequest) (product.Product, error)
	Update(ctx context.Context, id string, req product.UpdateRequest) (product.Product, error)
	GetBySlug(ctx context.Context, slug string) (product.Product, error)
	ListPage(ctx context.Context, limit int, after *utils.ProductCursor) ([]product.Product, error)
	Filter(ctx context.Context, f product.ListFilter) ([]product.Product, error)
	Delete(ctx context.Context, id string) error
}

type ProductsHandler struct {
	repo  ProductStore
	cache cache.Store
}

func NewProductsHandler(repo ProductStore, c cache.Store) *ProductsHandler {
	return &ProductsHandler{repo: repo, cache: c}
}

type productPage struct {
	Items      []product.Product `json:"items"`
	Count      int               `json:"count"`
	NextCursor *string           `json:"nextCursor"`
	HasMore    bool              `json:"hasMore"`
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	var req product.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if utils.Slugify(req.Name) == "" {
		RespondBadRequest(ctx, "Product name must contain letters or digits", nil)
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	p, err := h.repo.Create(cctx, req)
	if err != nil {
		h.respondWriteError(ctx, "products.create", err)
		return
	}

	invalidateCachePrefix(cctx, h.cache, utils.ProductsCachePrefix)

	ctx.JSON(http.StatusCreated, gin.H{"product": p})
}

func (h *ProductsHandler) Update(ctx *gin.Context) {
	var req product.UpdateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if utils.Slugify(req.Name) == "" {
		RespondBadRequest(ctx, "Product name must contain letters or digits", nil)
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	p, err := h.repo.Update(cctx, ctx.Param("pid"), req)
	if err != nil {
		h.respondWriteError(ctx, "products.update", err)
		return
	}

	invalidateCachePrefix(cctx, h.cache, utils.ProductsCachePrefix)

	ctx.JSON(http.StatusOK, gin.H{"product": p})
}

func (h *ProductsHandler) respondWriteError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		RespondNotFound(ctx, "Product not found")
	case errors.Is(err, product.ErrUnknownCategory):
		RespondBadRequest(ctx, "Category does not exist", gin.H{
			"fields": []FieldError{{Field: "categoryId", Rule: "exists", Message: "must reference an existing category"}},
		})
	case errors.Is(err, product.ErrDuplicate):
		RespondConflict(ctx, "product_exists", "A product with this name already exists")
	default:
		respondFailure(ctx, op, err, "Could not save product")
	}
}

func (h *ProductsHandler) List(ctx *gin.Context) {
	limit := defaultPageLimit
	if raw := strings.TrimSpace(ctx.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageLimit {
			RespondBadRequest(ctx, "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}

	var after *utils.ProductCursor
	rawCursor := strings.TrimSpace(ctx.Query("cursor"))
	if rawCursor != "" {
		c, err := utils.DecodeProductCursor(rawCursor)
		if err != nil {
			RespondBadRequest(ctx, "Invalid cursor", nil)
			return
		}
		after = &c
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	key := utils.BuildProductsPageCacheKey(limit, rawCursor)
	if raw, ok := readCache(cctx, h.cache, key); ok {
		ctx.Header("X-Cache", "HIT")
		RespondJSONWithETag(ctx, http.StatusOK, raw)
		return
	}

	// one extra row tells us whether another page exists
	items, err := h.repo.ListPage(cctx, limit+1, after)
	if err != nil {
		respondFailure(ctx, "products.list", err, "Could not list products")
		return
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var next *string
	if hasMore {
		last := items[len(items)-1]
		enc, err := utils.EncodeProductCursor(last.CreatedAt, last.ID)
		if err != nil {
			respondFailure(ctx, "products.list", err, "Could not list products")
			return
		}
		next = &enc
	}

	resp := productPage{Items: items, Count: len(items), NextCursor: next, HasMore: hasMore}
	writeCache(cctx, h.cache, key, resp)

	ctx.Header("X-Cache", "MISS")
	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

func (h *ProductsHandler) GetBySlug(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 2*time.Second)
	defer cancel()

	p, err := h.repo.GetBySlug(cctx, ctx.Param("slug"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		respondFailure(ctx, "products.get", err, "Could not fetch product")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"product": p})
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, ctx.Param("pid")); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			RespondNotFound(ctx, "Product not found")
			return
		}
		respondFailure(ctx, "products.delete", err, "Could not delete product")
		return
	}

	invalidateCachePrefix(cctx, h.cache, utils.ProductsCachePrefix)

	ctx.JSON(http.StatusOK, gin.H{"ok": true, "message": "Product deleted"})
}

func (h *ProductsHandler) Filter(ctx *gin.Context) {
	var req product.FilterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		RespondBadRequest(ctx, "minPrice must not exceed maxPrice", nil)
		return
	}

	cctx, cancel := requestContext(ctx, 3*time.Second)
	defer cancel()

	items, err := h.repo.Filter(cctx, product.ListFilter{
		CategoryIDs: req.Categories,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
		Limit:       maxPageLimit,
	})
	if err != nil {
		respondFailure(ctx, "products.filter", err, "Could not filter products")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}
