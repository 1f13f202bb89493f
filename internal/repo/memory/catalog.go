package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/shopapi/internal/domain/category"
	"github.com/geocoder89/shopapi/internal/domain/comment"
	"github.com/geocoder89/shopapi/internal/domain/product"
	"github.com/geocoder89/shopapi/internal/utils"
)

// catalogState is shared by the category, product and comment repos so that
// references between them are checked under one lock.
type catalogState struct {
	mu         sync.RWMutex
	categories map[string]category.Category
	products   map[string]product.Product
	comments   map[string]comment.Comment
}

type Catalog struct {
	Categories *CategoriesRepo
	Products   *ProductsRepo
	Comments   *CommentsRepo
}

func NewCatalog() *Catalog {
	st := &catalogState{
		categories: make(map[string]category.Category),
		products:   make(map[string]product.Product),
		comments:   make(map[string]comment.Comment),
	}

	return &Catalog{
		Categories: &CategoriesRepo{st: st},
		Products:   &ProductsRepo{st: st},
		Comments:   &CommentsRepo{st: st},
	}
}

type CategoriesRepo struct{ st *catalogState }

func (s *catalogState) categoryTaken(name, slug, exceptID string) bool {
	for id, c := range s.categories {
		if id == exceptID {
			continue
		}
		if c.Slug == slug || strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

func (r *CategoriesRepo) Create(ctx context.Context, req category.CreateRequest) (category.Category, error) {
	c := category.NewFromCreateRequest(req)

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if r.st.categoryTaken(c.Name, c.Slug, "") {
		return category.Category{}, category.ErrDuplicate
	}
	r.st.categories[c.ID] = c

	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, req category.UpdateRequest) (category.Category, error) {
	next := category.NewFromCreateRequest(category.CreateRequest(req))

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	c, ok := r.st.categories[id]
	if !ok {
		return category.Category{}, category.ErrNotFound
	}
	if r.st.categoryTaken(next.Name, next.Slug, id) {
		return category.Category{}, category.ErrDuplicate
	}

	c.Name = next.Name
	c.Slug = next.Slug
	c.UpdatedAt = time.Now().UTC()
	r.st.categories[id] = c

	return c, nil
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	r.st.mu.RLock()
	out := make([]category.Category, 0, len(r.st.categories))
	for _, c := range r.st.categories {
		out = append(out, c)
	}
	r.st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a == b {
			return out[i].ID < out[j].ID
		}
		return a < b
	})

	return out, nil
}

func (r *CategoriesRepo) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	for _, c := range r.st.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return category.Category{}, category.ErrNotFound
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.categories[id]; !ok {
		return category.ErrNotFound
	}
	for _, p := range r.st.products {
		if p.CategoryID == id {
			return category.ErrInUse
		}
	}

	delete(r.st.categories, id)
	return nil
}

func (r *CategoriesRepo) Ping(ctx context.Context) error {
	return nil
}

type ProductsRepo struct{ st *catalogState }

func (s *catalogState) productSlugTaken(slug, exceptID string) bool {
	for id, p := range s.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

func (r *ProductsRepo) Create(ctx context.Context, req product.CreateRequest) (product.Product, error) {
	p := product.NewFromCreateRequest(req)

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.categories[p.CategoryID]; !ok {
		return product.Product{}, product.ErrUnknownCategory
	}
	if r.st.productSlugTaken(p.Slug, "") {
		return product.Product{}, product.ErrDuplicate
	}
	r.st.products[p.ID] = p

	return p, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, req product.UpdateRequest) (product.Product, error) {
	next := product.NewFromCreateRequest(product.CreateRequest(req))

	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	p, ok := r.st.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	if _, ok := r.st.categories[next.CategoryID]; !ok {
		return product.Product{}, product.ErrUnknownCategory
	}
	if r.st.productSlugTaken(next.Slug, id) {
		return product.Product{}, product.ErrDuplicate
	}

	next.ID = p.ID
	next.CreatedAt = p.CreatedAt
	r.st.products[id] = next

	return next, nil
}

func (r *ProductsRepo) GetBySlug(ctx context.Context, slug string) (product.Product, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	for _, p := range r.st.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return product.Product{}, product.ErrNotFound
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	p, ok := r.st.products[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

// newestFirst returns every product matching keep, ordered by created_at
// then id, both descending.
func (r *ProductsRepo) newestFirst(keep func(product.Product) bool) []product.Product {
	r.st.mu.RLock()
	out := make([]product.Product, 0, len(r.st.products))
	for _, p := range r.st.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	r.st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *ProductsRepo) ListPage(ctx context.Context, limit int, after *utils.ProductCursor) ([]product.Product, error) {
	out := r.newestFirst(func(p product.Product) bool {
		return after == nil || after.Before(p.CreatedAt, p.ID)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *ProductsRepo) Filter(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	out := r.newestFirst(f.Matches)

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(r.st.products, id)

	// comments go with their product
	for cid, c := range r.st.comments {
		if c.ProductID == id {
			delete(r.st.comments, cid)
		}
	}
	return nil
}

type CommentsRepo struct{ st *catalogState }

func (r *CommentsRepo) Create(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.products[c.ProductID]; !ok {
		return comment.Comment{}, product.ErrNotFound
	}
	r.st.comments[c.ID] = c

	return c, nil
}

func (r *CommentsRepo) ListByProduct(ctx context.Context, productID string) ([]comment.Comment, error) {
	r.st.mu.RLock()
	out := make([]comment.Comment, 0)
	for _, c := range r.st.comments {
		if c.ProductID == productID {
			out = append(out, c)
		}
	}
	r.st.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *CommentsRepo) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	r.st.mu.RLock()
	defer r.st.mu.RUnlock()

	c, ok := r.st.comments[id]
	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}
	return c, nil
}

func (r *CommentsRepo) UpdateText(ctx context.Context, id, text string) (comment.Comment, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	c, ok := r.st.comments[id]
	if !ok {
		return comment.Comment{}, comment.ErrNotFound
	}
	c.Text = text
	c.UpdatedAt = time.Now().UTC()
	r.st.comments[id] = c

	return c, nil
}

func (r *CommentsRepo) Delete(ctx context.Context, id string) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.comments[id]; !ok {
		return comment.ErrNotFound
	}
	delete(r.st.comments, id)
	return nil
}
