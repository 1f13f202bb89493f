package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/shopapi/internal/domain/category"
	"github.com/geocoder89/shopapi/internal/domain/comment"
	"github.com/geocoder89/shopapi/internal/domain/product"
	"github.com/geocoder89/shopapi/internal/utils"
)

func seedCategory(t *testing.T, c *Catalog, name string) category.Category {
	t.Helper()
	cat, err := c.Categories.Create(context.Background(), category.CreateRequest{Name: name})
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	return cat
}

func TestCategories_UniqueNameAndSlug(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()

	shoes := seedCategory(t, c, "Running Shoes")
	if shoes.Slug != "running-shoes" {
		t.Fatalf("Slug = %q", shoes.Slug)
	}

	if _, err := c.Categories.Create(ctx, category.CreateRequest{Name: "running shoes"}); !errors.Is(err, category.ErrDuplicate) {
		t.Fatalf("duplicate name error = %v, want ErrDuplicate", err)
	}

	bags := seedCategory(t, c, "Bags")
	if _, err := c.Categories.Update(ctx, bags.ID, category.UpdateRequest{Name: "Running-Shoes"}); !errors.Is(err, category.ErrDuplicate) {
		t.Fatalf("update onto taken slug error = %v, want ErrDuplicate", err)
	}

	renamed, err := c.Categories.Update(ctx, bags.ID, category.UpdateRequest{Name: "Travel Bags"})
	if err != nil || renamed.Slug != "travel-bags" {
		t.Fatalf("Update() = %+v, %v", renamed, err)
	}

	if _, err := c.Categories.Update(ctx, "missing", category.UpdateRequest{Name: "X1"}); !errors.Is(err, category.ErrNotFound) {
		t.Fatalf("Update(missing) error = %v", err)
	}
}

func TestCategories_DeleteInUse(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()

	cat := seedCategory(t, c, "Bags")
	p, err := c.Products.Create(ctx, product.CreateRequest{Name: "Tote", Description: "d", Price: 10, CategoryID: cat.ID})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := c.Categories.Delete(ctx, cat.ID); !errors.Is(err, category.ErrInUse) {
		t.Fatalf("Delete(in use) error = %v, want ErrInUse", err)
	}

	_ = c.Products.Delete(ctx, p.ID)
	if err := c.Categories.Delete(ctx, cat.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := c.Categories.Delete(ctx, cat.ID); !errors.Is(err, category.ErrNotFound) {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestProducts_CreateChecksCategoryAndSlug(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()

	if _, err := c.Products.Create(ctx, product.CreateRequest{Name: "Tote", CategoryID: "nope"}); !errors.Is(err, product.ErrUnknownCategory) {
		t.Fatalf("error = %v, want ErrUnknownCategory", err)
	}

	cat := seedCategory(t, c, "Bags")
	if _, err := c.Products.Create(ctx, product.CreateRequest{Name: "Tote", CategoryID: cat.ID}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := c.Products.Create(ctx, product.CreateRequest{Name: "tote", CategoryID: cat.ID}); !errors.Is(err, product.ErrDuplicate) {
		t.Fatalf("error = %v, want ErrDuplicate", err)
	}
}

func TestProducts_ListPageNewestFirst(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()
	cat := seedCategory(t, c, "Bags")

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"a1", "b2", "c3", "d4", "e5"}
	for i, n := range names {
		p, err := c.Products.Create(ctx, product.CreateRequest{Name: n, CategoryID: cat.ID})
		if err != nil {
			t.Fatalf("create %s: %v", n, err)
		}
		// pin timestamps so order is deterministic
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		c.Products.st.products[p.ID] = p
	}

	first, _ := c.Products.ListPage(ctx, 2, nil)
	if len(first) != 2 || first[0].Name != "e5" || first[1].Name != "d4" {
		t.Fatalf("first page = %v", productNames(first))
	}

	last := first[len(first)-1]
	cur := utils.ProductCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	second, _ := c.Products.ListPage(ctx, 10, &cur)
	if got := productNames(second); len(got) != 3 || got[0] != "c3" || got[2] != "a1" {
		t.Fatalf("second page = %v", got)
	}
}

func TestProducts_Filter(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()
	bags := seedCategory(t, c, "Bags")
	shoes := seedCategory(t, c, "Shoes")

	_, _ = c.Products.Create(ctx, product.CreateRequest{Name: "Tote", Price: 20, CategoryID: bags.ID})
	_, _ = c.Products.Create(ctx, product.CreateRequest{Name: "Duffel", Price: 80, CategoryID: bags.ID})
	_, _ = c.Products.Create(ctx, product.CreateRequest{Name: "Runner", Price: 60, CategoryID: shoes.ID})

	lo, hi := 10.0, 70.0
	got, err := c.Products.Filter(ctx, product.ListFilter{CategoryIDs: []string{bags.ID}, MinPrice: &lo, MaxPrice: &hi})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if len(got) != 1 || got[0].Name != "Tote" {
		t.Fatalf("Filter() = %v", productNames(got))
	}

	all, _ := c.Products.Filter(ctx, product.ListFilter{})
	if len(all) != 3 {
		t.Fatalf("empty filter returned %d products", len(all))
	}
}

func TestComments_LifecycleAndCascade(t *testing.T) {
	c := NewCatalog()
	ctx := context.Background()
	cat := seedCategory(t, c, "Bags")
	p, _ := c.Products.Create(ctx, product.CreateRequest{Name: "Tote", CategoryID: cat.ID})

	if _, err := c.Comments.Create(ctx, comment.New("missing", "u1", "Ann", "hi")); !errors.Is(err, product.ErrNotFound) {
		t.Fatalf("comment on missing product error = %v", err)
	}

	cm, err := c.Comments.Create(ctx, comment.New(p.ID, "u1", "Ann", "first"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := c.Comments.UpdateText(ctx, cm.ID, "edited")
	if err != nil || updated.Text != "edited" {
		t.Fatalf("UpdateText() = %+v, %v", updated, err)
	}

	list, _ := c.Comments.ListByProduct(ctx, p.ID)
	if len(list) != 1 {
		t.Fatalf("ListByProduct() len = %d", len(list))
	}

	_ = c.Products.Delete(ctx, p.ID)
	if _, err := c.Comments.GetByID(ctx, cm.ID); !errors.Is(err, comment.ErrNotFound) {
		t.Fatalf("comment survived product delete: %v", err)
	}
}

func productNames(ps []product.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}
