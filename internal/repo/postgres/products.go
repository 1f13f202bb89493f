package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/shopapi/internal/domain/product"
	"github.com/geocoder89/shopapi/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productsSlugConstraint = "products_slug_uniq"

const productColumns = `id, name, slug, description, price, category_id, quantity, shipping, created_at, updated_at`

type ProductsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewProductsRepo(pool *pgxpool.Pool, obs DBObserver) *ProductsRepo {
	return &ProductsRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Price,
		&p.CategoryID,
		&p.Quantity,
		&p.Shipping,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

func mapProductErr(err error) error {
	switch {
	case isUniqueViolation(err, productsSlugConstraint):
		return product.ErrDuplicate
	case isForeignKeyViolation(err):
		return product.ErrUnknownCategory
	}
	return err
}

func (r *ProductsRepo) Create(ctx context.Context, req product.CreateRequest) (product.Product, error) {
	p := product.NewFromCreateRequest(req)

	if !validID(p.CategoryID) {
		return product.Product{}, product.ErrUnknownCategory
	}

	err := r.obs.ObserveDB("products.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			p.ID, p.Name, p.Slug, p.Description, p.Price, p.CategoryID, p.Quantity, p.Shipping, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return product.Product{}, mapProductErr(err)
	}

	return p, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id string, req product.UpdateRequest) (product.Product, error) {
	if !validID(id) {
		return product.Product{}, product.ErrNotFound
	}
	if !validID(req.CategoryID) {
		return product.Product{}, product.ErrUnknownCategory
	}

	next := product.NewFromCreateRequest(product.CreateRequest(req))

	var p product.Product
	err := r.obs.ObserveDB("products.update", func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx,
			`UPDATE products
			SET name = $2,
				slug = $3,
				description = $4,
				price = $5,
				category_id = $6,
				quantity = $7,
				shipping = $8,
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+productColumns,
			id, next.Name, next.Slug, next.Description, next.Price, next.CategoryID, next.Quantity, next.Shipping,
		))
		return err
	})
	if err != nil {
		return product.Product{}, mapProductErr(err)
	}

	return p, nil
}

func (r *ProductsRepo) GetBySlug(ctx context.Context, slug string) (product.Product, error) {
	var p product.Product

	err := r.obs.ObserveDB("products.get_by_slug", func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx,
			`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
		return err
	})

	return p, err
}

func (r *ProductsRepo) GetByID(ctx context.Context, id string) (product.Product, error) {
	if !validID(id) {
		return product.Product{}, product.ErrNotFound
	}

	var p product.Product

	err := r.obs.ObserveDB("products.get_by_id", func() error {
		var err error
		p, err = scanProduct(r.pool.QueryRow(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
		return err
	})

	return p, err
}

// ListPage returns up to limit products newest first, strictly after the
// cursor when one is given.
func (r *ProductsRepo) ListPage(ctx context.Context, limit int, after *utils.ProductCursor) ([]product.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	args := []any{}

	if after != nil {
		// row-value comparison keeps the keyset tie-break on id
		query += ` WHERE (created_at, id) < ($1, $2)`
		args = append(args, after.CreatedAt, after.ID)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	return r.query(ctx, "products.list_page", query, args...)
}

func (r *ProductsRepo) Filter(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	var conds []string
	var args []any

	argsPosition := 1

	if len(f.CategoryIDs) > 0 {
		conds = append(conds, fmt.Sprintf("category_id = ANY($%d::uuid[])", argsPosition))
		args = append(args, f.CategoryIDs)
		argsPosition++
	}

	if f.MinPrice != nil {
		conds = append(conds, fmt.Sprintf("price >= $%d", argsPosition))
		args = append(args, *f.MinPrice)
		argsPosition++
	}

	if f.MaxPrice != nil {
		conds = append(conds, fmt.Sprintf("price <= $%d", argsPosition))
		args = append(args, *f.MaxPrice)
		argsPosition++
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", argsPosition)
	args = append(args, f.Limit)

	return r.query(ctx, "products.filter", query, args...)
}

func (r *ProductsRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return product.ErrNotFound
	}

	return r.obs.ObserveDB("products.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return product.ErrNotFound
		}
		return nil
	})
}

func (r *ProductsRepo) query(ctx context.Context, op, query string, args ...any) ([]product.Product, error) {
	out := make([]product.Product, 0)

	err := r.obs.ObserveDB(op, func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}
