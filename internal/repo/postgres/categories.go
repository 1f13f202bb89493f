package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/shopapi/internal/domain/category"
	"github.com/geocoder89/shopapi/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	categoriesSlugConstraint = "categories_slug_uniq"
	categoriesNameConstraint = "categories_name_lower_uniq"
)

type CategoriesRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewCategoriesRepo(pool *pgxpool.Pool, obs DBObserver) *CategoriesRepo {
	return &CategoriesRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanCategory(row pgx.Row) (category.Category, error) {
	var c category.Category

	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return category.Category{}, category.ErrNotFound
		}
		return category.Category{}, err
	}
	return c, nil
}

func mapCategoryErr(err error) error {
	if isUniqueViolation(err, categoriesSlugConstraint) || isUniqueViolation(err, categoriesNameConstraint) {
		return category.ErrDuplicate
	}
	return err
}

func (r *CategoriesRepo) Create(ctx context.Context, req category.CreateRequest) (category.Category, error) {
	c := category.NewFromCreateRequest(req)

	err := r.obs.ObserveDB("categories.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO categories (id, name, slug, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.Name, c.Slug, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return category.Category{}, mapCategoryErr(err)
	}

	return c, nil
}

func (r *CategoriesRepo) Update(ctx context.Context, id string, req category.UpdateRequest) (category.Category, error) {
	if !validID(id) {
		return category.Category{}, category.ErrNotFound
	}

	name := category.NewFromCreateRequest(category.CreateRequest(req)).Name

	var c category.Category
	err := r.obs.ObserveDB("categories.update", func() error {
		var err error
		c, err = scanCategory(r.pool.QueryRow(ctx,
			`UPDATE categories
			SET name = $2, slug = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING id, name, slug, created_at, updated_at`,
			id, name, utils.Slugify(name),
		))
		return err
	})
	if err != nil {
		return category.Category{}, mapCategoryErr(err)
	}

	return c, nil
}

func (r *CategoriesRepo) List(ctx context.Context) ([]category.Category, error) {
	out := make([]category.Category, 0)

	err := r.obs.ObserveDB("categories.list", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name, slug, created_at, updated_at FROM categories ORDER BY lower(name) ASC, id ASC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanCategory(rows)
			if err != nil {
				return err
			}
			out = append(out, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *CategoriesRepo) GetBySlug(ctx context.Context, slug string) (category.Category, error) {
	var c category.Category

	err := r.obs.ObserveDB("categories.get_by_slug", func() error {
		var err error
		c, err = scanCategory(r.pool.QueryRow(ctx,
			`SELECT id, name, slug, created_at, updated_at FROM categories WHERE slug = $1`, slug))
		return err
	})

	return c, err
}

func (r *CategoriesRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return category.ErrNotFound
	}

	err := r.obs.ObserveDB("categories.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return category.ErrNotFound
		}
		return nil
	})
	if isForeignKeyViolation(err) {
		return category.ErrInUse
	}
	return err
}
