package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/shopapi/internal/domain/comment"
	"github.com/geocoder89/shopapi/internal/domain/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const commentColumns = `id, product_id, user_id, user_name, text, created_at, updated_at`

type CommentsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewCommentsRepo(pool *pgxpool.Pool, obs DBObserver) *CommentsRepo {
	return &CommentsRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanComment(row pgx.Row) (comment.Comment, error) {
	var c comment.Comment

	err := row.Scan(&c.ID, &c.ProductID, &c.UserID, &c.User, &c.Text, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return comment.Comment{}, comment.ErrNotFound
		}
		return comment.Comment{}, err
	}
	return c, nil
}

// Create returns product.ErrNotFound when the product row is gone.
func (r *CommentsRepo) Create(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	if !validID(c.ProductID) {
		return comment.Comment{}, product.ErrNotFound
	}

	err := r.obs.ObserveDB("comments.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO comments (`+commentColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.ProductID, c.UserID, c.User, c.Text, c.CreatedAt, c.UpdatedAt,
		)
		return err
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return comment.Comment{}, product.ErrNotFound
		}
		return comment.Comment{}, err
	}

	return c, nil
}

func (r *CommentsRepo) ListByProduct(ctx context.Context, productID string) ([]comment.Comment, error) {
	out := make([]comment.Comment, 0)
	if !validID(productID) {
		return out, nil
	}

	err := r.obs.ObserveDB("comments.list_by_product", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE product_id = $1 ORDER BY created_at ASC, id ASC`,
			productID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanComment(rows)
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

func (r *CommentsRepo) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	if !validID(id) {
		return comment.Comment{}, comment.ErrNotFound
	}

	var c comment.Comment
	err := r.obs.ObserveDB("comments.get_by_id", func() error {
		var err error
		c, err = scanComment(r.pool.QueryRow(ctx,
			`SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
		return err
	})

	return c, err
}

func (r *CommentsRepo) UpdateText(ctx context.Context, id, text string) (comment.Comment, error) {
	if !validID(id) {
		return comment.Comment{}, comment.ErrNotFound
	}

	var c comment.Comment
	err := r.obs.ObserveDB("comments.update", func() error {
		var err error
		c, err = scanComment(r.pool.QueryRow(ctx,
			`UPDATE comments SET text = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+commentColumns,
			id, text,
		))
		return err
	})

	return c, err
}

func (r *CommentsRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return comment.ErrNotFound
	}

	return r.obs.ObserveDB("comments.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return comment.ErrNotFound
		}
		return nil
	})
}
