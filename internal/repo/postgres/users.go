package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersEmailConstraint = "users_email_lower_uniq"

const userColumns = `id, name, email, phone, address, password_hash, security_answer_hash, role, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	return &UsersRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.Address,
		&u.PasswordHash,
		&u.SecurityAnswerHash,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	u.Role = user.Role(role)
	return u, nil
}

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.find_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			FROM users
			WHERE lower(email) = lower($1)`,
			user.NormalizeEmail(email),
		))
		return err
	})

	return u, err
}

func (r *UsersRepo) FindByID(ctx context.Context, id string) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}

	var u user.User

	err := r.obs.ObserveDB("users.find_by_id", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
		))
		return err
	})

	return u, err
}

// Create relies on the unique index over lower(email); concurrent inserts of
// the same address resolve in the database, not here.
func (r *UsersRepo) Create(ctx context.Context, in user.User) (user.User, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.Role == "" {
		in.Role = user.RoleCustomer
	}

	var u user.User

	err := r.obs.ObserveDB("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, name, email, phone, address, password_hash, security_answer_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			RETURNING `+userColumns,
			in.ID, in.Name, user.NormalizeEmail(in.Email), in.Phone, in.Address,
			in.PasswordHash, in.SecurityAnswerHash, string(in.Role),
		))
		return err
	})

	if err != nil {
		if isUniqueViolation(err, usersEmailConstraint) {
			return user.User{}, user.ErrDuplicateEmail
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, patch user.Patch) (user.User, error) {
	if !validID(id) {
		return user.User{}, user.ErrNotFound
	}

	var u user.User

	err := r.obs.ObserveDB("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET name = COALESCE($2, name),
				phone = COALESCE($3, phone),
				address = COALESCE($4, address),
				password_hash = COALESCE($5, password_hash),
				security_answer_hash = COALESCE($6, security_answer_hash),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, patch.Name, patch.Phone, patch.Address, patch.PasswordHash, patch.SecurityAnswerHash,
		))
		return err
	})

	return u, err
}

// SetRole is the out-of-band role change used by shopctl. No HTTP route
// reaches it.
func (r *UsersRepo) SetRole(ctx context.Context, email string, role user.Role) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.set_role", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET role = $2, updated_at = NOW()
			WHERE lower(email) = lower($1)
			RETURNING `+userColumns,
			user.NormalizeEmail(email), string(role),
		))
		return err
	})

	return u, err
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
