package db

import (
	"context"
	"errors"

	"github.com/geocoder89/shopapi/internal/config"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/geocoder89/shopapi/internal/security"
)

type AdminStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
}

// EnsureAdminUser creates the configured admin. It never touches an existing
// account with that email, whatever its role: promoting one is left to
// `shopctl set-role`. It is a no-op without a complete ADMIN_* seed.
func EnsureAdminUser(ctx context.Context, users AdminStore, hasher security.Hasher, cfg config.Config) (bool, error) {
	if !cfg.HasAdminSeed() {
		return false, nil
	}

	_, err := users.FindByEmail(ctx, cfg.AdminEmail)

	if err == nil {
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	passwordHash, err := hasher.Hash(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	answerHash, err := hasher.Hash(cfg.AdminSecurityAnswer)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, user.User{
		Name:               cfg.AdminName,
		Email:              user.NormalizeEmail(cfg.AdminEmail),
		PasswordHash:       passwordHash,
		SecurityAnswerHash: answerHash,
		Role:               user.RoleAdmin,
	})

	// lost a race with another instance seeding the same admin
	if errors.Is(err, user.ErrDuplicateEmail) {
		return false, nil
	}

	return err == nil, err
}
