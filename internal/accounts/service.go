// Package accounts runs the registration, login and password-recovery flows
// on top of the identity store, the credential hasher and the token service.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/geocoder89/shopapi/internal/auth"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/geocoder89/shopapi/internal/security"
	"github.com/go-playground/validator/v10"
)

// bcrypt ignores input past 72 bytes, so longer secrets are rejected.
const maxSecretBytes = 72

type UserStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, id string, patch user.Patch) (user.User, error)
}

type TokenIssuer interface {
	Issue(claims auth.IssueClaims, ttl time.Duration) (string, error)
}

type Config struct {
	TokenTTL time.Duration
}

type Service struct {
	cfg    Config
	users  UserStore
	hasher security.Hasher
	tokens TokenIssuer
	log    *slog.Logger

	validate *validator.Validate
	// verified against when an email is unknown, so forgot-password costs
	// the same whichever check fails
	dummyHash string
}

func NewService(cfg Config, users UserStore, hasher security.Hasher, tokens TokenIssuer, log *slog.Logger) (*Service, error) {
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if log == nil {
		log = slog.Default()
	}

	dummy, err := hasher.Hash("dummy-security-answer")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{
		cfg:       cfg,
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		log:       log,
		validate:  validator.New(),
		dummyHash: dummy,
	}, nil
}

type RegisterInput struct {
	Name           string
	Email          string
	Password       string
	Phone          string
	Address        string
	SecurityAnswer string
}

type AuthResult struct {
	User  user.View `json:"user"`
	Token string    `json:"token"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = user.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Address = strings.TrimSpace(in.Address)

	if err := s.validateRegister(in); err != nil {
		return AuthResult{}, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	answerHash, err := s.hasher.Hash(in.SecurityAnswer)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash security answer: %w", err)
	}

	created, err := s.users.Create(ctx, user.User{
		Name:               in.Name,
		Email:              in.Email,
		Phone:              in.Phone,
		Address:            in.Address,
		PasswordHash:       passwordHash,
		SecurityAnswerHash: answerHash,
		Role:               user.RoleCustomer,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return AuthResult{}, user.ErrDuplicateEmail
		}
		return AuthResult{}, storeErr(err)
	}

	token, err := s.issue(created)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID)

	return AuthResult{User: created.View(), Token: token}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = user.NormalizeEmail(email)

	if fields := missing(map[string]string{"email": email, "password": password}); len(fields) > 0 {
		return AuthResult{}, &ValidationError{Fields: fields}
	}

	found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, user.ErrNotFound
		}
		return AuthResult{}, storeErr(err)
	}

	// no stored password is longer, and bcrypt would match on the prefix
	if len(password) > maxSecretBytes || !s.hasher.Verify(password, found.PasswordHash) {
		s.log.InfoContext(ctx, "login rejected", "user_id", found.ID, "reason", "invalid_credentials")
		return AuthResult{}, ErrInvalidCredentials
	}

	token, err := s.issue(found)
	if err != nil {
		return AuthResult{}, err
	}

	return AuthResult{User: found.View(), Token: token}, nil
}

// ForgotPassword replaces the password hash when the security answer
// matches. Unknown email and wrong answer both yield user.ErrNotFound.
func (s *Service) ForgotPassword(ctx context.Context, email, securityAnswer, newPassword string) error {
	email = user.NormalizeEmail(email)

	fields := missing(map[string]string{
		"email":          email,
		"securityAnswer": securityAnswer,
		"newPassword":    newPassword,
	})
	fields = tooLong(fields, "newPassword", newPassword)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}

	found, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.hasher.Verify(securityAnswer, s.dummyHash)
			return user.ErrNotFound
		}
		return storeErr(err)
	}

	if !s.hasher.Verify(securityAnswer, found.SecurityAnswerHash) {
		s.log.InfoContext(ctx, "password reset rejected", "user_id", found.ID)
		return user.ErrNotFound
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.users.Update(ctx, found.ID, user.Patch{PasswordHash: &newHash}); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return storeErr(err)
	}

	s.log.InfoContext(ctx, "password reset", "user_id", found.ID)

	return nil
}

func (s *Service) issue(u user.User) (string, error) {
	token, err := s.tokens.Issue(auth.IssueClaims{Subject: u.ID, Role: string(u.Role)}, s.cfg.TokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

func (s *Service) validateRegister(in RegisterInput) error {
	fields := missing(map[string]string{
		"name":           in.Name,
		"email":          in.Email,
		"password":       in.Password,
		"phone":          in.Phone,
		"address":        in.Address,
		"securityAnswer": in.SecurityAnswer,
	})

	if in.Email != "" && s.validate.Var(in.Email, "email") != nil {
		fields = append(fields, "email")
	}
	fields = tooLong(fields, "password", in.Password)
	fields = tooLong(fields, "securityAnswer", in.SecurityAnswer)

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// missing returns the names of blank values in a stable order.
func missing(values map[string]string) []string {
	order := []string{"name", "email", "password", "phone", "address", "securityAnswer", "newPassword"}

	var out []string
	for _, k := range order {
		v, ok := values[k]
		if ok && strings.TrimSpace(v) == "" {
			out = append(out, k)
		}
	}
	return out
}

// tooLong adds name when value exceeds maxSecretBytes, unless name is
// already listed.
func tooLong(fields []string, name, value string) []string {
	if len(value) <= maxSecretBytes || slices.Contains(fields, name) {
		return fields
	}
	return append(fields, name)
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStore, err)
}
