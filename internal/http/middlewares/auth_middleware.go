package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/geocoder89/shopapi/internal/actorctx"
	"github.com/geocoder89/shopapi/internal/auth"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (user.User, error)
}

type RejectionObserver interface {
	ObserveRejection(status int, reason string)
}

type AuthMiddleware struct {
	tokens TokenVerifier
	users  UserFinder
	obs    RejectionObserver
	log    *slog.Logger
}

// NewAuthMiddleware wires the verifier and user lookup. obs may be nil.
func NewAuthMiddleware(tokens TokenVerifier, users UserFinder, obs RejectionObserver, log *slog.Logger) *AuthMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &AuthMiddleware{tokens: tokens, users: users, obs: obs, log: log}
}

// SignedIn verifies the bearer token and attaches the caller identity.
func (m *AuthMiddleware) SignedIn() Interceptor {
	return func(c *gin.Context) (context.Context, *Rejection) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			return nil, Unauthorized("missing_token", "Missing or invalid Authorization header")
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			return nil, Unauthorized(verifyReason(err), "Invalid or expired access token")
		}

		return actorctx.WithIdentity(c.Request.Context(), actorctx.Identity{
			UserID: claims.Subject,
			Role:   user.Role(claims.Role),
		}), nil
	}
}

// Admin requires an identity from SignedIn and confirms the admin role
// against the stored user, not the token claim.
func (m *AuthMiddleware) Admin() Interceptor {
	return func(c *gin.Context) (context.Context, *Rejection) {
		ctx := c.Request.Context()

		id, ok := actorctx.IdentityFrom(ctx)
		if !ok {
			return nil, Unauthorized("missing_identity", "Missing identity context")
		}

		u, err := m.users.FindByID(ctx, id.UserID)
		if err != nil {
			if !errors.Is(err, user.ErrNotFound) {
				m.log.WarnContext(ctx, "admin check lookup failed", "user_id", id.UserID, "err", err)
			}
			return nil, Forbidden("lookup_failed", "Admin role required")
		}

		if !u.IsAdmin() {
			return nil, Forbidden("not_admin", "Admin role required")
		}

		id.Role = u.Role
		id.Admin = true
		return actorctx.WithIdentity(ctx, id), nil
	}
}

func (m *AuthMiddleware) RequireSignIn() gin.HandlerFunc {
	return ChainWith(m.observe, m.SignedIn())
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return ChainWith(m.observe, m.SignedIn(), m.Admin())
}

func (m *AuthMiddleware) observe(c *gin.Context, rej *Rejection) {
	if m.obs != nil {
		m.obs.ObserveRejection(rej.Status, rej.Reason)
	}
	m.log.InfoContext(c.Request.Context(), "request rejected",
		"status", rej.Status,
		"reason", rej.Reason,
		"route", c.FullPath(),
	)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

func verifyReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrTokenSignatureInvalid):
		return "invalid_signature"
	default:
		return "malformed_token"
	}
}
