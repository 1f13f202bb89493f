package handlers_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/shopapi/internal/accounts"
	"github.com/geocoder89/shopapi/internal/actorctx"
	"github.com/geocoder89/shopapi/internal/auth"
	"github.com/geocoder89/shopapi/internal/domain/user"
	"github.com/geocoder89/shopapi/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

type stubHasher struct{}

func (stubHasher) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return "stub$" + hex.EncodeToString(sum[:]), nil
}

func (h stubHasher) Verify(plain, hash string) bool {
	want, _ := h.Hash(plain)
	return hash == want
}

type errorResponse struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func newAccounts(t *testing.T, users *memory.UsersRepo) *accounts.Service {
	t.Helper()

	svc, err := accounts.NewService(
		accounts.Config{TokenTTL: time.Hour},
		users,
		stubHasher{},
		auth.NewManager("handler-test-secret-123456"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func setupRouter(method, path string, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, path, handler)
	return r
}

// asUser attaches an identity the way the auth chain would.
func asUser(u user.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := actorctx.WithIdentity(c.Request.Context(), actorctx.Identity{UserID: u.ID, Role: u.Role})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func doJSON(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = bytes.NewBufferString(body)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return out
}
