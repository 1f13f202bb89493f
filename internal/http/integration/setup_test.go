package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/shopapi/internal/accounts"
	"github.com/geocoder89/shopapi/internal/auth"
	"github.com/geocoder89/shopapi/internal/cache"
	"github.com/geocoder89/shopapi/internal/domain/user"
	apphttp "github.com/geocoder89/shopapi/internal/http"
	"github.com/geocoder89/shopapi/internal/http/handlers"
	"github.com/geocoder89/shopapi/internal/observability"
	"github.com/geocoder89/shopapi/internal/repo/memory"
	"github.com/geocoder89/shopapi/internal/security"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const testSecret = "integration-secret-key"

type testApp struct {
	router *gin.Engine
	users  *memory.UsersRepo
	prom   *observability.Prom
}

func setupApp(t *testing.T) testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	users := memory.NewUsersRepo()
	catalog := memory.NewCatalog()
	tokens := auth.NewManager(testSecret)

	// lowest bcrypt cost keeps the suite fast
	svc, err := accounts.NewService(accounts.Config{TokenTTL: time.Hour}, users, security.NewBcryptHasher(4), tokens, log)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	router := apphttp.NewRouter(log, apphttp.Deps{
		Env:          "test",
		MaxBodyBytes: 1 << 20,
		Accounts:     svc,
		Tokens:       tokens,
		Users:        users,
		Categories:   catalog.Categories,
		Products:     catalog.Products,
		Comments:     catalog.Comments,
		Cache:        cache.Observed(cache.NewMemory(time.Minute), prom),
		Ready: map[string]handlers.Pinger{
			"store": catalog.Categories,
		},
		Prom:     prom,
		Gatherer: reg,
	})

	return testApp{router: router, users: users, prom: prom}
}

func (a testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// register signs up a customer and returns its token.
func (a testApp) register(t *testing.T, email string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":           "Test User",
		"email":          email,
		"password":       "secret-pw",
		"phone":          "555-0100",
		"address":        "1 Main St",
		"securityAnswer": "blue",
	}, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d body=%s", w.Code, w.Body.String())
	}

	var res accounts.AuthResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	return res.Token
}

// registerAdmin signs up a user and promotes it in the store.
func (a testApp) registerAdmin(t *testing.T, email string) string {
	t.Helper()

	token := a.register(t, email)
	if _, err := a.users.SetRole(context.Background(), email, user.RoleAdmin); err != nil {
		t.Fatalf("SetRole() error = %v", err)
	}
	return token
}

func (a testApp) doRaw(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}
