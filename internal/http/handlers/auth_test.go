package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/shopapi/internal/accounts"
	"github.com/geocoder89/shopapi/internal/http/handlers"
	"github.com/geocoder89/shopapi/internal/repo/memory"
	"github.com/gin-gonic/gin"
)

const registerBody = `{"name":"A","email":"a@x.com","password":"pw1","phone":"1","address":"addr","securityAnswer":"blue"}`

func authRouter(t *testing.T) (*gin.Engine, *memory.UsersRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := memory.NewUsersRepo()
	h := handlers.NewAuthHandler(newAccounts(t, users))

	r := gin.New()
	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/forgot-password", h.ForgotPassword)
	return r, users
}

func TestRegisterHandler(t *testing.T) {
	r, _ := authRouter(t)

	w := doJSON(r, http.MethodPost, "/register", registerBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	res := decode[accounts.AuthResult](t, w)
	if res.Token == "" || res.User.Email != "a@x.com" || res.User.Role != "customer" {
		t.Fatalf("unexpected response: %+v", res)
	}
	userJSON, _ := json.Marshal(res.User)
	for _, secret := range []string{"pw1", "blue", "stub$", "passwordHash", "securityAnswer"} {
		if strings.Contains(string(userJSON), secret) {
			t.Fatalf("user view exposes %q: %s", secret, userJSON)
		}
	}

	w = doJSON(r, http.MethodPost, "/register", strings.Replace(registerBody, "a@x.com", "A@X.com", 1))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", w.Code)
	}
	if resp := decode[errorResponse](t, w); resp.Error.Code != "email_taken" {
		t.Fatalf("code = %q", resp.Error.Code)
	}
}

func TestRegisterHandler_BadInput(t *testing.T) {
	r, _ := authRouter(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing fields", `{"name":"A","email":"b@x.com"}`, "password"},
		{"bad json", `{"name":`, "invalid_json_syntax"},
		{"wrong type", `{"name":1}`, "invalid_json_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, "/register", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("body %s does not mention %q", w.Body.String(), tt.want)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	r, _ := authRouter(t)

	if w := doJSON(r, http.MethodPost, "/register", registerBody); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d body=%s", w.Code, w.Body.String())
	}
	if res := decode[accounts.AuthResult](t, w); res.Token == "" {
		t.Fatalf("no token in login response")
	}

	w = doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"nope"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("wrong password status = %d, want 400", w.Code)
	}
	if resp := decode[errorResponse](t, w); resp.Error.Code != "invalid_credentials" {
		t.Fatalf("code = %q", resp.Error.Code)
	}

	w = doJSON(r, http.MethodPost, "/login", `{"email":"ghost@x.com","password":"pw1"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown email status = %d, want 404", w.Code)
	}

	w = doJSON(r, http.MethodPost, "/login", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty body status = %d, want 400", w.Code)
	}
}

func TestForgotPasswordHandler(t *testing.T) {
	r, _ := authRouter(t)

	if w := doJSON(r, http.MethodPost, "/register", registerBody); w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	wrongAnswer := doJSON(r, http.MethodPost, "/forgot-password", `{"email":"a@x.com","securityAnswer":"red","newPassword":"pw2"}`)
	unknownEmail := doJSON(r, http.MethodPost, "/forgot-password", `{"email":"z@x.com","securityAnswer":"blue","newPassword":"pw2"}`)

	if wrongAnswer.Code != http.StatusNotFound || unknownEmail.Code != http.StatusNotFound {
		t.Fatalf("statuses = %d, %d, want 404", wrongAnswer.Code, unknownEmail.Code)
	}

	a := decode[errorResponse](t, wrongAnswer)
	b := decode[errorResponse](t, unknownEmail)
	if a.Error.Message != b.Error.Message {
		t.Fatalf("messages differ: %q vs %q", a.Error.Message, b.Error.Message)
	}

	w := doJSON(r, http.MethodPost, "/forgot-password", `{"email":"a@x.com","securityAnswer":"blue","newPassword":"pw2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("reset status = %d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "token") {
		t.Fatalf("reset must not issue a token: %s", w.Body.String())
	}

	if w := doJSON(r, http.MethodPost, "/login", `{"email":"a@x.com","password":"pw2"}`); w.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d", w.Code)
	}

	if w := doJSON(r, http.MethodPost, "/forgot-password", `{"email":"a@x.com"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields status = %d, want 400", w.Code)
	}
}
