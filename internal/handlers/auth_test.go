package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/orgaos-dev/orgaos/internal/types"
)

func TestRegister(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":        "a@test.com",
		"password":     "password123",
		"display_name": "Alice",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body %s", w.Code, w.Body.String())
	}

	var user types.UserResponse
	decode(t, w, &user)

	if user.Email != "a@test.com" || user.DisplayName != "Alice" {
		t.Errorf("unexpected user response: %+v", user)
	}
	if user.ID == 0 {
		t.Error("expected a non-zero user id")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	r, _ := setupRouter(t)

	registerAndLogin(t, r, "a@test.com", "Alice")

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":        "a@test.com",
		"password":     "password123",
		"display_name": "Impostor",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", w.Code)
	}
}

func TestRegisterMalformed(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "not-an-email",
		"password": "password123",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want 400", w.Code)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	r, _ := setupRouter(t)

	registerAndLogin(t, r, "a@test.com", "Alice")

	w := doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "a@test.com",
		"password": "wrong-password",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("wrong password: got status %d, want 400", w.Code)
	}

	w = doRequest(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "nobody@test.com",
		"password": "password123",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown user: got status %d, want 400", w.Code)
	}
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	r, _ := setupRouter(t)

	w := doRequest(t, r, http.MethodGet, "/api/projects", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: got status %d, want 401", w.Code)
	}

	w = doRequest(t, r, http.MethodGet, "/api/projects", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad token: got status %d, want 401", w.Code)
	}
}
