package authapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/bowerhall/autopost/internal/auth"
	"github.com/bowerhall/autopost/internal/userstore"
	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T, setupKey string) *Handler {
	t.Helper()
	store, err := userstore.Open(filepath.Join(t.TempDir(), "users.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := auth.NewService(store, auth.Config{
		JWTSecret:     "test-secret",
		RefreshSecret: "test-refresh",
		SetupKey:      setupKey,
	})
	return NewHandler(svc)
}

func post(t *testing.T, h func(echo.Context) error, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func TestSetupAdmin(t *testing.T) {
	h := newTestHandler(t, "install-key")

	rec := post(t, h.SetupAdmin, "/auth/setup-admin",
		`{"username":"admin","password":"hunter2","setup_key":"install-key"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Only one operator credential is allowed.
	rec = post(t, h.SetupAdmin, "/auth/setup-admin",
		`{"username":"second","password":"pw","setup_key":"install-key"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestSetupAdminBadKey(t *testing.T) {
	h := newTestHandler(t, "install-key")

	rec := post(t, h.SetupAdmin, "/auth/setup-admin",
		`{"username":"admin","password":"hunter2","setup_key":"wrong"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSetupAdminDisabled(t *testing.T) {
	h := newTestHandler(t, "")

	rec := post(t, h.SetupAdmin, "/auth/setup-admin",
		`{"username":"admin","password":"hunter2","setup_key":"anything"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSetupAdminValidation(t *testing.T) {
	h := newTestHandler(t, "install-key")

	rec := post(t, h.SetupAdmin, "/auth/setup-admin", `{"setup_key":"install-key"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLoginAndRefresh(t *testing.T) {
	h := newTestHandler(t, "install-key")

	rec := post(t, h.SetupAdmin, "/auth/setup-admin",
		`{"username":"admin","password":"hunter2","setup_key":"install-key"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup failed: %d", rec.Code)
	}

	rec = post(t, h.Login, "/auth/login", `{"username":"admin","password":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var pair auth.TokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens in response")
	}

	rec = post(t, h.Refresh, "/auth/refresh", `{"refresh_token":"`+pair.RefreshToken+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on refresh, got %d: %s", rec.Code, rec.Body.String())
	}

	var rotated auth.TokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &rotated); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rotated.AccessToken == "" || rotated.RefreshToken == "" {
		t.Fatal("expected rotated tokens")
	}
}

func TestLoginBadCredentials(t *testing.T) {
	h := newTestHandler(t, "install-key")

	rec := post(t, h.SetupAdmin, "/auth/setup-admin",
		`{"username":"admin","password":"hunter2","setup_key":"install-key"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup failed: %d", rec.Code)
	}

	rec = post(t, h.Login, "/auth/login", `{"username":"admin","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	h := newTestHandler(t, "install-key")

	rec := post(t, h.Refresh, "/auth/refresh", `{"refresh_token":"not-a-token"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t, "")
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	if err := h.Health(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["status"] != "healthy" {
		t.Fatalf("unexpected status: %v", body["status"])
	}
}
