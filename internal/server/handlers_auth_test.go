package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/stocklens/internal/app"
	"github.com/bobmcallan/stocklens/internal/common"
	"github.com/bobmcallan/stocklens/internal/models"
	"github.com/bobmcallan/stocklens/internal/projection"
	"github.com/bobmcallan/stocklens/internal/services/analyzer"
	"github.com/bobmcallan/stocklens/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Auth.JWTSecret = "test-secret-key"
	cfg.Storage.ChartDir = t.TempDir()

	logger := common.NewSilentLogger()
	analyses := memory.NewAnalysisStore()
	policy := &projection.FixedMultiplier{Scale: projection.StandardScale}

	a := &app.App{
		Config:      cfg,
		Logger:      logger,
		Users:       memory.NewUserStore(),
		Analyses:    analyses,
		Analyzer:    analyzer.NewService(analyses, policy, cfg.Projection.Scale, cfg.Storage.ChartDir, logger),
		StartupTime: time.Now(),
	}
	return NewServer(a)
}

func postJSON(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signupAndToken(t *testing.T, srv *Server, email, password string) string {
	t.Helper()
	rec := postJSON(t, srv.Handler(), "/api/auth/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode signup response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return resp.Data.Token
}

func TestSignAndValidateJWT_RoundTrip(t *testing.T) {
	cfg := &common.AuthConfig{
		JWTSecret:   "test-secret-key",
		TokenExpiry: "1h",
	}
	user := &models.UserAccount{
		UserID: "u1",
		Email:  "alice@example.com",
	}

	token, err := signJWT(user, cfg)
	if err != nil {
		t.Fatalf("signJWT failed: %v", err)
	}

	parsed, claims, err := validateJWT(token, []byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("validateJWT failed: %v", err)
	}
	if !parsed.Valid {
		t.Error("expected token to be valid")
	}
	if claims["sub"] != "u1" {
		t.Errorf("expected sub=u1, got %v", claims["sub"])
	}
	if claims["iss"] != "stocklens-server" {
		t.Errorf("expected iss=stocklens-server, got %v", claims["iss"])
	}
}

func TestValidateJWT_WrongSecret(t *testing.T) {
	cfg := &common.AuthConfig{JWTSecret: "correct-secret", TokenExpiry: "1h"}
	token, err := signJWT(&models.UserAccount{UserID: "u1"}, cfg)
	if err != nil {
		t.Fatalf("signJWT failed: %v", err)
	}
	if _, _, err := validateJWT(token, []byte("wrong-secret")); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateJWT_ExpiredToken(t *testing.T) {
	cfg := &common.AuthConfig{JWTSecret: "test-secret-key", TokenExpiry: "-1h"}
	token, err := signJWT(&models.UserAccount{UserID: "u1"}, cfg)
	if err != nil {
		t.Fatalf("signJWT failed: %v", err)
	}
	if _, _, err := validateJWT(token, []byte(cfg.JWTSecret)); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestSignupAndLogin(t *testing.T) {
	srv := newTestServer(t)
	signupAndToken(t, srv, "alice@example.com", "hunter22pass")

	rec := postJSON(t, srv.Handler(), "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "hunter22pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	srv := newTestServer(t)
	signupAndToken(t, srv, "alice@example.com", "hunter22pass")

	rec := postJSON(t, srv.Handler(), "/api/auth/signup", map[string]string{
		"email":    "alice@example.com",
		"password": "anotherpass1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", rec.Code)
	}
}

func TestSignupValidation(t *testing.T) {
	srv := newTestServer(t)
	cases := []map[string]string{
		{"email": "", "password": "hunter22pass"},
		{"email": "not-an-email", "password": "hunter22pass"},
		{"email": "bob@example.com", "password": "short"},
	}
	for _, body := range cases {
		rec := postJSON(t, srv.Handler(), "/api/auth/signup", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("signup %v status = %d, want 400", body, rec.Code)
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	signupAndToken(t, srv, "alice@example.com", "hunter22pass")

	rec := postJSON(t, srv.Handler(), "/api/auth/login", map[string]string{
		"email":    "alice@example.com",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownUserSameError(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Handler(), "/api/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": "whatever123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error != "invalid credentials" {
		t.Fatalf("unknown-user error = %q, should not reveal account existence", resp.Error)
	}
}

func TestAuthValidate(t *testing.T) {
	srv := newTestServer(t)
	token := signupAndToken(t, srv, "alice@example.com", "hunter22pass")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/validate", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate status = %d, body = %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/validate", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("validate with bad token status = %d, want 401", rec.Code)
	}
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader([]byte(`{"email":"a@b.com","password":"xxxxxxxx"}`)))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:12345"
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("10th rapid login status = %d, want 429", last)
	}
}
