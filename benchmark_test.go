package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecostep/walk-and-win/config"
	"github.com/ecostep/walk-and-win/internal/api/auth"
	"github.com/ecostep/walk-and-win/internal/api/user"
	"github.com/ecostep/walk-and-win/internal/router"
	"github.com/ecostep/walk-and-win/internal/types"
)

type benchStack struct {
	router *chi.Mux
	issuer *auth.TokenIssuer
	store  *memStore
	token  string
}

func setupBenchStack(b *testing.B) *benchStack {
	b.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()

	hasher := auth.NewHasher(bcrypt.MinCost)
	issuer := auth.NewTokenIssuer(config.JWTConfig{SecretKey: "bench-secret", TokenTTL: time.Hour, Issuer: "ecostep-api"})
	resetCfg := config.ResetConfig{TokenTTL: 30 * time.Minute}

	authService := auth.NewAuthService(store, hasher, issuer, &capturingNotifier{}, resetCfg, nil, logger)
	userService := user.NewUserService(store, logger)

	mux := router.New(router.Config{
		AuthHandler:  auth.NewHandlerImpl(authService, logger),
		UserHandler:  user.NewHandlerImpl(userService, logger),
		Authenticate: auth.Authenticate(issuer, logger),
		RequireAdmin: auth.RequireAdmin(logger),
		Logger:       logger,
	})

	u, err := store.CreateUser(context.Background(), "Ana", "ana@example.com", mustHash(b, hasher, "walk123"))
	if err != nil {
		b.Fatalf("seed user: %v", err)
	}
	token, err := issuer.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		b.Fatalf("issue token: %v", err)
	}
	return &benchStack{router: mux, issuer: issuer, store: store, token: token}
}

func mustHash(b *testing.B, h *auth.Hasher, plain string) string {
	b.Helper()
	hash, err := h.Hash(plain)
	if err != nil {
		b.Fatalf("hash: %v", err)
	}
	return hash
}

func BenchmarkLogin(b *testing.B) {
	s := setupBenchStack(b)
	body := `{"email":"ana@example.com","password":"walk123"}`

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkAuthenticatedMe(b *testing.B) {
	s := setupBenchStack(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+s.token)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}

func BenchmarkTokenIssueVerify(b *testing.B) {
	issuer := auth.NewTokenIssuer(config.JWTConfig{SecretKey: "bench-secret", TokenTTL: time.Hour, Issuer: "ecostep-api"})
	id := uuid.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		token, err := issuer.Issue(id, "ana@example.com", types.RoleUser)
		if err != nil {
			b.Fatal(err)
		}
		if _, err = issuer.Verify(token); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPasswordVerify(b *testing.B) {
	h := auth.NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("walk123")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := h.Verify("walk123", hash); err != nil {
			b.Fatal(err)
		}
	}
}
