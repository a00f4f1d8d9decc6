package http

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/avolkhov/driftchat-server/internal/auth"
	"github.com/avolkhov/driftchat-server/internal/config"
	"github.com/avolkhov/driftchat-server/internal/core"
	"github.com/avolkhov/driftchat-server/internal/service/friends"
	"github.com/avolkhov/driftchat-server/internal/store"
	"github.com/avolkhov/driftchat-server/internal/store/sqlite"
)

// testEnv bundles the wired components behind a running httptest server.
type testEnv struct {
	server      *httptest.Server
	store       store.Store
	authService *auth.Service
	registry    *core.Registry
	notifier    *core.Notifier
}

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

// startTestServer wires the full stack and serves it from an httptest server.
func startTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()

	st := createTestStore(t)
	authService := createTestAuthService(t, st, "test-secret")
	registry := core.NewRegistry()
	notifier := core.NewNotifier(registry, &logger)
	friendsService := friends.New(st)

	server := NewServer(registry, notifier, authService, friendsService, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{
		server:      ts,
		store:       st,
		authService: authService,
		registry:    registry,
		notifier:    notifier,
	}
}

// registerTestUser registers a user and returns their token and stored record.
func registerTestUser(t *testing.T, env *testEnv, username string) (string, *store.User) {
	t.Helper()

	ctx := context.Background()
	token, err := env.authService.Register(ctx, auth.RegisterParams{
		DisplayName: username,
		Username:    username,
		Password:    "password123",
		Email:       username + "@example.com",
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}

	user, err := env.store.GetUserByUsername(ctx, username)
	if err != nil {
		t.Fatalf("lookup %s: %v", username, err)
	}

	return token, user
}
