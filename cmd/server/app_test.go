package main

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

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/tasker-api/internal/config"
	"github.com/phrazzld/tasker-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			LogLevel:        "info",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "test-secret-that-is-at-least-32-bytes-long",
			Issuer:               "tasker-test",
			TokenLifetimeMinutes: 60,
			BCryptCost:           4,
			AdminName:            "admin",
			AdminPassword:        "admin-password",
		},
		Redis: config.RedisConfig{
			LoginRatePerMinute: 10,
			LoginBurst:         5,
		},
		Telemetry: config.TelemetryConfig{ServiceName: "tasker-api-test"},
	}
}

func newTestApplication(t *testing.T, cfg *config.Config) (*application, *mocks.MemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ms := mocks.NewMemoryStore()

	app, err := newApplication(cfg, logger, ms)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app, ms
}

func TestNewApplication_InvalidSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"

	_, err := newApplication(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), mocks.NewMemoryStore())
	assert.Error(t, err)
}

func TestSeedAdmin(t *testing.T) {
	app, ms := newTestApplication(t, testConfig())
	ctx := context.Background()

	require.NoError(t, app.seedAdmin(ctx))
	require.NoError(t, app.seedAdmin(ctx), "seeding twice is a no-op")

	users, _, _ := ms.Counts()
	assert.Equal(t, 1, users)

	admin, err := app.userService.FindByName(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, admin.HasRole("admin"))
}

func TestSeedAdmin_NoPassword(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.AdminPassword = ""
	app, ms := newTestApplication(t, cfg)

	require.NoError(t, app.seedAdmin(context.Background()))
	users, _, _ := ms.Counts()
	assert.Equal(t, 0, users)
}

func TestRouter(t *testing.T) {
	cfg := testConfig()
	mr := miniredis.RunT(t)
	cfg.Redis.Addr = mr.Addr()

	app, _ := newTestApplication(t, cfg)
	require.NotNil(t, app.loginLimiter)
	require.NoError(t, app.seedAdmin(context.Background()))
	router := app.setupRouter()

	t.Run("health", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "OK", rr.Body.String())
	})

	t.Run("login and use the token", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"name": "admin", "password": "admin-password"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body)))
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Trace-ID"))

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
		req.Header.Set("Authorization", "Bearer "+resp.Token)
		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "tasker_http_requests_total")
	})
}

func TestStartHTTPServer_StopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	app, _ := newTestApplication(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.startHTTPServer(ctx, http.NotFoundHandler()) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
