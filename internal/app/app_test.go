package app

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/letterforge/letterforge/config"
	"github.com/letterforge/letterforge/internal/database/schema"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/pkg/logger"
	"github.com/letterforge/letterforge/pkg/mailer"
)

func createTestConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		LogLevel:         "debug",
		WebhookSecret:    "whsec_test",
		OrganizationName: "Acme Corp",
		Server: config.ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: config.DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres_test",
			Password: "postgres_test",
			DBName:   "letterforge_test",
			SSLMode:  "disable",
		},
		Generation: config.GenerationConfig{Workers: 2},
		Email: config.EmailConfig{
			MaxRetries:    3,
			RatePerSecond: 10,
		},
	}
}

// setupTestDBMock expects the schema init statements and a close on
// shutdown.
func setupTestDBMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	for range schema.TableDefinitions {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectClose()

	return db, mock
}

func TestNewAppAppliesOptions(t *testing.T) {
	cfg := createTestConfig()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	consoleMailer := mailer.NewConsoleMailer()
	a := NewApp(cfg,
		WithLogger(logger.NewTestLogger(t)),
		WithMailer(consoleMailer),
		WithDB(db),
		WithMetrics(metrics.NewNop()),
	)

	assert.Same(t, db, a.GetDB())
	assert.NotNil(t, a.GetMux())
}

func TestAppInitializeWiresRoutes(t *testing.T) {
	db, mock := setupTestDBMock(t)

	a := NewApp(createTestConfig(),
		WithLogger(logger.NewTestLogger(t)),
		WithMailer(mailer.NewConsoleMailer()),
		WithDB(db),
		WithMetrics(metrics.NewNop()),
	)
	require.NoError(t, a.Initialize())

	t.Run("health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		a.GetMux().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("api route registered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/letterTypes.create", nil)
		w := httptest.NewRecorder()
		a.GetMux().ServeHTTP(w, req)
		// Bad body, but the route exists.
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("webhook ingress registered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/email", nil)
		w := httptest.NewRecorder()
		a.GetMux().ServeHTTP(w, req)
		// No signature header.
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}
