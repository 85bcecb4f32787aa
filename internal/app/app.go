package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/letterforge/letterforge/config"
	"github.com/letterforge/letterforge/internal/database"
	"github.com/letterforge/letterforge/internal/domain"
	httpHandler "github.com/letterforge/letterforge/internal/http"
	"github.com/letterforge/letterforge/internal/metrics"
	"github.com/letterforge/letterforge/internal/repository"
	"github.com/letterforge/letterforge/internal/service"
	"github.com/letterforge/letterforge/pkg/cache"
	"github.com/letterforge/letterforge/pkg/logger"
	"github.com/letterforge/letterforge/pkg/mailer"
	"github.com/letterforge/letterforge/pkg/spreadsheet"
)

const defaultShutdownTimeout = 30 * time.Second

// App encapsulates the application dependencies and configuration
type App struct {
	config  *config.Config
	logger  logger.Logger
	db      *sql.DB
	mailer  mailer.Mailer
	cache   cache.Cache
	metrics *metrics.Metrics

	// Repositories
	letterTypeRepo domain.LetterTypeRepository
	recordRepo     domain.DynamicRecordRepository
	templateRepo   domain.TemplateRepository
	documentRepo   domain.GeneratedDocumentRepository
	emailJobRepo   domain.EmailJobRepository
	webhookRepo    domain.WebhookEventRepository
	documentStore  domain.DocumentStore

	// Services
	letterTypeService *service.LetterTypeService
	importService     *service.ImportService
	templateService   *service.TemplateService
	generationService *service.GenerationService
	emailJobService   *service.EmailJobService
	emailComposer     *service.EmailComposer
	webhookService    *service.WebhookService
	broadcaster       *service.InMemoryBroadcaster

	mux    *http.ServeMux
	server *http.Server
}

// AppOption configures the app at construction time.
type AppOption func(*App)

// WithLogger overrides the default logger.
func WithLogger(l logger.Logger) AppOption {
	return func(a *App) {
		a.logger = l
	}
}

// WithMailer overrides the SMTP mailer, e.g. with the console mailer in
// development.
func WithMailer(m mailer.Mailer) AppOption {
	return func(a *App) {
		a.mailer = m
	}
}

// WithDB injects an existing database handle instead of dialing one.
func WithDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithMetrics overrides the default registry-backed metrics, e.g. with
// metrics.NewNop() in tests.
func WithMetrics(m *metrics.Metrics) AppOption {
	return func(a *App) {
		a.metrics = m
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	a := &App{
		config: cfg,
		cache:  cache.NewInMemoryCache(time.Minute),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logger.NewLogger(cfg.LogLevel)
	}
	return a
}

// Initialize sets up all application components in dependency order.
func (a *App) Initialize() error {
	if err := a.InitDB(); err != nil {
		return err
	}
	a.InitMailer()
	a.InitMetrics()
	a.InitRepositories()
	a.InitServices()
	a.InitHandlers()
	return nil
}

func (a *App) InitDB() error {
	if a.db == nil {
		db, err := database.Connect(&a.config.Database, a.config.Environment)
		if err != nil {
			return err
		}
		a.db = db
	}
	if err := database.InitializeDatabase(a.db); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	a.logger.Info("Database initialized")
	return nil
}

func (a *App) InitMailer() {
	if a.mailer != nil {
		return
	}
	if a.config.SMTP.Host == "" {
		a.logger.Warn("SMTP host not configured, using console mailer")
		a.mailer = mailer.NewConsoleMailer()
		return
	}
	a.mailer = mailer.NewSMTPMailer(&mailer.Config{
		SMTPHost:     a.config.SMTP.Host,
		SMTPPort:     a.config.SMTP.Port,
		SMTPUsername: a.config.SMTP.Username,
		SMTPPassword: a.config.SMTP.Password,
		FromEmail:    a.config.SMTP.FromEmail,
		FromName:     a.config.SMTP.FromName,
	})
}

func (a *App) InitMetrics() {
	if a.metrics != nil {
		return
	}
	a.metrics = metrics.New(prometheus.DefaultRegisterer)
}

func (a *App) InitRepositories() {
	a.letterTypeRepo = repository.NewLetterTypeRepository(a.db)
	a.recordRepo = repository.NewDynamicRecordRepository(a.db, a.logger)
	a.templateRepo = repository.NewTemplateRepository(a.db)
	a.documentRepo = repository.NewGeneratedDocumentRepository(a.db)
	a.emailJobRepo = repository.NewEmailJobRepository(a.db)
	a.webhookRepo = repository.NewWebhookEventRepository(a.db)
	a.documentStore = repository.NewPostgresDocumentStore(a.db)
}

func (a *App) InitServices() {
	engine := service.NewTemplateEngine(a.config.OrganizationName)
	a.broadcaster = service.NewInMemoryBroadcaster(logger.WithComponent(a.logger, "broadcaster"))

	a.letterTypeService = service.NewLetterTypeService(a.letterTypeRepo, a.recordRepo, a.cache, a.logger)
	a.importService = service.NewImportService(a.letterTypeRepo, a.recordRepo, spreadsheet.NewCSVReader(), a.metrics, a.logger)
	a.templateService = service.NewTemplateService(a.templateRepo, engine, a.logger)
	a.generationService = service.NewGenerationService(
		a.letterTypeRepo,
		a.recordRepo,
		a.templateRepo,
		a.documentRepo,
		a.documentStore,
		engine,
		a.metrics,
		a.logger,
		a.config.Generation.Workers,
	)
	a.emailComposer = service.NewEmailComposer(a.documentRepo, a.recordRepo, a.letterTypeRepo, a.config.OrganizationName)
	a.emailJobService = service.NewEmailJobService(
		a.emailJobRepo,
		a.mailer,
		a.broadcaster,
		a.metrics,
		a.logger,
		a.config.Email.MaxRetries,
		a.config.Email.RatePerSecond,
	)
	a.webhookService = service.NewWebhookService(
		a.emailJobRepo,
		a.webhookRepo,
		a.broadcaster,
		a.metrics,
		logger.WithComponent(a.logger, "webhook"),
		a.config.WebhookSecret,
	)
}

func (a *App) InitHandlers() {
	httpHandler.NewLetterTypeHandler(a.letterTypeService, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewRecordHandler(a.importService, a.recordRepo, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewTemplateHandler(a.templateService, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewGenerationHandler(a.generationService, a.documentRepo, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewEmailJobHandler(a.emailJobService, a.emailComposer, a.webhookRepo, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewWebhookHandler(a.webhookService, a.logger).RegisterRoutes(a.mux)
	httpHandler.NewRealtimeHandler(a.broadcaster, a.logger).RegisterRoutes(a.mux)

	a.mux.Handle("/metrics", promhttp.Handler())
	a.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

// GetMux exposes the route table, mainly for tests.
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB exposes the database handle, mainly for tests.
func (a *App) GetDB() *sql.DB {
	return a.db
}

// Start runs the HTTP server until it stops.
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.server = &http.Server{
		Addr:    addr,
		Handler: a.mux,
	}

	a.logger.WithField("addr", addr).Info("HTTP server listening")
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server, the broadcaster and the database.
func (a *App) Shutdown(ctx context.Context) error {
	var firstErr error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			firstErr = err
		}
	}
	if a.broadcaster != nil {
		a.broadcaster.Shutdown()
	}
	if a.cache != nil {
		a.cache.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	a.logger.Info("Application stopped")
	return firstErr
}

// ShutdownTimeout returns the grace period for draining requests.
func (a *App) ShutdownTimeout() time.Duration {
	return defaultShutdownTimeout
}
