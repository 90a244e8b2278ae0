package app

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sendgate/sendgate/config"
	"github.com/sendgate/sendgate/internal/database"
	"github.com/sendgate/sendgate/internal/domain"
	httpHandler "github.com/sendgate/sendgate/internal/http"
	"github.com/sendgate/sendgate/internal/http/middleware"
	"github.com/sendgate/sendgate/internal/repository"
	"github.com/sendgate/sendgate/internal/service"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/ratelimiter"
	"github.com/sendgate/sendgate/pkg/smtpingress"
	"github.com/sendgate/sendgate/pkg/tracing"

	"contrib.go.opencensus.io/integrations/ocsql"
	"github.com/redis/go-redis/v9"
)

// defaultSharedPoolName names the shared IP pool created on first boot
const defaultSharedPoolName = "default-shared"

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	GetRedis() *redis.Client

	// Repository getters for testing
	GetTenantRepository() domain.TenantRepository
	GetOutboxRepository() domain.OutboxRepository
	GetSendQueueRepository() domain.SendQueueRepository
	GetDeadLetterRepository() domain.DeadLetterRepository
	GetFeedbackQueueRepository() domain.FeedbackQueueRepository
	GetEmailLogRepository() domain.EmailLogRepository
	GetSuppressionRepository() domain.SuppressionRepository
	GetWebhookRepository() domain.WebhookRepository

	// GetOutboxService exposes the producer seam for embedding
	GetOutboxService() *service.OutboxService

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitTracing() error
	InitDB() error
	InitRedis() error
	InitRepositories() error
	InitServices() error
	InitWorkers() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB
	redis  *redis.Client

	// Repositories
	tenantRepo          domain.TenantRepository
	outboxRepo          domain.OutboxRepository
	queueRepo           domain.SendQueueRepository
	deadLetterRepo      domain.DeadLetterRepository
	feedbackQueueRepo   domain.FeedbackQueueRepository
	emailLogRepo        domain.EmailLogRepository
	emailEventRepo      domain.EmailEventRepository
	trackingRepo        domain.EmailTrackingRepository
	suppressionRepo     domain.SuppressionRepository
	recipientRepo       domain.RecipientRepository
	ipPoolRepo          domain.IPPoolRepository
	webhookRepo         domain.WebhookRepository
	webhookDeliveryRepo domain.WebhookDeliveryRepository
	reputationRepo      domain.ReputationMetricRepository
	sendingDomainRepo   domain.SendingDomainRepository
	throttleRepo        domain.TenantThrottleRepository

	// Services
	metrics         domain.PipelineMetrics
	mxLimiter       domain.MXRateLimiter
	validator       *service.JobValidator
	poolService     *service.IPPoolService
	driverChain     *service.DriverChain
	dlqService      *service.DLQService
	outboxService   *service.OutboxService
	feedbackIngress *service.FeedbackIngress

	// Background workers
	pipelineWorker    *service.PipelineWorker
	feedbackWorker    *service.FeedbackWorker
	webhookWorker     *service.WebhookDeliveryWorker
	reputationMonitor *service.ReputationMonitor
	sandboxMonitor    *service.SandboxMonitor
	sloController     *service.SLOController
	feedbackServer    *smtpingress.Server

	// Ops surface
	opsLimiter *ratelimiter.RateLimiter
	mux        *http.ServeMux
	server     *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64          // atomic counter for active HTTP requests
	requestWg       sync.WaitGroup // wait group for active requests
	shutdownTimeout time.Duration  // configurable shutdown timeout
	dbStatsStop     func()         // stops the ocsql stats recorder
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithMockRedis configures the app to use a mock redis client
func WithMockRedis(client *redis.Client) AppOption {
	return func(a *App) {
		a.redis = client
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	// Create shutdown context
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 60 * time.Second, // covers the 30 second pipeline drain plus listener close
	}

	// Apply options
	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing
func (a *App) InitTracing() error {
	tracingConfig := &a.config.Tracing

	if err := tracing.Init(tracingConfig, a.logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if tracingConfig.Enabled {
		exporter := tracingConfig.TraceExporter
		if exporter == "" {
			exporter = "jaeger"
		}

		metricsExporter := tracingConfig.MetricsExporter
		if metricsExporter == "" {
			metricsExporter = "prometheus"
		}

		a.logger.WithField("trace_exporter", exporter).
			WithField("metrics_exporter", metricsExporter).
			WithField("sampling_rate", tracingConfig.SamplingProbability).
			Info("Tracing initialized successfully")
	}

	return nil
}

// InitDB initializes the database connection
func (a *App) InitDB() error {
	// Skip if connection already set (e.g., by mock)
	if a.db != nil {
		return nil
	}

	password := a.config.Database.Password
	maskedPassword := ""
	if len(password) > 0 {
		maskedPassword = fmt.Sprintf("%c...%c", password[0], password[len(password)-1])
	}
	a.logger.Info(fmt.Sprintf("Connecting to database %s:%d, user %s, sslmode %s, password: %s, dbname: %s",
		a.config.Database.Host, a.config.Database.Port, a.config.Database.User, a.config.Database.SSLMode, maskedPassword, a.config.Database.DBName))

	// Ensure the gateway database exists
	if err := database.EnsureDatabaseExists(database.ServerDSN(&a.config.Database), a.config.Database.DBName); err != nil {
		a.logger.Error(err.Error())
		return fmt.Errorf("failed to ensure gateway database exists: %w", err)
	}

	a.logger.Info("Gateway database check completed")

	// If tracing is enabled, wrap the postgres driver
	driverName := "postgres"
	if a.config.Tracing.Enabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	// Connect to the gateway database
	db, err := sql.Open(driverName, database.GatewayDSN(&a.config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to gateway database: %w", err)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping gateway database: %w", err)
	}

	// Initialize database schema if needed
	if err := database.InitializeDatabase(db, defaultSharedPoolName); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	// Set connection pool settings based on environment
	maxOpen, maxIdle, maxLifetime := database.PoolSettings()
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	if a.config.Tracing.Enabled {
		a.dbStatsStop = ocsql.RecordStats(db, 5*time.Second)
	}

	a.db = db
	return nil
}

// InitRedis initializes the redis client backing the pipeline metrics and
// the per-MX rate limiter
func (a *App) InitRedis() error {
	// Skip if client already set (e.g., by mock)
	if a.redis != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr(),
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	a.logger.WithField("addr", a.config.Redis.Addr()).Info("Connected to redis")

	a.redis = client
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.tenantRepo = repository.NewTenantRepository(a.db)
	a.outboxRepo = repository.NewOutboxRepository(a.db)
	a.queueRepo = repository.NewSendQueueRepository(a.db)
	a.deadLetterRepo = repository.NewDeadLetterRepository(a.db)
	a.feedbackQueueRepo = repository.NewFeedbackQueueRepository(a.db)
	a.emailLogRepo = repository.NewEmailLogRepository(a.db)
	a.emailEventRepo = repository.NewEmailEventRepository(a.db)
	a.trackingRepo = repository.NewEmailTrackingRepository(a.db)
	a.suppressionRepo = repository.NewSuppressionRepository(a.db)
	a.recipientRepo = repository.NewRecipientRepository(a.db)
	a.ipPoolRepo = repository.NewIPPoolRepository(a.db)
	a.webhookRepo = repository.NewWebhookRepository(a.db)
	a.webhookDeliveryRepo = repository.NewWebhookDeliveryRepository(a.db)
	a.reputationRepo = repository.NewReputationMetricRepository(a.db)
	a.sendingDomainRepo = repository.NewSendingDomainRepository(a.db)
	a.throttleRepo = repository.NewTenantThrottleRepository(a.db)

	return nil
}

// InitServices initializes all application services
func (a *App) InitServices() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before services")
	}
	if a.redis == nil {
		return fmt.Errorf("redis must be initialized before services")
	}

	a.metrics = service.NewRedisPipelineMetrics(a.redis)
	a.mxLimiter = service.NewMXRateLimiter(a.redis, a.logger)
	a.validator = service.NewJobValidator(a.outboxRepo, a.recipientRepo, a.logger)
	a.poolService = service.NewIPPoolService(a.ipPoolRepo, a.logger)

	drivers, err := a.buildDrivers()
	if err != nil {
		return err
	}
	breakers := service.NewDriverCircuitBreakers(service.DefaultCircuitBreakerConfig())
	a.driverChain = service.NewDriverChain(drivers, breakers, a.logger)

	a.dlqService = service.NewDLQService(a.deadLetterRepo, a.queueRepo, a.logger)
	a.outboxService = service.NewOutboxService(a.db, a.outboxRepo, a.queueRepo, a.tenantRepo, a.logger)
	a.feedbackIngress = service.NewFeedbackIngress(a.feedbackQueueRepo, service.NewFeedbackNormalizer(a.logger), a.logger)

	return nil
}

// buildDrivers assembles the provider chain in failover order. The
// configured kind is primary; with fallback enabled the other half joins
// as secondary.
func (a *App) buildDrivers() ([]domain.EmailDriver, error) {
	ses := domain.SESSettings{
		Region:           a.config.Provider.SES.Region,
		AccessKey:        a.config.Provider.SES.AccessKey,
		SecretKey:        a.config.Provider.SES.SecretKey,
		FromAddress:      a.config.Provider.SES.FromAddress,
		FromName:         a.config.Provider.SES.FromName,
		ReplyTo:          a.config.Provider.SES.ReplyTo,
		ConfigurationSet: a.config.Provider.SES.ConfigurationSet,
	}
	smtp := domain.SMTPSettings{
		Host:             a.config.Provider.SMTP.Host,
		Port:             a.config.Provider.SMTP.Port,
		Username:         a.config.Provider.SMTP.Username,
		Password:         a.config.Provider.SMTP.Password,
		UseTLS:           a.config.Provider.SMTP.UseTLS,
		FromAddress:      a.config.Provider.SMTP.FromAddress,
		FromName:         a.config.Provider.SMTP.FromName,
		ReturnPathDomain: a.config.Provider.SMTP.ReturnPathDomain,
	}

	var drivers []domain.EmailDriver

	switch a.config.Provider.Kind {
	case config.ProviderKindAPI:
		if err := ses.Validate(); err != nil {
			return nil, fmt.Errorf("invalid SES provider settings: %w", err)
		}
		drivers = append(drivers, service.NewSESDriver(ses, a.config.Chaos.SES429, a.logger))
		if a.config.Provider.FallbackEnabled {
			if err := smtp.Validate(); err != nil {
				return nil, fmt.Errorf("invalid SMTP fallback settings: %w", err)
			}
			drivers = append(drivers, service.NewSMTPDriver(smtp, a.logger))
		}
	case config.ProviderKindSMTP:
		if err := smtp.Validate(); err != nil {
			return nil, fmt.Errorf("invalid SMTP provider settings: %w", err)
		}
		drivers = append(drivers, service.NewSMTPDriver(smtp, a.logger))
		if a.config.Provider.FallbackEnabled {
			if err := ses.Validate(); err != nil {
				return nil, fmt.Errorf("invalid SES fallback settings: %w", err)
			}
			drivers = append(drivers, service.NewSESDriver(ses, a.config.Chaos.SES429, a.logger))
		}
	default:
		return nil, fmt.Errorf("unknown provider kind %q", a.config.Provider.Kind)
	}

	a.logger.WithFields(map[string]interface{}{
		"primary":  a.config.Provider.Kind,
		"fallback": a.config.Provider.FallbackEnabled,
	}).Info("Provider chain configured")

	return drivers, nil
}

// InitWorkers initializes the background workers and the inbound feedback
// listener. Nothing runs until Start.
func (a *App) InitWorkers() error {
	if a.driverChain == nil {
		return fmt.Errorf("services must be initialized before workers")
	}

	a.pipelineWorker = service.NewPipelineWorker(service.PipelineWorkerConfig{
		Concurrency:        a.config.Worker.Concurrency,
		DrainTimeout:       30 * time.Second,
		SendBudgetPerSec:   a.config.Worker.SendRatePerSecond,
		UnsubscribeBaseURL: a.config.APIEndpoint,
		MaxAttempts:        a.config.Worker.MaxAttempts,
		RetrySchedule:      a.config.Worker.RetrySchedule,
	}, service.PipelineWorkerDeps{
		Queue:        a.queueRepo,
		Outbox:       a.outboxRepo,
		Logs:         a.emailLogRepo,
		Events:       a.emailEventRepo,
		Suppressions: a.suppressionRepo,
		Throttles:    a.throttleRepo,
		Tenants:      a.tenantRepo,
		Domains:      a.sendingDomainRepo,
		Validator:    a.validator,
		MXLimiter:    a.mxLimiter,
		Pools:        a.poolService,
		Chain:        a.driverChain,
		Metrics:      a.metrics,
		Logger:       a.logger,
	})

	a.feedbackWorker = service.NewFeedbackWorker(service.FeedbackWorkerDeps{
		Queue:        a.feedbackQueueRepo,
		Logs:         a.emailLogRepo,
		Events:       a.emailEventRepo,
		Suppressions: a.suppressionRepo,
		Tracking:     a.trackingRepo,
		Webhooks:     a.webhookRepo,
		Deliveries:   a.webhookDeliveryRepo,
		Logger:       a.logger,
	})

	// Traced deliveries keep the worker's no-redirect rule; a nil client
	// lets the worker build its default
	var webhookClient *http.Client
	if a.config.Tracing.Enabled {
		webhookClient = tracing.WrapHTTPClient(&http.Client{
			Timeout: 30 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		})
	}

	a.webhookWorker = service.NewWebhookDeliveryWorker(service.WebhookDeliveryWorkerDeps{
		Config: service.WebhookDeliveryWorkerConfig{
			Concurrency:      a.config.Webhook.Concurrency,
			RatePerSecond:    a.config.Webhook.RatePerSecond,
			SecretPassphrase: a.config.Security.SecretKey,
		},
		Deliveries: a.webhookDeliveryRepo,
		Webhooks:   a.webhookRepo,
		HTTPClient: webhookClient,
		Logger:     a.logger,
	})

	a.reputationMonitor = service.NewReputationMonitor(service.ReputationMonitorDeps{
		Tenants:      a.tenantRepo,
		Logs:         a.emailLogRepo,
		Events:       a.emailEventRepo,
		Metrics:      a.reputationRepo,
		Throttles:    a.throttleRepo,
		Domains:      a.sendingDomainRepo,
		Suppressions: a.suppressionRepo,
		Logger:       a.logger,
	})

	a.sandboxMonitor = service.NewSandboxMonitor(service.SandboxMonitorDeps{
		Tenants: a.tenantRepo,
		Logs:    a.emailLogRepo,
		Logger:  a.logger,
	})

	if a.config.SLO.Enabled {
		a.sloController = service.NewSLOController(service.SLOControllerDeps{
			Worker:       a.pipelineWorker,
			Metrics:      a.metrics,
			Logger:       a.logger,
			Interval:     a.config.SLO.Interval,
			MaxErrorRate: a.config.SLO.MaxErrorRate,
			MaxQueueAge:  a.config.SLO.MaxQueueAge,
		})
	}

	if a.config.Feedback.Enabled {
		backend := smtpingress.NewBackend(
			a.config.Feedback.Domain,
			a.feedbackAuthenticator(),
			a.feedbackIngress.HandleMessage,
			a.logger,
		)

		server, err := smtpingress.NewServer(smtpingress.ServerConfig{
			Host:        a.config.Feedback.Host,
			Port:        a.config.Feedback.Port,
			Domain:      a.config.Feedback.Domain,
			TLSCertFile: a.config.Feedback.TLSCertFile,
			TLSKeyFile:  a.config.Feedback.TLSKeyFile,
			Logger:      a.logger,
		}, backend)
		if err != nil {
			return fmt.Errorf("failed to create feedback listener: %w", err)
		}
		a.feedbackServer = server
	}

	return nil
}

// feedbackAuthenticator returns the AUTH PLAIN check for the feedback
// listener, or nil when no credentials are configured
func (a *App) feedbackAuthenticator() smtpingress.Authenticator {
	username := a.config.Feedback.Username
	password := a.config.Feedback.Password
	if username == "" || password == "" {
		return nil
	}

	return func(u, p string) error {
		userOK := subtle.ConstantTimeCompare([]byte(u), []byte(username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
		if !userOK || !passOK {
			return fmt.Errorf("invalid credentials")
		}
		return nil
	}
}

// InitHandlers initializes the ops HTTP surface
func (a *App) InitHandlers() error {
	// Create a new ServeMux to avoid route conflicts on restart
	a.mux = http.NewServeMux()

	if a.opsLimiter == nil {
		a.opsLimiter = ratelimiter.NewRateLimiter()
	}

	opsAuth := middleware.NewBasicAuth(middleware.BasicAuthConfig{
		Username:     a.config.Security.OpsUsername,
		PasswordHash: a.config.Security.OpsPasswordHash,
		Limiter:      a.opsLimiter,
		Logger:       a.logger,
	})

	// Initialize handlers
	healthHandler := httpHandler.NewHealthHandler(a.db, a.config.Version, a.logger)
	dlqHandler := httpHandler.NewDLQHandler(a.dlqService, opsAuth, a.logger)
	queueHandler := httpHandler.NewQueueHandler(a.dlqService, opsAuth, a.logger)
	feedbackHandler := httpHandler.NewFeedbackHandler(a.feedbackIngress, a.logger)

	// Register routes
	healthHandler.RegisterRoutes(a.mux)
	dlqHandler.RegisterRoutes(a.mux)
	queueHandler.RegisterRoutes(a.mux)
	feedbackHandler.RegisterRoutes(a.mux)

	return nil
}

// Start launches the background workers and serves the listeners. It blocks
// until both the ops server and the feedback listener have stopped.
func (a *App) Start() error {
	// Ops surface only, so no CORS; browsers have no business here
	var handler http.Handler = a.mux

	// Apply graceful shutdown middleware first (outermost)
	handler = a.gracefulShutdownMiddleware(handler)
	a.logger.Info("Graceful shutdown middleware enabled")

	// Apply tracing middleware if enabled
	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
		a.logger.Info("OpenCensus tracing middleware enabled")
	}

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).
		WithField("environment", a.config.Environment).
		Info(fmt.Sprintf("Ops server starting on %s", addr))

	// Create a fresh notification channel and update the server
	a.serverMu.Lock()
	// Close the existing channel if it exists
	if a.serverStarted != nil {
		close(a.serverStarted)
	}
	a.serverStarted = make(chan struct{})

	// Create the server
	a.server = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Get a reference to the channel before unlocking
	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	// Signal that the server has been created and is about to start
	close(serverStarted)

	if err := a.startWorkers(); err != nil {
		return err
	}

	g, _ := errgroup.WithContext(a.shutdownCtx)

	g.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ops server error: %w", err)
		}
		return nil
	})

	if a.feedbackServer != nil {
		g.Go(func() error {
			return a.feedbackServer.Start()
		})
	}

	return g.Wait()
}

// startWorkers launches the processing loops on the shutdown context
func (a *App) startWorkers() error {
	if a.pipelineWorker == nil {
		return fmt.Errorf("workers must be initialized before start")
	}

	ctx := a.shutdownCtx

	if err := a.pipelineWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline worker: %w", err)
	}
	if err := a.feedbackWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start feedback worker: %w", err)
	}
	if err := a.webhookWorker.Start(ctx); err != nil {
		return fmt.Errorf("failed to start webhook delivery worker: %w", err)
	}
	if err := a.reputationMonitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reputation monitor: %w", err)
	}
	if err := a.sandboxMonitor.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sandbox monitor: %w", err)
	}
	if a.sloController != nil {
		if err := a.sloController.Start(ctx); err != nil {
			return fmt.Errorf("failed to start SLO controller: %w", err)
		}
	}

	a.logger.Info("Background workers started")
	return nil
}

// stopWorkers stops intake first, then unwinds the processing loops. The
// pipeline worker goes last because it drains in-flight sends.
func (a *App) stopWorkers(ctx context.Context) {
	if a.feedbackServer != nil {
		if err := a.feedbackServer.Shutdown(ctx); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping feedback listener")
		}
	}

	if a.sloController != nil {
		if err := a.sloController.Stop(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping SLO controller")
		}
	}

	if a.sandboxMonitor != nil {
		if err := a.sandboxMonitor.Stop(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping sandbox monitor")
		}
	}

	if a.reputationMonitor != nil {
		if err := a.reputationMonitor.Stop(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping reputation monitor")
		}
	}

	if a.webhookWorker != nil {
		if err := a.webhookWorker.Stop(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping webhook delivery worker")
		}
	}

	if a.feedbackWorker != nil {
		if err := a.feedbackWorker.Stop(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping feedback worker")
		}
	}

	if a.pipelineWorker != nil {
		if err := a.pipelineWorker.Stop(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error stopping pipeline worker")
		}
	}

	a.logger.Info("Background workers stopped")
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	// Signal shutdown to all components
	a.shutdownCancel()

	// Get server reference
	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		a.stopWorkers(ctx)
		return a.cleanupResources(ctx)
	}

	// Log current active requests
	activeCount := a.getActiveRequestCount()
	a.logger.WithField("active_requests", activeCount).Info("Active requests at shutdown start")

	// Create a timeout context for shutdown operations
	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		// Use the provided context deadline if it's sooner than our default timeout
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second // Leave 1 second buffer
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	// Start HTTP server shutdown in a goroutine
	serverShutdownDone := make(chan error, 1)
	go func() {
		a.logger.WithField("timeout", shutdownTimeout).Info("Starting HTTP server shutdown")
		serverShutdownDone <- server.Shutdown(shutdownCtx)
	}()

	// Stop intake and drain the workers while the server closes
	a.stopWorkers(shutdownCtx)

	// Wait for active requests to complete in another goroutine
	requestsDone := make(chan struct{}, 1)
	go func() {
		defer close(requestsDone)

		// Wait for all active requests to complete
		a.logger.Info("Waiting for active requests to complete...")
		done := make(chan struct{})

		go func() {
			a.requestWg.Wait()
			close(done)
		}()

		// Monitor progress
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				a.logger.Info("All requests completed")
				return
			case <-ticker.C:
				activeCount := a.getActiveRequestCount()
				a.logger.WithField("active_requests", activeCount).Info("Still waiting for requests to complete...")
			case <-shutdownCtx.Done():
				activeCount := a.getActiveRequestCount()
				a.logger.WithField("active_requests", activeCount).Warn("Shutdown timeout reached, forcing shutdown")
				return
			}
		}
	}()

	// Wait for both server shutdown and requests to complete
	var shutdownErr error

	select {
	case err := <-serverShutdownDone:
		shutdownErr = err
		a.logger.Info("HTTP server shutdown completed")
	case <-shutdownCtx.Done():
		a.logger.Warn("Shutdown timeout reached")
		shutdownErr = fmt.Errorf("shutdown timeout exceeded")
	}

	// Wait a bit more for requests to finish if server shutdown completed quickly
	if shutdownErr == nil {
		select {
		case <-requestsDone:
			// All requests completed
		case <-time.After(2 * time.Second):
			// Give up after 2 more seconds
			activeCount := a.getActiveRequestCount()
			if activeCount > 0 {
				a.logger.WithField("active_requests", activeCount).Warn("Some requests still active, proceeding with shutdown")
			}
		}
	}

	// Cleanup resources
	if cleanupErr := a.cleanupResources(ctx); cleanupErr != nil {
		a.logger.WithField("error", cleanupErr).Error("Error during resource cleanup")
		if shutdownErr == nil {
			shutdownErr = cleanupErr
		}
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources closes the clients and connections the app owns
func (a *App) cleanupResources(ctx context.Context) error {
	a.logger.Info("Cleaning up resources...")

	if a.opsLimiter != nil {
		a.opsLimiter.Stop()
	}

	if a.redis != nil {
		a.logger.Info("Closing redis connection")
		if err := a.redis.Close(); err != nil {
			a.logger.WithField("error", err).Error("Error closing redis connection")
		}
	}

	// Close database connection if it exists
	if a.db != nil {
		if a.dbStatsStop != nil {
			a.dbStatsStop()
		}

		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err).Error("Error closing database connection")
			return err
		}
	}

	a.logger.Info("Resource cleanup completed")
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created and initialized
// Returns true if the server started successfully, false if context expired
func (a *App) WaitForServerStart(ctx context.Context) bool {
	// Get the current channel under lock
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	// If the channel is nil, that's a logic error - just wait on the context
	if started == nil {
		a.logger.Error("serverStarted channel is nil - server initialization error")
		<-ctx.Done()
		return false
	}

	// Wait for signal or timeout
	select {
	case <-started:
		return a.IsServerCreated() // Double-check server was created
	case <-ctx.Done():
		return false
	}
}

// Initialize runs every initialization step in dependency order
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting sendgate")

	if err := a.InitTracing(); err != nil {
		return err
	}

	if err := a.InitDB(); err != nil {
		return err
	}

	if err := a.InitRedis(); err != nil {
		return err
	}

	if err := a.InitRepositories(); err != nil {
		return err
	}

	if err := a.InitServices(); err != nil {
		return err
	}

	if err := a.InitWorkers(); err != nil {
		return err
	}

	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

// GetRedis returns the app's redis client
func (a *App) GetRedis() *redis.Client {
	return a.redis
}

// Repository getters for testing
func (a *App) GetTenantRepository() domain.TenantRepository {
	return a.tenantRepo
}

func (a *App) GetOutboxRepository() domain.OutboxRepository {
	return a.outboxRepo
}

func (a *App) GetSendQueueRepository() domain.SendQueueRepository {
	return a.queueRepo
}

func (a *App) GetDeadLetterRepository() domain.DeadLetterRepository {
	return a.deadLetterRepo
}

func (a *App) GetFeedbackQueueRepository() domain.FeedbackQueueRepository {
	return a.feedbackQueueRepo
}

func (a *App) GetEmailLogRepository() domain.EmailLogRepository {
	return a.emailLogRepo
}

func (a *App) GetSuppressionRepository() domain.SuppressionRepository {
	return a.suppressionRepo
}

func (a *App) GetWebhookRepository() domain.WebhookRepository {
	return a.webhookRepo
}

// GetOutboxService returns the producer seam so embedding programs can
// submit sends without going over the wire
func (a *App) GetOutboxService() *service.OutboxService {
	return a.outboxService
}

// incrementActiveRequests atomically increments the active request counter
func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

// decrementActiveRequests atomically decrements the active request counter
func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

// getActiveRequestCount returns the current number of active requests
func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests (public interface method)
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout).Info("Shutdown timeout configured")
}

// GetShutdownContext returns the shutdown context for components that need to watch for shutdown
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

// isShuttingDown returns true if the application is in shutdown mode
func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware wraps HTTP handlers to track active requests
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if we're shutting down
		if a.isShuttingDown() {
			http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		// Track this request
		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		// Call the next handler
		next.ServeHTTP(w, r)
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
