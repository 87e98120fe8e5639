// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	auditUseCase "github.com/openballot/openballot/internal/audit/usecase"
	"github.com/openballot/openballot/internal/clock"
	"github.com/openballot/openballot/internal/config"
	"github.com/openballot/openballot/internal/database"
	electionUseCase "github.com/openballot/openballot/internal/election/usecase"
	eligibilityUseCase "github.com/openballot/openballot/internal/eligibility/usecase"
	"github.com/openballot/openballot/internal/guard"
	"github.com/openballot/openballot/internal/http"
	"github.com/openballot/openballot/internal/metrics"
	"github.com/openballot/openballot/internal/notification"
	"github.com/openballot/openballot/internal/scheduler"
	secretcodeUseCase "github.com/openballot/openballot/internal/secretcode/usecase"
	votingUseCase "github.com/openballot/openballot/internal/voting/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger      *slog.Logger
	db          *sql.DB
	clk         clock.Clock
	redisClient *redis.Client

	// Observability
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Messaging
	dispatcher notification.Dispatcher

	// Use Cases
	auditLogUseCase    auditUseCase.AuditLogUseCase
	secretCodeUseCase  secretcodeUseCase.SecretCodeUseCase
	eligibilityUseCase eligibilityUseCase.EligibilityUseCase
	electionUseCase    electionUseCase.ElectionUseCase
	voteUseCase        votingUseCase.VoteUseCase

	// Guard
	limiter         guard.Limiter
	counterStore    guard.CounterStore
	securityTracker *guard.SecurityTracker

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	scheduler     *scheduler.Scheduler

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	clockInit              sync.Once
	redisClientInit        sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	dispatcherInit         sync.Once
	auditLogUseCaseInit    sync.Once
	secretCodeUseCaseInit  sync.Once
	eligibilityUseCaseInit sync.Once
	electionUseCaseInit    sync.Once
	voteUseCaseInit        sync.Once
	limiterInit            sync.Once
	counterStoreInit       sync.Once
	securityTrackerInit    sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	schedulerInit          sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Clock returns the shared wall clock.
func (c *Container) Clock() clock.Clock {
	c.clockInit.Do(func() {
		c.clk = clock.NewSystemClock()
	})
	return c.clk
}

// DB returns the database connection.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the shared Redis client for the guard backends.
func (c *Container) RedisClient() (*redis.Client, error) {
	var err error
	c.redisClientInit.Do(func() {
		c.redisClient, err = c.initRedisClient()
		if err != nil {
			c.initErrors["redisClient"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["redisClient"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// MetricsProvider returns the Prometheus metrics provider.
// Returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder.
// Returns nil when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// Dispatcher returns the notification dispatcher.
func (c *Container) Dispatcher() (notification.Dispatcher, error) {
	var err error
	c.dispatcherInit.Do(func() {
		c.dispatcher, err = notification.NewPubSubDispatcher(
			context.Background(),
			c.config.NotificationTopicURL,
		)
		if err != nil {
			c.initErrors["dispatcher"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["dispatcher"]; exists {
		return nil, storedErr
	}
	return c.dispatcher, nil
}

// HTTPServer returns the HTTP API server with all routes assembled.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server.
// Returns nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}

	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Scheduler returns the background reconciliation scheduler.
func (c *Container) Scheduler() (*scheduler.Scheduler, error) {
	var err error
	c.schedulerInit.Do(func() {
		c.scheduler, err = c.initScheduler()
		if err != nil {
			c.initErrors["scheduler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["scheduler"]; exists {
		return nil, storedErr
	}
	return c.scheduler, nil
}

// Shutdown gracefully releases all initialized resources.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP server if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	// Flush pending notifications if the dispatcher was opened
	if c.dispatcher != nil {
		if err := c.dispatcher.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("dispatcher shutdown: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Close Redis client if initialized
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRedisClient parses the Redis URL and opens a client.
func (c *Container) initRedisClient() (*redis.Client, error) {
	opts, err := redis.ParseURL(c.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

// initBusinessMetrics creates the business metrics recorder from the provider.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return businessMetrics, nil
}

// initHTTPServer assembles the API server with handlers and middleware.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	voteHandler, err := c.VoteHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get vote handler for http server: %w", err)
	}

	auditLogHandler, err := c.AuditLogHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log handler for http server: %w", err)
	}

	routerConfig := http.RouterConfig{
		VoteHandler:      voteHandler,
		AuditLogHandler:  auditLogHandler,
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
	}

	if c.config.RateLimitEnabled {
		limiter, err := c.Limiter()
		if err != nil {
			return nil, fmt.Errorf("failed to get limiter for http server: %w", err)
		}

		auditLogUseCase, err := c.AuditLogUseCase()
		if err != nil {
			return nil, fmt.Errorf("failed to get audit log use case for http server: %w", err)
		}

		routerConfig.RateLimit = guard.RateLimitMiddleware(
			limiter,
			auditLogUseCase,
			c.config.RateLimitFailOpen,
			logger,
		)
	}

	if c.config.MetricsEnabled {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
		}
		routerConfig.Metrics = metrics.HTTPMetricsMiddleware(provider.MeterProvider(), c.config.MetricsNamespace)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(routerConfig)

	return server, nil
}

// initMetricsServer creates the Prometheus scrape endpoint server.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

// initScheduler assembles the background tasks: election phase reconciliation
// and audit log retention cleanup.
func (c *Container) initScheduler() (*scheduler.Scheduler, error) {
	logger := c.Logger()
	clk := c.Clock()

	electionUC, err := c.ElectionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get election use case for scheduler: %w", err)
	}

	auditLogUC, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for scheduler: %w", err)
	}

	retention := time.Duration(c.config.AuditRetentionDays) * 24 * time.Hour

	tasks := []scheduler.Task{
		{
			Name: "election_phase_reconcile",
			Run: func(ctx context.Context) error {
				_, err := electionUC.Reconcile(ctx, clk.Now())
				return err
			},
		},
		{
			Name: "audit_log_cleanup",
			Run: func(ctx context.Context) error {
				_, err := auditLogUC.CleanupExpired(ctx, retention)
				return err
			},
		},
	}

	return scheduler.NewScheduler(c.config.SchedulerInterval, tasks, logger), nil
}

// auditSigningKey decodes the configured signing key. An absent key falls
// back to an ephemeral random key: entries stay signed but cannot be verified
// across restarts, which is logged loudly at startup.
func (c *Container) auditSigningKey() ([]byte, error) {
	if c.config.AuditSigningKey == "" {
		c.Logger().Warn("AUDIT_SIGNING_KEY not set, using ephemeral key; signatures will not survive restarts")
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral signing key: %w", err)
		}
		return key, nil
	}

	key, err := base64.StdEncoding.DecodeString(c.config.AuditSigningKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audit signing key: %w", err)
	}
	return key, nil
}
