package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ventrapay/escrow-server/internal/module/charge"
	"github.com/ventrapay/escrow-server/internal/module/escrow"
	"github.com/ventrapay/escrow-server/internal/module/idempotency"
	"github.com/ventrapay/escrow-server/internal/module/ledger"
	"github.com/ventrapay/escrow-server/internal/module/order"
	"github.com/ventrapay/escrow-server/internal/module/settings"
	"github.com/ventrapay/escrow-server/internal/module/webhook"
	sharedcache "github.com/ventrapay/escrow-server/internal/shared/cache"
	"github.com/ventrapay/escrow-server/internal/shared/config"
	"github.com/ventrapay/escrow-server/internal/shared/database"
	"github.com/ventrapay/escrow-server/internal/shared/logger"
	"github.com/ventrapay/escrow-server/internal/shared/metrics"
	"github.com/ventrapay/escrow-server/internal/shared/middleware"
)

// App wires configuration, storage and the HTTP surface together.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	// Handlers
	orderHandler    *order.Handler
	chargeHandler   *charge.Handler
	escrowHandler   *escrow.Handler
	ledgerHandler   *ledger.Handler
	webhookHandler  *webhook.Handler
	settingsHandler *settings.Handler

	// Services kept for cross-module wiring
	webhookService *webhook.Service
	keyStore       *settings.Store
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	zapLog, err := logger.NewZapLogger(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
		metrics:   metrics.New("escrow"),
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := database.Migrate(db,
		&order.Order{},
		&charge.Charge{},
		&ledger.Entry{},
		&idempotency.Record{},
		&webhook.Subscription{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	// Redis is optional; without it the in-flight duplicate lock is off
	// but idempotency records still protect replays.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			zapLog.Warn("redis connection failed, continuing without it", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	app.initModules()
	app.router = app.setupRouter()

	if err := app.webhookService.EnsureDefaultSubscription(context.Background()); err != nil {
		zapLog.Warn("ensure default webhook subscription", zap.Error(err))
	}

	return app, nil
}

// initModules builds every module and the adapters between them.
func (a *App) initModules() {
	cfg := a.config
	txManager := database.NewTxManager(a.db)

	// Repositories
	orderRepo := order.NewRepository(a.db)
	chargeRepo := charge.NewRepository(a.db)
	ledgerRepo := ledger.NewRepository(a.db)
	idempotencyRepo := idempotency.NewRepository(a.db)
	webhookRepo := webhook.NewRepository(a.db)

	// Idempotency guard shared by every mutating endpoint
	guard := idempotency.NewGuard(idempotencyRepo, txManager, a.redis, a.metrics, a.zapLogger)

	// Webhook delivery
	resolver := webhook.NewResolver(
		cfg.Webhook.ResolverBaseURL,
		cfg.Webhook.ResolverToken,
		cfg.Webhook.ResolverCacheTTL,
		a.zapLogger,
	)
	a.webhookService = webhook.NewService(
		webhookRepo,
		resolver,
		cfg.Env,
		cfg.Webhook.URL,
		cfg.Webhook.Secret,
		cfg.Webhook.Timeout,
		a.metrics,
		a.zapLogger,
	)

	// Ledger
	ledgerService := ledger.NewService(ledgerRepo, newLedgerOrderAdapter(orderRepo), a.metrics, a.zapLogger)

	// Orders
	orderService := order.NewService(orderRepo, newOrderChargeAdapter(chargeRepo), a.zapLogger)

	// Charges
	chargeService := charge.NewService(chargeRepo, orderRepo, ledgerService, a.metrics, cfg.Charge.ExpiryTTL, a.zapLogger)

	// Escrow settlement
	escrowService := escrow.NewService(orderRepo, ledgerService, a.metrics, a.zapLogger)

	// Runtime settings
	a.keyStore = settings.NewStore(cfg.Auth.RuntimeDir, cfg.Auth.APIKey)

	// Handlers
	a.orderHandler = order.NewHandler(orderService, guard)
	a.chargeHandler = charge.NewHandler(chargeService, guard, a.webhookService, cfg.Sandbox())
	a.escrowHandler = escrow.NewHandler(escrowService, guard, a.webhookService)
	a.ledgerHandler = ledger.NewHandler(ledgerService)
	a.webhookHandler = webhook.NewHandler(a.webhookService)
	a.settingsHandler = settings.NewHandler(a.keyStore)
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter() *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Every business route sits behind the API key check.
	api := r.Group("/", middleware.APIKeyAuth(a.keyStore))
	a.orderHandler.RegisterRoutes(api)
	a.chargeHandler.RegisterRoutes(api)
	a.escrowHandler.RegisterRoutes(api)
	a.ledgerHandler.RegisterRoutes(api)
	a.webhookHandler.RegisterRoutes(api)
	a.settingsHandler.RegisterRoutes(api)

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases the application's external connections.
func (a *App) Stop() {
	if a.redis != nil {
		if err := sharedcache.Close(a.redis); err != nil {
			a.zapLogger.Warn("close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			a.zapLogger.Warn("close database", zap.Error(err))
		}
	}
	_ = a.zapLogger.Sync()
}
