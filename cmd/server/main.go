package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	customerapp "github.com/bizconsult/crm/internal/application/customer"
	documentapp "github.com/bizconsult/crm/internal/application/document"
	identityapp "github.com/bizconsult/crm/internal/application/identity"
	notificationapp "github.com/bizconsult/crm/internal/application/notification"
	proposalapp "github.com/bizconsult/crm/internal/application/proposal"
	settlementapp "github.com/bizconsult/crm/internal/application/settlement"
	todoapp "github.com/bizconsult/crm/internal/application/todo"
	"github.com/bizconsult/crm/internal/infrastructure/auth"
	"github.com/bizconsult/crm/internal/infrastructure/cache"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/bizconsult/crm/internal/infrastructure/debounce"
	"github.com/bizconsult/crm/internal/infrastructure/event"
	"github.com/bizconsult/crm/internal/infrastructure/export"
	"github.com/bizconsult/crm/internal/infrastructure/lock"
	"github.com/bizconsult/crm/internal/infrastructure/logger"
	"github.com/bizconsult/crm/internal/infrastructure/notification"
	"github.com/bizconsult/crm/internal/infrastructure/ocr"
	"github.com/bizconsult/crm/internal/infrastructure/persistence"
	"github.com/bizconsult/crm/internal/infrastructure/printing"
	"github.com/bizconsult/crm/internal/infrastructure/storage"
	"github.com/bizconsult/crm/internal/infrastructure/telemetry"
	"github.com/bizconsult/crm/internal/interfaces/http/handler"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/bizconsult/crm/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag/v2"
	"go.uber.org/zap"
)

//	@title			CRM API
//	@version		1.0
//	@description	Customer, funnel and settlement API for the consulting CRM

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	// Telemetry: traces, metrics and the OTLP log bridge. Disabled providers are no-ops.
	providers, err := telemetry.NewProviders(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		SpanProfiles:      cfg.Telemetry.ProfilingEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = providers.TeeLogger(log)

	log.Info("Starting CRM Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else {
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
	}

	meter := providers.Meter(cfg.Telemetry.ServiceName)
	metrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register business metrics", zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis backs notification dedupe, token revocation and settlement locks.
	// Without it every one of those falls back to a process-local store.
	redisClient := connectRedis(cfg, log)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis", zap.Error(err))
			}
		}()
	}

	dedupeStore, err := cache.NewDedupeStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(redisClient)
	if err != nil {
		log.Fatal("Failed to create notification dedupe store", zap.Error(err))
	}

	var blacklist auth.TokenBlacklist
	var locker settlementapp.Locker
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		locker = lock.NewRedisLocker(redisClient, cfg.Settlement.LockRetryCount, cfg.Settlement.LockRetryDelay)
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		locker = lock.NewLocalLocker(cfg.Settlement.LockRetryCount, cfg.Settlement.LockRetryDelay)
	}

	// Initialize repositories
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	logRepo := persistence.NewGormLogRepository(db.DB)
	settlementRepo := persistence.NewGormSettlementItemRepository(db.DB)
	teamRepo := persistence.NewGormTeamRepository(db.DB)
	todoRepo := persistence.NewGormTodoRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	eventBus := event.NewInMemoryEventBus(log)

	// Customer feed: fans events out to SSE subscribers of the same customer
	feedHub := event.NewFeedHub(eventSerializer, log, 16)
	eventBus.Subscribe(feedHub)

	// Optional Kafka forwarder for downstream consumers
	var kafkaForwarder *event.KafkaForwarder
	if cfg.Kafka.Enabled {
		kafkaForwarder = event.NewKafkaForwarder(event.NewKafkaWriter(cfg.Kafka), cfg.Kafka.Topic, eventSerializer, log)
		eventBus.Subscribe(kafkaForwarder)
		log.Info("Kafka forwarder enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	log.Info("Event handlers registered",
		zap.Strings("feed_events", feedHub.EventTypes()),
		zap.Bool("kafka", kafkaForwarder != nil),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Document storage and OCR
	objectStorage := newObjectStorage(cfg, log)
	preprocessor := ocr.NewPreprocessor(cfg.Storage.MaxImageSide, cfg.Storage.JPEGQuality)
	var extractor documentapp.Extractor
	if cfg.OCR.Enabled {
		client, err := ocr.NewClient(&cfg.OCR, log)
		if err != nil {
			log.Fatal("Failed to initialize OCR client", zap.Error(err))
		}
		extractor = client
	} else {
		log.Info("OCR disabled; document extraction returns an error")
	}

	// SMS
	var smsSender notificationapp.SMSSender
	if cfg.Notification.Enabled {
		client, err := notification.NewSolapiClient(&cfg.Notification)
		if err != nil {
			log.Fatal("Failed to initialize SMS client", zap.Error(err))
		}
		smsSender = client
	} else {
		smsSender = notification.NewLogSender(log)
		log.Info("Notifications disabled; messages are logged instead of sent")
	}

	// Proposal PDF rendering. HTML previews keep working without Chrome.
	var proposalPrinter proposalapp.Printer
	renderer, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Proposal.RenderTimeout,
		ExecPath:       cfg.Proposal.ChromePath,
		NoSandbox:      true,
		Scale:          1.0,
		Logger:         log,
	})
	if err != nil {
		log.Warn("Chrome renderer unavailable; proposal PDFs disabled", zap.Error(err))
	} else {
		defer func() {
			if err := renderer.Close(); err != nil {
				log.Error("Error closing renderer", zap.Error(err))
			}
		}()
		printer, err := printing.NewProposalPrinter(renderer, cfg.Proposal.CompanyName)
		if err != nil {
			log.Fatal("Failed to load proposal templates", zap.Error(err))
		}
		proposalPrinter = printer
	}

	// Debounced autosave for inline field edits
	debouncer := debounce.New(debounce.Config{
		Delay:       cfg.Autosave.Delay,
		TaskTimeout: cfg.Autosave.TaskTimeout,
	}, log)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserService(userRepo, teamRepo, blacklist, cfg.JWT.AccessTokenExpiration, log)
	teamService := identityapp.NewTeamService(teamRepo, userRepo, log)

	if cfg.Admin.Email != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if _, err := userService.EnsureSuperAdmin(ctx, cfg.Admin.Email, cfg.Admin.Name, cfg.Admin.Password); err != nil {
			log.Fatal("Failed to seed super admin", zap.Error(err))
		}
		cancel()
	}

	// Domain services
	settlementService := settlementapp.NewSettlementService(
		settlementRepo, customerRepo, userRepo, teamRepo, logRepo, eventBus, locker,
		export.NewSettlementWorkbook(cfg.Settlement.ExportSheetName),
		settlementapp.Options{
			LockTTL:     cfg.Settlement.LockTTL,
			DefaultRate: decimal.NewFromFloat(cfg.Settlement.DefaultRate),
		},
		metrics, log,
	)
	notificationService := notificationapp.NewNotificationService(
		smsSender, dedupeStore, userRepo, logRepo,
		notificationapp.Options{
			DedupWindow: cfg.Notification.DedupWindow,
			Sender:      cfg.Notification.Sender,
		},
		metrics, log,
	)
	customerService := customerapp.NewCustomerService(customerRepo, logRepo, userRepo, eventBus, log)
	funnelService := customerapp.NewFunnelService(
		customerService, customerRepo, logRepo, eventBus,
		settlementService, notificationService, metrics, log,
	)
	draftService := customerapp.NewDraftService(customerRepo, logRepo, eventBus, debouncer, log)
	documentService := documentapp.NewDocumentService(
		customerRepo, logRepo, eventBus, objectStorage, preprocessor, extractor, metrics, log,
	)
	proposalService := proposalapp.NewProposalService(customerRepo, userRepo, proposalPrinter, log)
	todoService := todoapp.NewTodoService(todoRepo, userRepo, log)

	// Health checks
	checks := map[string]handler.HealthCheck{
		"database": db.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Tracing - Start the server span
	// 4. Logger - Log requests
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. Metrics and profiling labels
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.Telemetry.MetricsEnabled {
		httpMetrics, err := middleware.HTTPMetrics(meter)
		if err != nil {
			log.Warn("HTTP metrics unavailable", zap.Error(err))
		} else {
			engine.Use(httpMetrics)
		}
	}
	engine.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", systemHandler.Health)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	base := r.BasePath()

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/health",
			base + "/auth/login",
			base + "/system/info",
			base + "/system/health",
		},
		QueryTokenPaths: []string{router.FeedPath(base)},
		Logger:          log,
	})
	r.Use(
		jwtMiddleware,
		middleware.TracingAttributeInjector(),
		middleware.SpanErrorMarker(),
	)

	apiOpts := router.APIOptions{
		MaxBodySize:   cfg.HTTP.MaxBodySize,
		MaxUploadSize: cfg.HTTP.MaxUploadSize,
	}
	if cfg.HTTP.LoginRateLimit > 0 {
		apiOpts.LoginLimiter = middleware.NewRateLimiter(cfg.HTTP.LoginRateLimit, cfg.HTTP.LoginRateWindow)
		log.Info("Login rate limiting enabled",
			zap.Int("attempts", cfg.HTTP.LoginRateLimit),
			zap.Duration("window", cfg.HTTP.LoginRateWindow),
		)
	}

	router.RegisterAPI(r, router.Handlers{
		Auth:         handler.NewAuthHandler(authService, userService),
		Customer:     handler.NewCustomerHandler(customerService),
		Funnel:       handler.NewFunnelHandler(customerService, funnelService, draftService),
		Document:     handler.NewDocumentHandler(documentService, cfg.HTTP.MaxUploadSize),
		Proposal:     handler.NewProposalHandler(proposalService),
		Feed:         handler.NewFeedHandler(customerService, feedHub),
		Settlement:   handler.NewSettlementHandler(settlementService),
		Notification: handler.NewNotificationHandler(notificationService),
		Todo:         handler.NewTodoHandler(todoService),
		User:         handler.NewUserHandler(userService, teamService),
		System:       systemHandler,
	}, apiOpts)

	// Setup routes
	r.Setup()

	// API documentation, generated from the registered routes
	if cfg.Swagger.Enabled {
		swag.Register(swag.Name, router.NewAPIDoc(r, "CRM API", version))
	}
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, jwtMiddleware),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	if !cfg.IsProduction() {
		for _, route := range r.Routes() {
			log.Debug("Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}

	// SSE streams stay open, so WriteTimeout must not cut them off; the
	// feed handler sends heartbeats and ends with the client.
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Close feeds first so open SSE streams return and Shutdown can finish
	feedHub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Pending autosaves are written before the database closes
	if err := draftService.FlushAll(ctx); err != nil {
		log.Error("Failed to flush pending drafts", zap.Error(err))
	}
	if err := debouncer.Stop(ctx); err != nil {
		log.Error("Error stopping autosave debouncer", zap.Error(err))
	}

	if kafkaForwarder != nil {
		if err := kafkaForwarder.Close(); err != nil {
			log.Error("Error closing Kafka forwarder", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// connectRedis returns nil when Redis is disabled or unreachable outside
// production. In production an enabled but unreachable Redis is fatal.
func connectRedis(cfg *config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		log.Info("Redis disabled; using in-memory stores")
		return nil
	}
	client, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		if cfg.IsProduction() {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		log.Warn("Redis unavailable; using in-memory stores", zap.Error(err))
		return nil
	}
	log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	return client
}

// newObjectStorage returns S3-compatible storage. Outside production an
// unconfigured bucket falls back to in-memory storage.
func newObjectStorage(cfg *config.Config, log *zap.Logger) documentapp.ObjectStorage {
	if cfg.Storage.AccessKeyID == "" && !cfg.IsProduction() {
		log.Warn("Object storage not configured; documents are kept in memory")
		return storage.NewMemoryObjectStorage()
	}
	s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiration(cfg.Storage.PresignExpiry),
	)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s3Storage.EnsureBucket(ctx); err != nil {
		log.Fatal("Object storage bucket unavailable", zap.Error(err))
	}
	return s3Storage
}
