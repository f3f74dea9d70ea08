package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	inventoryapp "github.com/wms/backend/internal/application/inventory"
	returnsapp "github.com/wms/backend/internal/application/returns"
	"github.com/wms/backend/internal/domain/returns"
	"github.com/wms/backend/internal/infrastructure/auth"
	"github.com/wms/backend/internal/infrastructure/cache"
	"github.com/wms/backend/internal/infrastructure/config"
	"github.com/wms/backend/internal/infrastructure/event"
	"github.com/wms/backend/internal/infrastructure/logger"
	"github.com/wms/backend/internal/infrastructure/persistence"
	"github.com/wms/backend/internal/interfaces/http/handler"
	"github.com/wms/backend/internal/interfaces/http/middleware"
	"github.com/wms/backend/internal/interfaces/http/router"
)

// version is injected at build time via -ldflags
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting WMS returns backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	stockLedger := persistence.NewGormStockLedger(db.DB)
	materialRepo := persistence.NewGormMaterialRepository(db.DB)

	// Scope locker for return code generation. Redis serializes code
	// issuance across instances; single-instance deployments fall back to a
	// process-local locker.
	lockerFactory := cache.NewScopeLockerFactory(cfg.Redis, cfg.Returns,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	scopeLocker, err := lockerFactory.CreateLocker()
	if err != nil {
		log.Fatal("Failed to create scope locker", zap.Error(err))
	}

	// Application services
	workflowService := returnsapp.NewWorkflowService(
		returnRepo,
		stockLedger,
		returns.NewLineValidator(stockLedger),
		returns.NewMovementPolicy(),
		returnsapp.NewCodeGenerator(returnRepo, scopeLocker, log),
		log,
	)
	summaryService := returnsapp.NewSummaryService(returnRepo)
	catalogService := inventoryapp.NewCatalogService(materialRepo, stockLedger)

	// Event bus and subscribers
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(returnsapp.NewReturnAuditHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	workflowService.SetEventPublisher(eventBus)

	// Auth
	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSFromConfig(cfg.HTTP))

	// Handlers
	systemHandler := handler.NewSystemHandler(db, version)
	returnHandler := handler.NewReturnHandler(workflowService, summaryService)
	materialHandler := handler.NewMaterialHandler(catalogService)

	// Health endpoint outside API versioning and authentication
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
		},
		Logger: log,
	}))

	returnRoutes := router.NewDomainGroup("returns", "/returns")
	returnRoutes.POST("", returnHandler.Submit)
	returnRoutes.GET("", returnHandler.List)
	returnRoutes.GET("/pending", returnHandler.ListPending)
	returnRoutes.GET("/summary", returnHandler.Summary)
	returnRoutes.GET("/code/:code", returnHandler.GetByCode)
	returnRoutes.GET("/:id", returnHandler.Get)
	returnRoutes.POST("/:id/approve", returnHandler.Approve)
	returnRoutes.POST("/:id/reject", returnHandler.Reject)
	returnRoutes.POST("/:id/process", returnHandler.Process)

	materialRoutes := router.NewDomainGroup("inventory", "/materials")
	materialRoutes.POST("", materialHandler.Register)
	materialRoutes.GET("/:id", materialHandler.Get)
	materialRoutes.PUT("/:id/returnable", materialHandler.SetReturnable)
	materialRoutes.GET("/:id/balance", materialHandler.Balance)
	materialRoutes.PUT("/:id/balance", materialHandler.SetBalance)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(returnRoutes).
		Register(materialRoutes).
		Register(systemRoutes)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
