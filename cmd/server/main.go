package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	appinvoicing "github.com/salesledger/backend/internal/application/invoicing"
	appreporting "github.com/salesledger/backend/internal/application/reporting"
	"github.com/salesledger/backend/internal/infrastructure/auth"
	"github.com/salesledger/backend/internal/infrastructure/cache"
	"github.com/salesledger/backend/internal/infrastructure/config"
	"github.com/salesledger/backend/internal/infrastructure/logger"
	"github.com/salesledger/backend/internal/infrastructure/messaging"
	"github.com/salesledger/backend/internal/infrastructure/persistence"
	"github.com/salesledger/backend/internal/infrastructure/scheduler"
	"github.com/salesledger/backend/internal/interfaces/http/handler"
	"github.com/salesledger/backend/internal/interfaces/http/middleware"
	"github.com/salesledger/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting Sales Ledger API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database with a zap-backed GORM logger
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

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database connected")

	// Customer locker: Redis when enabled, in-memory otherwise
	lockerFactory := cache.NewCustomerLockerFactory(cfg.Redis, cache.WithLogger(log))
	locker, err := lockerFactory.CreateLocker()
	if err != nil {
		log.Fatal("Failed to create customer locker", zap.Error(err))
	}

	// Report queue publisher
	publisher, err := messaging.NewReportPublisher(cfg.RabbitMQ)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()
	log.Info("Report queue connected", zap.String("queue", cfg.RabbitMQ.ReportQueue))

	// Repositories and application services
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	invoiceService := appinvoicing.NewInvoiceService(invoiceRepo, locker, cfg.Invoicing.LockTimeout, log)

	aggregator := appreporting.NewAggregationService(invoiceRepo)
	directory := appreporting.NewStaticCustomerDirectory(cfg.Scheduler.EmailDomain)
	dispatcher := appreporting.NewReportDispatcher(directory, publisher)
	dailyJob := appreporting.NewDailyReportJob(
		appreporting.DailyReportJobConfig{
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
		},
		invoiceRepo,
		aggregator,
		dispatcher,
		log,
	)

	// Daily trigger
	trigger := scheduler.NewDailyTrigger(scheduler.DailyTriggerConfig{
		Hour:   cfg.Scheduler.DailyReportHour,
		Minute: cfg.Scheduler.DailyReportMinute,
	}, dailyJob, log)

	triggerCtx, cancelTrigger := context.WithCancel(context.Background())
	defer cancelTrigger()
	if cfg.Scheduler.Enabled {
		if err := trigger.Start(triggerCtx); err != nil {
			log.Fatal("Failed to start daily trigger", zap.Error(err))
		}
	}

	// HTTP
	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))

	r := router.NewRouter(engine, router.WithMiddleware(middleware.JWTAuthMiddleware(jwtService)))
	r.Register(handler.NewInvoiceHandler(invoiceService, log))
	r.Register(handler.NewReportHandler(trigger, log))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if cfg.Scheduler.Enabled {
		if err := trigger.Stop(ctx); err != nil {
			log.Warn("Daily trigger did not stop cleanly", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
