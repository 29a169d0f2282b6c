package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	approvalapp "github.com/erp/procurement/internal/application/approval"
	inventoryapp "github.com/erp/procurement/internal/application/inventory"
	procurementapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/erp/procurement/internal/domain/approval"
	"github.com/erp/procurement/internal/infrastructure/auth"
	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/event"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/notification"
	"github.com/erp/procurement/internal/infrastructure/persistence"
	"github.com/erp/procurement/internal/infrastructure/scheduler"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/erp/procurement/internal/interfaces/http/handler"
	"github.com/erp/procurement/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting procurement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	// Telemetry: traces, metrics, log export, profiling
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}

	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log = logger.Tee(log, loggerProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
		log.Info("Log export enabled")
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.ProfilingServerAddress,
		ApplicationName: serviceName,
		ProfileTypes:    cfg.Telemetry.ProfilingTypes,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            meterProvider.IsEnabled(),
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	procurementMetrics, err := telemetry.NewProcurementMetrics(telemetry.ProcurementMetricsConfig{
		Meter:         meterProvider.Meter("procurement"),
		Logger:        log,
		StockProvider: telemetry.NewGormStockMetricsProvider(db.DB),
	})
	if err != nil {
		log.Fatal("Failed to initialize procurement metrics", zap.Error(err))
	}
	if meterProvider.IsEnabled() {
		procurementMetrics.StartPeriodicCollection(ctx, 0)
	}

	// Idempotency keys for conversion, receipts and event handling
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Idempotency, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Repositories and transaction scopes
	workflowRepo := persistence.NewGormApprovalWorkflowRepository(db.DB)
	requisitionRepo := persistence.NewGormRequisitionRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)
	approvalScope := persistence.NewGormApprovalTransactionScope(db.DB)
	procurementScope := persistence.NewGormProcurementTransactionScope(db.DB)
	inventoryScope := persistence.NewGormInventoryTransactionScope(db.DB)

	mode, err := approval.ParseApprovalMode(cfg.Approval.Mode)
	if err != nil {
		log.Fatal("Invalid approval mode", zap.Error(err))
	}
	policy, err := approval.ParseNoWorkflowPolicy(cfg.Approval.NoWorkflowPolicy)
	if err != nil {
		log.Fatal("Invalid no-workflow policy", zap.Error(err))
	}
	planner := approval.NewPlanner(approval.NewResolver(workflowRepo), mode, policy)
	systemApprover := cfg.Approval.SystemApprover()

	// Event bus and subscribers
	eventBus := event.NewInMemoryEventBus(log)

	mailer := notification.NewLogMailer(log)
	notifier, err := notification.NewEmailNotifier(cfg.Notification, mailer, log)
	if err != nil {
		log.Fatal("Failed to initialize supplier notifier", zap.Error(err))
	}
	supplierDirectory := notification.NewGormSupplierDirectory(db.DB)

	sentHandler := event.NewIdempotentHandler(
		procurementapp.NewPurchaseOrderSentHandler(notifier, supplierDirectory, log),
		idempotencyStore, log,
	)
	confirmedHandler := event.NewIdempotentHandler(
		procurementapp.NewPurchaseOrderConfirmedHandler(supplierDirectory, log),
		idempotencyStore, log,
	)
	eventBus.Subscribe(sentHandler, sentHandler.EventTypes()...)
	eventBus.Subscribe(confirmedHandler, confirmedHandler.EventTypes()...)
	log.Info("Event handlers registered", zap.Strings("event_types", eventBus.SubscribedEventTypes()))

	// Application services
	workflowService := approvalapp.NewWorkflowService(workflowRepo, approvalScope, log)

	requisitionService := procurementapp.NewRequisitionService(requisitionRepo, procurementScope, planner, systemApprover, log)
	requisitionService.SetEventPublisher(eventBus)
	requisitionService.SetMetrics(procurementMetrics)
	requisitionService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)

	purchaseOrderService := procurementapp.NewPurchaseOrderService(purchaseOrderRepo, procurementScope, planner, systemApprover, log)
	purchaseOrderService.SetEventPublisher(eventBus)
	purchaseOrderService.SetMetrics(procurementMetrics)
	purchaseOrderService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)

	inventoryService := inventoryapp.NewInventoryService(inventoryRepo, inventoryScope, log)
	inventoryService.SetEventPublisher(eventBus)
	inventoryService.SetMetrics(procurementMetrics)

	escalationService := approvalapp.NewEscalationService(requisitionRepo, approvalScope, systemApprover, log)
	escalationService.SetEventPublisher(eventBus)
	escalationService.SetMetrics(procurementMetrics)
	escalationService.SetBatchSize(cfg.Approval.EscalationBatch)

	// Approval timeouts
	jobs := scheduler.NewScheduler(log)
	if cfg.Approval.EscalationEnabled {
		if err := jobs.Register(scheduler.NewEscalationJob(escalationService), cfg.Approval.EscalationInterval, cfg.Approval.EscalationInterval); err != nil {
			log.Fatal("Failed to register escalation job", zap.Error(err))
		}
		if err := jobs.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		log.Info("Approval escalation scheduled", zap.Duration("interval", cfg.Approval.EscalationInterval))
	}

	// HTTP
	system := handler.NewSystemHandler(cfg.App.Name, version).
		AddCheck("database", func(context.Context) error { return db.Ping() })
	if pinger, ok := idempotencyStore.(interface{ Ping(context.Context) error }); ok {
		system.AddCheck("redis", pinger.Ping)
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:                cfg.HTTP,
		JWTService:          auth.NewJWTService(cfg.JWT),
		AllowHeaderIdentity: cfg.JWT.AllowHeaderIdentity,
		TracingEnabled:      tracerProvider.IsEnabled(),
		ServiceName:         serviceName,
		ProfilingEnabled:    profiler.IsEnabled(),
		MeterProvider:       meterProvider,
		Handlers: router.Handlers{
			Workflows:      handler.NewApprovalWorkflowHandler(workflowService),
			Requisitions:   handler.NewRequisitionHandler(requisitionService),
			PurchaseOrders: handler.NewPurchaseOrderHandler(purchaseOrderService),
			Inventory:      handler.NewInventoryHandler(inventoryService),
			System:         system,
		},
		Logger: log,
	})

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := jobs.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping scheduler", zap.Error(err))
	}
	procurementMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := idempotencyStore.Close(); err != nil {
		log.Error("Error closing idempotency store", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
