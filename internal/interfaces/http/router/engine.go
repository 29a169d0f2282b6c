package router

import (
	"time"

	"github.com/erp/procurement/internal/infrastructure/auth"
	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/erp/procurement/internal/infrastructure/logger"
	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/erp/procurement/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig carries everything the HTTP engine is assembled from
type EngineConfig struct {
	HTTP                config.HTTPConfig
	JWTService          *auth.JWTService
	AllowHeaderIdentity bool
	TracingEnabled      bool
	ServiceName         string
	ProfilingEnabled    bool
	MeterProvider       *telemetry.MeterProvider
	Handlers            Handlers
	Logger              *zap.Logger
}

// NewEngine builds the gin engine with the middleware stack and all procurement routes.
//
// Order matters: the request id exists before anything logs, the span exists before
// the identity middleware so authentication failures are traced, and profiling and
// metrics run after identity so they can label by tenant.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(cfg.HTTP)))
	if cfg.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	}
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.ServiceName,
		Enabled:     cfg.TracingEnabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.RequestLogger(log))

	system := cfg.Handlers.System
	engine.GET("/health", system.Health)
	engine.GET("/ready", system.Ready)
	engine.NoRoute(system.NoRoute)
	engine.NoMethod(system.NoMethod)

	jwtConfig := middleware.DefaultJWTConfig(cfg.JWTService)
	jwtConfig.AllowHeaderIdentity = cfg.AllowHeaderIdentity
	jwtConfig.Logger = log

	r := NewRouter(engine, WithAPIVersion("v1")).
		Use(
			middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
			middleware.TracingAttributeInjector(),
			middleware.ProfilingWithConfig(middleware.ProfilingConfig{Enabled: cfg.ProfilingEnabled}),
			middleware.HTTPMetrics(cfg.MeterProvider),
		).
		Register(ProcurementRoutes(cfg.Handlers)...)
	r.Setup()

	return engine
}

func corsConfig(http config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = http.CORSAllowOrigins
	if len(http.CORSAllowMethods) > 0 {
		cors.AllowMethods = http.CORSAllowMethods
	}
	if len(http.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = http.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}
