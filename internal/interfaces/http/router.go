// Package http wires the gin engine: middleware chain, route table and server lifecycle.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/vaultgate/internal/config"
	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/internal/infrastructure/crypto"
	"github.com/turtacn/vaultgate/internal/infrastructure/monitoring"
	"github.com/turtacn/vaultgate/internal/interfaces/http/handlers"
	"github.com/turtacn/vaultgate/internal/interfaces/http/middleware"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// Deps collects what the router needs to build the handler chain.
type Deps struct {
	Config      *config.Config
	Logger      logger.Logger
	Metrics     *monitoring.Metrics
	Tracing     *monitoring.TracingManager
	JWT         crypto.JWTManager
	RateLimiter service.RateLimitService
	Redis       redis.UniversalClient

	Health        *handlers.HealthHandler
	AuthRequests  *handlers.AuthRequestHandler
	Ciphers       *handlers.CipherHandler
	Notifications *handlers.NotificationHandler
}

// Router HTTP 路由器
type Router struct {
	engine *gin.Engine
	deps   Deps
	server *http.Server
}

// NewRouter 创建路由器
func NewRouter(deps Deps) *Router {
	if deps.Config.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Tracing == nil {
		deps.Tracing = monitoring.NewNoopTracingManager()
	}

	r := &Router{engine: gin.New(), deps: deps}
	r.setupRoutes()

	cfg := deps.Config.Server
	r.server = &http.Server{
		Addr:           cfg.Address(),
		Handler:        r.engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}
	return r
}

// Handler exposes the engine, mainly for tests.
func (r *Router) Handler() http.Handler {
	return r.engine
}

func (r *Router) setupRoutes() {
	cfg := r.deps.Config
	log := r.deps.Logger

	r.engine.Use(middleware.Recovery(log))
	r.engine.Use(middleware.ObservabilityMiddleware(r.deps.Tracing, r.deps.Metrics, log))
	r.engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", constants.HeaderRequestID, middleware.HeaderIdempotencyKey, "If-None-Match"},
		ExposeHeaders:    []string{constants.HeaderRequestID, constants.HeaderRateLimitLimit, constants.HeaderRateLimitLeft, constants.HeaderRetryAfter, "ETag"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.engine.GET("/health/live", r.deps.Health.LivenessCheck)
	r.engine.GET("/health/ready", r.deps.Health.ReadinessCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Monitoring.PprofEnabled {
		pprof.Register(r.engine)
	}

	var metrics service.Metrics = service.NoopMetrics{}
	if r.deps.Metrics != nil {
		metrics = r.deps.Metrics
	}
	rateLimit := middleware.RateLimitMiddleware(r.deps.RateLimiter, &cfg.RateLimit, metrics, log)
	idempotency := middleware.IdempotencyMiddleware(r.deps.Redis, &cfg.Idempotency, log)
	requireJWT := middleware.RequireJWT(r.deps.JWT, log)

	v1 := r.engine.Group("/api/v1")
	{
		authRequests := v1.Group("/auth-requests")
		{
			// Requesting devices are not signed in yet.
			authRequests.POST("", rateLimit, idempotency, r.deps.AuthRequests.Create)
			authRequests.GET("/:id/response", rateLimit, r.deps.AuthRequests.GetResponse)

			approver := authRequests.Group("", requireJWT, rateLimit)
			approver.GET("", r.deps.AuthRequests.List)
			approver.GET("/fingerprint/:fingerprint", r.deps.AuthRequests.GetByFingerprint)
			approver.GET("/:id", r.deps.AuthRequests.Get)
			approver.PUT("/:id", r.deps.AuthRequests.Update)
		}

		ciphers := v1.Group("/ciphers", requireJWT, rateLimit)
		{
			ciphers.POST("", idempotency, r.deps.Ciphers.Create)
			ciphers.GET("", middleware.ETagCache(), r.deps.Ciphers.List)
			ciphers.GET("/:id", middleware.ETagCache(), r.deps.Ciphers.Get)
			ciphers.PUT("/:id", r.deps.Ciphers.Update)
			ciphers.DELETE("/:id", r.deps.Ciphers.Delete)
		}

		v1.GET("/notifications/ws", requireJWT, r.deps.Notifications.Connect)
	}

	r.engine.NoRoute(func(c *gin.Context) {
		middleware.AbortWithError(c, errors.ErrNotFound("route", c.Request.URL.Path))
	})
}

// Start serves HTTP until Stop is called.
func (r *Router) Start() error {
	r.deps.Logger.Info(context.Background(), "Starting HTTP server", logger.String("address", r.server.Addr))
	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 停止 HTTP 服务器
func (r *Router) Stop(ctx context.Context) error {
	r.deps.Logger.Info(ctx, "Stopping HTTP server...")
	return r.server.Shutdown(ctx)
}
