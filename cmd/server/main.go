// Command server runs the vaultgate HTTP API and gRPC health endpoint.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	appservice "github.com/turtacn/vaultgate/internal/application/service"
	"github.com/turtacn/vaultgate/internal/config"
	domainservice "github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/internal/infrastructure/audit"
	"github.com/turtacn/vaultgate/internal/infrastructure/crypto"
	"github.com/turtacn/vaultgate/internal/infrastructure/monitoring"
	"github.com/turtacn/vaultgate/internal/infrastructure/notify"
	"github.com/turtacn/vaultgate/internal/infrastructure/persistence/postgres"
	"github.com/turtacn/vaultgate/internal/infrastructure/ratelimit"
	redisstore "github.com/turtacn/vaultgate/internal/infrastructure/redis"
	grpcserver "github.com/turtacn/vaultgate/internal/interfaces/grpc"
	httpserver "github.com/turtacn/vaultgate/internal/interfaces/http"
	"github.com/turtacn/vaultgate/internal/interfaces/http/handlers"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/logger"
)

func main() {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "vaultgate-server",
		Short:        "Run the vaultgate login approval and vault API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "path to config file")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, v, err := config.LoadConfig(configFile)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return err
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	config.Watch(v, appLogger, func(newCfg *config.Config) {
		if err := appLogger.SetLevel(newCfg.Log.Level); err != nil {
			appLogger.Warn(ctx, "Ignoring invalid log level", logger.String("level", newCfg.Log.Level))
		}
	})

	// Tracing
	tracing, err := monitoring.NewTracingManager(cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, "Failed to initialize tracing", err)
		return err
	}

	metrics := monitoring.NewMetrics()

	// Redis
	redisConn := redisstore.NewConnection(&cfg.Redis, appLogger)
	if err := redisConn.Connect(ctx); err != nil {
		appLogger.Error(ctx, "Failed to connect to Redis", err)
		return err
	}
	defer redisConn.Close()
	redisClient := redisConn.GetClient()

	// Database
	dbConn, err := postgres.NewDBConnection(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Error(ctx, "Failed to connect to database", err)
		return err
	}
	defer dbConn.Close()

	gormAudit := audit.NewGormAuditService(dbConn.DB())
	if cfg.Database.AutoMigrate {
		if err := postgres.AutoMigrate(ctx, dbConn.DB()); err != nil {
			appLogger.Error(ctx, "Failed to migrate database", err)
			return err
		}
		if err := gormAudit.Migrate(ctx); err != nil {
			appLogger.Error(ctx, "Failed to migrate audit log", err)
			return err
		}
	}

	var auditService domainservice.AuditService = gormAudit
	if cfg.Kafka.Enabled {
		producer := audit.NewKafkaProducer(cfg.Kafka, appLogger)
		defer producer.Close()
		auditService = audit.NewFanoutAuditService(gormAudit, producer)
	}

	// Token verification
	keys, err := crypto.NewKeySource(cfg, metrics, appLogger)
	if err != nil {
		appLogger.Error(ctx, "Failed to create signing key source", err)
		return err
	}
	jwtManager := crypto.NewJWTManager(keys, cfg.JWT, appLogger)

	rateLimiter, err := ratelimit.NewRedisRateLimiter(redisClient, &ratelimit.RateLimiterConfig{
		Limit:               int64(cfg.RateLimit.RequestsPerMinute),
		Window:              time.Minute,
		EnableLocalFallback: true,
		KeyPrefix:           "ratelimit",
	}, appLogger)
	if err != nil {
		appLogger.Error(ctx, "Failed to create rate limiter", err)
		return err
	}
	defer rateLimiter.Close()

	hub := notify.NewHub(cfg.Notify, metrics, appLogger)

	// Application services
	authRequestSvc := appservice.NewAuthRequestAppService(
		monitoring.NewTracedAuthRequestStore(redisstore.NewRedisAuthRequestStore(redisClient), tracing),
		auditService, hub, metrics, cfg.AuthRequest, appLogger,
	)
	cipherSvc := appservice.NewCipherAppService(
		postgres.NewCipherRepository(dbConn.DB(), appLogger),
		auditService, hub, metrics, appLogger,
	)

	healthChecks := map[string]handlers.HealthCheckFunc{
		"database": dbConn.Ping,
		"redis":    redisConn.Ping,
	}
	grpcChecks := map[string]grpcserver.CheckFunc{
		"database": dbConn.Ping,
		"redis":    redisConn.Ping,
	}

	router := httpserver.NewRouter(httpserver.Deps{
		Config:        cfg,
		Logger:        appLogger,
		Metrics:       metrics,
		Tracing:       tracing,
		JWT:           jwtManager,
		RateLimiter:   rateLimiter,
		Redis:         redisClient,
		Health:        handlers.NewHealthHandler(healthChecks, appLogger),
		AuthRequests:  handlers.NewAuthRequestHandler(authRequestSvc, appLogger),
		Ciphers:       handlers.NewCipherHandler(cipherSvc, appLogger),
		Notifications: handlers.NewNotificationHandler(hub, appLogger),
	})
	grpcServer := grpcserver.NewServer(&cfg.Server, grpcChecks, rateLimiter, appLogger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		grpcServer.WatchHealth(gctx, grpcserver.DefaultHealthInterval)
		return nil
	})
	g.Go(func() error {
		if err := router.Start(); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := grpcServer.Start(); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info(context.Background(), "Shutting down", logger.String("service", constants.ServiceName))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		grpcServer.Stop(shutdownCtx)
		if err := router.Stop(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "HTTP server forced to shutdown", err)
		}
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			appLogger.Warn(shutdownCtx, "Tracing shutdown failed", logger.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		appLogger.Error(context.Background(), "Server stopped with error", err)
		return err
	}
	appLogger.Info(context.Background(), "Server stopped gracefully")
	return nil
}
