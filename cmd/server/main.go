package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-stock-service/config"
	"github.com/fekuna/omnipos-stock-service/internal/barcode"
	"github.com/fekuna/omnipos-stock-service/internal/ledger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/broker"
	"github.com/fekuna/omnipos-stock-service/internal/platform/cache"
	"github.com/fekuna/omnipos-stock-service/internal/platform/database"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/platform/observability"
	"github.com/fekuna/omnipos-stock-service/internal/platform/server"
	"github.com/fekuna/omnipos-stock-service/internal/scan"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/fekuna/omnipos-stock-service/internal/store/memory"
	"github.com/fekuna/omnipos-stock-service/internal/store/postgres"

	batchH "github.com/fekuna/omnipos-stock-service/internal/batch/handler"
	batchUCPkg "github.com/fekuna/omnipos-stock-service/internal/batch/usecase"

	labelPkg "github.com/fekuna/omnipos-stock-service/internal/label"
	labelH "github.com/fekuna/omnipos-stock-service/internal/label/handler"

	prodH "github.com/fekuna/omnipos-stock-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-stock-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-stock-service/internal/product/usecase"

	scanH "github.com/fekuna/omnipos-stock-service/internal/scan/handler"

	serialH "github.com/fekuna/omnipos-stock-service/internal/serial/handler"
	serialUCPkg "github.com/fekuna/omnipos-stock-service/internal/serial/usecase"

	"github.com/fekuna/omnipos-stock-service/internal/product"
	"github.com/fekuna/omnipos-stock-service/internal/stock"
	stockH "github.com/fekuna/omnipos-stock-service/internal/stock/handler"
	stockListenerPkg "github.com/fekuna/omnipos-stock-service/internal/stock/listener"
	stockRepoPkg "github.com/fekuna/omnipos-stock-service/internal/stock/repository"
	stockUCPkg "github.com/fekuna/omnipos-stock-service/internal/stock/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc/health/grpc_health_v1"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := observability.SetupTracing(ctx, &observability.Config{
		Endpoint:       cfg.Otel.Endpoint,
		URLPath:        cfg.Otel.URLPath,
		Insecure:       cfg.Otel.Insecure,
		ServiceName:    cfg.Otel.ServiceName,
		ServiceVersion: cfg.Otel.ServiceVersion,
	})
	if err != nil {
		appLogger.Fatal("Could not set up tracing", zap.Error(err))
	}

	// 4. Store
	var tx store.Manager
	switch cfg.Store.Driver {
	case "memory":
		tx = memory.New()
		appLogger.Warn("Using in-memory store; data is lost on restart")
	case "postgres":
		db, err := database.NewPostgres(ctx, &database.Config{
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		pg := postgres.NewManager(db)
		if cfg.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				appLogger.Fatal("Could not migrate database", zap.Error(err))
			}
		}
		tx = pg
	default:
		appLogger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}

	// 5. Redis (optional)
	var (
		codeCache product.CodeCache
		idemCache stock.IdempotencyCache
	)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(ctx, &cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, continuing without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			codeCache = prodRepoPkg.NewRedisCodeCache(redisClient.Client, cfg.Redis.ProductTTL)
			idemCache = stockRepoPkg.NewRedisIdempotencyCache(redisClient.Client, cfg.Redis.IdempotencyTTL)
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 6. Initialize UseCases
	parse := barcode.Parse
	if cfg.Barcode.LegacySplit {
		parse = barcode.ParseLegacy
	}
	adjLedger := ledger.New(tx.Reader())
	prodUC := prodUCPkg.NewProductUseCase(tx, adjLedger, codeCache, appLogger)
	batchUC := batchUCPkg.NewBatchUseCase(tx, adjLedger, appLogger)
	serialUC := serialUCPkg.NewSerialUseCase(tx, adjLedger, appLogger)
	stockUC := stockUCPkg.NewStockUseCase(tx, adjLedger, idemCache, appLogger)
	scanner := scan.NewScanner(tx.Reader(), prodUC, parse, appLogger)
	labels := labelPkg.NewBuilder(tx.Reader())

	// 7. Kafka listener (optional)
	if cfg.Kafka.Enabled {
		kafkaConsumer := broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		orderListener := stockListenerPkg.NewOrderListener(kafkaConsumer, stockUC, appLogger)
		go orderListener.Start(ctx)
	}

	// 8. HTTP server
	app, api := server.NewHTTPServer(appLogger)
	prodH.NewProductHandler(prodUC, appLogger).RegisterRoutes(api)
	batchH.NewBatchHandler(batchUC, appLogger).RegisterRoutes(api)
	serialH.NewSerialHandler(serialUC, appLogger).RegisterRoutes(api)
	stockH.NewStockHandler(stockUC, adjLedger, appLogger).RegisterRoutes(api)
	scanH.NewScanHandler(scanner, appLogger).RegisterRoutes(api)
	labelH.NewLabelHandler(labels, appLogger).RegisterRoutes(api)

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := app.Listen(withColon(cfg.Server.HTTPPort)); err != nil {
			appLogger.Error("HTTP server stopped", zap.Error(err))
			cancel()
		}
	}()

	// 9. gRPC server (stock service, health, reflection)
	lis, err := net.Listen("tcp", withColon(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer, healthServer := server.NewGRPCServer(appLogger)
	stockH.RegisterStockService(grpcServer, stockH.NewStockGRPCHandler(stockUC, appLogger))
	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("gRPC server stopped", zap.Error(err))
			cancel()
		}
	}()

	// Graceful Shutdown
	<-ctx.Done()
	appLogger.Info("Shutting down server...")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()

	flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer flushCancel()
	if err := shutdownTracing(flushCtx); err != nil && !errors.Is(err, context.Canceled) {
		appLogger.Error("Tracing shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func withColon(port string) string {
	if !strings.HasPrefix(port, ":") {
		return ":" + port
	}
	return port
}
