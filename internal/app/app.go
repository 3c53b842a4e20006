package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdurahmanit/GroupProject/cart-service/internal/adapter/client"
	mongoadapter "github.com/Abdurahmanit/GroupProject/cart-service/internal/adapter/mongo"
	natsadapter "github.com/Abdurahmanit/GroupProject/cart-service/internal/adapter/nats"
	redisadapter "github.com/Abdurahmanit/GroupProject/cart-service/internal/adapter/redis"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/notify"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/metrics"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/platform/tracer"
	grpcserver "github.com/Abdurahmanit/GroupProject/cart-service/internal/port/grpc"
	httpport "github.com/Abdurahmanit/GroupProject/cart-service/internal/port/http"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/repository"
	"github.com/Abdurahmanit/GroupProject/cart-service/internal/service"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const healthCheckInterval = 15 * time.Second

type App struct {
	cfg            *config.Config
	log            logger.Logger
	grpcServer     *grpcserver.Server
	httpServer     *http.Server
	metricsServer  *http.Server
	tracerProvider *sdktrace.TracerProvider
	store          service.CartStore
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	natsConn       *nats.Conn
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	logCfg := logger.ZapLoggerConfig{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		TimeFormat: cfg.Logger.TimeFormat,
	}
	appLogger, err := logger.NewZapLogger(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Info("Logger initialized")
	appLogger.Infof("Configuration loaded: Env=%s, HTTP Port: %s, GRPC Port: %s, Storage: %s",
		cfg.Env, cfg.HTTPServer.Port, cfg.GRPCServer.Port, cfg.Storage.Driver)

	a := &App{cfg: cfg, log: appLogger}

	tp, err := tracer.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	a.tracerProvider = tp
	appLogger.Infof("Tracer initialized (export enabled: %t)", cfg.Tracing.Enabled)

	metricsManager := metrics.NewMetricsManager("cart_service")
	a.metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, metricsManager.Registry)

	if cfg.Storage.Driver == config.StorageDriverRedis || cfg.ProductCache.Enabled {
		appLogger.Info("Initializing Redis client...")
		a.redisClient, err = redisadapter.NewClient(ctx, cfg.Redis)
		if err != nil {
			a.closeClients(ctx)
			return nil, fmt.Errorf("failed to initialize Redis client: %w", err)
		}
		appLogger.Info("Redis client initialized successfully")
	}

	var cartRepo repository.CartSnapshotRepository
	switch cfg.Storage.Driver {
	case config.StorageDriverMongo:
		appLogger.Info("Initializing MongoDB client...")
		a.mongoClient, err = mongoadapter.NewClient(ctx, cfg.MongoDB)
		if err != nil {
			a.closeClients(ctx)
			return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
		}
		appLogger.Info("MongoDB client initialized successfully")
		cartRepo = mongoadapter.NewCartSnapshotRepository(a.mongoClient, cfg.MongoDB, cfg.Storage.Key)
	default:
		cartRepo = redisadapter.NewCartSnapshotRepository(a.redisClient, cfg.Storage.Key)
	}
	appLogger.Infof("CartSnapshotRepository initialized (driver=%s, key=%s)", cfg.Storage.Driver, cfg.Storage.Key)

	var productCache repository.ProductDetailCache
	if cfg.ProductCache.Enabled {
		productCache = redisadapter.NewProductDetailCacheRepository(a.redisClient)
		appLogger.Infof("Product detail cache enabled (ttl=%s)", cfg.ProductCache.TTL)
	}

	sinks := []notify.Notifier{notify.NewLogNotifier(appLogger)}
	if cfg.NATS.Enabled {
		a.natsConn, err = natsadapter.NewConnection(cfg.NATS, appLogger)
		if err != nil {
			a.closeClients(ctx)
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		publisher, err := natsadapter.NewNATSPublisher(a.natsConn)
		if err != nil {
			a.closeClients(ctx)
			return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
		}
		sinks = append(sinks, notify.NewNATSNotifier(publisher, cfg.NATS.Subject, appLogger))
		appLogger.Infof("Notices will be published to NATS subject %s", cfg.NATS.Subject)
	}

	storefront, err := client.NewStorefrontClient(client.StorefrontClientConfig{
		BaseURL: cfg.Storefront.BaseURL,
		Timeout: cfg.Storefront.Timeout,
	}, metricsManager)
	if err != nil {
		a.closeClients(ctx)
		return nil, fmt.Errorf("failed to create storefront client: %w", err)
	}

	a.store, err = service.NewCartStore(ctx, cartRepo, storefront, productCache, notify.Fanout(sinks...),
		appLogger, metricsManager, service.CartStoreConfig{ProductCacheTTL: cfg.ProductCache.TTL})
	if err != nil {
		a.closeClients(ctx)
		return nil, fmt.Errorf("failed to initialize cart store: %w", err)
	}

	handler := httpport.NewCartHandler(a.store, appLogger)
	a.httpServer = httpport.NewServer(cfg.HTTPServer.Port, httpport.NewRouter(handler, appLogger),
		cfg.HTTPServer.ReadTimeout, cfg.HTTPServer.WriteTimeout)

	a.grpcServer = grpcserver.NewServer(
		appLogger,
		cfg.GRPCServer.Port,
		cfg.GRPCServer.TimeoutGraceful,
		cfg.GRPCServer.MaxConnectionIdle,
		cartRepo,
	)
	appLogger.Info("HTTP and gRPC server instances created")

	return a, nil
}

func (a *App) Run() {
	a.log.Info("Starting application components...")

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	go a.grpcServer.WatchHealth(watchCtx, healthCheckInterval)

	go func() {
		if err := a.grpcServer.Start(); err != nil {
			a.log.Fatalf("Failed to start gRPC server: %v", err)
		}
	}()

	go func() {
		a.log.Infof("HTTP server is starting on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			a.log.Infof("Metrics server is starting on %s", a.metricsServer.Addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Errorf("Metrics server failed: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-quit
	a.log.Infof("Received shutdown signal: %v. Shutting down application...", receivedSignal)
	stopWatch()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPServer.TimeoutGraceful+5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.log.Errorf("Error during HTTP server graceful shutdown: %v", err)
	} else {
		a.log.Info("HTTP server stopped successfully")
	}

	if err := a.grpcServer.Stop(shutdownCtx); err != nil {
		a.log.Errorf("Error during gRPC server graceful shutdown: %v", err)
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error during metrics server shutdown: %v", err)
		}
	}

	a.log.Info("Closing connections...")
	a.closeClients(shutdownCtx)

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			a.log.Errorf("Error shutting down tracer provider: %v", err)
		}
	}

	a.log.Info("Application shut down successfully")
	_ = a.log.Sync()
}

func (a *App) closeClients(ctx context.Context) {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.log.Errorf("Error draining NATS connection: %v", err)
		} else {
			a.log.Info("NATS connection drained")
		}
	}

	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Errorf("Error disconnecting from MongoDB: %v", err)
		} else {
			a.log.Info("MongoDB connection closed successfully")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Errorf("Error closing Redis client: %v", err)
		} else {
			a.log.Info("Redis client closed successfully")
		}
	}
}
