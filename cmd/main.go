package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/learningneeds/shop/internal/cache"
	"github.com/learningneeds/shop/internal/config"
	h "github.com/learningneeds/shop/internal/http"
	"github.com/learningneeds/shop/internal/publisher"
	"github.com/learningneeds/shop/internal/repository"
	s "github.com/learningneeds/shop/internal/service"
	"github.com/learningneeds/shop/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogJSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("shop service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Carts: MongoDB behind a Redis read-through cache
	mongoDB, err := repository.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer mongoDB.Client().Disconnect(context.Background())

	cartRepo := repository.NewMongoRepository(mongoDB)
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("create cart indexes: %w", err)
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDBName))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	log.Info("redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	// Orders, addresses and the outbox live in Postgres
	creds := cfg.Credentials()
	orderRepo, err := repository.NewRepository(creds)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer orderRepo.Close()
	if err := orderRepo.RunMigrations(creds); err != nil {
		return fmt.Errorf("postgres migrations: %w", err)
	}

	catalogStore, err := repository.NewCatalogStore(cfg.CatalogDBPath)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer catalogStore.Close()
	if err := catalogStore.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		return fmt.Errorf("catalog migrations: %w", err)
	}
	if cfg.CatalogSeedPath != "" {
		n, err := catalogStore.SeedFromYAML(ctx, cfg.CatalogSeedPath)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		log.Info("catalog seeded", zap.Int("items", n), zap.String("path", cfg.CatalogSeedPath))
	}

	cartService := s.NewCartService(cartRepo, cache.NewRedisCache(redisClient), catalogStore, log.Named("cart"))
	checkoutService := s.NewCheckoutService(
		cartService,
		orderRepo,
		orderRepo,
		s.NewLocalCapturer(),
		s.NewOrderComposer(),
		log.Named("checkout"),
	)

	router := h.NewRouter(h.Services{
		Catalog:   s.NewCatalogService(catalogStore),
		Cart:      cartService,
		Addresses: s.NewAddressService(orderRepo, log.Named("address")),
		Checkout:  checkoutService,
		Orders:    s.NewOrderService(orderRepo, log.Named("orders")),
	}, h.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
		MaxRequestBody: cfg.MaxRequestBody,
		HealthChecks: map[string]func(context.Context) error{
			"postgres": orderRepo.Ping,
			"mongodb": func(ctx context.Context) error {
				return mongoDB.Client().Ping(ctx, nil)
			},
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	}, log.Named("http"))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "shop"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC carries health and reflection for the orchestrator and grpcurl
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen on grpc port: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	writer := publisher.NewKafkaWriter(cfg.OrderEventsTopic, cfg.Brokers()...)
	poller := publisher.NewOutboxPoller(orderRepo, writer, log.Named("outbox"))

	pollerCtx, cancelPoller := context.WithCancel(context.Background())
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		poller.Run(pollerCtx)
	}()

	errCh := make(chan error, 2)
	go func() {
		log.Info("http server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("grpc server listening", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errCh:
		log.Error("server error, shutting down", zap.Error(serveErr))
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	cancelPoller()
	<-pollerDone
	if err := poller.Close(); err != nil {
		log.Warn("failed to close kafka writer", zap.Error(err))
	}

	log.Info("shop service stopped")
	return serveErr
}
