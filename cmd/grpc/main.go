package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/repairshop-service/config"
	"github.com/fekuna/repairshop-service/internal/auth"
	"github.com/fekuna/repairshop-service/internal/broker"
	"github.com/fekuna/repairshop-service/internal/cache"
	"github.com/fekuna/repairshop-service/internal/database/postgres"
	"github.com/fekuna/repairshop-service/internal/docstore/notify"
	docpg "github.com/fekuna/repairshop-service/internal/docstore/postgres"
	"github.com/fekuna/repairshop-service/internal/logger"
	"github.com/fekuna/repairshop-service/internal/pricing"
	"github.com/fekuna/repairshop-service/internal/rpc"
	"github.com/fekuna/repairshop-service/internal/search"

	authH "github.com/fekuna/repairshop-service/internal/auth/handler"
	authRepoPkg "github.com/fekuna/repairshop-service/internal/auth/repository"
	authUCPkg "github.com/fekuna/repairshop-service/internal/auth/usecase"

	invH "github.com/fekuna/repairshop-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/repairshop-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/repairshop-service/internal/inventory/usecase"

	orderH "github.com/fekuna/repairshop-service/internal/order/handler"
	orderListenerPkg "github.com/fekuna/repairshop-service/internal/order/listener"
	orderRepoPkg "github.com/fekuna/repairshop-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/repairshop-service/internal/order/usecase"

	pricingH "github.com/fekuna/repairshop-service/internal/pricing/handler"
	pricingUCPkg "github.com/fekuna/repairshop-service/internal/pricing/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
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

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Document store with cross-process change notifications
	notifier := notify.NewRedisNotifier(redisClient)
	store := docpg.NewStore(db, notifier)
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Migrate(migrateCtx); err != nil {
		appLogger.Fatal("Could not migrate document store", zap.Error(err))
	}
	cancelMigrate()

	// 6. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.OrdersTopic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Kafka consumer configured", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.OrdersTopic))

	// 7. Initialize Elasticsearch
	var indexer invUCPkg.Indexer
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch, inventory search falls back to local filtering", zap.Error(err))
	} else {
		indexer = esClient
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 8. Price table and labels
	catalog, err := pricing.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		appLogger.Fatal("Could not load price catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
	}
	labels, err := pricing.NewLabels()
	if err != nil {
		appLogger.Fatal("Could not load pricing labels", zap.Error(err))
	}

	// 9. Initialize Repositories and UseCases
	invRepo := invRepoPkg.NewDocRepository(store, notifier)
	orderRepo := orderRepoPkg.NewDocRepository(store, notifier)
	authRepo := authRepoPkg.NewDocRepository(store)

	invUC, err := invUCPkg.NewInventoryUseCase(invRepo, indexer, invUCPkg.Options{
		SeedBatchSize: cfg.Inventory.SeedBatchSize,
		Index:         cfg.Elastic.InventoryIndex,
		Cache:         cache.NewResultCache(redisClient, "inventory:search", cfg.Inventory.SearchCacheTTL),
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Invalid inventory configuration", zap.Error(err))
	}
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, appLogger)
	pricingUC := pricingUCPkg.NewPricingUseCase(catalog, cfg.Catalog.Brand, labels, appLogger)
	tokens := auth.NewTokenManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.TokenTTL)
	authUC := authUCPkg.NewAuthUseCase(authRepo, tokens, auth.NewRedisRevoker(redisClient), appLogger)

	// 10. Initialize Handlers
	authHandler := authH.NewAuthHandler(authUC, appLogger)
	invHandler := invH.NewInventoryHandler(invUC, catalog, appLogger)
	orderHandler := orderH.NewOrderHandler(orderUC, appLogger)
	pricingHandler := pricingH.NewPricingHandler(pricingUC, appLogger)
	pricingHTTP := pricingH.NewHTTPHandler(pricingUC, appLogger)

	// 11. gRPC Server
	public := auth.PublicMethods{
		authH.SignInMethod,
		"/" + pricingH.ServiceName + "/",
		"/grpc.health.v1.Health/",
		"/grpc.reflection.v1.ServerReflection/",
		"/grpc.reflection.v1alpha.ServerReflection/",
	}
	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(rpc.UnaryLogger(appLogger), auth.UnaryInterceptor(authUC, public)),
		grpc.ChainStreamInterceptor(rpc.StreamLogger(appLogger), auth.StreamInterceptor(authUC, public)),
	)

	for _, svc := range []*rpc.Service{
		authHandler.Service(),
		invHandler.Service(),
		orderHandler.Service(),
		pricingHandler.Service(),
	} {
		svc.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	// 12. HTTP Server
	router := chi.NewRouter()
	router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Mount("/api/pricing", pricingHTTP.Routes())
	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 13. Run until signalled
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return orderListenerPkg.NewOrderListener(kafkaConsumer, orderUC, appLogger).Start(gctx)
	})

	g.Go(func() error {
		port := normalizePort(cfg.Server.GRPCPort)
		lis, err := net.Listen("tcp", port)
		if err != nil {
			return err
		}
		appLogger.Info("Starting gRPC server", zap.String("port", port))
		healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		if err := invUC.Close(shutdownCtx); err != nil {
			appLogger.Warn("Inventory indexing cut off", zap.Error(err))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}

func normalizePort(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
