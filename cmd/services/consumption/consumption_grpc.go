package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"mes-dashboard/config"
	"mes-dashboard/internal/consumption"
	"mes-dashboard/internal/database"
	"mes-dashboard/internal/rpc"
	"mes-dashboard/internal/services/consumption/cache"
	"mes-dashboard/internal/services/consumption/handler"
	"mes-dashboard/internal/services/consumption/store"
)

func main() {
	cfg := config.LoadConfig()
	logger := config.NewLogger(cfg.LogLevel)

	db, err := database.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to db: %v", err)
	}

	if err := database.MigrateConsumptionDB(db); err != nil {
		logger.Fatalf("Failed to migrate consumption database: %v", err)
	}

	unconsumed, err := consumption.UnconsumedPredicateByName(cfg.Consumption.UnconsumedMatch)
	if err != nil {
		logger.Fatalf("Invalid UNCONSUMED_MATCH: %v", err)
	}

	reconciler := consumption.NewReconciler(store.New(db, logger), newTotalsCache(cfg, logger), consumption.Config{
		TotalsTTL:  cfg.Consumption.RecipeTotalsTTL,
		Separator:  cfg.Consumption.IngredientSeparator,
		Unconsumed: unconsumed,
		Logger:     logger,
	})

	lis, err := net.Listen("tcp", cfg.Consumption.GRPCAddr)
	if err != nil {
		logger.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(handler.LoggingInterceptor(logger)))

	consumptionHandler := handler.NewConsumptionHandler(reconciler, logger)
	rpc.RegisterConsumptionServiceServer(s, consumptionHandler)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)

	reflection.Register(s)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logger.Info("shutting down consumption service")
		healthServer.Shutdown()
		s.GracefulStop()
	}()

	logger.WithField("addr", cfg.Consumption.GRPCAddr).Info("consumption service listening")
	if err := s.Serve(lis); err != nil {
		logger.Fatalf("Failed to serve: %v", err)
	}
}

// newTotalsCache prefers the shared Redis cache and falls back to an
// in-process cache when Redis is disabled or unreachable.
func newTotalsCache(cfg config.Config, logger *logrus.Logger) consumption.TotalsCache {
	if !cfg.Redis.Enabled {
		logger.Info("redis disabled, using in-process recipe totals cache")
		return consumption.NewMemoryCache()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisClient, err := config.NewRedisClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, using in-process recipe totals cache")
		return consumption.NewMemoryCache()
	}

	return cache.NewRedisTotalsCache(redisClient)
}
