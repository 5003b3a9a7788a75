package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	pb "github.com/fekuna/pricewatch-service/api/pricewatch/v1"
	"github.com/fekuna/pricewatch-service/config"
	"github.com/fekuna/pricewatch-service/internal/auth"
	"github.com/fekuna/pricewatch-service/internal/bootstrap"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/pkg/logger"

	dealH "github.com/fekuna/pricewatch-service/internal/deal/handler"
	dealRepoPkg "github.com/fekuna/pricewatch-service/internal/deal/repository"
	dealUCPkg "github.com/fekuna/pricewatch-service/internal/deal/usecase"

	dupRepoPkg "github.com/fekuna/pricewatch-service/internal/duplicate/repository"
	dupUCPkg "github.com/fekuna/pricewatch-service/internal/duplicate/usecase"

	priceRepoPkg "github.com/fekuna/pricewatch-service/internal/price/repository"
	priceUCPkg "github.com/fekuna/pricewatch-service/internal/price/usecase"

	prodH "github.com/fekuna/pricewatch-service/internal/product/handler"
	prodListenerPkg "github.com/fekuna/pricewatch-service/internal/product/listener"
	prodRepoPkg "github.com/fekuna/pricewatch-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/pricewatch-service/internal/product/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(bootstrap.LoggerConfig(cfg))
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Repositories
	priceRepo := priceRepoPkg.NewPGRepository(db)
	dealRepo := dealRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)
	dupRepo := dupRepoPkg.NewPGRepository(db)

	// 5. Optional Redis and Kafka
	var dealOpts []dealUCPkg.Option
	var prodOpts []prodUCPkg.Option
	if redisClient := bootstrap.Redis(cfg, appLogger); redisClient != nil {
		defer redisClient.Close()
		dealOpts = append(dealOpts, dealUCPkg.WithCache(redisClient, cfg.Redis.DealsTTL))
		prodOpts = append(prodOpts, prodUCPkg.WithCache(redisClient))
	}
	if producer := bootstrap.Producer(cfg, appLogger); producer != nil {
		defer producer.Close()
		prodOpts = append(prodOpts, prodUCPkg.WithPublisher(producer))
	}

	// 6. Initialize UseCases
	windows := price.Windows{Visible: cfg.Freshness.VisibleWindow, Hidden: cfg.Freshness.HiddenWindow}
	priceUC := priceUCPkg.NewPriceUseCase(priceRepo, windows, appLogger)
	dealUC := dealUCPkg.NewDealUseCase(dealRepo, appLogger, dealOpts...)
	prodUC := prodUCPkg.NewAdminUseCase(prodRepo, appLogger, prodOpts...)
	dupUC := dupUCPkg.NewMatcherUseCase(dupRepo, dupUCPkg.Config{
		Threshold:  cfg.Duplicate.Threshold,
		MaxMatches: cfg.Duplicate.MaxMatches,
		PoolSize:   cfg.Duplicate.PoolSize,
	}, appLogger)

	// 6.5 Admin command listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if consumer := bootstrap.AdminConsumer(cfg, appLogger); consumer != nil {
		defer consumer.Close()
		go prodListenerPkg.NewAdminListener(consumer, prodUC, appLogger).Start(ctx)
	}

	// 7. Initialize Handlers
	dealHandler := dealH.NewDealHandler(dealUC, priceUC, appLogger)
	adminHandler := prodH.NewAdminHandler(prodUC, dupUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(auth.ContextInterceptor()),
	)

	pb.RegisterDealServiceServer(grpcServer, dealHandler)
	pb.RegisterAdminServiceServer(grpcServer, adminHandler)

	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
