package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/pricewatch-service/config"
	"github.com/fekuna/pricewatch-service/internal/bootstrap"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/pkg/logger"

	dealH "github.com/fekuna/pricewatch-service/internal/deal/handler"
	dealRepoPkg "github.com/fekuna/pricewatch-service/internal/deal/repository"
	dealUCPkg "github.com/fekuna/pricewatch-service/internal/deal/usecase"
	priceRepoPkg "github.com/fekuna/pricewatch-service/internal/price/repository"
	priceUCPkg "github.com/fekuna/pricewatch-service/internal/price/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(bootstrap.LoggerConfig(cfg))
	defer appLogger.Sync()

	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

	var dealOpts []dealUCPkg.Option
	if redisClient := bootstrap.Redis(cfg, appLogger); redisClient != nil {
		defer redisClient.Close()
		dealOpts = append(dealOpts, dealUCPkg.WithCache(redisClient, cfg.Redis.DealsTTL))
	}

	windows := price.Windows{Visible: cfg.Freshness.VisibleWindow, Hidden: cfg.Freshness.HiddenWindow}
	priceUC := priceUCPkg.NewPriceUseCase(priceRepoPkg.NewPGRepository(db), windows, appLogger)
	dealUC := dealUCPkg.NewDealUseCase(dealRepoPkg.NewPGRepository(db), appLogger, dealOpts...)

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	dealH.NewHTTPHandler(dealUC, priceUC, appLogger).Register(r)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	srv := &http.Server{
		Addr:    port,
		Handler: r,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	appLogger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server shutdown", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
