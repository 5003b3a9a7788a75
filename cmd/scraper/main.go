package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/pricewatch-service/config"
	"github.com/fekuna/pricewatch-service/internal/bootstrap"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/internal/scrape"
	"github.com/fekuna/pricewatch-service/internal/shop/adapter"
	"github.com/fekuna/pricewatch-service/pkg/logger"

	dealRepoPkg "github.com/fekuna/pricewatch-service/internal/deal/repository"
	dealUCPkg "github.com/fekuna/pricewatch-service/internal/deal/usecase"
	priceRepoPkg "github.com/fekuna/pricewatch-service/internal/price/repository"
	priceUCPkg "github.com/fekuna/pricewatch-service/internal/price/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	job := flag.String("job", "sweep", "job to run: sweep | batch | deals | refresh-deals")
	shopsFile := flag.String("shops", cfg.Scrape.ShopsFile, "path to the shops file")
	limit := flag.Int("limit", cfg.Scrape.SweepLimit, "sweep: max records per run")
	iterations := flag.Int("iterations", cfg.Scrape.BatchIterations, "batch: number of selection rounds")
	perShop := flag.Int("per-shop", cfg.Scrape.BatchPerShop, "batch: records per shop per iteration")
	refresh := flag.Bool("refresh-deals", cfg.Scrape.RefreshDealsAfterRun, "refresh the deals snapshot after a successful run")
	flag.Parse()

	cfg.Scrape.ShopsFile = *shopsFile
	cfg.Scrape.SweepLimit = *limit
	cfg.Scrape.BatchIterations = *iterations
	cfg.Scrape.BatchPerShop = *perShop
	cfg.Scrape.RefreshDealsAfterRun = *refresh

	appLogger := logger.NewZapLogger(bootstrap.LoggerConfig(cfg))
	defer appLogger.Sync()

	db, err := bootstrap.Postgres(cfg)
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

	shopCfgs, err := adapter.LoadShopConfigs(cfg.Scrape.ShopsFile)
	if err != nil {
		appLogger.Fatal("Could not load shops", zap.String("file", cfg.Scrape.ShopsFile), zap.Error(err))
	}
	registry, err := adapter.BuildRegistry(shopCfgs)
	if err != nil {
		appLogger.Fatal("Could not build shop registry", zap.Error(err))
	}
	appLogger.Info("Shop registry ready", zap.Int("shops", len(registry)))

	windows := price.Windows{Visible: cfg.Freshness.VisibleWindow, Hidden: cfg.Freshness.HiddenWindow}
	var priceOpts []priceUCPkg.Option
	var dealOpts []dealUCPkg.Option
	if producer := bootstrap.Producer(cfg, appLogger); producer != nil {
		defer producer.Close()
		priceOpts = append(priceOpts, priceUCPkg.WithPublisher(producer))
		dealOpts = append(dealOpts, dealUCPkg.WithPublisher(producer))
	}
	if redisClient := bootstrap.Redis(cfg, appLogger); redisClient != nil {
		defer redisClient.Close()
		dealOpts = append(dealOpts, dealUCPkg.WithCache(redisClient, cfg.Redis.DealsTTL))
	}

	priceUC := priceUCPkg.NewPriceUseCase(priceRepoPkg.NewPGRepository(db), windows, appLogger, priceOpts...)
	dealUC := dealUCPkg.NewDealUseCase(dealRepoPkg.NewPGRepository(db), appLogger, dealOpts...)
	jobs := scrape.NewJobs(priceUC, registry, dealUC, appLogger, cfg.Scrape)

	// SIGINT/SIGTERM stop the run before its next round
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	switch *job {
	case "sweep":
		_, err = jobs.Sweep(ctx)
	case "batch":
		_, err = jobs.BatchSweep(ctx)
	case "deals":
		_, err = jobs.DealSweep(ctx)
	case "refresh-deals":
		var n int
		n, err = jobs.RefreshDeals(ctx)
		if err == nil {
			appLogger.Info("Deals refreshed", zap.Int("deals", n))
		}
	default:
		appLogger.Fatal("Unknown job", zap.String("job", *job))
	}
	if err != nil {
		appLogger.Error("Job failed", zap.String("job", *job), zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		appLogger.Sync()
		os.Exit(1)
	}
	appLogger.Info("Job finished", zap.String("job", *job), zap.Duration("elapsed", time.Since(start)))
}
