package scrape

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/pricewatch-service/config"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/internal/shop"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"go.uber.org/zap"
)

// DealRefresher rebuilds the deals snapshot; deal.UseCase satisfies it.
type DealRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Jobs are the three run shapes triggered by cron.
type Jobs struct {
	prices    price.UseCase
	registry  shop.Registry
	refresher DealRefresher
	logger    logger.ZapLogger
	cfg       config.ScrapeConfig

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewJobs wires the run shapes. refresher may be nil, in which case no deal
// refresh follows a run.
func NewJobs(prices price.UseCase, registry shop.Registry, refresher DealRefresher, log logger.ZapLogger, cfg config.ScrapeConfig) *Jobs {
	return &Jobs{
		prices:    prices,
		registry:  registry,
		refresher: refresher,
		logger:    log,
		cfg:       cfg,
		Now:       time.Now,
		Sleep:     sleepContext,
	}
}

func (j *Jobs) dispatcher(jitter config.JitterRange) *Dispatcher {
	d := NewDispatcher(j.registry, j.prices, j.logger, DispatcherConfig{
		CallTimeout: j.cfg.CallTimeout,
		Jitter:      jitter,
	})
	d.Sleep = j.Sleep
	return d
}

// Sweep refreshes up to SweepLimit due records from any shop.
func (j *Jobs) Sweep(ctx context.Context) (RunSummary, error) {
	records, err := j.prices.SelectDue(ctx, j.Now(), j.cfg.SweepLimit)
	if err != nil {
		return RunSummary{}, fmt.Errorf("select due: %w", err)
	}
	j.logger.Info("sweep selected records", zap.Int("count", len(records)))

	summary, err := j.dispatcher(j.cfg.SweepJitter).Run(ctx, records)
	return j.finish(ctx, "sweep", summary, err)
}

// BatchSweep runs BatchIterations selections of at most BatchPerShop due
// records per shop. Records attempted earlier in the job are not selected
// again, so one failing record cannot take its shop's whole quota.
func (j *Jobs) BatchSweep(ctx context.Context) (RunSummary, error) {
	d := j.dispatcher(j.cfg.BatchJitter)
	attempted := make(map[model.ShopPriceKey]struct{})

	var total RunSummary
	for i := 0; i < j.cfg.BatchIterations; i++ {
		records, err := j.prices.SelectDueByShop(ctx, j.Now(), j.cfg.BatchPerShop, attempted)
		if err != nil {
			return j.finish(ctx, "batch", total, fmt.Errorf("select due by shop: %w", err))
		}
		if len(records) == 0 {
			j.logger.Info("batch backlog drained", zap.Int("iteration", i))
			break
		}
		for _, r := range records {
			attempted[r.Key()] = struct{}{}
		}

		summary, err := d.Run(ctx, records)
		total.add(summary)
		if err != nil {
			return j.finish(ctx, "batch", total, err)
		}

		if i < j.cfg.BatchIterations-1 {
			if err := j.Sleep(ctx, d.jitter()); err != nil {
				return j.finish(ctx, "batch", total, err)
			}
		}
	}
	return j.finish(ctx, "batch", total, nil)
}

// DealSweep refreshes every shop record of every product currently on deal,
// regardless of age or visibility.
func (j *Jobs) DealSweep(ctx context.Context) (RunSummary, error) {
	records, err := j.prices.SelectDealRecords(ctx)
	if err != nil {
		return RunSummary{}, fmt.Errorf("select deal records: %w", err)
	}
	summary, err := j.dispatcher(j.cfg.DealJitter).Run(ctx, records)
	return j.finish(ctx, "deals", summary, err)
}

// RefreshDeals rebuilds the deals snapshot without scraping.
func (j *Jobs) RefreshDeals(ctx context.Context) (int, error) {
	if j.refresher == nil {
		return 0, fmt.Errorf("deal refresher not configured")
	}
	return j.refresher.Refresh(ctx)
}

func (j *Jobs) finish(ctx context.Context, job string, summary RunSummary, runErr error) (RunSummary, error) {
	if runErr != nil {
		return summary, fmt.Errorf("%s job: %w", job, runErr)
	}
	if !j.cfg.RefreshDealsAfterRun || j.refresher == nil {
		return summary, nil
	}
	n, err := j.refresher.Refresh(ctx)
	if err != nil {
		return summary, fmt.Errorf("%s job: refresh deals: %w", job, err)
	}
	j.logger.Info("deals refreshed", zap.String("job", job), zap.Int("deals", n))
	return summary, nil
}

func (s *RunSummary) add(o RunSummary) {
	if s.RunID == "" {
		s.RunID = o.RunID
	}
	s.Selected += o.Selected
	s.Rounds += o.Rounds
	s.Updated += o.Updated
	s.Changed += o.Changed
	s.Hidden += o.Hidden
	s.FetchErrors += o.FetchErrors
	s.NotFound += o.NotFound
	s.Conflicts += o.Conflicts
	s.Skipped += o.Skipped
	s.Duration += o.Duration
}
