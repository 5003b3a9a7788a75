// Package scrape drives price refresh runs: it spreads records over
// jittered rounds so no shop ever sees more than one request at a time.
package scrape

import (
	"context"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fekuna/pricewatch-service/config"
	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/price"
	"github.com/fekuna/pricewatch-service/internal/shop"
	"github.com/fekuna/pricewatch-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Writer persists adapter results. price.UseCase satisfies it.
type Writer interface {
	Apply(ctx context.Context, rec model.ShopPrice, obs model.Observation) (price.ApplyResult, error)
	MarkNotFound(ctx context.Context, rec model.ShopPrice) error
}

// RunSummary is reported once per run.
type RunSummary struct {
	RunID       string
	Selected    int
	Rounds      int
	Updated     int
	Changed     int
	Hidden      int
	FetchErrors int
	NotFound    int
	Conflicts   int
	Skipped     int
	Duration    time.Duration
}

func (s RunSummary) fields() []zap.Field {
	return []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Int("selected", s.Selected),
		zap.Int("rounds", s.Rounds),
		zap.Int("updated", s.Updated),
		zap.Int("changed", s.Changed),
		zap.Int("hidden", s.Hidden),
		zap.Int("fetch_errors", s.FetchErrors),
		zap.Int("not_found", s.NotFound),
		zap.Int("conflicts", s.Conflicts),
		zap.Int("skipped", s.Skipped),
		zap.Duration("duration", s.Duration),
	}
}

type counters struct {
	updated, changed, hidden         atomic.Int64
	fetchErrors, notFound, conflicts atomic.Int64
}

type DispatcherConfig struct {
	CallTimeout time.Duration
	Jitter      config.JitterRange
}

type Dispatcher struct {
	registry shop.Registry
	writer   Writer
	logger   logger.ZapLogger
	cfg      DispatcherConfig

	// Sleep waits between rounds; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(registry shop.Registry, writer Writer, log logger.ZapLogger, cfg DispatcherConfig) *Dispatcher {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 15 * time.Second
	}
	return &Dispatcher{
		registry: registry,
		writer:   writer,
		logger:   log,
		cfg:      cfg,
		Sleep:    sleepContext,
	}
}

// Run refreshes records in rounds. Each round takes at most one record from
// every shop queue and waits for all of them before the next round starts.
// A storage failure other than a write conflict stops the run after the
// current round; the partial summary is returned with the error.
func (d *Dispatcher) Run(ctx context.Context, records []model.ShopPrice) (RunSummary, error) {
	start := time.Now()
	summary := RunSummary{RunID: uuid.New().String(), Selected: len(records)}
	log := d.logger.With(zap.String("run_id", summary.RunID))

	queues, shopIDs, skipped := d.group(records, log)
	summary.Skipped = skipped

	var c counters
	var runErr error

	for {
		batch := nextRound(queues, shopIDs)
		if len(batch) == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		err := d.round(ctx, batch, &c, log)
		summary.Rounds++
		if err != nil {
			runErr = err
			break
		}

		if !pending(queues) {
			break
		}
		if err := d.Sleep(ctx, d.jitter()); err != nil {
			runErr = err
			break
		}
	}

	summary.Updated = int(c.updated.Load())
	summary.Changed = int(c.changed.Load())
	summary.Hidden = int(c.hidden.Load())
	summary.FetchErrors = int(c.fetchErrors.Load())
	summary.NotFound = int(c.notFound.Load())
	summary.Conflicts = int(c.conflicts.Load())
	summary.Duration = time.Since(start)

	if runErr != nil {
		log.Error("run aborted", append(summary.fields(), zap.String("kind", "fatal"), zap.Error(runErr))...)
		return summary, runErr
	}
	log.Info("run finished", summary.fields()...)
	return summary, nil
}

func (d *Dispatcher) group(records []model.ShopPrice, log logger.ZapLogger) (map[int64][]model.ShopPrice, []int64, int) {
	queues := make(map[int64][]model.ShopPrice)
	skipped := 0
	for _, rec := range records {
		if _, ok := d.registry.Get(rec.ShopID); !ok {
			skipped++
			log.Warn("no adapter registered for shop",
				zap.Int64("shop_id", rec.ShopID),
				zap.Int64("product_id", rec.ProductID),
			)
			continue
		}
		queues[rec.ShopID] = append(queues[rec.ShopID], rec)
	}

	shopIDs := make([]int64, 0, len(queues))
	for id := range queues {
		shopIDs = append(shopIDs, id)
	}
	sort.Slice(shopIDs, func(i, j int) bool { return shopIDs[i] < shopIDs[j] })
	return queues, shopIDs, skipped
}

func nextRound(queues map[int64][]model.ShopPrice, shopIDs []int64) []model.ShopPrice {
	var batch []model.ShopPrice
	for _, id := range shopIDs {
		q := queues[id]
		if len(q) == 0 {
			continue
		}
		batch = append(batch, q[0])
		queues[id] = q[1:]
	}
	return batch
}

func pending(queues map[int64][]model.ShopPrice) bool {
	for _, q := range queues {
		if len(q) > 0 {
			return true
		}
	}
	return false
}

// round holds one goroutine per shop; batch never has two records of the
// same shop.
func (d *Dispatcher) round(ctx context.Context, batch []model.ShopPrice, c *counters, log logger.ZapLogger) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, rec := range batch {
		wg.Add(1)
		go func(rec model.ShopPrice) {
			defer wg.Done()
			if err := d.process(ctx, rec, c, log); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(rec)
	}
	wg.Wait()
	return firstErr
}

// process returns an error only when the run must stop.
func (d *Dispatcher) process(ctx context.Context, rec model.ShopPrice, c *counters, log logger.ZapLogger) error {
	adapter, _ := d.registry.Get(rec.ShopID)
	fields := []zap.Field{
		zap.Int64("shop_id", rec.ShopID),
		zap.Int64("product_id", rec.ProductID),
		zap.String("adapter", adapter.Name()),
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
	obs, err := adapter.Fetch(callCtx, rec)
	cancel()

	switch {
	case err == nil:
		res, werr := d.writer.Apply(ctx, rec, obs)
		if werr != nil {
			return d.writeFailure(werr, c, log, fields)
		}
		c.updated.Add(1)
		if res.Changed {
			c.changed.Add(1)
		}
		return nil

	case shop.IsNotFound(err):
		c.notFound.Add(1)
		log.Info("product no longer listed", append(fields, zap.String("kind", "not_found"), zap.Error(err))...)
		if werr := d.writer.MarkNotFound(ctx, rec); werr != nil {
			return d.writeFailure(werr, c, log, fields)
		}
		c.hidden.Add(1)
		return nil

	default:
		c.fetchErrors.Add(1)
		log.Warn("fetch failed", append(fields, zap.String("kind", shop.ErrorKind(err)), zap.Error(err))...)
		return nil
	}
}

func (d *Dispatcher) writeFailure(err error, c *counters, log logger.ZapLogger, fields []zap.Field) error {
	if errors.Is(err, price.ErrWriteConflict) {
		c.conflicts.Add(1)
		log.Warn("write conflict, record skipped", append(fields, zap.String("kind", "write_conflict"), zap.Error(err))...)
		return nil
	}
	log.Error("write failed", append(fields, zap.String("kind", "fatal"), zap.Error(err))...)
	return err
}

func (d *Dispatcher) jitter() time.Duration {
	lo, hi := d.cfg.Jitter.Min, d.cfg.Jitter.Max
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
