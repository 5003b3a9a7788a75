package config

import (
	"testing"
	"time"
)

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Freshness.VisibleWindow != 12*time.Hour {
		t.Fatalf("visible window: want 12h, got %v", cfg.Freshness.VisibleWindow)
	}
	if cfg.Freshness.HiddenWindow != 72*time.Hour {
		t.Fatalf("hidden window: want 72h, got %v", cfg.Freshness.HiddenWindow)
	}
	if cfg.Scrape.SweepLimit != 1000 || cfg.Scrape.BatchIterations != 50 || cfg.Scrape.BatchPerShop != 5 {
		t.Fatalf("unexpected run shape defaults: %+v", cfg.Scrape)
	}
	if cfg.Duplicate.MaxMatches != 10 || cfg.Duplicate.PoolSize != 50 {
		t.Fatalf("unexpected duplicate defaults: %+v", cfg.Duplicate)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STALE_VISIBLE", "30m")
	t.Setenv("BATCH_JITTER_MAX", "0s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DUPLICATE_THRESHOLD", "0.45")
	t.Setenv("SWEEP_LIMIT", "not-a-number")

	cfg := LoadEnv()

	if cfg.Freshness.VisibleWindow != 30*time.Minute {
		t.Fatalf("want 30m, got %v", cfg.Freshness.VisibleWindow)
	}
	if cfg.Scrape.BatchJitter.Max != 0 {
		t.Fatalf("want zero jitter max, got %v", cfg.Scrape.BatchJitter.Max)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" || !cfg.Kafka.Enabled() {
		t.Fatalf("unexpected brokers: %#v", cfg.Kafka.Brokers)
	}
	if cfg.Duplicate.Threshold != 0.45 {
		t.Fatalf("want 0.45, got %v", cfg.Duplicate.Threshold)
	}
	if cfg.Scrape.SweepLimit != 1000 {
		t.Fatalf("invalid int should fall back, got %d", cfg.Scrape.SweepLimit)
	}
}
