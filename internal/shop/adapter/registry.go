// Package adapter holds the concrete retailer adapters and builds the shop
// registry from the shops file.
package adapter

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fekuna/pricewatch-service/internal/shop"
)

const (
	KindVTEX    = "vtex"
	KindJSONAPI = "jsonapi"
	KindHTML    = "html"
	KindMock    = "mock"
)

// ShopConfig is one entry of the shops file.
type ShopConfig struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      string    `json:"kind"`
	BaseURL   string    `json:"base_url"`
	UserAgent string    `json:"user_agent,omitempty"`
	Timeout   string    `json:"timeout,omitempty"` // Go duration, default 15s
	Selectors Selectors `json:"selectors,omitempty"`
	Disabled  bool      `json:"disabled,omitempty"`
}

func (c ShopConfig) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return defaultTimeout, nil
	}
	return time.ParseDuration(c.Timeout)
}

// LoadShopConfigs reads a JSON array of ShopConfig.
func LoadShopConfigs(path string) ([]ShopConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shops file: %w", err)
	}
	var cfgs []ShopConfig
	if err := json.Unmarshal(data, &cfgs); err != nil {
		return nil, fmt.Errorf("parse shops file: %w", err)
	}
	return cfgs, nil
}

// New builds the adapter for one shop.
func New(cfg ShopConfig) (shop.Adapter, error) {
	to, err := cfg.timeout()
	if err != nil {
		return nil, fmt.Errorf("shop %d: invalid timeout %q: %w", cfg.ID, cfg.Timeout, err)
	}

	switch cfg.Kind {
	case KindVTEX:
		return NewVTEXAdapter(VTEXOptions{ShopID: cfg.ID, BaseURL: cfg.BaseURL, UserAgent: cfg.UserAgent, Timeout: to})
	case KindJSONAPI:
		return NewJSONAPIAdapter(JSONAPIOptions{ShopID: cfg.ID, BaseURL: cfg.BaseURL, UserAgent: cfg.UserAgent, Timeout: to})
	case KindHTML:
		return NewHTMLAdapter(HTMLOptions{ShopID: cfg.ID, BaseURL: cfg.BaseURL, Selectors: cfg.Selectors, UserAgent: cfg.UserAgent, Timeout: to})
	case KindMock:
		return NewMockAdapter(cfg.ID, 0), nil
	default:
		return nil, fmt.Errorf("shop %d: unknown adapter kind %q", cfg.ID, cfg.Kind)
	}
}

// BuildRegistry constructs one adapter per enabled shop. Duplicate ids are
// rejected so a shop can never be dispatched through two adapters.
func BuildRegistry(cfgs []ShopConfig) (shop.Registry, error) {
	reg := make(shop.Registry, len(cfgs))
	for _, c := range cfgs {
		if c.Disabled {
			continue
		}
		if _, dup := reg[c.ID]; dup {
			return nil, fmt.Errorf("shop %d declared twice", c.ID)
		}
		a, err := New(c)
		if err != nil {
			return nil, err
		}
		reg[c.ID] = a
	}
	return reg, nil
}
