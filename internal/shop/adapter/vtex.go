package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/shop"
	"github.com/shopspring/decimal"
)

// VTEXAdapter reads prices from the public catalog search API that VTEX
// storefronts expose. The record URL is either the product page URL
// (".../leche-entera-1l/p") or a bare SKU id.
type VTEXAdapter struct {
	shopID    int64
	baseURL   string
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

type VTEXOptions struct {
	ShopID    int64
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func NewVTEXAdapter(opts VTEXOptions) (*VTEXAdapter, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("vtex: BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("vtex: invalid BaseURL: %w", err)
	}
	to := opts.Timeout
	if to <= 0 {
		to = defaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &VTEXAdapter{
		shopID:    opts.ShopID,
		baseURL:   strings.TrimRight(base, "/"),
		client:    newHTTPClient(to),
		userAgent: ua,
		timeout:   to,
	}, nil
}

func (a *VTEXAdapter) Name() string { return "vtex" }

type vtexProduct struct {
	ProductID string     `json:"productId"`
	Items     []vtexItem `json:"items"`
}

type vtexItem struct {
	ItemID  string       `json:"itemId"`
	Sellers []vtexSeller `json:"sellers"`
}

type vtexSeller struct {
	CommertialOffer struct {
		Price             float64 `json:"Price"`
		ListPrice         float64 `json:"ListPrice"`
		AvailableQuantity int     `json:"AvailableQuantity"`
		IsAvailable       *bool   `json:"IsAvailable"`
	} `json:"commertialOffer"`
}

func (a *VTEXAdapter) searchURL(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty reference")
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		u, err := url.Parse(ref)
		if err != nil {
			return "", err
		}
		path := strings.TrimRight(u.Path, "/")
		if !strings.HasSuffix(path, "/p") {
			path += "/p"
		}
		return a.baseURL + "/api/catalog_system/pub/products/search" + path, nil
	}
	q := url.Values{}
	q.Set("fq", "skuId:"+ref)
	return a.baseURL + "/api/catalog_system/pub/products/search?" + q.Encode(), nil
}

func (a *VTEXAdapter) Fetch(ctx context.Context, rec model.ShopPrice) (model.Observation, error) {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	target, err := a.searchURL(rec.URL)
	if err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, Err: err}
	}

	body, status, err := getBody(ctx, a.client, target, a.userAgent, "application/json")
	if err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: err}
	}
	if isGone(status) {
		return model.Observation{}, shop.NotFound(a.shopID, fmt.Sprintf("http_%d", status))
	}
	// VTEX answers 206 for paginated search results.
	if status != http.StatusOK && status != http.StatusPartialContent {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: errors.New("unexpected status")}
	}

	var products []vtexProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: fmt.Errorf("decode: %w", err)}
	}
	if len(products) == 0 || len(products[0].Items) == 0 || len(products[0].Items[0].Sellers) == 0 {
		return model.Observation{}, shop.NotFound(a.shopID, "empty_search_result")
	}

	offer := products[0].Items[0].Sellers[0].CommertialOffer
	available := offer.AvailableQuantity > 0
	if offer.IsAvailable != nil {
		available = available && *offer.IsAvailable
	}
	if !available || offer.Price <= 0 {
		return model.Observation{}, shop.NotFound(a.shopID, "out_of_stock")
	}

	obs := model.Observation{
		CurrentPrice: decimalPtr(decimal.NewFromFloat(offer.Price).Round(2)),
		Hidden:       boolPtr(false),
	}
	if offer.ListPrice > 0 {
		obs.RegularPrice = decimalPtr(decimal.NewFromFloat(offer.ListPrice).Round(2))
	}
	return obs, nil
}
