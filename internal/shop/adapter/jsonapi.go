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

// JSONAPIAdapter talks to retailers exposing a plain product endpoint:
//
//	GET {base}/{ref} -> {"price": 130, "regular_price": 150, "available": true}
//
// price may also be a string ("1.234,50"). A 404/410 or available=false means
// the product is delisted.
type JSONAPIAdapter struct {
	shopID    int64
	baseURL   string
	client    *http.Client
	userAgent string
	timeout   time.Duration
}

type JSONAPIOptions struct {
	ShopID    int64
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

func NewJSONAPIAdapter(opts JSONAPIOptions) (*JSONAPIAdapter, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, errors.New("jsonapi: BaseURL is required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("jsonapi: invalid BaseURL: %w", err)
	}
	to := opts.Timeout
	if to <= 0 {
		to = defaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &JSONAPIAdapter{
		shopID:    opts.ShopID,
		baseURL:   strings.TrimRight(base, "/"),
		client:    newHTTPClient(to),
		userAgent: ua,
		timeout:   to,
	}, nil
}

func (a *JSONAPIAdapter) Name() string { return "jsonapi" }

type jsonAPIResponse struct {
	Price        json.RawMessage `json:"price"`
	RegularPrice json.RawMessage `json:"regular_price"`
	Available    *bool           `json:"available"`
}

func (a *JSONAPIAdapter) endpoint(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return a.baseURL + "/" + url.PathEscape(strings.TrimLeft(ref, "/"))
}

func (a *JSONAPIAdapter) Fetch(ctx context.Context, rec model.ShopPrice) (model.Observation, error) {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	body, status, err := getBody(ctx, a.client, a.endpoint(rec.URL), a.userAgent, "application/json")
	if err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: err}
	}
	if isGone(status) {
		return model.Observation{}, shop.NotFound(a.shopID, fmt.Sprintf("http_%d", status))
	}
	if status < 200 || status >= 300 {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: errors.New("unexpected status")}
	}

	var resp jsonAPIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: fmt.Errorf("decode: %w", err)}
	}
	if resp.Available != nil && !*resp.Available {
		return model.Observation{}, shop.NotFound(a.shopID, "unavailable")
	}

	price, err := rawPrice(resp.Price)
	if err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: fmt.Errorf("price: %w", err)}
	}
	if price == nil {
		return model.Observation{}, shop.NotFound(a.shopID, "no_price")
	}

	obs := model.Observation{CurrentPrice: price, Hidden: boolPtr(false)}
	if regular, err := rawPrice(resp.RegularPrice); err == nil && regular != nil {
		obs.RegularPrice = regular
	}
	return obs, nil
}

// rawPrice accepts a JSON number, a formatted string or null.
func rawPrice(raw json.RawMessage) (*decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, err
		}
		return &d, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	d, err := parsePriceText(text)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
