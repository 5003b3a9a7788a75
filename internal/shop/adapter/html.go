package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/pricewatch-service/internal/model"
	"github.com/fekuna/pricewatch-service/internal/shop"
	"github.com/gocolly/colly"
)

// Selectors locate price data on a retailer product page.
type Selectors struct {
	Price        string `json:"price"`
	PriceAttr    string `json:"price_attr,omitempty"` // read an attribute (e.g. "content") instead of text
	RegularPrice string `json:"regular_price,omitempty"`
	NotFound     string `json:"not_found,omitempty"` // marker present on delisted pages
}

// HTMLAdapter scrapes server-rendered product pages. The record URL is the
// product page, absolute or relative to BaseURL.
type HTMLAdapter struct {
	shopID    int64
	baseURL   string
	selectors Selectors
	transport http.RoundTripper
	userAgent string
	timeout   time.Duration
}

type HTMLOptions struct {
	ShopID    int64
	BaseURL   string
	Selectors Selectors
	UserAgent string
	Timeout   time.Duration
}

func NewHTMLAdapter(opts HTMLOptions) (*HTMLAdapter, error) {
	if strings.TrimSpace(opts.Selectors.Price) == "" {
		return nil, errors.New("html: price selector is required")
	}
	to := opts.Timeout
	if to <= 0 {
		to = defaultTimeout
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return &HTMLAdapter{
		shopID:    opts.ShopID,
		baseURL:   strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		selectors: opts.Selectors,
		transport: newHTTPClient(to).Transport,
		userAgent: ua,
		timeout:   to,
	}, nil
}

func (a *HTMLAdapter) Name() string { return "html" }

// ctxTransport binds every request colly issues to the fetch context, since
// colly v1 has no context-aware Visit.
type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

func (a *HTMLAdapter) pageURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return a.baseURL + "/" + strings.TrimLeft(ref, "/")
}

func (a *HTMLAdapter) Fetch(ctx context.Context, rec model.ShopPrice) (model.Observation, error) {
	ctx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	c := colly.NewCollector(
		colly.UserAgent(a.userAgent),
		colly.AllowURLRevisit(),
	)
	c.WithTransport(ctxTransport{ctx: ctx, base: a.transport})
	c.SetRequestTimeout(a.timeout)

	var (
		status      int
		priceText   string
		regularText string
		delisted    bool
	)

	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
	})
	c.OnHTML("html", func(e *colly.HTMLElement) {
		if a.selectors.NotFound != "" && e.DOM.Find(a.selectors.NotFound).Length() > 0 {
			delisted = true
			return
		}
		node := e.DOM.Find(a.selectors.Price).First()
		if a.selectors.PriceAttr != "" {
			priceText, _ = node.Attr(a.selectors.PriceAttr)
		} else {
			priceText = node.Text()
		}
		if a.selectors.RegularPrice != "" {
			regularText = e.DOM.Find(a.selectors.RegularPrice).First().Text()
		}
	})

	err := c.Visit(a.pageURL(rec.URL))
	if isGone(status) {
		return model.Observation{}, shop.NotFound(a.shopID, fmt.Sprintf("http_%d", status))
	}
	if err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: err}
	}
	if delisted {
		return model.Observation{}, shop.NotFound(a.shopID, "not_found_marker")
	}
	if strings.TrimSpace(priceText) == "" {
		return model.Observation{}, shop.NotFound(a.shopID, "price_element_missing")
	}

	price, err := parsePriceText(priceText)
	if err != nil {
		return model.Observation{}, &shop.FetchError{ShopID: a.shopID, StatusCode: status, Err: fmt.Errorf("parse price %q: %w", priceText, err)}
	}

	obs := model.Observation{CurrentPrice: decimalPtr(price), Hidden: boolPtr(false)}
	if strings.TrimSpace(regularText) != "" {
		if regular, err := parsePriceText(regularText); err == nil {
			obs.RegularPrice = decimalPtr(regular)
		}
	}
	return obs, nil
}
