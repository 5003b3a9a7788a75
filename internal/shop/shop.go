// Package shop defines the retailer adapter capability used by the scrape
// dispatcher and the error kinds adapters report.
package shop

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/pricewatch-service/internal/model"
)

// Adapter fetches the current price state of one record from one retailer.
// Implementations must bound every call with their own timeout.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, rec model.ShopPrice) (model.Observation, error)
}

// ErrNotFound means the retailer confirmed the product is no longer listed.
var ErrNotFound = errors.New("shop: product not found")

// NotFound wraps ErrNotFound with the shop and a short reason for logs.
func NotFound(shopID int64, reason string) error {
	return fmt.Errorf("shop %d: %s: %w", shopID, reason, ErrNotFound)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// FetchError is a transient failure: network, timeout, unexpected status or
// an unparsable payload. The record is left untouched for the next run.
type FetchError struct {
	ShopID     int64
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("shop %d: fetch failed (status %d): %v", e.ShopID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("shop %d: fetch failed: %v", e.ShopID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrorKind names an adapter error for the "kind" log field. Anything that
// is not a confirmed delisting is treated as transient.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsNotFound(err):
		return "not_found"
	default:
		return "fetch_error"
	}
}
