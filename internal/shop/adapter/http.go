package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultTimeout   = 15 * time.Second
	connectTimeout   = 4 * time.Second
	headerTimeout    = 12 * time.Second
	idleConnTimeout  = 90 * time.Second
	maxBodyBytes     = 8 << 20
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"
)

// newHTTPClient returns a client tuned for one-request-at-a-time per host;
// the dispatcher never overlaps calls to the same shop.
func newHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxConnsPerHost:       2,
		MaxIdleConnsPerHost:   1,
		IdleConnTimeout:       idleConnTimeout,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: tr, Timeout: timeout}
}

// getBody performs a GET and returns the body with the status code. Non-2xx
// statuses are returned without error so callers can map 404/410 themselves.
func getBody(ctx context.Context, client *http.Client, url, userAgent, accept string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", accept)
	req.Header.Set("Accept-Language", "es-UY,es;q=0.9,en;q=0.6")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	return body, resp.StatusCode, nil
}

func isGone(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultTimeout
	}
	return context.WithTimeout(ctx, d)
}
