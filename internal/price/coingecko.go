// Package price resolves USD spot prices for native tokens with a trailing
// cache, so pollers can value transactions without hitting the price API on
// every scan.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultEndpoint = "https://api.coingecko.com/api/v3"

// Stale prices are refreshed at most hourly; a fetch failure falls back to the
// last good value, then to a static default.
const cacheTTL = time.Hour

var coinIDs = map[string]string{
	"ETH": "ethereum",
	"BTC": "bitcoin",
	"XRP": "ripple",
}

var fallbacks = map[string]float64{
	"ETH": 3500,
	"BTC": 60_000,
	"XRP": 0.5,
}

type cached struct {
	value     float64
	fetchedAt time.Time
}

// CoinGecko is a price source backed by the CoinGecko simple-price API.
type CoinGecko struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]cached
}

// NewCoinGecko builds a CoinGecko price source.
func NewCoinGecko(logger *zap.Logger) *CoinGecko {
	return &CoinGecko{
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.Named("price"),
		now:      time.Now,
		cache:    make(map[string]cached),
	}
}

// NewCoinGeckoWithEndpoint is used by tests to point at a stub server.
func NewCoinGeckoWithEndpoint(endpoint string, logger *zap.Logger) *CoinGecko {
	c := NewCoinGecko(logger)
	c.endpoint = endpoint
	return c
}

// Price returns the USD price of a token. It never fails: on API errors it
// returns the last cached value, falling back to a static default.
func (c *CoinGecko) Price(ctx context.Context, token string) float64 {
	token = strings.ToUpper(token)

	c.mu.Lock()
	entry, ok := c.cache[token]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < cacheTTL {
		return entry.value
	}

	value, err := c.fetch(ctx, token)
	if err != nil {
		c.logger.Warn("price fetch failed", zap.String("token", token), zap.Error(err))
		if ok {
			return entry.value
		}
		return fallbacks[token]
	}

	c.mu.Lock()
	c.cache[token] = cached{value: value, fetchedAt: c.now()}
	c.mu.Unlock()
	return value
}

func (c *CoinGecko) fetch(ctx context.Context, token string) (float64, error) {
	id, ok := coinIDs[token]
	if !ok {
		return 0, fmt.Errorf("unknown token %q", token)
	}

	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", "usd")
	reqURL := fmt.Sprintf("%s/simple/price?%s", c.endpoint, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build price request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price request: http %d", resp.StatusCode)
	}

	var payload map[string]map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode price response: %w", err)
	}
	value, ok := payload[id]["usd"]
	if !ok {
		return 0, fmt.Errorf("price response missing %s/usd", id)
	}
	return value, nil
}
