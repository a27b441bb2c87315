// Package pricefeed fetches market data for a mint from the Dexscreener
// public API. The feed degrades rather than fails: on any error the
// caller gets conservative defaults so analysis can proceed without
// market context.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/McomEngine/solinsidefinder/internal/cache"
)

const (
	defaultBaseURL = "https://api.dexscreener.com/latest/dex/tokens/"
	defaultTimeout = 5 * time.Second

	// Values used when the feed is unreachable or the token has no pairs.
	FallbackPrice       = 0.01
	FallbackLiquidity01 = 0.5
)

// Quote is the market snapshot for a mint.
type Quote struct {
	PriceUSD       float64 `json:"priceUsd"`
	LiquidityUSD   float64 `json:"liquidityUsd"`
	PriceChange24h float64 `json:"priceChange24h"`
	LockedUntil    int64   `json:"lockedUntil,omitempty"` // unix ms, 0 when unknown
	Degraded       bool    `json:"degraded,omitempty"`
}

// LiquidityScore01 scales liquidity to [0,1] against a $1M cap.
func (q Quote) LiquidityScore01() float64 {
	if q.Degraded {
		return FallbackLiquidity01
	}
	score := q.LiquidityUSD / 1_000_000
	if score > 1 {
		return 1
	}
	return score
}

type dexResponse struct {
	Pairs []struct {
		PriceUSD  string `json:"priceUsd"`
		Liquidity struct {
			USD float64 `json:"usd"`
		} `json:"liquidity"`
		PriceChange struct {
			H24 float64 `json:"h24"`
		} `json:"priceChange"`
		Locks *struct {
			LockedUntil int64 `json:"lockedUntil"`
		} `json:"locks,omitempty"`
	} `json:"pairs"`
}

// Client fetches quotes with a short timeout and caches them.
type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	logger  *logrus.Logger
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Cache   cache.Cache
	Logger  *logrus.Logger
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: opts.Timeout},
		cache:   opts.Cache,
		logger:  opts.Logger,
	}
}

// Quote returns the market snapshot for mint, serving from cache when
// fresh. Errors never propagate: a degraded quote with fallback values is
// returned instead.
func (c *Client) Quote(ctx context.Context, mint string) Quote {
	key := cache.PriceKey(mint)
	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, key); err == nil {
			var q Quote
			if json.Unmarshal(raw, &q) == nil {
				return q
			}
		}
	}

	q, err := c.fetch(ctx, mint)
	if err != nil {
		c.logger.WithError(err).WithField("mint", mint).Warn("price feed degraded")
		return Quote{PriceUSD: FallbackPrice, Degraded: true}
	}

	if c.cache != nil {
		if raw, err := json.Marshal(q); err == nil {
			c.cache.Set(ctx, key, raw, cache.PriceTTL)
		}
	}
	return q
}

func (c *Client) fetch(ctx context.Context, mint string) (Quote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+mint, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch quote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Quote{}, fmt.Errorf("dexscreener status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Quote{}, fmt.Errorf("read body: %w", err)
	}

	var parsed dexResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Quote{}, fmt.Errorf("decode body: %w", err)
	}
	if len(parsed.Pairs) == 0 {
		return Quote{}, fmt.Errorf("no pairs for mint")
	}

	pair := parsed.Pairs[0]
	price, err := strconv.ParseFloat(pair.PriceUSD, 64)
	if err != nil {
		return Quote{}, fmt.Errorf("parse priceUsd %q: %w", pair.PriceUSD, err)
	}

	q := Quote{
		PriceUSD:       price,
		LiquidityUSD:   pair.Liquidity.USD,
		PriceChange24h: pair.PriceChange.H24,
	}
	if pair.Locks != nil {
		q.LockedUntil = pair.Locks.LockedUntil
	}
	return q, nil
}
