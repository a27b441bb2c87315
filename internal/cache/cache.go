// Package cache provides the time-boxed key-value cache shared by all
// analysis endpoints. A cache hit short-circuits the whole pipeline;
// cache failures degrade to misses so the pipeline keeps working without
// the cache, only slower.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Tiered TTLs: volatile price lookups are short, transaction-derived
// aggregates medium, expensive full analyses long.
const (
	PriceTTL    = 300 * time.Second
	CompareTTL  = 300 * time.Second
	ResultTTL   = 600 * time.Second
	AnalysisTTL = 3600 * time.Second
	WalletTTL   = 3600 * time.Second
)

// Cache is a TTL key-value store. Values are serialized JSON.
type Cache interface {
	// Get returns the stored value or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with a time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Keys are namespaced per logical endpoint and parameterized by mint (and
// a secondary parameter where relevant).

func SearchKey(mint string) string   { return "search:" + mint }
func HealthKey(mint string) string   { return "health:" + mint }
func TimelineKey(mint string) string { return "timeline:" + mint }
func RugCheckKey(mint string) string { return "rugcheck:" + mint }
func CompareKey(mint string) string  { return "compare:" + mint }
func PriceKey(mint string) string    { return "price:" + mint + ":latest" }
func TransfersKey(mint string, limit int) string {
	return fmt.Sprintf("transfers:%s:%d", mint, limit)
}
func WalletKey(wallet, mint string) string {
	return fmt.Sprintf("wallet:%s:%s", wallet, mint)
}
func CopyTradeKey(wallet, signature string) string {
	return fmt.Sprintf("copytrade:%s:%s", wallet, signature)
}
