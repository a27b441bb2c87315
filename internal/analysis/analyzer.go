// Package analysis composes the shared fetch-reconcile-aggregate-score
// pipeline that every endpoint runs, plus the endpoint-specific shaping
// on top of it.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/cohort"
	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/ledger"
	"github.com/McomEngine/solinsidefinder/internal/observability"
	"github.com/McomEngine/solinsidefinder/internal/pricefeed"
	"github.com/McomEngine/solinsidefinder/internal/solana"
	"github.com/McomEngine/solinsidefinder/internal/wallet"
)

// Sentinel errors mapped to HTTP statuses by the API layer.
var (
	ErrMintNotFound     = errors.New("token mint account not found")
	ErrTxNotFound       = errors.New("transaction not found")
	ErrTransferNotFound = errors.New("no token transfer found in this transaction")
)

const (
	// SignaturePageSize is the per-page limit for signature fetches.
	SignaturePageSize = 25

	// SearchPages is how many signature pages the search endpoint walks;
	// every other endpoint fetches a single page.
	SearchPages = 2

	// DefaultTxWorkers bounds concurrent parsed-transaction fetches for
	// one request.
	DefaultTxWorkers = 8
)

// Analyzer runs token analyses against the chain RPC, with results cached
// per endpoint.
type Analyzer struct {
	rpc       solana.RPCClient
	cache     cache.Cache
	agg       *wallet.Aggregator
	feed      *pricefeed.Client
	logger    *logrus.Logger
	txWorkers int
	now       func() time.Time
}

// Options configures an Analyzer. RPC is required; everything else has a
// working default.
type Options struct {
	RPC        solana.RPCClient
	Cache      cache.Cache
	Aggregator *wallet.Aggregator
	Feed       *pricefeed.Client
	Logger     *logrus.Logger
	TxWorkers  int
	Now        func() time.Time // test hook
}

// New creates an Analyzer.
func New(opts Options) *Analyzer {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	agg := opts.Aggregator
	if agg == nil {
		agg = wallet.New(wallet.Options{RPC: opts.RPC, Cache: opts.Cache, Logger: logger})
	}
	feed := opts.Feed
	if feed == nil {
		feed = pricefeed.New(pricefeed.Options{Cache: opts.Cache, Logger: logger})
	}
	workers := opts.TxWorkers
	if workers <= 0 {
		workers = DefaultTxWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Analyzer{
		rpc:       opts.RPC,
		cache:     opts.Cache,
		agg:       agg,
		feed:      feed,
		logger:    logger,
		txWorkers: workers,
		now:       now,
	}
}

// snapshot is one pipeline run over a mint: the fetched window and every
// derived view of it.
type snapshot struct {
	Mint        string
	Signatures  []solana.SignatureInfo
	Records     []ledger.Record
	Events      []domain.TransferEvent
	Wallets     map[string]*domain.WalletState
	Results     domain.CohortResults
	TotalSupply float64
}

// analyze runs the shared pipeline: paginated signature fetch, bounded
// concurrent transaction fetch, reconcile, fold, enrich, score, classify.
func (a *Analyzer) analyze(ctx context.Context, mint string, pages, perPage int) (*snapshot, error) {
	start := a.now()

	sigs, err := a.fetchSignatures(ctx, mint, pages, perPage)
	if err != nil {
		observability.RecordAnalysisRun("pipeline", "error", a.now().Sub(start).Seconds())
		return nil, err
	}

	snap := &snapshot{
		Mint:       mint,
		Signatures: sigs,
		Wallets:    map[string]*domain.WalletState{},
		Results:    cohort.Classify(nil),
	}
	if len(sigs) == 0 {
		observability.RecordAnalysisRun("pipeline", "empty", a.now().Sub(start).Seconds())
		return snap, nil
	}

	snap.Records = a.fetchRecords(ctx, sigs)
	snap.TotalSupply = a.totalSupply(ctx, mint)
	snap.Events = ledger.Events(snap.Records, mint, a.now().UTC())
	snap.Wallets = a.agg.Fold(snap.Events, sigs, snap.TotalSupply)
	a.agg.Enrich(ctx, mint, snap.Wallets, snap.TotalSupply)
	wallet.FinalizeScores(snap.Wallets)
	snap.Results = cohort.Classify(snap.Wallets)

	observability.RecordReconciled(len(snap.Events), len(snap.Wallets))
	observability.RecordAnalysisRun("pipeline", "ok", a.now().Sub(start).Seconds())

	a.logger.WithFields(logrus.Fields{
		"mint":       mint,
		"signatures": len(sigs),
		"events":     len(snap.Events),
		"wallets":    len(snap.Wallets),
	}).Debug("pipeline run complete")

	return snap, nil
}

// fetchSignatures walks signature pages newest-first. A failure on the
// first page propagates; failures on later pages truncate the window to
// what was already fetched.
func (a *Analyzer) fetchSignatures(ctx context.Context, mint string, pages, perPage int) ([]solana.SignatureInfo, error) {
	var all []solana.SignatureInfo
	before := ""

	for page := 0; page < pages; page++ {
		sigs, err := a.rpc.GetSignaturesForAddress(ctx, mint, &solana.SignaturesOpts{
			Limit:  perPage,
			Before: before,
		})
		if err != nil {
			if page == 0 {
				return nil, err
			}
			a.logger.WithError(err).WithFields(logrus.Fields{
				"mint": mint,
				"page": page + 1,
			}).Warn("signature page fetch failed, truncating window")
			break
		}
		if len(sigs) == 0 {
			break
		}
		all = append(all, sigs...)
		before = sigs[len(sigs)-1].Signature
	}

	return all, nil
}

// fetchRecords fetches parsed transactions for the signatures with a
// bounded worker count, preserving signature order in the result. Per-
// transaction failures leave a nil Tx, filtered later by the shape check.
func (a *Analyzer) fetchRecords(ctx context.Context, sigs []solana.SignatureInfo) []ledger.Record {
	records := make([]ledger.Record, len(sigs))
	sem := make(chan struct{}, a.txWorkers)

	var wg sync.WaitGroup
	for i, sig := range sigs {
		i, sig := i, sig
		records[i].Sig = sig

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			tx, err := a.rpc.GetParsedTransaction(ctx, sig.Signature)
			if err != nil {
				a.logger.WithError(err).WithField("signature", sig.Signature).Debug("transaction fetch failed")
				return
			}
			records[i].Tx = tx
		}()
	}
	wg.Wait()

	return records
}

// totalSupply fetches the mint's decimal-adjusted supply, defaulting to 1
// so threshold fractions stay defined.
func (a *Analyzer) totalSupply(ctx context.Context, mint string) float64 {
	info, err := a.rpc.GetMintInfo(ctx, mint)
	if err != nil || info == nil || info.Supply == 0 {
		if err != nil {
			a.logger.WithError(err).WithField("mint", mint).Warn("mint supply fetch failed, using default")
		}
		return 1
	}
	return info.Supply
}

// cacheNamespace extracts the key namespace for cache metrics.
func cacheNamespace(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

// cached wraps an endpoint computation with the serve-from-cache /
// store-on-success pattern shared by every endpoint.
func cached[T any](ctx context.Context, c cache.Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	if c != nil {
		if raw, err := c.Get(ctx, key); err == nil {
			var value T
			if err := json.Unmarshal(raw, &value); err == nil {
				observability.RecordCacheLookup(cacheNamespace(key), true)
				return value, nil
			}
		}
		observability.RecordCacheLookup(cacheNamespace(key), false)
	}

	value, err := fn()
	if err != nil {
		return zero, err
	}

	if c != nil {
		if raw, err := json.Marshal(value); err == nil {
			c.Set(ctx, key, raw, ttl)
		}
	}
	return value, nil
}

// Search runs the full two-page insider analysis and returns the four
// cohort views.
func (a *Analyzer) Search(ctx context.Context, mint string) (domain.CohortResults, error) {
	return cached(ctx, a.cache, cache.SearchKey(mint), cache.ResultTTL, func() (domain.CohortResults, error) {
		snap, err := a.analyze(ctx, mint, SearchPages, SignaturePageSize)
		if err != nil {
			return domain.CohortResults{}, err
		}
		return snap.Results, nil
	})
}
