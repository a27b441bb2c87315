// Package wallet folds transfer events into per-wallet state and runs the
// per-wallet enrichment pass.
package wallet

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/ledger"
	"github.com/McomEngine/solinsidefinder/internal/solana"
)

// Threshold fractions of total supply.
const (
	LargeSellFraction = 0.01
	WhaleFraction     = 0.10
)

// DefaultChunkSize bounds concurrent upstream calls during enrichment.
const DefaultChunkSize = 50

const lamportsPerSol = 1e9

// Aggregator builds WalletState maps from transfer events. The fold is
// commutative across wallets; the position-dependent time sub-score is the
// one order-sensitive input, inherited from signature fetch order.
type Aggregator struct {
	rpc       solana.RPCClient
	cache     cache.Cache
	chunkSize int
	logger    *logrus.Logger
	now       func() time.Time
}

// Options configures an Aggregator.
type Options struct {
	RPC       solana.RPCClient
	Cache     cache.Cache
	ChunkSize int
	Logger    *logrus.Logger
	Now       func() time.Time // test hook
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Aggregator{
		rpc:       opts.RPC,
		cache:     opts.Cache,
		chunkSize: chunkSize,
		logger:    logger,
		now:       now,
	}
}

// Fold builds the wallet map from events. totalSupply feeds the
// large-sell threshold; sigs provide the earliest observed block time for
// the age-scaled early-buy window.
func (a *Aggregator) Fold(events []domain.TransferEvent, sigs []solana.SignatureInfo, totalSupply float64) map[string]*domain.WalletState {
	now := a.now().UTC()
	firstTxTime := ledger.FirstTxTime(sigs, now)
	earlyWindow := ledger.EarlyBuyWindow(now.Sub(firstTxTime))
	largeSellThreshold := totalSupply * LargeSellFraction

	wallets := make(map[string]*domain.WalletState)

	for _, ev := range events {
		w, ok := wallets[ev.Wallet]
		if !ok {
			w = &domain.WalletState{
				Address:     ev.Wallet,
				FirstTxTime: ev.Timestamp,
				LastTxTime:  ev.Timestamp,
				IsHolder:    true,
				WalletLabel: domain.LabelStandard,
				MostProfitableTrade: domain.TradeMark{
					Timestamp: "N/A",
				},
			}
			wallets[ev.Wallet] = w
		}

		w.Transactions = append(w.Transactions, ev)
		w.TotalAmount += ev.Signed()
		w.TotalVolume += ev.Amount
		w.LastTxTime = ev.Timestamp

		switch ev.Type {
		case domain.EventBuy:
			w.BuyCount++
			w.BuyTimestamps = append(w.BuyTimestamps, ev.Timestamp)
		case domain.EventSell:
			w.SellCount++
			w.SellTimestamps = append(w.SellTimestamps, ev.Timestamp)

			if largeSellThreshold > 0 && ev.Amount > largeSellThreshold {
				w.ScoreDetails.LargeSellImpact += min(ev.Amount/largeSellThreshold*20, 30)
				if w.WalletLabel == domain.LabelStandard {
					w.WalletLabel = domain.LabelLargeSeller
				}
			}

			if ev.Amount > w.MostProfitableTrade.Amount {
				w.MostProfitableTrade = domain.TradeMark{
					Amount:    ev.Amount,
					Timestamp: ev.Timestamp.Format(time.RFC3339),
				}
			}
		}

		if ev.Type == domain.EventBuy && ev.Timestamp.Sub(firstTxTime) < earlyWindow {
			w.IsEarlyBuyer = true
			// Flat bonus, not cumulative across multiple early buys
			w.ScoreDetails.EarlyBuy = 25
		}

		if w.TransactionCount() >= 2 {
			w.IsActiveTrader = true
		}

		// Holder means net-positive running balance, selling included.
		w.IsHolder = w.TotalAmount > 0

		if held := now.Sub(ev.Timestamp).Hours(); held > w.HoldingDuration {
			w.HoldingDuration = held
		}

		// Position-dependent time score: rewards wallets appearing early
		// in the recency-ordered fetch. Order-sensitive, kept as-is.
		w.ScoreDetails.Time = max(100-float64(ev.FetchIndex), 10)
		w.ScoreDetails.Amount = min(ev.Amount/1000, 50)
		w.ScoreDetails.Duration = min(w.HoldingDuration/24, 20)

		// Idempotent recomputation from the updated counts, no
		// incremental drift.
		w.AvgTradeSize = w.TotalVolume / float64(w.TransactionCount())
		w.TradeFrequency = float64(w.TransactionCount()) / max(w.HoldingDuration/24, 1)
	}

	return wallets
}

// solBalanceEntry is the per-wallet cached enrichment value.
type solBalanceEntry struct {
	SolBalance float64 `json:"solBalance"`
}

// Enrich runs the per-wallet enrichment pass: proxy sub-scores, whale and
// long-term flags, label priority, and the SOL balance side fetch. Wallets
// are processed in fixed-size chunks, concurrent within a chunk and
// sequential across chunks, to bound simultaneous upstream load.
func (a *Aggregator) Enrich(ctx context.Context, mint string, wallets map[string]*domain.WalletState, totalSupply float64) {
	whaleThreshold := totalSupply * WhaleFraction

	addresses := make([]string, 0, len(wallets))
	for addr := range wallets {
		addresses = append(addresses, addr)
	}

	for start := 0; start < len(addresses); start += a.chunkSize {
		end := min(start+a.chunkSize, len(addresses))

		var wg sync.WaitGroup
		for _, addr := range addresses[start:end] {
			w := wallets[addr]
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.enrichWallet(ctx, mint, w, whaleThreshold)
			}()
		}
		wg.Wait()
	}
}

func (a *Aggregator) enrichWallet(ctx context.Context, mint string, w *domain.WalletState, whaleThreshold float64) {
	// Simplified proxies, preserved deliberately: profitability is not
	// real P&L and network is not a real graph metric.
	if w.SellCount > 0 {
		w.ScoreDetails.Profitability = 10
		w.ScoreDetails.PumpDump = 10
	}
	w.ScoreDetails.Network = min(float64(w.TransactionCount())*2, 20)

	w.IsLongTermHolder = w.HoldingDuration > 7*24 && !w.IsActiveTrader
	w.IsWhale = whaleThreshold > 0 && w.TotalAmount > whaleThreshold

	// Priority order; Large Seller (assigned during the fold) survives
	// unless a higher-priority label matches.
	switch {
	case w.IsLongTermHolder:
		w.WalletLabel = domain.LabelLongTermHolder
	case w.IsActiveTrader:
		w.WalletLabel = domain.LabelActiveTrader
	case w.IsWhale:
		w.WalletLabel = domain.LabelWhale
	}

	w.SolBalance = a.solBalance(ctx, mint, w.Address)
}

// solBalance fetches the wallet's SOL balance, cached per wallet for an
// hour independently of the per-request result cache. Fetch failures
// degrade to zero.
func (a *Aggregator) solBalance(ctx context.Context, mint, address string) float64 {
	key := cache.WalletKey(address, mint)
	if a.cache != nil {
		if raw, err := a.cache.Get(ctx, key); err == nil {
			var entry solBalanceEntry
			if err := json.Unmarshal(raw, &entry); err == nil {
				return entry.SolBalance
			}
		}
	}

	lamports, err := a.rpc.GetBalance(ctx, address)
	if err != nil {
		a.logger.WithError(err).WithField("wallet", address).Debug("balance fetch failed")
		return 0
	}
	balance := float64(lamports) / lamportsPerSol

	if a.cache != nil {
		if raw, err := json.Marshal(solBalanceEntry{SolBalance: balance}); err == nil {
			a.cache.Set(ctx, key, raw, cache.WalletTTL)
		}
	}
	return balance
}

// FinalizeScores clamps every wallet's composite score into [0,100].
func FinalizeScores(wallets map[string]*domain.WalletState) {
	for _, w := range wallets {
		w.Score = min(max(w.ScoreDetails.Sum(), 0), 100)
	}
}
