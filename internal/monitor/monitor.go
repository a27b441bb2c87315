// Package monitor watches a mint for fresh transfers by a fixed wallet
// set and emits event batches for streaming clients.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/ledger"
	"github.com/McomEngine/solinsidefinder/internal/observability"
	"github.com/McomEngine/solinsidefinder/internal/solana"
	"github.com/McomEngine/solinsidefinder/internal/wallet"
)

// ErrNoWallets is returned when no valid wallet address survives
// validation.
var ErrNoWallets = errors.New("no valid wallets to monitor")

const (
	// DefaultInterval is the poll cadence.
	DefaultInterval = 10 * time.Second

	// PollPageSize is the per-poll signature window.
	PollPageSize = 10
)

// Session is one monitoring subscription: a mint, a wallet set and an
// event channel fed by the poll loop.
type Session struct {
	rpc      solana.RPCClient
	mint     string
	wallets  map[string]bool
	interval time.Duration
	logger   *logrus.Logger
	wake     <-chan solana.LogNotification

	events chan []domain.MonitorEvent

	lastSignature string
	totalSupply   float64
}

// Options configures a Session.
type Options struct {
	RPC      solana.RPCClient
	Mint     string
	Wallets  []string
	Interval time.Duration
	Logger   *logrus.Logger

	// Wake, when set, triggers an immediate poll on each notification
	// instead of waiting for the next tick. Fed by the logsSubscribe
	// WebSocket client.
	Wake <-chan solana.LogNotification
}

// NewSession validates the wallet list and prepares a session. Wallets
// that fail base58 or curve validation are dropped: program-derived
// addresses cannot sign transfers and are noise in a watch list.
func NewSession(opts Options) (*Session, error) {
	if err := solana.ValidateAddress(opts.Mint); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	watched := make(map[string]bool, len(opts.Wallets))
	for _, w := range opts.Wallets {
		if solana.ValidateAddress(w) != nil || !solana.IsOnCurve(w) {
			logger.WithField("wallet", w).Warn("dropping invalid monitor wallet")
			continue
		}
		watched[w] = true
	}
	if len(watched) == 0 {
		return nil, ErrNoWallets
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	return &Session{
		rpc:      opts.RPC,
		mint:     opts.Mint,
		wallets:  watched,
		interval: interval,
		logger:   logger,
		wake:     opts.Wake,
		events:   make(chan []domain.MonitorEvent, 8),
	}, nil
}

// Events is the stream of matched transfer batches. Closed when Run
// returns.
func (s *Session) Events() <-chan []domain.MonitorEvent {
	return s.events
}

// Run polls until the context is canceled. Poll failures are logged and
// the loop keeps going; the stream only ends with the context.
func (s *Session) Run(ctx context.Context) {
	defer close(s.events)

	observability.MonitorSessionStarted()
	defer observability.MonitorSessionEnded()

	if info, err := s.rpc.GetMintInfo(ctx, s.mint); err == nil && info != nil && info.Supply > 0 {
		s.totalSupply = info.Supply
	} else {
		s.totalSupply = 1
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wake:
			// Drain bursts so one busy slot does not queue repeat polls.
			for {
				select {
				case <-s.wake:
					continue
				default:
				}
				break
			}
		}
	}
}

// poll fetches signatures newer than the last seen one, reconciles the
// transfers and emits those made by watched wallets.
func (s *Session) poll(ctx context.Context) {
	sigs, err := s.rpc.GetSignaturesForAddress(ctx, s.mint, &solana.SignaturesOpts{
		Limit: PollPageSize,
		Until: s.lastSignature,
	})
	if err != nil {
		s.logger.WithError(err).WithField("mint", s.mint).Warn("monitor signature poll failed")
		return
	}
	if len(sigs) == 0 {
		return
	}
	s.lastSignature = sigs[0].Signature

	records := make([]ledger.Record, 0, len(sigs))
	for _, sig := range sigs {
		tx, err := s.rpc.GetParsedTransaction(ctx, sig.Signature)
		if err != nil {
			s.logger.WithError(err).WithField("signature", sig.Signature).Debug("monitor transaction fetch failed")
			continue
		}
		records = append(records, ledger.Record{Sig: sig, Tx: tx})
	}

	batch := s.match(records)
	if len(batch) == 0 {
		return
	}

	select {
	case s.events <- batch:
		observability.RecordMonitorEvents(len(batch))
	case <-ctx.Done():
	}
}

// match filters reconciled transfer events down to the watched wallets.
func (s *Session) match(records []ledger.Record) []domain.MonitorEvent {
	largeSellThreshold := s.totalSupply * wallet.LargeSellFraction

	var batch []domain.MonitorEvent
	for _, rec := range records {
		if !rec.Usable() || rec.Sig.BlockTime == nil {
			continue
		}
		fee := float64(rec.Tx.Meta.Fee) / 1e9

		for _, ev := range ledger.Events([]ledger.Record{rec}, s.mint, time.Unix(*rec.Sig.BlockTime, 0).UTC()) {
			if !s.wallets[ev.Wallet] {
				continue
			}
			batch = append(batch, domain.MonitorEvent{
				Wallet:      ev.Wallet,
				Type:        ev.Type,
				Amount:      ev.Amount,
				Timestamp:   ev.Timestamp,
				TokenMint:   s.mint,
				IsLargeSell: ev.Type == domain.EventSell && ev.Amount > largeSellThreshold,
				// Fee-scaled approximation, not an executed SOL leg.
				SolAmount: ev.Signed() * fee,
			})
		}
	}
	return batch
}
