// Package ledger reconciles raw parsed transactions into per-wallet
// signed transfer events for one token mint.
package ledger

import (
	"time"

	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/solana"
)

// Record pairs a fetched signature with its parsed transaction. Tx is nil
// when the transaction fetch failed or the transaction was not found.
type Record struct {
	Sig solana.SignatureInfo
	Tx  *solana.ParsedTransaction
}

// Usable reports whether the record passes the shape check: meta present
// and both balance snapshots non-empty. Records failing it are filtered
// inputs, not errors.
func (r Record) Usable() bool {
	return r.Tx != nil &&
		r.Tx.Meta != nil &&
		len(r.Tx.Meta.PreTokenBalances) > 0 &&
		len(r.Tx.Meta.PostTokenBalances) > 0
}

// Events extracts transfer events from records in encounter order.
//
// For each post balance entry matching the mint whose index-aligned pre
// entry exists, the delta of decimal-adjusted amounts becomes one event.
// The index alignment of pre/post balance arrays is an approximation
// inherited from the upstream data shape: entries can correspond to
// different accounts in adversarial transactions, and that noise is
// accepted rather than parsing instructions to disambiguate.
func Events(records []Record, mint string, now time.Time) []domain.TransferEvent {
	var events []domain.TransferEvent

	for i, rec := range records {
		if !rec.Usable() {
			continue
		}

		ts := now
		if rec.Sig.BlockTime != nil {
			ts = time.Unix(*rec.Sig.BlockTime, 0).UTC()
		}

		pre := rec.Tx.Meta.PreTokenBalances
		for j, post := range rec.Tx.Meta.PostTokenBalances {
			if post.Mint != mint || j >= len(pre) {
				continue
			}

			delta := post.UITokenAmount.Value() - pre[j].UITokenAmount.Value()
			if delta == 0 {
				continue
			}

			typ := domain.EventBuy
			if delta < 0 {
				typ = domain.EventSell
				delta = -delta
			}

			events = append(events, domain.TransferEvent{
				Signature:  rec.Sig.Signature,
				Wallet:     post.Owner,
				Amount:     delta,
				Type:       typ,
				Timestamp:  ts,
				FetchIndex: i,
			})
		}
	}

	return events
}

// FirstTxTime returns the earliest block time among the fetched
// signatures, falling back to now when none carries one. The signature
// list may be a partial paginated view, so this is a lower bound on
// observed activity, not the true token launch time.
func FirstTxTime(sigs []solana.SignatureInfo, now time.Time) time.Time {
	first := now
	for _, sig := range sigs {
		if sig.BlockTime == nil {
			continue
		}
		t := time.Unix(*sig.BlockTime, 0).UTC()
		if t.Before(first) {
			first = t
		}
	}
	return first
}

// EarlyBuyWindow scales the early-buyer window with the observed token
// age: fresh tokens have compressed activity, so the window grows with
// lifetime instead of using a fixed clock window.
func EarlyBuyWindow(tokenAge time.Duration) time.Duration {
	switch {
	case tokenAge < 24*time.Hour:
		return 1 * time.Hour
	case tokenAge < 168*time.Hour:
		return 12 * time.Hour
	default:
		return 48 * time.Hour
	}
}
