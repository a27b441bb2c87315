package domain

import "time"

// EventType classifies a token balance delta.
type EventType string

const (
	EventBuy  EventType = "buy"
	EventSell EventType = "sell"
)

// TransferEvent is a signed token balance change for one wallet, derived
// from the pre/post token balance snapshots of a single transaction.
// A transaction emits one event per balance entry whose delta is non-zero,
// so the same wallet may appear more than once per transaction.
type TransferEvent struct {
	Signature string    `json:"signature"`
	Wallet    string    `json:"wallet"`
	Amount    float64   `json:"amount"` // absolute value of the delta
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// FetchIndex is the position of the parent transaction in signature
	// fetch order (newest first). The time sub-score depends on it.
	FetchIndex int `json:"-"`
}

// Signed returns the delta with its sign restored (buys positive).
func (e TransferEvent) Signed() float64 {
	if e.Type == EventSell {
		return -e.Amount
	}
	return e.Amount
}
