package domain

import "time"

// TransferLeg is one side of a timeline event.
type TransferLeg struct {
	Wallet string  `json:"wallet"`
	Amount float64 `json:"amount"`
}

// TimelineEvent is a priced transfer on the token's timeline. Exactly one
// of Buy or Sell is set.
type TimelineEvent struct {
	Timestamp   time.Time    `json:"timestamp"`
	Price       float64      `json:"price"`
	PriceSource string       `json:"priceSource"`
	Buy         *TransferLeg `json:"buy,omitempty"`
	Sell        *TransferLeg `json:"sell,omitempty"`
}

// GraphNode is a wallet in the transfer graph with its last observed
// balance.
type GraphNode struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
}

// GraphEdge is a directed transfer between two wallets.
type GraphEdge struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// TransferGraph is the token-transfer flow view, trimmed to the top nodes
// by balance.
type TransferGraph struct {
	Nodes   []GraphNode `json:"nodes"`
	Edges   []GraphEdge `json:"edges"`
	Message string      `json:"message,omitempty"`
}
