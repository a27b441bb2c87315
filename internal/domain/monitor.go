package domain

import "time"

// MonitorEvent is a transfer by a watched wallet, pushed to monitoring
// clients as it is observed.
type MonitorEvent struct {
	Wallet      string    `json:"wallet"`
	Type        EventType `json:"type"`
	Amount      float64   `json:"amount"`
	Timestamp   time.Time `json:"timestamp"`
	TokenMint   string    `json:"tokenName"`
	IsLargeSell bool      `json:"isLargeSell"`
	SolAmount   float64   `json:"solAmount"`
}

// CopyTrade describes a single token transfer extracted from a
// transaction so a client can mirror it.
type CopyTrade struct {
	WalletAddress string    `json:"walletAddress"`
	TransactionID string    `json:"transactionId"`
	Type          EventType `json:"type"`
	Amount        float64   `json:"amount"`
	TokenMint     string    `json:"tokenMint"`
	Timestamp     time.Time `json:"timestamp"`
}
