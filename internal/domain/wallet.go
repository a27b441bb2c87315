package domain

import "time"

// Wallet labels, mutually exclusive. Large Seller is assigned during the
// fold when a sell crosses the large-sell threshold and only displaces the
// default label; the priority list (Long-Term Holder > Active Trader >
// Whale) can override it during enrichment.
const (
	LabelStandard       = "Standard"
	LabelLargeSeller    = "Large Seller"
	LabelLongTermHolder = "Long-Term Holder"
	LabelActiveTrader   = "Active Trader"
	LabelWhale          = "Whale"
)

// ScoreDetails holds the independently bounded sub-scores that sum into a
// wallet's composite score. The profitability, network and pumpDump fields
// are deliberate flat proxies, not real computations.
type ScoreDetails struct {
	EarlyBuy        float64 `json:"earlyBuy"`
	Profitability   float64 `json:"profitability"`
	Network         float64 `json:"network"`
	Time            float64 `json:"time"`
	Amount          float64 `json:"amount"`
	Duration        float64 `json:"duration"`
	PumpDump        float64 `json:"pumpDump"`
	LargeSellImpact float64 `json:"largeSellImpact"`
}

// Sum returns the unclamped total of all sub-scores.
func (d ScoreDetails) Sum() float64 {
	return d.EarlyBuy + d.Profitability + d.Network + d.Time +
		d.Amount + d.Duration + d.PumpDump + d.LargeSellImpact
}

// TradeMark records the largest observed sell for a wallet.
type TradeMark struct {
	Amount    float64 `json:"amount"`
	Timestamp string  `json:"timestamp"`
}

// WalletState is the per-wallet ledger for one token mint analysis.
// It is built during a single analysis pass and discarded afterwards;
// only whole computed results are cached.
type WalletState struct {
	Address      string          `json:"address"`
	Transactions []TransferEvent `json:"transactions"`

	TotalAmount float64 `json:"totalAmount"` // signed running balance estimate
	BuyCount    int     `json:"buyCount"`
	SellCount   int     `json:"sellCount"`
	TotalVolume float64 `json:"totalVolume"` // sum of absolute amounts

	FirstTxTime time.Time `json:"firstTxTime"`
	LastTxTime  time.Time `json:"lastTxTime"`

	// HoldingDuration is the maximum observed (now - eventTime) in hours,
	// monotonically non-decreasing as events fold in.
	HoldingDuration float64 `json:"holdingDuration"`

	AvgTradeSize   float64 `json:"avgTradeSize"`
	TradeFrequency float64 `json:"tradeFrequency"` // trades per day, 1-day floor

	Score        float64      `json:"score"` // Sum of ScoreDetails, clamped to [0,100]
	ScoreDetails ScoreDetails `json:"scoreDetails"`
	WalletLabel  string       `json:"walletLabel"`

	IsEarlyBuyer     bool `json:"isEarlyBuyer"`
	IsHolder         bool `json:"isHolder"`
	IsActiveTrader   bool `json:"isActiveTrader"`
	IsLongTermHolder bool `json:"isLongTermHolder"`
	IsWhale          bool `json:"isWhale"`

	BuyTimestamps  []time.Time `json:"buyTimestamps"`
	SellTimestamps []time.Time `json:"sellTimestamps"`

	MostProfitableTrade TradeMark `json:"mostProfitableTrade"`
	SolBalance          float64   `json:"solBalance"`
}

// TransactionCount returns the number of folded events.
func (w *WalletState) TransactionCount() int {
	return w.BuyCount + w.SellCount
}

// CohortResults are the four ranked top-N views over the wallet map.
// A wallet can appear in more than one list; these are views, not
// partitions.
type CohortResults struct {
	EarlyBuyers   []*WalletState `json:"earlyBuyers"`
	Holders       []*WalletState `json:"holders"`
	ActiveTraders []*WalletState `json:"activeTraders"`
	LargeSellers  []*WalletState `json:"largeSellers"`
}
