// Package scoring computes token-level health, insider intensity and
// rug-pull risk from the wallet population.
package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/domain"
)

// Health score weights. The whale component is inverted: more whale
// concentration lowers health.
const (
	weightHolder       = 0.20
	weightAccumulation = 0.25
	weightWhale        = 0.15
	weightActivity     = 0.15
	weightLiquidity    = 0.15
	weightGini         = 0.10
)

// GiniCoefficient computes wealth concentration over holder balances with
// the rank-weighted formula. Returns 0 when total balance is zero.
func GiniCoefficient(balances []float64) float64 {
	n := len(balances)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, balances)
	sort.Float64s(sorted)

	var sumBalances, sumWeighted float64
	for i, b := range sorted {
		sumBalances += b
		sumWeighted += b * float64(n-i)
	}
	if sumBalances == 0 {
		return 0
	}
	return 1 - 2*sumWeighted/(float64(n)*sumBalances)
}

// Holders filters the wallet map to wallets with a positive running
// balance.
func Holders(wallets map[string]*domain.WalletState) []*domain.WalletState {
	var holders []*domain.WalletState
	for _, w := range wallets {
		if w.TotalAmount > 0 {
			holders = append(holders, w)
		}
	}
	return holders
}

// AccumulationDetails computes holder-behaviour ratios over the trailing
// week. totalSupply drives the whale threshold (5% of supply here; the
// per-wallet whale flag uses the stricter 10%).
func AccumulationDetails(wallets map[string]*domain.WalletState, totalSupply float64, now time.Time) domain.AccumulationDetails {
	holders := Holders(wallets)
	totalWallets := len(holders)
	if totalWallets == 0 {
		totalWallets = 1
	}
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)

	var longTerm, traders, whales int
	whaleThreshold := totalSupply * 0.05

	for _, w := range holders {
		if w.FirstTxTime.Before(sevenDaysAgo) && w.SellCount == 0 {
			longTerm++
		}
		for _, ts := range w.SellTimestamps {
			if ts.After(sevenDaysAgo) {
				traders++
				break
			}
		}
		if w.TotalAmount > whaleThreshold {
			whales++
		}
	}

	return domain.AccumulationDetails{
		LongTermHolderRatio: float64(longTerm) / float64(totalWallets) * 100,
		TraderRatio:         float64(traders) / float64(totalWallets) * 100,
		WhaleRatio:          float64(whales) / float64(totalWallets) * 100,
		AccumulationScore:   math.Min(float64(longTerm)/float64(totalWallets)*100, 100),
	}
}

// HealthInputs are the per-endpoint inputs to the health computation that
// do not come from the wallet map itself.
type HealthInputs struct {
	RecentSignatureCount int     // signatures in the last 24h
	LiquidityScore01     float64 // externally sourced, scaled to [0,1]
}

// HealthMetrics computes the six scaled sub-metrics.
func HealthMetrics(wallets map[string]*domain.WalletState, accumulation domain.AccumulationDetails, inputs HealthInputs) domain.HealthMetrics {
	holders := Holders(wallets)
	holderCount := len(holders)

	var totalHeld float64
	balances := make([]float64, 0, holderCount)
	for _, w := range holders {
		totalHeld += w.TotalAmount
		balances = append(balances, w.TotalAmount)
	}

	whaleThreshold := totalHeld * 0.10
	whales := 0
	for _, w := range holders {
		if w.TotalAmount > whaleThreshold {
			whales++
		}
	}

	whaleScore := 0.0
	if holderCount > 0 && whales > 0 {
		whaleScore = math.Min(float64(whales)/float64(holderCount), 1) * 100
	}

	return domain.HealthMetrics{
		HolderScore:       math.Min(float64(holderCount)/1000, 1) * 100,
		AccumulationScore: accumulation.AccumulationScore,
		WhaleScore:        whaleScore,
		ActivityScore:     math.Min(float64(inputs.RecentSignatureCount)/50, 1) * 100,
		LiquidityScore:    inputs.LiquidityScore01 * 100,
		GiniScore:         (1 - GiniCoefficient(balances)) * 100,
	}
}

// HealthScore combines the metrics with the fixed weights, clamped to
// non-negative.
func HealthScore(m domain.HealthMetrics) int {
	score := math.Round(
		m.HolderScore*weightHolder +
			m.AccumulationScore*weightAccumulation +
			(100-m.WhaleScore)*weightWhale +
			m.ActivityScore*weightActivity +
			m.LiquidityScore*weightLiquidity +
			m.GiniScore*weightGini)
	if score < 0 {
		return 0
	}
	return int(score)
}

// HealthReasons collects threshold violations in a stable order. Each
// condition fires at most once.
func HealthReasons(m domain.HealthMetrics, accumulation domain.AccumulationDetails) []string {
	gini := 1 - m.GiniScore/100

	var reasons []string
	if m.HolderScore < 30 {
		reasons = append(reasons, "Low number of holders")
	}
	if m.WhaleScore > 70 {
		reasons = append(reasons, "High whale concentration")
	}
	if m.ActivityScore < 20 {
		reasons = append(reasons, "Low recent activity")
	}
	if m.LiquidityScore < 30 {
		reasons = append(reasons, "Low liquidity")
	}
	if gini > 0.7 {
		reasons = append(reasons, "Uneven token distribution")
	}
	if accumulation.TraderRatio > 50 {
		reasons = append(reasons, "High trader activity")
	}
	if accumulation.WhaleRatio > 30 {
		reasons = append(reasons, "Significant whale presence")
	}
	return reasons
}

// InsiderIntensity estimates how much of the token's volume is driven by
// suspicious wallets: the early-buyer/active-trader union weighted by
// share of total volume and behaviour multipliers, rounded and capped at
// 100.
func InsiderIntensity(insiders []*domain.WalletState, totalVolume float64) int {
	if totalVolume <= 0 {
		totalVolume = 1
	}

	var intensity float64
	for _, w := range insiders {
		timeFactor := 1.0
		if w.IsEarlyBuyer {
			timeFactor = 1.5
		}
		behaviorFactor := 1.0
		if w.ScoreDetails.PumpDump > 10 {
			behaviorFactor = 1.2
		}
		networkFactor := 1.0
		if w.ScoreDetails.Network > 10 {
			networkFactor = 1.3
		}
		intensity += w.TotalVolume / totalVolume * 100 * timeFactor * behaviorFactor * networkFactor
	}

	return int(math.Round(math.Min(intensity, 100)))
}

// TotalVolume sums the observed volume across the whole wallet map.
func TotalVolume(wallets map[string]*domain.WalletState) float64 {
	var total float64
	for _, w := range wallets {
		total += w.TotalVolume
	}
	return total
}
