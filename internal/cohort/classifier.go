// Package cohort buckets scored wallets into the ranked cohort views.
package cohort

import (
	"sort"

	"github.com/McomEngine/solinsidefinder/internal/domain"
)

// TopN is the size of each cohort view.
const TopN = 10

// Classify builds the four cohort views from the wallet map. Membership
// conditions overlap on purpose: the lists are views over the population,
// not a partition, and only wallets with a positive running balance
// participate (matching the population the scores were finalized for).
func Classify(wallets map[string]*domain.WalletState) domain.CohortResults {
	var earlyBuyers, holders, activeTraders, largeSellers []*domain.WalletState

	for _, w := range wallets {
		if w.TotalAmount <= 0 {
			continue
		}
		if w.ScoreDetails.EarlyBuy > 0 || w.BuyCount > 0 {
			earlyBuyers = append(earlyBuyers, w)
		}
		holders = append(holders, w)
		if w.TransactionCount() >= 1 {
			activeTraders = append(activeTraders, w)
		}
		if w.ScoreDetails.LargeSellImpact > 0 || w.SellCount > 0 {
			largeSellers = append(largeSellers, w)
		}
	}

	return domain.CohortResults{
		EarlyBuyers: top(earlyBuyers, func(a, b *domain.WalletState) bool {
			return a.Score > b.Score
		}),
		Holders: top(holders, func(a, b *domain.WalletState) bool {
			return a.TotalAmount > b.TotalAmount
		}),
		ActiveTraders: top(activeTraders, func(a, b *domain.WalletState) bool {
			return a.TradeFrequency > b.TradeFrequency
		}),
		LargeSellers: top(largeSellers, func(a, b *domain.WalletState) bool {
			return a.ScoreDetails.LargeSellImpact > b.ScoreDetails.LargeSellImpact
		}),
	}
}

// top sorts by the given order with address as a deterministic tiebreak,
// then trims to TopN.
func top(list []*domain.WalletState, less func(a, b *domain.WalletState) bool) []*domain.WalletState {
	sort.Slice(list, func(i, j int) bool {
		if less(list[i], list[j]) {
			return true
		}
		if less(list[j], list[i]) {
			return false
		}
		return list[i].Address < list[j].Address
	})
	if len(list) > TopN {
		list = list[:TopN]
	}
	if list == nil {
		list = []*domain.WalletState{}
	}
	return list
}

// Union returns earlyBuyers ∪ activeTraders deduplicated by address,
// preserving first-seen order. This is the population insider metrics run
// over.
func Union(results domain.CohortResults) []*domain.WalletState {
	seen := make(map[string]bool)
	var union []*domain.WalletState
	for _, list := range [][]*domain.WalletState{results.EarlyBuyers, results.ActiveTraders} {
		for _, w := range list {
			if seen[w.Address] {
				continue
			}
			seen[w.Address] = true
			union = append(union, w)
		}
	}
	return union
}
