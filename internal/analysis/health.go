package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/cohort"
	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/scoring"
	"github.com/McomEngine/solinsidefinder/internal/solana"
)

const noActivityReason = "No transactions found for this address"

// HealthScore computes the token-level health report.
func (a *Analyzer) HealthScore(ctx context.Context, mint string) (domain.HealthReport, error) {
	return cached(ctx, a.cache, cache.HealthKey(mint), cache.AnalysisTTL, func() (domain.HealthReport, error) {
		snap, err := a.analyze(ctx, mint, 1, SignaturePageSize)
		if err != nil {
			return domain.HealthReport{}, err
		}
		if len(snap.Signatures) == 0 {
			return domain.HealthReport{Reasons: []string{noActivityReason}}, nil
		}
		return a.buildHealthReport(ctx, snap), nil
	})
}

// buildHealthReport derives the health view from one pipeline snapshot.
func (a *Analyzer) buildHealthReport(ctx context.Context, snap *snapshot) domain.HealthReport {
	now := a.now().UTC()

	// Population metrics scale against tokens held in the observed
	// window, not the on-chain supply: the window is a partial view and
	// ratios over it stay comparable across tokens.
	var totalHeld float64
	for _, w := range scoring.Holders(snap.Wallets) {
		totalHeld += w.TotalAmount
	}

	accumulation := scoring.AccumulationDetails(snap.Wallets, totalHeld, now)

	quote := a.feed.Quote(ctx, snap.Mint)
	metrics := scoring.HealthMetrics(snap.Wallets, accumulation, scoring.HealthInputs{
		RecentSignatureCount: recentSignatures(snap.Signatures, now, 24*time.Hour),
		LiquidityScore01:     quote.LiquidityScore01(),
	})

	insiders := cohort.Union(snap.Results)
	intensity := scoring.InsiderIntensity(insiders, scoring.TotalVolume(snap.Wallets))

	return domain.HealthReport{
		HealthScore:         scoring.HealthScore(metrics),
		InsiderIntensity:    intensity,
		Metrics:             metrics,
		Reasons:             scoring.HealthReasons(metrics, accumulation),
		AccumulationDetails: accumulation,
	}
}

// Compare assembles the cross-token comparison view: the health report
// plus hype, price movement and token metadata.
func (a *Analyzer) Compare(ctx context.Context, mint string) (domain.CompareReport, error) {
	return cached(ctx, a.cache, cache.CompareKey(mint), cache.CompareTTL, func() (domain.CompareReport, error) {
		snap, err := a.analyze(ctx, mint, 1, SignaturePageSize)
		if err != nil {
			return domain.CompareReport{}, err
		}

		report := domain.CompareReport{Address: snap.Mint}
		if len(snap.Signatures) == 0 {
			report.Reasons = []string{noActivityReason}
		} else {
			health := a.buildHealthReport(ctx, snap)
			report.HealthScore = health.HealthScore
			report.InsiderIntensity = health.InsiderIntensity
			report.Metrics = health.Metrics
			report.Reasons = health.Reasons
			report.AccumulationDetails = health.AccumulationDetails
		}

		quote := a.feed.Quote(ctx, snap.Mint)
		report.PriceChange24h = fmt.Sprintf("%.2f", quote.PriceChange24h)
		report.HypeScore = a.hypeScore(ctx, snap.Mint)

		name, symbol := a.tokenMetadata(ctx, snap.Mint)
		report.TokenName = name
		report.TokenSymbol = symbol

		return report, nil
	})
}

// hypeScore counts timeline events in the trailing day, two events per
// point, capped at 100. Timeline failures fall back to a low baseline.
func (a *Analyzer) hypeScore(ctx context.Context, mint string) int {
	events, err := a.Timeline(ctx, mint)
	if err != nil {
		a.logger.WithError(err).WithField("mint", mint).Warn("hype score degraded")
		return 5
	}

	cutoff := a.now().UTC().Add(-24 * time.Hour)
	recent := 0
	for _, ev := range events {
		if ev.Timestamp.After(cutoff) {
			recent++
		}
	}
	return int(math.Min(math.Round(float64(recent)/2), 100))
}

// tokenMetadata resolves the on-chain metadata account for the mint and
// parses name and symbol, with placeholder fallbacks.
func (a *Analyzer) tokenMetadata(ctx context.Context, mint string) (name, symbol string) {
	name, symbol = "Unknown", "UNK"

	pda, err := solana.MetadataPDA(mint)
	if err != nil {
		return name, symbol
	}
	account, err := a.rpc.GetAccountInfo(ctx, pda)
	if err != nil || account == nil {
		return name, symbol
	}
	meta, err := solana.ParseTokenMetadata(account.Data)
	if err != nil {
		a.logger.WithError(err).WithField("mint", mint).Debug("metadata parse failed")
		return name, symbol
	}

	if meta.Name != "" {
		name = meta.Name
	}
	if meta.Symbol != "" {
		symbol = meta.Symbol
	}
	return name, symbol
}

// recentSignatures counts signatures whose block time falls within the
// window before now.
func recentSignatures(sigs []solana.SignatureInfo, now time.Time, window time.Duration) int {
	cutoff := now.Add(-window)
	count := 0
	for _, sig := range sigs {
		if sig.BlockTime == nil {
			continue
		}
		if time.Unix(*sig.BlockTime, 0).After(cutoff) {
			count++
		}
	}
	return count
}
