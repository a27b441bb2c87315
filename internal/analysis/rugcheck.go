package analysis

import (
	"context"
	"math"
	"time"

	"github.com/McomEngine/solinsidefinder/internal/cache"
	"github.com/McomEngine/solinsidefinder/internal/cohort"
	"github.com/McomEngine/solinsidefinder/internal/domain"
	"github.com/McomEngine/solinsidefinder/internal/scoring"
	"github.com/McomEngine/solinsidefinder/internal/solana"
)

// RugCheck assembles the rug-pull risk report for a mint. Sub-fetches
// degrade individually (authorities to worst case, burn to zero) so a
// flaky upstream yields a conservative report instead of an error.
func (a *Analyzer) RugCheck(ctx context.Context, mint string) (domain.RugCheckReport, error) {
	return cached(ctx, a.cache, cache.RugCheckKey(mint), cache.AnalysisTTL, func() (domain.RugCheckReport, error) {
		account, err := a.rpc.GetAccountInfo(ctx, mint)
		if err != nil {
			return domain.RugCheckReport{}, err
		}
		if account == nil {
			return domain.RugCheckReport{}, ErrMintNotFound
		}

		report := domain.RugCheckReport{
			// Worst-case defaults, overwritten when the mint parses.
			MintAuthority:         true,
			FreezeAuthority:       true,
			TotalSupply:           1,
			LiquidityLockDuration: "None",
		}

		decimals := 9
		info, err := a.rpc.GetMintInfo(ctx, mint)
		if err != nil || info == nil {
			a.logger.WithError(err).WithField("mint", mint).Warn("mint info unavailable, assuming active authorities")
		} else {
			report.MintAuthority = info.MintAuthority
			report.FreezeAuthority = info.FreezeAuthority
			decimals = info.Decimals
			if info.Supply > 0 {
				report.TotalSupply = info.Supply
			}
		}

		snap, err := a.analyze(ctx, mint, 1, SignaturePageSize)
		if err != nil {
			return domain.RugCheckReport{}, err
		}

		insiders := cohort.Union(snap.Results)
		report.InsiderCount = len(snap.Results.EarlyBuyers) + len(snap.Results.ActiveTraders)
		for _, w := range insiders {
			report.InsiderHoldings += w.TotalAmount
		}

		report.BurnedPercentage = a.burnedPercentage(ctx, mint, report.TotalSupply, decimals)

		quote := a.feed.Quote(ctx, mint)
		report.LiquidityLocked = quote.LiquidityScore01() * 100
		if quote.LockedUntil > 0 {
			report.LiquidityLockDuration = time.UnixMilli(quote.LockedUntil).UTC().Format(time.RFC3339)
		}

		report.ContractRenounced = !report.MintAuthority && !report.FreezeAuthority
		report.Upgradeable = false

		// The insider window can overlap transfers that moved the same
		// tokens twice, pushing observed holdings above supply. Clamp and
		// say so rather than reporting an impossible fraction.
		clamped := report.InsiderHoldings > report.TotalSupply
		if clamped {
			report.InsiderHoldings = report.TotalSupply
		}

		report.RiskScore, report.Reasons = scoring.RiskScore(report)
		if clamped {
			report.Reasons = append(report.Reasons, "Insider holdings estimate exceeded supply and was clamped")
		}

		return report, nil
	})
}

// burnedPercentage sums token accounts for the mint whose owner field is
// the system program (the burn convention) and scales against supply.
// Failures degrade to zero.
func (a *Analyzer) burnedPercentage(ctx context.Context, mint string, totalSupply float64, decimals int) float64 {
	if totalSupply <= 0 {
		return 0
	}

	accounts, err := a.rpc.GetProgramAccounts(ctx, solana.TokenProgram, []solana.AccountFilter{
		{DataSize: 165},
		{Memcmp: &solana.MemcmpFilter{Offset: 0, Bytes: mint}},
		{Memcmp: &solana.MemcmpFilter{Offset: solana.TokenAccountOwnerOff, Bytes: solana.SystemProgram}},
	})
	if err != nil {
		a.logger.WithError(err).WithField("mint", mint).Warn("burn account fetch failed")
		return 0
	}

	var burned float64
	for _, acc := range accounts {
		if raw, ok := solana.TokenAccountAmount(acc.Account.Data); ok {
			burned += float64(raw) / math.Pow10(decimals)
		}
	}
	return burned / totalSupply * 100
}
