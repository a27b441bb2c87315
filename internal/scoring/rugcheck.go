package scoring

import "github.com/McomEngine/solinsidefinder/internal/domain"

// RiskScore computes the additive rug-pull risk from the assembled report
// fields and collects the matching reasons in a stable order. Each signal
// fires at most once; mint and freeze authority also imply the
// not-renounced signal, so the worst case sums above 100 and is capped.
func RiskScore(r domain.RugCheckReport) (int, []string) {
	score := 0
	var reasons []string

	if r.InsiderCount > 10 {
		score += 20
		reasons = append(reasons, "High insider activity")
	}
	if r.TotalSupply > 0 && r.InsiderHoldings/r.TotalSupply > 0.5 {
		score += 20
		reasons = append(reasons, "Large insider holdings")
	}
	if r.MintAuthority {
		score += 15
		reasons = append(reasons, "Mint authority active")
	}
	if r.FreezeAuthority {
		score += 15
		reasons = append(reasons, "Freeze authority active")
	}
	if r.BurnedPercentage < 10 {
		score += 10
		reasons = append(reasons, "Low burn percentage")
	}
	if r.LiquidityLocked < 50 {
		score += 10
		reasons = append(reasons, "Low liquidity lock")
	}
	if !r.ContractRenounced {
		score += 10
		reasons = append(reasons, "Contract not renounced")
	}
	if r.Upgradeable {
		score += 10
		reasons = append(reasons, "Contract is upgradeable")
	}

	if score > 100 {
		score = 100
	}
	return score, reasons
}
