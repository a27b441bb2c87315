package domain

// RugCheckReport is the heuristic rug-pull risk assessment for a mint.
// Authority flags default to true (worst case) when mint info cannot be
// fetched; insider holdings are clamped to total supply.
type RugCheckReport struct {
	TotalSupply           float64  `json:"totalSupply"`
	InsiderCount          int      `json:"insiderCount"`
	InsiderHoldings       float64  `json:"insiderHoldings"`
	MintAuthority         bool     `json:"mintAuthority"`
	FreezeAuthority       bool     `json:"freezeAuthority"`
	BurnedPercentage      float64  `json:"burnedPercentage"`
	LiquidityLocked       float64  `json:"liquidityLocked"`
	LiquidityLockDuration string   `json:"liquidityLockDuration"`
	ContractRenounced     bool     `json:"contractRenounced"`
	Upgradeable           bool     `json:"upgradeable"`
	RiskScore             int      `json:"riskScore"`
	Reasons               []string `json:"reasons"`
}
