package domain

// AccumulationDetails describes holder behaviour over the trailing week.
// Ratios are percentages of the holder population.
type AccumulationDetails struct {
	LongTermHolderRatio float64 `json:"longTermHolderRatio"`
	TraderRatio         float64 `json:"traderRatio"`
	WhaleRatio          float64 `json:"whaleRatio"`
	AccumulationScore   float64 `json:"accumulationScore"`
}

// HealthMetrics are the six scaled sub-metrics feeding the health score.
type HealthMetrics struct {
	HolderScore       float64 `json:"holderScore"`
	AccumulationScore float64 `json:"accumulationScore"`
	WhaleScore        float64 `json:"whaleScore"`
	ActivityScore     float64 `json:"activityScore"`
	LiquidityScore    float64 `json:"liquidityScore"`
	GiniScore         float64 `json:"giniScore"`
}

// HealthReport is the aggregate token-level assessment.
type HealthReport struct {
	HealthScore         int                 `json:"healthScore"`
	InsiderIntensity    int                 `json:"insiderIntensity"`
	Metrics             HealthMetrics       `json:"metrics"`
	Reasons             []string            `json:"reasons"`
	AccumulationDetails AccumulationDetails `json:"accumulationDetails"`
}

// CompareReport is the cross-token comparison payload: the health report
// plus price movement, hype and token metadata.
type CompareReport struct {
	Address             string              `json:"address"`
	HealthScore         int                 `json:"healthScore"`
	InsiderIntensity    int                 `json:"insiderIntensity"`
	HypeScore           int                 `json:"hypeScore"`
	PriceChange24h      string              `json:"priceChange24h"`
	TokenName           string              `json:"tokenName"`
	TokenSymbol         string              `json:"tokenSymbol"`
	Metrics             HealthMetrics       `json:"metrics"`
	Reasons             []string            `json:"reasons"`
	AccumulationDetails AccumulationDetails `json:"accumulationDetails"`
}
