package gamma

import "github.com/dgnsrekt/gexbot-analytics/internal/chain"

// Breakdown is the audit record of one contract's exposure calculation.
type Breakdown struct {
	Symbol            string           `json:"symbol,omitempty"`
	Strike            float64          `json:"strike"`
	Type              chain.OptionType `json:"option_type"`
	DaysToExpiry      float64          `json:"days_to_expiry"`
	TimeToExpiry      float64          `json:"time_to_expiry_years"`
	ImpliedVolatility float64          `json:"implied_volatility"`
	Volatility        float64          `json:"volatility_used"`
	OpenInterest      int64            `json:"open_interest"`
	D1                float64          `json:"d1"`
	NormPDF           float64          `json:"norm_pdf_d1"`
	Gamma             float64          `json:"gamma"`
	Multiplier        float64          `json:"contract_multiplier"`
	RiskFreeRate      float64          `json:"risk_free_rate"`
	ExposureBase      float64          `json:"exposure_base"`
	Exposure          float64          `json:"exposure"`
	SignLabel         string           `json:"sign_label"`
	Spot              float64          `json:"spot"`
	Distance          float64          `json:"distance_from_spot"`
	DistancePct       float64          `json:"distance_pct"`
	Moneyness         string           `json:"moneyness"`
}
