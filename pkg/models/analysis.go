package models

// Verdict is the outcome of comparing intrinsic value with the market price.
type Verdict string

const (
	Undervalued  Verdict = "Undervalued"
	FairlyValued Verdict = "Fairly Valued"
	Overvalued   Verdict = "Overvalued"
)

// DCFResult is the discounted cash flow valuation of one stock.
type DCFResult struct {
	Ticker                 string    `json:"ticker"`
	IntrinsicValuePerShare float64   `json:"intrinsic_value_per_share"`
	CurrentPrice           float64   `json:"current_price"`
	MarginOfSafety         float64   `json:"margin_of_safety"` // percent
	Recommendation         Verdict   `json:"recommendation"`
	WACC                   float64   `json:"wacc"`
	GrowthRate             float64   `json:"growth_rate"`
	TerminalGrowthRate     float64   `json:"terminal_growth_rate"`
	CurrentFCF             float64   `json:"current_fcf"`
	ProjectedFCFPV         []float64 `json:"projected_fcf_pv"`
	TerminalValuePV        float64   `json:"terminal_value_pv"`
	EnterpriseValue        float64   `json:"enterprise_value"`
	EquityValue            float64   `json:"equity_value"`
	Explanation            string    `json:"explanation"`
}

// EarningsRow is one reported quarter, pre-formatted for display.
type EarningsRow struct {
	Date      string `json:"date"`
	Revenue   string `json:"revenue"`
	NetIncome string `json:"net_income"`
	EPS       string `json:"eps"`
}

// EarningsReport is the recent earnings history plus the next scheduled date.
type EarningsReport struct {
	Ticker           string        `json:"ticker"`
	EarningsData     []EarningsRow `json:"earnings_data"`
	UpcomingEarnings string        `json:"upcoming_earnings"`
}
