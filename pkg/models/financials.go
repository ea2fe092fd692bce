package models

// Period selects annual or quarterly statements.
type Period string

const (
	PeriodAnnual  Period = "annual"
	PeriodQuarter Period = "quarter"
)

// IncomeStatement is a single period income statement.
type IncomeStatement struct {
	Date             string  `json:"date"`
	Symbol           string  `json:"symbol"`
	Period           string  `json:"period"` // "FY", "Q1" ... "Q4"
	Revenue          float64 `json:"revenue"`
	CostOfRevenue    float64 `json:"cost_of_revenue"`
	GrossProfit      float64 `json:"gross_profit"`
	OperatingIncome  float64 `json:"operating_income"`
	InterestExpense  float64 `json:"interest_expense"`
	IncomeBeforeTax  float64 `json:"income_before_tax"`
	IncomeTaxExpense float64 `json:"income_tax_expense"`
	NetIncome        float64 `json:"net_income"`
	EBITDA           float64 `json:"ebitda"`
	EPS              float64 `json:"eps"`
	EPSDiluted       float64 `json:"eps_diluted"`
}

// BalanceSheet is a single period balance sheet.
type BalanceSheet struct {
	Date                    string  `json:"date"`
	Symbol                  string  `json:"symbol"`
	Period                  string  `json:"period"`
	CashAndCashEquivalents  float64 `json:"cash_and_cash_equivalents"`
	ShortTermInvestments    float64 `json:"short_term_investments"`
	TotalCurrentAssets      float64 `json:"total_current_assets"`
	TotalAssets             float64 `json:"total_assets"`
	ShortTermDebt           float64 `json:"short_term_debt"`
	LongTermDebt            float64 `json:"long_term_debt"`
	TotalDebt               float64 `json:"total_debt"`
	TotalLiabilities        float64 `json:"total_liabilities"`
	TotalStockholdersEquity float64 `json:"total_stockholders_equity"`
}

// CashFlow is a single period cash flow statement.
type CashFlow struct {
	Date               string  `json:"date"`
	Symbol             string  `json:"symbol"`
	Period             string  `json:"period"`
	NetIncome          float64 `json:"net_income"`
	OperatingCashFlow  float64 `json:"operating_cash_flow"`
	CapitalExpenditure float64 `json:"capital_expenditure"` // negative outflow
	FreeCashFlow       float64 `json:"free_cash_flow"`
	DividendsPaid      float64 `json:"dividends_paid"`
	NetChangeInCash    float64 `json:"net_change_in_cash"`
}

// EarningsEvent is a past or scheduled earnings announcement.
type EarningsEvent struct {
	Date             string  `json:"date"`
	Symbol           string  `json:"symbol"`
	EPS              float64 `json:"eps"`
	EPSEstimated     float64 `json:"eps_estimated"`
	Revenue          float64 `json:"revenue"`
	RevenueEstimated float64 `json:"revenue_estimated"`
	FiscalDateEnding string  `json:"fiscal_date_ending"`
}
