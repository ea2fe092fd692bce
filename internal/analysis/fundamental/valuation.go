// Package fundamental computes valuation and earnings reports from FMP
// financial statements.
package fundamental

import (
	"fmt"
	"math"
	"strings"

	"github.com/seenimoa/stockdesk/pkg/models"
)

const (
	// MarketReturn is the assumed long-run market return used by CAPM.
	MarketReturn = 0.08
	// FallbackGrowth is used when the cash flow history cannot support a CAGR.
	FallbackGrowth = 0.02
	// MaxTerminalGrowth caps the perpetual growth rate.
	MaxTerminalGrowth = 0.03
	// ProjectionYears is the explicit forecast horizon.
	ProjectionYears = 5
)

// WACCInputs are the figures the discount rate is derived from.
type WACCInputs struct {
	RiskFree         float64 // decimal, e.g. 0.043
	Beta             float64
	MarketCap        float64
	TotalDebt        float64
	InterestExpense  float64
	IncomeTaxExpense float64
	IncomeBeforeTax  float64
}

// WACC is the weighted average cost of capital with CAPM cost of equity.
func WACC(in WACCInputs) float64 {
	costEquity := in.RiskFree + in.Beta*(MarketReturn-in.RiskFree)

	var costDebt float64
	if in.TotalDebt != 0 {
		costDebt = in.InterestExpense / in.TotalDebt
	}
	var taxRate float64
	if in.IncomeBeforeTax != 0 {
		taxRate = in.IncomeTaxExpense / in.IncomeBeforeTax
	}

	var equityWeight, debtWeight float64
	if in.MarketCap != 0 {
		equityWeight = in.MarketCap / (in.MarketCap + in.TotalDebt)
		debtWeight = in.TotalDebt / (in.MarketCap + in.TotalDebt)
	}
	return equityWeight*costEquity + debtWeight*costDebt*(1-taxRate)
}

// GrowthRate is the compound annual growth of free cash flow, given newest
// first. It falls back to FallbackGrowth with fewer than two points or
// when either end is not positive.
func GrowthRate(fcfNewestFirst []float64) float64 {
	n := len(fcfNewestFirst)
	if n < 2 {
		return FallbackGrowth
	}
	latest, earliest := fcfNewestFirst[0], fcfNewestFirst[n-1]
	if latest <= 0 || earliest <= 0 {
		return FallbackGrowth
	}
	return math.Pow(latest/earliest, 1/float64(n-1)) - 1
}

// DCFParams holds parameters for a DCF valuation.
type DCFParams struct {
	OperatingCashFlow  float64
	CapitalExpenditure float64 // negative outflow, as reported
	Debt               float64
	Cash               float64
	SharesOutstanding  float64
	GrowthRate         float64
	DiscountRate       float64
	Revenue            float64
	NetIncome          float64
}

// DCFValuation is the outcome of a projection.
type DCFValuation struct {
	CurrentFCF             float64
	ProjectedPV            []float64
	TotalProjectedPV       float64
	TerminalGrowth         float64
	TerminalValuePV        float64
	EnterpriseValue        float64
	EquityValue            float64
	IntrinsicValuePerShare float64
}

// DCF projects free cash flow ProjectionYears ahead, adds a Gordon growth
// terminal value and converts enterprise value to a per-share value.
func DCF(p DCFParams) DCFValuation {
	v := DCFValuation{CurrentFCF: p.OperatingCashFlow + p.CapitalExpenditure}

	for i := 1; i <= ProjectionYears; i++ {
		projected := v.CurrentFCF * math.Pow(1+p.GrowthRate, float64(i))
		pv := projected / math.Pow(1+p.DiscountRate, float64(i))
		v.ProjectedPV = append(v.ProjectedPV, pv)
		v.TotalProjectedPV += pv
	}

	v.TerminalGrowth = math.Min(p.GrowthRate, MaxTerminalGrowth)
	if p.DiscountRate <= v.TerminalGrowth {
		v.TerminalGrowth = p.DiscountRate - 0.01
	}
	terminalFCF := v.CurrentFCF * math.Pow(1+p.GrowthRate, ProjectionYears)
	terminalValue := terminalFCF * (1 + v.TerminalGrowth) / (p.DiscountRate - v.TerminalGrowth)
	v.TerminalValuePV = terminalValue / math.Pow(1+p.DiscountRate, ProjectionYears)

	v.EnterpriseValue = v.TotalProjectedPV + v.TerminalValuePV
	v.EquityValue = v.EnterpriseValue - p.Debt + p.Cash
	if p.SharesOutstanding > 0 {
		v.IntrinsicValuePerShare = v.EquityValue / p.SharesOutstanding
	}
	return v
}

// MarginOfSafety is the percentage by which intrinsic value exceeds price.
// A non-positive intrinsic value has no margin and reports -100.
func MarginOfSafety(intrinsic, price float64) float64 {
	if intrinsic <= 0 {
		return -100
	}
	return (intrinsic - price) / intrinsic * 100
}

// Recommend turns a margin of safety into a verdict.
func Recommend(margin float64) models.Verdict {
	switch {
	case margin > 25:
		return models.Undervalued
	case margin > -10:
		return models.FairlyValued
	default:
		return models.Overvalued
	}
}

// Explain renders the valuation breakdown shown to users.
func Explain(p DCFParams, v DCFValuation) string {
	var b strings.Builder
	b.WriteString("Explanation:\n")
	b.WriteString("\nValuation Breakdown:")
	fmt.Fprintf(&b, "\n1. Current FCF: %s", FormatFinancialNumber(v.CurrentFCF))
	b.WriteString("\n2. Projected FCFs (Present Value):")
	for i, pv := range v.ProjectedPV {
		fmt.Fprintf(&b, "\n   Year %d: %s", i+1, FormatFinancialNumber(pv))
	}
	fmt.Fprintf(&b, "\n   Total PV of FCFs: %s", FormatFinancialNumber(v.TotalProjectedPV))
	fmt.Fprintf(&b, "\n3. Terminal Value (PV): %s", FormatFinancialNumber(v.TerminalValuePV))
	fmt.Fprintf(&b, "\n4. Enterprise Value: %s", FormatFinancialNumber(v.EnterpriseValue))
	fmt.Fprintf(&b, "\n5. Equity Value: %s", FormatFinancialNumber(v.EquityValue))

	b.WriteString("\n\nKey Financials:")
	fmt.Fprintf(&b, "\nRevenue: %s", FormatFinancialNumber(p.Revenue))
	fmt.Fprintf(&b, "\nNet Income: %s", FormatFinancialNumber(p.NetIncome))
	fmt.Fprintf(&b, "\nOperating Cash Flow: %s", FormatFinancialNumber(p.OperatingCashFlow))
	fmt.Fprintf(&b, "\nCapEx: %s", FormatFinancialNumber(p.CapitalExpenditure))
	fmt.Fprintf(&b, "\nDebt: %s", FormatFinancialNumber(p.Debt))
	fmt.Fprintf(&b, "\nCash: %s", FormatFinancialNumber(p.Cash))
	fmt.Fprintf(&b, "\nWACC: %s", FormatPercent(p.DiscountRate))
	fmt.Fprintf(&b, "\nGrowth Rate: %s", FormatPercent(p.GrowthRate))
	fmt.Fprintf(&b, "\nTerminal Growth Rate: %s", FormatPercent(v.TerminalGrowth))
	return b.String()
}
