package fundamental

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/stockdesk/internal/providers/fmp"
	"github.com/seenimoa/stockdesk/internal/upstream"
	"github.com/seenimoa/stockdesk/pkg/models"
)

// cashFlowYears is how much history feeds the growth estimate.
const cashFlowYears = 5

// Source is the subset of the FMP provider the reports read from.
type Source interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	Profile(ctx context.Context, symbol string) (*models.Profile, error)
	TreasuryRates(ctx context.Context) (*models.TreasuryRates, error)
	IncomeStatements(ctx context.Context, symbol string, period models.Period, limit int) ([]models.IncomeStatement, error)
	BalanceSheets(ctx context.Context, symbol string, period models.Period, limit int) ([]models.BalanceSheet, error)
	CashFlows(ctx context.Context, symbol string, period models.Period, limit int) ([]models.CashFlow, error)
	EarningsCalendar(ctx context.Context, symbol string) ([]models.EarningsEvent, error)
}

var (
	// ErrStatementsUnavailable is returned when FMP has no statements for a ticker.
	ErrStatementsUnavailable = errors.New("financial statements not available")
	// ErrSharesUnavailable is returned when the quote has no share count.
	ErrSharesUnavailable = errors.New("shares outstanding data unavailable")
)

// dcfInputs is everything RunDCF fetches.
type dcfInputs struct {
	income    []models.IncomeStatement
	balance   []models.BalanceSheet
	cashFlows []models.CashFlow
	profile   *models.Profile
	quote     *models.Quote
	treasury  *models.TreasuryRates
}

// RunDCF values ticker with a five-year discounted cash flow model. The
// statements, profile, quote and treasury curve are fetched concurrently.
func RunDCF(ctx context.Context, src Source, ticker string) (*models.DCFResult, error) {
	ticker = fmp.NormalizeSymbol(ticker)
	in, err := loadDCFInputs(ctx, src, ticker)
	if err != nil {
		return nil, err
	}
	if len(in.income) == 0 || len(in.balance) == 0 || len(in.cashFlows) == 0 {
		return nil, fmt.Errorf("%w for %s", ErrStatementsUnavailable, ticker)
	}
	if in.quote == nil || in.quote.SharesOutstanding <= 0 {
		return nil, fmt.Errorf("%w for %s", ErrSharesUnavailable, ticker)
	}

	inc, bs, cf := in.income[0], in.balance[0], in.cashFlows[0]

	beta := 1.0
	var marketCap, price float64
	if in.profile != nil {
		if in.profile.Beta != 0 {
			beta = in.profile.Beta
		}
		marketCap, price = in.profile.MarketCap, in.profile.Price
	}
	if in.quote.MarketCap > 0 {
		marketCap = in.quote.MarketCap
	}
	if in.quote.Price > 0 {
		price = in.quote.Price
	}
	var riskFree float64
	if in.treasury != nil {
		riskFree = in.treasury.Year10 / 100
	}

	wacc := WACC(WACCInputs{
		RiskFree:         riskFree,
		Beta:             beta,
		MarketCap:        marketCap,
		TotalDebt:        bs.TotalDebt,
		InterestExpense:  inc.InterestExpense,
		IncomeTaxExpense: inc.IncomeTaxExpense,
		IncomeBeforeTax:  inc.IncomeBeforeTax,
	})

	fcf := make([]float64, 0, len(in.cashFlows))
	for _, c := range in.cashFlows {
		fcf = append(fcf, c.FreeCashFlow)
	}

	params := DCFParams{
		OperatingCashFlow:  cf.OperatingCashFlow,
		CapitalExpenditure: cf.CapitalExpenditure,
		Debt:               bs.TotalDebt,
		Cash:               bs.CashAndCashEquivalents,
		SharesOutstanding:  in.quote.SharesOutstanding,
		GrowthRate:         GrowthRate(fcf),
		DiscountRate:       wacc,
		Revenue:            inc.Revenue,
		NetIncome:          inc.NetIncome,
	}
	val := DCF(params)
	margin := MarginOfSafety(val.IntrinsicValuePerShare, price)

	return &models.DCFResult{
		Ticker:                 ticker,
		IntrinsicValuePerShare: val.IntrinsicValuePerShare,
		CurrentPrice:           price,
		MarginOfSafety:         margin,
		Recommendation:         Recommend(margin),
		WACC:                   wacc,
		GrowthRate:             params.GrowthRate,
		TerminalGrowthRate:     val.TerminalGrowth,
		CurrentFCF:             val.CurrentFCF,
		ProjectedFCFPV:         val.ProjectedPV,
		TerminalValuePV:        val.TerminalValuePV,
		EnterpriseValue:        val.EnterpriseValue,
		EquityValue:            val.EquityValue,
		Explanation:            Explain(params, val),
	}, nil
}

func loadDCFInputs(ctx context.Context, src Source, ticker string) (*dcfInputs, error) {
	var in dcfInputs
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		in.income, err = src.IncomeStatements(ctx, ticker, models.PeriodAnnual, 1)
		return err
	})
	g.Go(func() error {
		var err error
		in.balance, err = src.BalanceSheets(ctx, ticker, models.PeriodAnnual, 1)
		return err
	})
	g.Go(func() error {
		var err error
		in.cashFlows, err = src.CashFlows(ctx, ticker, models.PeriodAnnual, cashFlowYears)
		return err
	})
	g.Go(func() error {
		var err error
		in.quote, err = src.Quote(ctx, ticker)
		return optional(err)
	})
	g.Go(func() error {
		var err error
		in.profile, err = src.Profile(ctx, ticker)
		return optional(err)
	})
	g.Go(func() error {
		var err error
		in.treasury, err = src.TreasuryRates(ctx)
		return optional(err)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &in, nil
}

// optional drops "no data" answers for inputs that have defaults.
func optional(err error) error {
	var nf *fmp.ErrNotFound
	if errors.As(err, &nf) || errors.Is(err, upstream.ErrUpstreamRejected) {
		return nil
	}
	return err
}
