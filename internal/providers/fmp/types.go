package fmp

import (
	"time"

	"github.com/seenimoa/stockdesk/pkg/models"
)

// --- FMP API response types ---

// fmpQuote represents a real-time quote from FMP.
type fmpQuote struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	Price             float64 `json:"price"`
	ChangesPercentage float64 `json:"changesPercentage"`
	Change            float64 `json:"change"`
	DayLow            float64 `json:"dayLow"`
	DayHigh           float64 `json:"dayHigh"`
	YearHigh          float64 `json:"yearHigh"`
	YearLow           float64 `json:"yearLow"`
	MarketCap         float64 `json:"marketCap"`
	PriceAvg50        float64 `json:"priceAvg50"`
	PriceAvg200       float64 `json:"priceAvg200"`
	Volume            float64 `json:"volume"`
	AvgVolume         float64 `json:"avgVolume"`
	Exchange          string  `json:"exchange"`
	Open              float64 `json:"open"`
	PreviousClose     float64 `json:"previousClose"`
	EPS               float64 `json:"eps"`
	PE                float64 `json:"pe"`
	SharesOutstanding float64 `json:"sharesOutstanding"`
	Timestamp         int64   `json:"timestamp"`
}

func (q fmpQuote) toModel() models.Quote {
	out := models.Quote{
		Symbol:            q.Symbol,
		Name:              q.Name,
		Price:             q.Price,
		Change:            q.Change,
		ChangePct:         q.ChangesPercentage,
		Open:              q.Open,
		DayHigh:           q.DayHigh,
		DayLow:            q.DayLow,
		PrevClose:         q.PreviousClose,
		YearHigh:          q.YearHigh,
		YearLow:           q.YearLow,
		Volume:            int64(q.Volume),
		AvgVolume:         int64(q.AvgVolume),
		MarketCap:         q.MarketCap,
		PriceAvg50:        q.PriceAvg50,
		PriceAvg200:       q.PriceAvg200,
		EPS:               q.EPS,
		PE:                q.PE,
		SharesOutstanding: q.SharesOutstanding,
		Exchange:          q.Exchange,
	}
	if q.Timestamp > 0 {
		out.Timestamp = time.Unix(q.Timestamp, 0).UTC()
	}
	return out
}

// fmpProfile represents company profile from FMP.
type fmpProfile struct {
	Symbol            string  `json:"symbol"`
	Price             float64 `json:"price"`
	Beta              float64 `json:"beta"`
	MktCap            float64 `json:"mktCap"`
	LastDiv           float64 `json:"lastDiv"`
	CompanyName       string  `json:"companyName"`
	Currency          string  `json:"currency"`
	Exchange          string  `json:"exchangeShortName"`
	Industry          string  `json:"industry"`
	Website           string  `json:"website"`
	Description       string  `json:"description"`
	CEO               string  `json:"ceo"`
	Sector            string  `json:"sector"`
	Country           string  `json:"country"`
	IPODate           string  `json:"ipoDate"`
	IsETF             bool    `json:"isEtf"`
	IsActivelyTrading bool    `json:"isActivelyTrading"`
}

func (p fmpProfile) toModel() models.Profile {
	return models.Profile{
		Symbol:            p.Symbol,
		CompanyName:       p.CompanyName,
		Currency:          p.Currency,
		Exchange:          p.Exchange,
		Industry:          p.Industry,
		Sector:            p.Sector,
		Country:           p.Country,
		Website:           p.Website,
		Description:       p.Description,
		CEO:               p.CEO,
		Price:             p.Price,
		Beta:              p.Beta,
		MarketCap:         p.MktCap,
		LastDividend:      p.LastDiv,
		IPODate:           p.IPODate,
		IsETF:             p.IsETF,
		IsActivelyTrading: p.IsActivelyTrading,
	}
}

// fmpTreasury is one day of the treasury curve.
type fmpTreasury struct {
	Date   string  `json:"date"`
	Month1 float64 `json:"month1"`
	Month3 float64 `json:"month3"`
	Month6 float64 `json:"month6"`
	Year1  float64 `json:"year1"`
	Year2  float64 `json:"year2"`
	Year5  float64 `json:"year5"`
	Year10 float64 `json:"year10"`
	Year30 float64 `json:"year30"`
}

func (t fmpTreasury) toModel() models.TreasuryRates {
	return models.TreasuryRates(t)
}

// fmpHistoricalPrice wraps historical OHLCV data from FMP.
type fmpHistoricalPrice struct {
	Symbol     string               `json:"symbol"`
	Historical []fmpHistoricalEntry `json:"historical"`
}

type fmpHistoricalEntry struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adjClose"`
	Volume   float64 `json:"volume"`
}

// fmpIncomeStatement represents an income statement from FMP.
type fmpIncomeStatement struct {
	Date             string  `json:"date"`
	Symbol           string  `json:"symbol"`
	Period           string  `json:"period"`
	Revenue          float64 `json:"revenue"`
	CostOfRevenue    float64 `json:"costOfRevenue"`
	GrossProfit      float64 `json:"grossProfit"`
	OperatingIncome  float64 `json:"operatingIncome"`
	InterestExpense  float64 `json:"interestExpense"`
	IncomeBeforeTax  float64 `json:"incomeBeforeTax"`
	IncomeTaxExpense float64 `json:"incomeTaxExpense"`
	NetIncome        float64 `json:"netIncome"`
	EBITDA           float64 `json:"ebitda"`
	EPS              float64 `json:"eps"`
	EPSDiluted       float64 `json:"epsdiluted"`
}

func (s fmpIncomeStatement) toModel() models.IncomeStatement {
	return models.IncomeStatement{
		Date:             s.Date,
		Symbol:           s.Symbol,
		Period:           s.Period,
		Revenue:          s.Revenue,
		CostOfRevenue:    s.CostOfRevenue,
		GrossProfit:      s.GrossProfit,
		OperatingIncome:  s.OperatingIncome,
		InterestExpense:  s.InterestExpense,
		IncomeBeforeTax:  s.IncomeBeforeTax,
		IncomeTaxExpense: s.IncomeTaxExpense,
		NetIncome:        s.NetIncome,
		EBITDA:           s.EBITDA,
		EPS:              s.EPS,
		EPSDiluted:       s.EPSDiluted,
	}
}

// fmpBalanceSheet represents a balance sheet from FMP.
type fmpBalanceSheet struct {
	Date                    string  `json:"date"`
	Symbol                  string  `json:"symbol"`
	Period                  string  `json:"period"`
	CashAndCashEquivalents  float64 `json:"cashAndCashEquivalents"`
	ShortTermInvestments    float64 `json:"shortTermInvestments"`
	TotalCurrentAssets      float64 `json:"totalCurrentAssets"`
	TotalAssets             float64 `json:"totalAssets"`
	ShortTermDebt           float64 `json:"shortTermDebt"`
	LongTermDebt            float64 `json:"longTermDebt"`
	TotalDebt               float64 `json:"totalDebt"`
	TotalLiabilities        float64 `json:"totalLiabilities"`
	TotalStockholdersEquity float64 `json:"totalStockholdersEquity"`
}

func (b fmpBalanceSheet) toModel() models.BalanceSheet {
	return models.BalanceSheet(b)
}

// fmpCashFlow represents a cash flow statement from FMP.
type fmpCashFlow struct {
	Date               string  `json:"date"`
	Symbol             string  `json:"symbol"`
	Period             string  `json:"period"`
	NetIncome          float64 `json:"netIncome"`
	OperatingCashFlow  float64 `json:"operatingCashFlow"`
	CapitalExpenditure float64 `json:"capitalExpenditure"`
	FreeCashFlow       float64 `json:"freeCashFlow"`
	DividendsPaid      float64 `json:"dividendsPaid"`
	NetChangeInCash    float64 `json:"netChangeInCash"`
}

func (c fmpCashFlow) toModel() models.CashFlow {
	return models.CashFlow(c)
}

// fmpEarningsCalendar represents an earnings calendar entry from FMP.
type fmpEarningsCalendar struct {
	Date             string  `json:"date"`
	Symbol           string  `json:"symbol"`
	EPS              float64 `json:"eps"`
	EPSEstimated     float64 `json:"epsEstimated"`
	Revenue          float64 `json:"revenue"`
	RevenueEstimated float64 `json:"revenueEstimated"`
	FiscalDateEnding string  `json:"fiscalDateEnding"`
}

func (e fmpEarningsCalendar) toModel() models.EarningsEvent {
	return models.EarningsEvent(e)
}

// fmpNewsArticle represents a news article from FMP.
type fmpNewsArticle struct {
	Symbol        string `json:"symbol"`
	PublishedDate string `json:"publishedDate"`
	Title         string `json:"title"`
	Image         string `json:"image"`
	Site          string `json:"site"`
	Text          string `json:"text"`
	URL           string `json:"url"`
}

func (a fmpNewsArticle) toModel() models.NewsItem {
	return models.NewsItem{
		Symbol:      a.Symbol,
		Title:       a.Title,
		Text:        a.Text,
		URL:         a.URL,
		Image:       a.Image,
		Site:        a.Site,
		PublishedAt: a.PublishedDate,
	}
}
