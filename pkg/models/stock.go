// Package models defines the data structures shared by stockdesk's
// providers, reports and API.
package models

import "time"

// Quote is a real-time stock quote.
type Quote struct {
	Symbol            string    `json:"symbol"`
	Name              string    `json:"name"`
	Price             float64   `json:"price"`
	Change            float64   `json:"change"`
	ChangePct         float64   `json:"change_pct"`
	Open              float64   `json:"open"`
	DayHigh           float64   `json:"day_high"`
	DayLow            float64   `json:"day_low"`
	PrevClose         float64   `json:"prev_close"`
	YearHigh          float64   `json:"year_high"`
	YearLow           float64   `json:"year_low"`
	Volume            int64     `json:"volume"`
	AvgVolume         int64     `json:"avg_volume"`
	MarketCap         float64   `json:"market_cap"`
	PriceAvg50        float64   `json:"price_avg_50"`
	PriceAvg200       float64   `json:"price_avg_200"`
	EPS               float64   `json:"eps"`
	PE                float64   `json:"pe,omitempty"`
	SharesOutstanding float64   `json:"shares_outstanding"`
	Exchange          string    `json:"exchange"`
	Timestamp         time.Time `json:"timestamp"`
}

// Profile is the company profile.
type Profile struct {
	Symbol            string  `json:"symbol"`
	CompanyName       string  `json:"company_name"`
	Currency          string  `json:"currency"`
	Exchange          string  `json:"exchange"`
	Industry          string  `json:"industry"`
	Sector            string  `json:"sector"`
	Country           string  `json:"country"`
	Website           string  `json:"website,omitempty"`
	Description       string  `json:"description,omitempty"`
	CEO               string  `json:"ceo,omitempty"`
	Price             float64 `json:"price"`
	Beta              float64 `json:"beta"`
	MarketCap         float64 `json:"market_cap"`
	LastDividend      float64 `json:"last_dividend"`
	IPODate           string  `json:"ipo_date,omitempty"`
	IsETF             bool    `json:"is_etf"`
	IsActivelyTrading bool    `json:"is_actively_trading"`
}

// OHLCV is one daily candlestick bar.
type OHLCV struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close,omitempty"`
	Volume   int64     `json:"volume"`
}

// TreasuryRates is one day of US treasury yields, in percent.
type TreasuryRates struct {
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

// NewsItem is a news story as published by the data provider.
type NewsItem struct {
	Symbol      string `json:"symbol"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Image       string `json:"image"`
	Site        string `json:"site"`
	PublishedAt string `json:"published_at"`
}

// NewsArticle is the normalized article returned to API clients.
type NewsArticle struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	PubDate      string `json:"pubDate"`
	Provider     string `json:"provider"`
	ThumbnailURL string `json:"thumbnailUrl"`
	URL          string `json:"url"`
}
