// Package news turns FMP stock news into the article shape served to API
// clients, with an optional RSS feed as fallback.
package news

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/seenimoa/stockdesk/internal/providers/fmp"
	"github.com/seenimoa/stockdesk/pkg/models"
)

// DefaultLimit is the number of articles requested from FMP.
const DefaultLimit = 10

// Placeholders for article fields the source left empty.
const (
	NoTitle     = "No title available"
	NoSummary   = "No summary available"
	NoPubDate   = "No publish date available"
	NoProvider  = "No provider available"
	NoThumbnail = "No thumbnail available"
	NoURL       = "No URL available"
)

// ErrNoNews is returned when neither FMP nor the fallback feed has articles.
type ErrNoNews struct {
	Ticker string
}

func (e *ErrNoNews) Error() string {
	return fmt.Sprintf("No news found for %s.", e.Ticker)
}

// Source is the FMP news endpoint.
type Source interface {
	StockNews(ctx context.Context, symbol string, limit int) ([]models.NewsItem, error)
}

// Feed is a secondary source consulted when FMP has nothing.
type Feed interface {
	Articles(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error)
}

// Service looks up articles for a ticker.
type Service struct {
	src    Source
	feed   Feed
	limit  int
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithFeed enables a fallback feed.
func WithFeed(f Feed) Option { return func(s *Service) { s.feed = f } }

// WithLimit caps the number of articles returned.
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a Service reading from src.
func NewService(src Source, opts ...Option) *Service {
	s := &Service{src: src, limit: DefaultLimit, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StockNews returns up to the configured number of articles for ticker.
// Upstream errors from FMP are returned as is; a failing fallback feed is
// logged and treated as empty.
func (s *Service) StockNews(ctx context.Context, ticker string) ([]models.NewsArticle, error) {
	return s.StockNewsN(ctx, ticker, s.limit)
}

// StockNewsN is StockNews with an explicit limit.
func (s *Service) StockNewsN(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	ticker = fmp.NormalizeSymbol(ticker)
	if ticker == "" {
		return nil, &fmp.ErrMissingParam{Param: fmp.ParamSymbol}
	}
	if limit <= 0 {
		limit = s.limit
	}

	items, err := s.src.StockNews(ctx, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("news %s: %w", ticker, err)
	}
	articles := make([]models.NewsArticle, 0, len(items))
	for _, it := range items {
		articles = append(articles, FromItem(it))
	}

	if len(articles) == 0 && s.feed != nil {
		fallback, err := s.feed.Articles(ctx, ticker, limit)
		if err != nil {
			s.logger.Warn("news feed fallback failed", zap.String("ticker", ticker), zap.Error(err))
		}
		articles = fallback
	}

	if len(articles) == 0 {
		return nil, &ErrNoNews{Ticker: ticker}
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

// FromItem maps an FMP news item, filling empty fields with placeholders.
func FromItem(it models.NewsItem) models.NewsArticle {
	return Fill(models.NewsArticle{
		Title:        it.Title,
		Summary:      cleanHTML(it.Text),
		PubDate:      it.PublishedAt,
		Provider:     it.Site,
		ThumbnailURL: it.Image,
		URL:          it.URL,
	})
}

// Fill replaces blank fields with their placeholders.
func Fill(a models.NewsArticle) models.NewsArticle {
	a.Title = orDefault(a.Title, NoTitle)
	a.Summary = orDefault(a.Summary, NoSummary)
	a.PubDate = orDefault(a.PubDate, NoPubDate)
	a.Provider = orDefault(a.Provider, NoProvider)
	a.ThumbnailURL = orDefault(a.ThumbnailURL, NoThumbnail)
	a.URL = orDefault(a.URL, NoURL)
	return a
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}
