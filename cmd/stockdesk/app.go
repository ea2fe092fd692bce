package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/seenimoa/stockdesk/internal/config"
	"github.com/seenimoa/stockdesk/internal/infra"
	"github.com/seenimoa/stockdesk/internal/news"
	"github.com/seenimoa/stockdesk/internal/providers/fmp"
	"github.com/seenimoa/stockdesk/internal/upstream"
)

// app is the wired object graph behind every command that talks to FMP.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	registry *prometheus.Registry
	client   *upstream.Client
	provider *fmp.Provider
	news     *news.Service
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.ValidateUpstream(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	log, err := infra.NewLogger(infra.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := upstream.New(cfg.FMP.APIKey, upstreamOptions(cfg, log, reg)...)
	if err != nil {
		return nil, fmt.Errorf("upstream client: %w", err)
	}
	provider := fmp.New(client)

	newsOpts := []news.Option{news.WithLimit(cfg.News.Limit), news.WithLogger(log.Named("news"))}
	if cfg.News.RSSFallback {
		newsOpts = append(newsOpts, news.WithFeed(news.NewRSS(cfg.News.RSSURL, infra.NewHTTPClient(cfg.FMP.Timeout))))
	}

	return &app{
		cfg:      cfg,
		log:      log,
		registry: reg,
		client:   client,
		provider: provider,
		news:     news.NewService(provider, newsOpts...),
	}, nil
}

func upstreamOptions(cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) []upstream.Option {
	opts := []upstream.Option{
		upstream.WithBaseURL(cfg.FMP.BaseURL),
		upstream.WithHTTPClient(infra.NewHTTPClient(cfg.FMP.Timeout)),
		upstream.WithTimeout(cfg.FMP.Timeout),
		upstream.WithEndpoints(fmp.Endpoints...),
		upstream.WithCacheSize(cfg.Cache.MaxEntries),
		upstream.WithTTL(upstream.TTLQuote, cfg.Cache.TTL.Quote),
		upstream.WithTTL(upstream.TTLNews, cfg.Cache.TTL.News),
		upstream.WithTTL(upstream.TTLHistory, cfg.Cache.TTL.History),
		upstream.WithTTL(upstream.TTLFundamentals, cfg.Cache.TTL.Fundamentals),
		upstream.WithRateLimit(cfg.RateLimit.Tokens, cfg.RateLimit.Interval),
		upstream.WithRateBurst(cfg.RateLimit.Burst),
		upstream.WithRetry(cfg.Retry.MaxRetries, cfg.Retry.BaseBackoff, cfg.Retry.MaxBackoff),
		upstream.WithLogger(log.Named("upstream")),
		upstream.WithMetrics(upstream.NewMetrics(reg)),
	}
	if cfg.Breaker.Enabled {
		opts = append(opts, upstream.WithBreaker(cfg.Breaker.Failures, cfg.Breaker.Cooldown))
	}
	return opts
}

func (a *app) close() {
	_ = a.log.Sync()
}
