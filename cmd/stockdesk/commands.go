package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/stockdesk/api"
	"github.com/seenimoa/stockdesk/internal/analysis/fundamental"
	"github.com/seenimoa/stockdesk/internal/analysis/technical"
	"github.com/seenimoa/stockdesk/internal/config"
	"github.com/seenimoa/stockdesk/internal/report"
)

// run wires the app for a command that needs FMP.
func (c *cli) run(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(c.cfg)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(cmd, a, args)
	}
}

// --- Serve Command (API Server) ---

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: c.run(func(cmd *cobra.Command, a *app, _ []string) error {
			srv := api.NewServer(a.cfg, api.Deps{
				Provider: a.provider,
				News:     a.news,
				Upstream: a.client,
				Gatherer: a.registry,
				Logger:   a.log.Named("api"),
			})
			return srv.ListenAndServe(cmd.Context())
		}),
	}
}

// --- Report Commands ---

func (c *cli) newQuoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quote [ticker]",
		Short: "Show the latest quote",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			q, err := a.provider.Quote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.output, q, func() string { return quoteTable(q) })
		}),
	}
}

func (c *cli) newDCFCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dcf [ticker]",
		Short: "Estimate intrinsic value with a discounted cash flow model",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			res, err := fundamental.RunDCF(cmd.Context(), a.provider, args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.output, res, func() string { return dcfTable(res) })
		}),
	}
}

func (c *cli) newEarningsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "earnings [ticker]",
		Short: "Show the last four quarters and the next earnings date",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			rep, err := fundamental.Earnings(cmd.Context(), a.provider, args[0], time.Now())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.output, rep, func() string { return earningsTable(rep) })
		}),
	}
}

func (c *cli) newNewsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "news [ticker]",
		Short: "List recent news articles",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			articles, err := a.news.StockNewsN(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), c.output, articles, func() string { return newsTable(articles) })
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of articles (default: news.limit)")
	return cmd
}

func (c *cli) newChartCmd() *cobra.Command {
	var (
		timeFrame string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "chart [ticker]",
		Short: "Render a candlestick chart with moving averages as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(cmd *cobra.Command, a *app, args []string) error {
			tf, err := technical.ParseTimeFrame(timeFrame)
			if err != nil {
				return err
			}
			now := time.Now()
			series, err := technical.BuildChartSeries(cmd.Context(), a.provider, args[0], tf, now)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return report.WriteChartPage(cmd.OutOrStdout(), series, now)
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.WriteChartPage(f, series, now); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bars)\n", out, len(series.Bars))
			return nil
		}),
	}
	cmd.Flags().StringVar(&timeFrame, "time-frame", "1y", "lookback: 3m, 6m, 1y or 5y")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	return cmd
}

// --- Status Command ---

func (c *cli) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration and API key status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := newStatus(c.cfg, c.configFile)
			return render(cmd.OutOrStdout(), c.output, st, func() string { return statusTable(st) })
		},
	}
}

// --- Config Command ---

func (c *cli) newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML with the API key masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeYAML(cmd.OutOrStdout(), c.cfg.Redacted())
		},
	})
	return cmd
}

// statusReport is what the status command prints.
type statusReport struct {
	Version    string             `json:"version"     yaml:"version"`
	Commit     string             `json:"commit"      yaml:"commit"`
	ConfigFile string             `json:"config_file" yaml:"config_file"`
	BaseURL    string             `json:"base_url"    yaml:"base_url"`
	Listen     string             `json:"listen"      yaml:"listen"`
	RateLimit  string             `json:"rate_limit"  yaml:"rate_limit"`
	Retries    int                `json:"retries"     yaml:"retries"`
	Breaker    string             `json:"breaker"     yaml:"breaker"`
	Valid      string             `json:"valid"       yaml:"valid"`
	Keys       []config.KeyStatus `json:"keys"        yaml:"keys"`
}

func newStatus(cfg *config.Config, configFile string) statusReport {
	if configFile == "" {
		configFile = "(search path)"
	}
	st := statusReport{
		Version:    version,
		Commit:     commit,
		ConfigFile: configFile,
		BaseURL:    cfg.FMP.BaseURL,
		Listen:     cfg.API.Addr(),
		RateLimit:  fmt.Sprintf("%d per %s", cfg.RateLimit.Tokens, cfg.RateLimit.Interval),
		Retries:    cfg.Retry.MaxRetries,
		Breaker:    "disabled",
		Valid:      "ok",
		Keys:       config.CheckAPIKeys(cfg),
	}
	if cfg.RateLimit.Tokens <= 0 {
		st.RateLimit = "unlimited"
	}
	if cfg.Breaker.Enabled {
		st.Breaker = fmt.Sprintf("%d failures, %s cooldown", cfg.Breaker.Failures, cfg.Breaker.Cooldown)
	}
	if err := cfg.ValidateUpstream(); err != nil {
		st.Valid = err.Error()
	}
	return st
}
