// stockdesk serves FMP-backed stock reports over HTTP and from the command
// line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seenimoa/stockdesk/internal/config"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// cli holds state shared by subcommands.
type cli struct {
	cfg        *config.Config
	configFile string
	logLevel   string
	output     string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "stockdesk",
		Short: "Stock quotes, valuations, earnings, news and charts from FMP",
		Long: `stockdesk fronts the Financial Modeling Prep API with a shared client
that caches responses, coalesces identical requests and rate-limits the
API key. Run "stockdesk serve" for the HTTP API or use the report commands
directly.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if c.configFile != "" {
				c.cfg, err = config.LoadFromFile(c.configFile)
			} else {
				c.cfg, err = config.Load()
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if c.logLevel != "" {
				c.cfg.Logging.Level = c.logLevel
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", formatTable, "output format: table, json or yaml")

	root.AddCommand(
		newVersionCmd(),
		c.newServeCmd(),
		c.newQuoteCmd(),
		c.newDCFCmd(),
		c.newEarningsCmd(),
		c.newNewsCmd(),
		c.newChartCmd(),
		c.newStatusCmd(),
		c.newConfigCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skip config loading.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stockdesk %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
		},
	}
}
