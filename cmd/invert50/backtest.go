package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/newthinker/invert50/internal/app"
	"github.com/newthinker/invert50/internal/backtest"
	"github.com/newthinker/invert50/internal/config"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/report"
	"github.com/newthinker/invert50/internal/storage/archive"
	"github.com/spf13/cobra"
)

// defaultExportDir receives --export output when no archive is configured.
const defaultExportDir = "reports"

var (
	backtestSymbol     string
	backtestFrom       string
	backtestTo         string
	backtestDirection  string
	backtestStrategy   string
	backtestSource     string
	backtestCSV        string
	backtestLots       int
	backtestPointValue float64
	backtestExport     bool
	backtestAnalyze    bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest",
	Long:  "Run a strategy against historical data and show performance statistics",
	Args:  cobra.NoArgs,
	RunE:  runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (required)")
	f.StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (required)")
	f.StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (required)")
	f.StringVar(&backtestDirection, "direction", "", "long or short (default from config)")
	f.StringVar(&backtestStrategy, "strategy", "", "Strategy name (default from config)")
	f.StringVar(&backtestSource, "source", "", "Data source: polygon, yahoo, csv, clickhouse")
	f.StringVar(&backtestCSV, "csv", "", "Read bars from this CSV file or directory")
	f.IntVar(&backtestLots, "lots", 0, "Contracts per trade (default from config)")
	f.Float64Var(&backtestPointValue, "point-value", 0, "Currency per point per contract (default from config)")
	f.BoolVar(&backtestExport, "export", false, "Archive the JSON report")
	f.BoolVar(&backtestAnalyze, "analyze", false, "Ask the configured LLM to review the results")

	backtestCmd.MarkFlagRequired("symbol")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	fromDate, err := time.Parse(time.DateOnly, backtestFrom)
	if err != nil {
		return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
	}
	toDate, err := time.Parse(time.DateOnly, backtestTo)
	if err != nil {
		return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
	}
	if !toDate.After(fromDate) {
		return fmt.Errorf("end date must be after start date")
	}

	req := backtest.Request{
		Symbol:   backtestSymbol,
		Strategy: backtestStrategy,
		Source:   backtestSource,
		Start:    fromDate,
		End:      toDate,
	}
	if backtestDirection != "" {
		if req.Direction, err = core.ParseDirection(backtestDirection); err != nil {
			return err
		}
	}

	cfg, log, err := loadConfig(func(c *config.Config) {
		if backtestCSV != "" {
			c.Data.CSV.Path = backtestCSV
			c.Data.Source = "csv"
		}
		if backtestSource != "" {
			c.Data.Source = backtestSource
		}
		if backtestLots > 0 {
			c.Sizing.Lots = backtestLots
		}
		if backtestPointValue > 0 {
			c.Sizing.PointValue = backtestPointValue
		}
		if backtestExport && c.Archive.Type == "" {
			c.Archive.Type = "localfs"
			c.Archive.Path = defaultExportDir
		}
		if !backtestAnalyze {
			c.LLM.Provider = ""
		}
		c.Metrics.Enabled = false
	})
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	res, err := a.Backtester().Run(ctx, req)
	if err != nil {
		return err
	}

	rep := report.Build(res, report.WithoutHistory())
	out := cmd.OutOrStdout()
	printReport(out, rep)

	if backtestExport {
		exportReport(ctx, out, a.Exporter(), rep)
	}

	if backtestAnalyze {
		if a.Analyzer() == nil {
			return fmt.Errorf("--analyze needs llm.provider in the config")
		}
		result, err := a.Analyzer().Analyze(ctx, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n=== Analysis (%s) ===\n%s\n", result.Provider, result.Analysis)
	}

	return nil
}

func exportReport(ctx context.Context, out io.Writer, exp *archive.Exporter, rep *report.Report) {
	if exp == nil {
		return
	}
	p, err := exp.Export(ctx, rep)
	if err != nil {
		fmt.Fprintf(out, "\nexport failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "\nReport saved to %s\n", p)
}

// printReport writes the summary and trade list of rep.
func printReport(w io.Writer, rep *report.Report) {
	m := rep.Metrics

	fmt.Fprintln(w, "=== Invert 50 Backtest ===")
	fmt.Fprintf(w, "Strategy:  %s (%s)\n", rep.Strategy, rep.Direction)
	fmt.Fprintf(w, "Symbol:    %s via %s\n", rep.Symbol, rep.Source)
	fmt.Fprintf(w, "Period:    %s to %s\n", rep.Start, rep.End)
	fmt.Fprintf(w, "Sizing:    %d x %v\n", rep.Lots, rep.PointValue)
	fmt.Fprintln(w)

	if rep.Message != "" {
		fmt.Fprintln(w, rep.Message)
		return
	}

	fmt.Fprintf(w, "Trades:        %d closed, %d open\n", m.TotalTrades, m.OpenTrades)
	fmt.Fprintf(w, "Hit rate:      %s (%d W / %d L)\n", m.HitRate, m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(w, "Gross P&L:     %s\n", m.GrossPnL)
	fmt.Fprintf(w, "Avg win/loss:  %s / %s\n", m.AvgWin, m.AvgLoss)
	fmt.Fprintf(w, "Reward:risk:   %s\n", m.RewardToRisk)
	fmt.Fprintf(w, "Max drawdown:  %s\n", m.MaxDrawdown)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTRY TIME\tENTRY\tSTOP\tTARGET\tOUTCOME\tEXIT\tP&L")
	for _, t := range rep.Trades {
		exit := "-"
		if t.ExitTime != nil {
			exit = *t.ExitTime
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\n",
			t.EntryTime, t.Entry, t.Stop, t.Target, strings.ToUpper(t.Outcome), exit, report.Money(t.PnL))
	}
	tw.Flush()
}
