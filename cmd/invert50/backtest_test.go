package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newthinker/invert50/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintReport(t *testing.T) {
	exit := "2024-02-03 00:00:00"
	rep := &report.Report{
		Symbol: "PETR4", Strategy: "invert50", Direction: "long", Source: "csv",
		Start: "2024-01-01", End: "2024-06-30", Lots: 2, PointValue: 50,
		Metrics: report.Metrics{
			TotalTrades: 1, WinningTrades: 1, HitRate: "100.00%", GrossPnL: "$ 120.00",
			AvgWin: "$ 120.00", AvgLoss: "$ 0.00", RewardToRisk: "N/A", MaxDrawdown: "$ 0.00",
		},
		Trades: []report.TradeRecord{{
			EntryTime: "2024-02-01 00:00:00", Entry: 251, Stop: 250.4, Target: 252.2,
			Outcome: "win", ExitTime: &exit, PnL: 120,
		}},
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	out := buf.String()

	assert.Contains(t, out, "Symbol:    PETR4 via csv")
	assert.Contains(t, out, "Hit rate:      100.00% (1 W / 0 L)")
	assert.Contains(t, out, "Reward:risk:   N/A")
	assert.Contains(t, out, "WIN")
	assert.Contains(t, out, "$ 120.00")
}

func TestPrintReport_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, &report.Report{Symbol: "X", Message: report.NoTradesMessage})
	assert.Contains(t, buf.String(), "no trades generated")
	assert.NotContains(t, buf.String(), "Hit rate")
}

func TestBacktestCommand_CSV(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	sb.WriteString("date,open,high,low,close\n")
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 260; i++ {
		sb.WriteString(fmt.Sprintf("%s,10,10.5,9.5,10\n", day.AddDate(0, 0, i).Format(time.DateOnly)))
	}
	path := filepath.Join(dir, "flat.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"backtest", "--symbol", "flat", "--from", "2023-01-01", "--to", "2024-01-01", "--csv", path})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, buf.String(), "FLAT via csv")
	assert.Contains(t, buf.String(), "no trades generated")
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(buf.String(), "invert50 dev"))
}
