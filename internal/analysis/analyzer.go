// Package analysis asks an LLM for a written review of a finished backtest report.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/llm"
	"github.com/newthinker/invert50/internal/report"
	"go.uber.org/zap"
)

// DefaultSampleTrades is how many trades the prompt lists.
const DefaultSampleTrades = 10

const systemPrompt = `You are a professional risk analyst and trading strategist. ` +
	`Review backtest results and give concise, professional, actionable feedback. ` +
	`Be direct and objective, and use language a trader would understand.`

// Config holds analyzer settings.
type Config struct {
	MaxTokens    int
	Temperature  float64
	SampleTrades int
}

// Analyzer turns a report into an LLM-written review.
type Analyzer struct {
	llm    llm.Provider
	cfg    Config
	logger *zap.Logger
}

// New creates an Analyzer.
func New(provider llm.Provider, cfg Config, logger ...*zap.Logger) *Analyzer {
	if cfg.SampleTrades <= 0 {
		cfg.SampleTrades = DefaultSampleTrades
	}
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Analyzer{llm: provider, cfg: cfg, logger: l}
}

// Result is the review plus the provider that wrote it.
type Result struct {
	Analysis string    `json:"analysis"`
	Provider string    `json:"provider"`
	Usage    llm.Usage `json:"usage"`
}

// Analyze sends one prompt built from r. The report is not modified.
func (a *Analyzer) Analyze(ctx context.Context, r *report.Report) (*Result, error) {
	if r == nil {
		return nil, core.WrapError(core.ErrConfigInvalid, errors.New("report is required"))
	}
	if a.llm == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("no LLM provider configured"))
	}

	start := time.Now()
	resp, err := a.llm.Complete(ctx, llm.Request{
		System:      systemPrompt,
		Prompt:      BuildPrompt(r, a.cfg.SampleTrades),
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: a.cfg.Temperature,
	})
	if err != nil {
		a.logger.Warn("analysis failed", zap.String("provider", a.llm.Name()), zap.Error(err))
		return nil, core.WrapError(core.ErrLLMFailed, err)
	}

	a.logger.Info("analysis complete",
		zap.String("provider", a.llm.Name()),
		zap.String("symbol", r.Symbol),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Analysis: strings.TrimSpace(resp.Text),
		Provider: a.llm.Name(),
		Usage:    resp.Usage,
	}, nil
}

// BuildPrompt renders the metrics and the first sample trades of r.
func BuildPrompt(r *report.Report, sample int) string {
	var sb strings.Builder

	sb.WriteString("## Strategy\n")
	sb.WriteString("Invert 50: a moving-average trend-pullback strategy. ")
	sb.WriteString("With fast, mid and slow averages aligned, it waits for price to pull back to the slow (50) average ")
	sb.WriteString("and enters on the next strong candle in the trend direction.\n")
	sb.WriteString(fmt.Sprintf("- Symbol: %s\n- Direction: %s\n- Period: %s to %s\n\n",
		r.Symbol, r.Direction, r.Start, r.End))

	m := r.Metrics
	sb.WriteString("## Results\n")
	sb.WriteString(fmt.Sprintf("- Total trades: %d\n", m.TotalTrades))
	sb.WriteString(fmt.Sprintf("- Hit rate: %s\n", m.HitRate))
	sb.WriteString(fmt.Sprintf("- Gross P&L: %s\n", m.GrossPnL))
	sb.WriteString(fmt.Sprintf("- Reward:risk: %s\n", m.RewardToRisk))
	sb.WriteString(fmt.Sprintf("- Max drawdown: %s\n", m.MaxDrawdown))
	if m.OpenTrades > 0 {
		sb.WriteString(fmt.Sprintf("- Still open: %d\n", m.OpenTrades))
	}
	sb.WriteString("\n")

	sb.WriteString("## Sample Trades\n")
	if len(r.Trades) == 0 {
		sb.WriteString("- none\n")
	}
	for i, t := range r.Trades {
		if i >= sample {
			break
		}
		sb.WriteString(fmt.Sprintf("- Trade on %s: %s, P&L: %s\n", tradeDate(t.EntryTime), t.Outcome, report.Money(t.PnL)))
	}
	sb.WriteString("\n")

	sb.WriteString("## Task\n")
	sb.WriteString("Give a three-part analysis in simple Markdown:\n")
	sb.WriteString("1. ### Overall Diagnosis: summarise how the strategy performed.\n")
	sb.WriteString("2. ### Strengths: identify the positive aspects of the results.\n")
	sb.WriteString("3. ### Weaknesses and Risks: point out the evident weaknesses and risks and suggest optimisations.\n")

	return sb.String()
}

// tradeDate shortens "2006-01-02 15:04:05" to "02/01/2006".
func tradeDate(s string) string {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return s
	}
	return t.Format("02/01/2006")
}
