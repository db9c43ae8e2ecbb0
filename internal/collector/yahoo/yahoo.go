package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/collector"
	"github.com/newthinker/invert50/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches symbols like AAPL, PETR4.SA, 600519.SH, ^GSPC, ES=F
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9\-]{1,12}(=F|\.[A-Za-z]{1,4})?$`)

func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo fetches chart history from Yahoo Finance
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New() *Yahoo {
	return &Yahoo{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: defaultBaseURL,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

func (y *Yahoo) Init(cfg collector.Config) error {
	if cfg.BaseURL != "" {
		y.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		y.client.Timeout = cfg.Timeout
	}
	return nil
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches historical OHLCV data
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	yahooSymbol := y.toYahooSymbol(symbol)
	yahooInterval := y.toYahooInterval(interval)

	url := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d",
		y.baseURL, yahooSymbol, yahooInterval, start.Unix(), end.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error: %s", result.Chart.Error.Description)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	r := result.Chart.Result[0]
	quotes := r.Indicators.Quote[0]

	data := make([]core.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(quotes.Close) || quotes.Open[i] == nil || quotes.High[i] == nil ||
			quotes.Low[i] == nil || quotes.Close[i] == nil {
			continue // Skip missing data
		}
		var volume float64
		if i < len(quotes.Volume) && quotes.Volume[i] != nil {
			volume = *quotes.Volume[i]
		}
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: yahooInterval,
			Open:     *quotes.Open[i],
			High:     *quotes.High[i],
			Low:      *quotes.Low[i],
			Close:    *quotes.Close[i],
			Volume:   volume,
			Time:     time.Unix(ts, 0).UTC(),
		})
	}

	return data, nil
}

func (y *Yahoo) toYahooInterval(interval string) string {
	switch interval {
	case "1m", "5m", "15m", "30m", "1h", "1d", "1wk":
		return interval
	case "1w":
		return "1wk"
	default:
		return "1d"
	}
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type indicators struct {
	Quote []quoteIndicator `json:"quote"`
}

type quoteIndicator struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}
