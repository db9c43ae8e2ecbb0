package polygon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/collector"
	"github.com/newthinker/invert50/internal/core"
)

const (
	defaultBaseURL = "https://api.polygon.io"
	maxResults     = 50000
)

// Polygon fetches aggregate bars from the Polygon.io REST API
type Polygon struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a new Polygon collector
func New() *Polygon {
	return &Polygon{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
	}
}

func (p *Polygon) Name() string {
	return "polygon"
}

func (p *Polygon) Init(cfg collector.Config) error {
	if cfg.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, errors.New("polygon api key is required"))
	}
	p.apiKey = cfg.APIKey
	if cfg.BaseURL != "" {
		p.baseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		p.client.Timeout = cfg.Timeout
	}
	return nil
}

// timespan maps an interval like "5m" or "1d" onto Polygon's multiplier/timespan pair.
func timespan(interval string) (int, string, error) {
	if interval == "" {
		return 1, "day", nil
	}
	unit := interval[len(interval)-1:]
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return 0, "", fmt.Errorf("invalid interval %q", interval)
	}
	switch unit {
	case "m":
		return n, "minute", nil
	case "h":
		return n, "hour", nil
	case "d":
		return n, "day", nil
	case "w":
		return n, "week", nil
	default:
		return 0, "", fmt.Errorf("invalid interval %q", interval)
	}
}

// FetchHistory fetches adjusted aggregates in ascending order
func (p *Polygon) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if symbol == "" {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("symbol cannot be empty"))
	}
	mult, span, err := timespan(interval)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	if interval == "" {
		interval = "1d"
	}

	endpoint := fmt.Sprintf("%s/v2/aggs/ticker/%s/range/%d/%s/%s/%s",
		p.baseURL, url.PathEscape(symbol), mult, span,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
	q := url.Values{
		"adjusted": {"true"},
		"sort":     {"asc"},
		"limit":    {strconv.Itoa(maxResults)},
		"apiKey":   {p.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching aggregates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result aggsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Status == "ERROR" {
		return nil, fmt.Errorf("polygon error: %s", result.Error)
	}

	data := make([]core.OHLCV, 0, len(result.Results))
	for _, r := range result.Results {
		data = append(data, core.OHLCV{
			Symbol:   symbol,
			Interval: interval,
			Open:     r.Open,
			High:     r.High,
			Low:      r.Low,
			Close:    r.Close,
			Volume:   r.Volume,
			Time:     time.UnixMilli(r.Timestamp).UTC(),
		})
	}

	return data, nil
}

type aggsResponse struct {
	Ticker       string    `json:"ticker"`
	Status       string    `json:"status"`
	ResultsCount int       `json:"resultsCount"`
	Results      []aggsBar `json:"results"`
	Error        string    `json:"error"`
}

type aggsBar struct {
	Open      float64 `json:"o"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Close     float64 `json:"c"`
	Volume    float64 `json:"v"`
	Timestamp int64   `json:"t"`
}
