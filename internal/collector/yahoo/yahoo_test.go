package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/newthinker/invert50/internal/collector"
)

func TestYahoo_ImplementsCollector(t *testing.T) {
	var _ collector.Collector = (*Yahoo)(nil)
}

func TestYahoo_Name(t *testing.T) {
	y := New()
	if y.Name() != "yahoo" {
		t.Errorf("expected 'yahoo', got '%s'", y.Name())
	}
}

func TestYahoo_ToYahooSymbol(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"AAPL", "AAPL"},
		{"PETR4.SA", "PETR4.SA"},
		{"600519.SH", "600519.SS"}, // Shanghai -> SS for Yahoo
		{"000001.SZ", "000001.SZ"},
	}

	y := New()
	for _, tc := range tests {
		got := y.toYahooSymbol(tc.input)
		if got != tc.expected {
			t.Errorf("toYahooSymbol(%s) = %s, want %s", tc.input, got, tc.expected)
		}
	}
}

func TestValidateSymbol(t *testing.T) {
	for _, s := range []string{"AAPL", "PETR4.SA", "^GSPC", "ES=F", "BRK-B"} {
		if err := validateSymbol(s); err != nil {
			t.Errorf("validateSymbol(%s) = %v, want nil", s, err)
		}
	}
	for _, s := range []string{"", "AAPL;DROP", "this-symbol-is-way-too-long"} {
		if err := validateSymbol(s); err == nil {
			t.Errorf("validateSymbol(%q) should fail", s)
		}
	}
}

func TestYahoo_FetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/AAPL" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("unexpected interval %s", r.URL.Query().Get("interval"))
		}
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1704153600,1704240000,1704326400],
			"indicators":{"quote":[{"open":[100,null,103],"high":[105,null,104],"low":[99,null,100],
			"close":[104,null,101],"volume":[1000,null,null]}]}}],"error":null}}`))
	}))
	defer srv.Close()

	y := New()
	if err := y.Init(collector.Config{BaseURL: srv.URL}); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := y.FetchHistory(context.Background(), "AAPL", start, start.AddDate(0, 1, 0), "1d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars (null row skipped), got %d", len(bars))
	}
	if bars[0].Close != 104 || bars[0].Volume != 1000 {
		t.Errorf("unexpected first bar %+v", bars[0])
	}
	if bars[1].Volume != 0 {
		t.Errorf("missing volume should be 0, got %v", bars[1].Volume)
	}
	if !bars[1].Time.Equal(time.Unix(1704326400, 0)) {
		t.Errorf("unexpected time %v", bars[1].Time)
	}
}

func TestYahoo_FetchHistoryAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	y := New()
	y.Init(collector.Config{BaseURL: srv.URL})

	_, err := y.FetchHistory(context.Background(), "NOPE", time.Now().AddDate(0, -1, 0), time.Now(), "1d")
	if err == nil {
		t.Fatal("expected yahoo error")
	}
}
