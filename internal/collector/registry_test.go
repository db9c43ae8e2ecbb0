package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/invert50/internal/core"
)

// mockCollector for testing
type mockCollector struct {
	name     string
	closed   bool
	closeErr error
}

func (m *mockCollector) Name() string          { return m.name }
func (m *mockCollector) Init(cfg Config) error { return nil }
func (m *mockCollector) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	return nil, nil
}
func (m *mockCollector) Close() error {
	m.closed = true
	return m.closeErr
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	mock := &mockCollector{name: "mock"}
	r.Register(mock)

	c, ok := r.Get("mock")
	if !ok {
		t.Fatal("expected to find registered collector")
	}

	if c.Name() != "mock" {
		t.Errorf("expected name 'mock', got '%s'", c.Name())
	}
}

func TestRegistry_GetAll(t *testing.T) {
	r := NewRegistry()
	r.Register(&mockCollector{name: "b"})
	r.Register(&mockCollector{name: "a"})

	all := r.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 collectors, got %d", len(all))
	}
	if all[0].Name() != "a" {
		t.Errorf("expected sorted result, first is %s", all[0].Name())
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Get("nonexistent")
	if ok {
		t.Error("expected not to find nonexistent collector")
	}
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	a := &mockCollector{name: "a"}
	b := &mockCollector{name: "b", closeErr: errors.New("boom")}
	r.Register(a)
	r.Register(b)

	if err := r.Close(); err == nil {
		t.Error("expected close error to surface")
	}
	if !a.closed || !b.closed {
		t.Error("expected every collector to be closed")
	}
}
