package strategy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/indicator"
)

// Params are the moving-average spans and level rules shared by the Invert 50 detectors.
type Params struct {
	Kind   indicator.Kind
	Fast   int
	Mid    int
	Slow   int
	Anchor int

	// RewardMultiple sets the fallback target at entry ± RewardMultiple×risk.
	RewardMultiple float64

	// TouchTolerance is the fraction of the slow line within which the legacy
	// detector counts a touch. The canonical detector ignores it.
	TouchTolerance float64
}

// DefaultParams returns EMA 9/20/50/200 with a 2R fallback target.
func DefaultParams() Params {
	return Params{
		Kind:           indicator.KindEMA,
		Fast:           9,
		Mid:            20,
		Slow:           50,
		Anchor:         200,
		RewardMultiple: 2,
		TouchTolerance: 0.01,
	}
}

// Validate checks spans are positive and strictly ordered.
func (p Params) Validate() error {
	if p.Kind != indicator.KindEMA && p.Kind != indicator.KindSMA {
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown ma kind %q", p.Kind))
	}
	if p.Fast <= 0 || p.Mid <= 0 || p.Slow <= 0 || p.Anchor <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("spans must be positive, got %d/%d/%d/%d", p.Fast, p.Mid, p.Slow, p.Anchor))
	}
	if !(p.Fast < p.Mid && p.Mid < p.Slow) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("spans must satisfy fast < mid < slow, got %d/%d/%d", p.Fast, p.Mid, p.Slow))
	}
	if p.RewardMultiple <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("reward_multiple must be positive, got %f", p.RewardMultiple))
	}
	if p.TouchTolerance < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("touch_tolerance cannot be negative, got %f", p.TouchTolerance))
	}
	return nil
}

func (p Params) spec(span int) indicator.Spec {
	return indicator.Spec{Kind: p.Kind, Span: span}
}

func (p Params) FastSpec() indicator.Spec   { return p.spec(p.Fast) }
func (p Params) MidSpec() indicator.Spec    { return p.spec(p.Mid) }
func (p Params) SlowSpec() indicator.Spec   { return p.spec(p.Slow) }
func (p Params) AnchorSpec() indicator.Spec { return p.spec(p.Anchor) }

// Specs returns fast, mid, slow and anchor lines.
func (p Params) Specs() []indicator.Spec {
	return []indicator.Spec{p.FastSpec(), p.MidSpec(), p.SlowSpec(), p.AnchorSpec()}
}

// Merge overlays values from a config params map. Recognised keys: kind, fast, mid,
// slow, anchor, reward_multiple, touch_tolerance.
func (p Params) Merge(m map[string]any) (Params, error) {
	out := p
	for key, raw := range m {
		var err error
		switch key {
		case "kind":
			out.Kind = indicator.Kind(strings.ToLower(fmt.Sprint(raw)))
		case "fast":
			out.Fast, err = toInt(raw)
		case "mid":
			out.Mid, err = toInt(raw)
		case "slow":
			out.Slow, err = toInt(raw)
		case "anchor":
			out.Anchor, err = toInt(raw)
		case "reward_multiple":
			out.RewardMultiple, err = toFloat(raw)
		case "touch_tolerance":
			out.TouchTolerance, err = toFloat(raw)
		}
		if err != nil {
			return p, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("param %s: %w", key, err))
		}
	}
	return out, out.Validate()
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
