// internal/api/handler/api/strategies.go
package api

import (
	"net/http"

	"github.com/newthinker/invert50/internal/api/response"
	"github.com/newthinker/invert50/internal/strategy"
)

// StrategyInfo describes one registered detector.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MinBars     int    `json:"min_bars"`
}

// StrategiesHandler lists registered strategies.
type StrategiesHandler struct {
	strategies *strategy.Engine
}

// NewStrategiesHandler creates a new strategies handler.
func NewStrategiesHandler(strategies *strategy.Engine) *StrategiesHandler {
	return &StrategiesHandler{strategies: strategies}
}

// List returns every strategy sorted by name.
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	all := h.strategies.GetAll()
	out := make([]StrategyInfo, 0, len(all))
	for _, d := range all {
		out = append(out, StrategyInfo{
			Name:        d.Name(),
			Description: d.Description(),
			MinBars:     d.MinBars(),
		})
	}
	response.JSON(w, http.StatusOK, out)
}
