// internal/api/handler/api/analysis.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/invert50/internal/analysis"
	"github.com/newthinker/invert50/internal/api/response"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/report"
)

const analysisTimeout = 2 * time.Minute

// AnalysisRecorder observes LLM calls.
type AnalysisRecorder interface {
	RecordAnalysis(provider, status string, duration float64)
}

// AnalysisHandler handles LLM analysis requests.
type AnalysisHandler struct {
	analyzer *analysis.Analyzer
	recorder AnalysisRecorder
}

// NewAnalysisHandler creates a new analysis handler. analyzer may be nil when no
// LLM is configured.
func NewAnalysisHandler(analyzer *analysis.Analyzer) *AnalysisHandler {
	return &AnalysisHandler{analyzer: analyzer}
}

// WithRecorder attaches a metrics recorder.
func (h *AnalysisHandler) WithRecorder(r AnalysisRecorder) *AnalysisHandler {
	h.recorder = r
	return h
}

// Analyze takes a report body and returns the LLM review of it.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if h.analyzer == nil {
		response.Error(w, http.StatusServiceUnavailable,
			core.WrapError(core.ErrConfigMissing, errors.New("no LLM provider configured")))
		return
	}

	var rep report.Report
	if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
		response.Fail(w, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decoding report: %w", err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), analysisTimeout)
	defer cancel()

	start := time.Now()
	res, err := h.analyzer.Analyze(ctx, &rep)
	if h.recorder != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		provider := ""
		if res != nil {
			provider = res.Provider
		}
		h.recorder.RecordAnalysis(provider, status, time.Since(start).Seconds())
	}
	if err != nil {
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, res)
}
