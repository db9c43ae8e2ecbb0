// internal/api/handler/api/backtest.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/invert50/internal/api/job"
	"github.com/newthinker/invert50/internal/api/response"
	"github.com/newthinker/invert50/internal/backtest"
	"github.com/newthinker/invert50/internal/core"
	"github.com/newthinker/invert50/internal/report"
	"github.com/newthinker/invert50/internal/storage/archive"
	"github.com/newthinker/invert50/internal/strategy"
	"go.uber.org/zap"
)

const backtestTimeout = 5 * time.Minute

const jobType = "backtest"

// BacktestRequest is the request body for a backtest.
type BacktestRequest struct {
	Symbol         string  `json:"symbol"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Direction      string  `json:"direction"`
	Strategy       string  `json:"strategy,omitempty"`
	Interval       string  `json:"interval,omitempty"`
	Source         string  `json:"source,omitempty"`
	Lots           int     `json:"lots,omitempty"`
	PointValue     float64 `json:"point_value,omitempty"`
	IncludeHistory *bool   `json:"include_history,omitempty"`
}

// JobsGauge is told how many backtest jobs are in flight.
type JobsGauge interface {
	SetJobsActive(jobType string, count int)
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobStore   *job.Store
	backtester *backtest.Backtester
	strategies *strategy.Engine
	exporter   *archive.Exporter
	gauge      JobsGauge
	logger     *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(
	jobStore *job.Store,
	backtester *backtest.Backtester,
	strategies *strategy.Engine,
	logger ...*zap.Logger,
) *BacktestHandler {
	l := zap.NewNop()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &BacktestHandler{
		jobStore:   jobStore,
		backtester: backtester,
		strategies: strategies,
		logger:     l,
	}
}

// WithExporter archives every finished report.
func (h *BacktestHandler) WithExporter(e *archive.Exporter) *BacktestHandler {
	h.exporter = e
	return h
}

// WithJobsGauge reports active job counts.
func (h *BacktestHandler) WithJobsGauge(g JobsGauge) *BacktestHandler {
	h.gauge = g
	return h
}

func (h *BacktestHandler) parse(r *http.Request) (backtest.Request, []report.Option, error) {
	var body BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return backtest.Request{}, nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("decoding body: %w", err))
	}

	if strings.TrimSpace(body.Symbol) == "" || body.Start == "" || body.End == "" {
		return backtest.Request{}, nil, core.WrapError(core.ErrConfigMissing, errors.New("symbol, start and end are required"))
	}

	start, err := time.Parse(time.DateOnly, body.Start)
	if err != nil {
		return backtest.Request{}, nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("start: %w", err))
	}
	end, err := time.Parse(time.DateOnly, body.End)
	if err != nil {
		return backtest.Request{}, nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("end: %w", err))
	}

	req := backtest.Request{
		Symbol:   body.Symbol,
		Strategy: body.Strategy,
		Source:   body.Source,
		Interval: body.Interval,
		Start:    start,
		End:      end,
	}

	if body.Direction != "" {
		if req.Direction, err = core.ParseDirection(body.Direction); err != nil {
			return backtest.Request{}, nil, err
		}
	}

	if body.Lots != 0 || body.PointValue != 0 {
		req.Sizing = backtest.DefaultSizing()
		if body.Lots != 0 {
			req.Sizing.Lots = body.Lots
		}
		if body.PointValue != 0 {
			req.Sizing.PointValue = body.PointValue
		}
		if err := req.Sizing.Validate(); err != nil {
			return backtest.Request{}, nil, err
		}
	}

	if req.Strategy != "" {
		if _, ok := h.strategies.Get(req.Strategy); !ok {
			return backtest.Request{}, nil, core.WrapError(core.ErrStrategyNotFound, fmt.Errorf("%q", req.Strategy))
		}
	}

	var opts []report.Option
	if body.IncludeHistory != nil && !*body.IncludeHistory {
		opts = append(opts, report.WithoutHistory())
	}
	return req, opts, nil
}

func (h *BacktestHandler) execute(ctx context.Context, req backtest.Request, opts []report.Option) (*report.Report, error) {
	res, err := h.backtester.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	rep := report.Build(res, opts...)
	if h.exporter != nil {
		if _, err := h.exporter.Export(ctx, rep); err != nil {
			h.logger.Warn("report not archived", zap.String("symbol", rep.Symbol), zap.Error(err))
		}
	}
	return rep, nil
}

// Run executes a backtest and returns the report in the response.
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	req, opts, err := h.parse(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), backtestTimeout)
	defer cancel()

	rep, err := h.execute(ctx, req, opts)
	if err != nil {
		h.logger.Info("backtest failed", zap.String("symbol", req.Symbol), zap.Error(err))
		response.Fail(w, err)
		return
	}

	response.JSON(w, http.StatusOK, rep)
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, opts, err := h.parse(r)
	if err != nil {
		response.Fail(w, err)
		return
	}

	j, err := h.jobStore.Create(jobType)
	if err != nil {
		response.Fail(w, err)
		return
	}
	h.reportActive()

	go h.runJob(j.ID, req, opts)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": j.ID,
		"status": j.Status,
	})
}

// runJob executes the backtest and updates job status.
func (h *BacktestHandler) runJob(jobID string, req backtest.Request, opts []report.Option) {
	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	rep, err := h.execute(ctx, req, opts)
	if err != nil {
		var coreErr *core.Error
		if !errors.As(err, &coreErr) {
			coreErr = core.WrapError(core.ErrJobFailed, err)
		}
		h.update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = coreErr
		})
		h.reportActive()
		h.logger.Info("backtest job failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}

	h.update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = rep
	})
	h.reportActive()
}

// update applies fn to the job; a vanished job means its outcome is lost.
func (h *BacktestHandler) update(jobID string, fn func(*job.Job)) {
	if err := h.jobStore.Update(jobID, fn); err != nil {
		h.logger.Warn("dropping backtest job update", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (h *BacktestHandler) reportActive() {
	if h.gauge != nil {
		h.gauge.SetJobsActive(jobType, h.jobStore.Active())
	}
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		detail := map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
		if j.Error.Cause != nil {
			detail["cause"] = j.Error.Cause.Error()
		}
		resp["error"] = detail
	}

	response.JSON(w, http.StatusOK, resp)
}
