/*
handlers.go - HTTP API handlers for the loan reconstruction engine

PURPOSE:
  Exposes the sweep engine and the stored run history via REST. Handles
  HTTP request/response and JSON serialization, delegating all arithmetic
  to the loan/recon/sweep packages.

ENDPOINTS:
  Sweeps:
    POST /api/sweeps              Run a sweep from supplied inputs and persist it
    GET  /api/sweeps              List stored runs
    GET  /api/sweeps/{id}         Run header with per-scenario statuses
    GET  /api/sweeps/{id}/ledger  Merged daily ledger
    GET  /api/sweeps/{id}/interest  Monthly interest comparison cells
    GET  /api/sweeps/{id}/balances  Point-in-time balance comparison cells

  Scenarios:
    GET  /api/scenarios           Scenario sets a default sweep would run

ERROR HANDLING:
  Errors are returned as JSON:
  - 400: Unparseable body, bad dates/amounts, bad pay-day labels
  - 404: Unknown run ID
  - 422: Sweep ran but could not deliver what was asked: all scenarios
         failed, the merge invariant was violated, or a supplied reported
         series overlapped nothing (the comparison would be empty)
  - 500: Storage failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/store/sqlite"
	"github.com/warp/loan-engine/sweep"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store *sqlite.Store
	Log   *logrus.Logger
}

// NewHandler creates a new handler backed by the given store.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// SWEEP EXECUTION
// =============================================================================

// RunSweep executes a sweep from the supplied inputs and persists the result.
// POST /api/sweeps
func (h *Handler) RunSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "At least one event is required", nil)
		return
	}

	cfg := sweep.DefaultConfig()
	cfg.Log = h.Log
	if req.CutoverYear != nil {
		cfg.CutoverYear = *req.CutoverYear
	}
	if req.ZeroRateGaps {
		cfg.RateGap = loan.RateGapZero
	}
	if len(req.PayDays) > 0 {
		cfg.PayDays = cfg.PayDays[:0]
		for _, label := range req.PayDays {
			pd, err := loan.ParsePayDay(label)
			if err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid pay_day %q", label), err)
				return
			}
			cfg.PayDays = append(cfg.PayDays, pd)
		}
	}

	in, err := parseInputs(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sweep inputs", err)
		return
	}

	result, runErr := sweep.NewRunner(cfg).Run(ctx, in)
	if result == nil || result.Merged == nil {
		writeError(w, http.StatusUnprocessableEntity, "Sweep produced no usable output", runErr)
		return
	}
	// A sweep can merge successfully yet fail to build a comparison the
	// caller explicitly asked for (reported series with no overlap). That is
	// a client-visible failure, not something to persist as a clean run.
	if runErr != nil {
		writeError(w, http.StatusUnprocessableEntity, "Reconciliation report could not be produced", runErr)
		return
	}

	run := sqlite.Run{
		ID:          fmt.Sprintf("run-%d", time.Now().UnixNano()),
		CreatedAt:   time.Now().UTC(),
		CutoverYear: cfg.CutoverYear,
		Status:      runStatus(result),
	}
	if err := h.Store.SaveRun(ctx, run, result); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to persist run", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRunDTO(run, outcomeStatuses(result)))
}

func parseInputs(req SweepRequest) (sweep.Inputs, error) {
	var in sweep.Inputs
	for i, e := range req.Events {
		date, change, err := parseDatedAmount(e.Date, e.BalanceChange)
		if err != nil {
			return in, fmt.Errorf("events[%d]: %w", i, err)
		}
		in.Events = append(in.Events, loan.Event{Date: date, Change: change})
	}
	for i, rp := range req.Rates {
		date, rate, err := parseDatedAmount(rp.Date, rp.Rate)
		if err != nil {
			return in, fmt.Errorf("rates[%d]: %w", i, err)
		}
		in.Rates = append(in.Rates, loan.RatePoint{Date: date, Rate: rate})
	}
	var err error
	if in.ReportedInterest, err = parseReported("reported_interest", req.ReportedInterest); err != nil {
		return in, err
	}
	if in.ReportedBalances, err = parseReported("reported_balances", req.ReportedBalances); err != nil {
		return in, err
	}
	return in, nil
}

func parseReported(field string, dtos []ReportedDTO) ([]loan.ReportedPoint, error) {
	var out []loan.ReportedPoint
	for i, p := range dtos {
		date, value, err := parseDatedAmount(p.Date, p.Value)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		out = append(out, loan.ReportedPoint{Date: date, Value: value})
	}
	return out, nil
}

func parseDatedAmount(dateStr, amountStr string) (time.Time, decimal.Decimal, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", dateStr)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, fmt.Errorf("invalid amount %q", amountStr)
	}
	return loan.NormalizeDay(date), amount, nil
}

func runStatus(result *sweep.Result) string {
	for _, out := range result.Outcomes {
		if out.Err != nil {
			return "partial"
		}
	}
	return "complete"
}

func outcomeStatuses(result *sweep.Result) []sqlite.ScenarioStatus {
	statuses := make([]sqlite.ScenarioStatus, 0, len(result.Outcomes))
	for _, out := range result.Outcomes {
		st := sqlite.ScenarioStatus{
			Scenario: out.Scenario,
			Suffix:   out.Scenario.Suffix(),
			Status:   "ok",
		}
		if out.Err != nil {
			st.Status = "failed"
			st.Error = out.Err.Error()
		}
		statuses = append(statuses, st)
	}
	return statuses
}

// =============================================================================
// RUN RETRIEVAL
// =============================================================================

// ListRuns returns stored run headers, newest first.
// GET /api/sweeps
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs, err := h.Store.ListRuns(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, 0, len(runs))
	for _, run := range runs {
		dtos = append(dtos, toRunDTO(run, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// GetRun returns one run header with its per-scenario statuses.
// GET /api/sweeps/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	run, statuses, err := h.Store.GetRun(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(*run, statuses))
}

// GetLedger returns a run's merged daily ledger.
// GET /api/sweeps/{id}/ledger
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	merged, err := h.Store.MergedLedger(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get ledger", err)
		return
	}
	if merged == nil || len(merged.Days) == 0 {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return
	}

	resp := LedgerResponse{RunID: id}
	for _, cols := range merged.Columns {
		resp.Scenarios = append(resp.Scenarios, cols.Scenario.Suffix())
	}
	for i, day := range merged.Days {
		row := LedgerRowDTO{
			Date: day.Date.Format("2006-01-02"),
			Rate: day.Rate.String(),
		}
		for _, cols := range merged.Columns {
			row.Values = append(row.Values, ScenarioValueDTO{
				Payment:  cols.Payments[i].String(),
				Interest: cols.Interest[i].String(),
				Balance:  cols.Balance[i].String(),
			})
		}
		resp.Rows = append(resp.Rows, row)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetInterestComparison returns a run's stored interest comparison cells.
// GET /api/sweeps/{id}/interest
func (h *Handler) GetInterestComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if !h.runExists(w, ctx, id) {
		return
	}
	records, err := h.Store.InterestComparison(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get interest comparison", err)
		return
	}

	dtos := make([]InterestCellDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, InterestCellDTO{
			Month:          rec.Month,
			Scenario:       rec.Suffix,
			Calculated:     rec.Calculated,
			Difference:     rec.Difference,
			Reported:       rec.Reported,
			ExactlyMatched: rec.ExactlyMatched,
			Within1Pct:     rec.Within1Pct,
			Within5Pct:     rec.Within5Pct,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "cells": dtos})
}

// GetBalanceComparison returns a run's stored balance comparison cells.
// GET /api/sweeps/{id}/balances
func (h *Handler) GetBalanceComparison(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	if !h.runExists(w, ctx, id) {
		return
	}
	records, err := h.Store.BalanceComparison(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get balance comparison", err)
		return
	}

	dtos := make([]BalanceCellDTO, 0, len(records))
	for _, rec := range records {
		dtos = append(dtos, BalanceCellDTO{
			Date:           rec.Date,
			Scenario:       rec.Suffix,
			Calculated:     rec.Calculated,
			Difference:     rec.Difference,
			Reported:       rec.Reported,
			ExactlyMatched: rec.ExactlyMatched,
			Within1Pct:     rec.Within1Pct,
			Within5Pct:     rec.Within5Pct,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"run_id": id, "cells": dtos})
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ListScenarios describes the assumption sets a default sweep runs.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	cfg := sweep.DefaultConfig()

	dtos := make([]ScenarioDTO, 0)
	for _, sc := range cfg.Scenarios() {
		dto := ScenarioDTO{
			Reallocate: sc.ReallocateEvenly,
			PayDay:     sc.PayDay.String(),
			Suffix:     sc.Suffix(),
		}
		if sc.ReallocateEvenly {
			dto.Description = fmt.Sprintf(
				"Payments divided into twelve equal monthly installments per financial year, dated on the %s day",
				sc.PayDay.String())
		} else {
			dto.Description = "Events applied on their recorded dates"
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, map[string]any{"scenarios": dtos})
}

// =============================================================================
// HELPERS
// =============================================================================

// runExists answers 404/500 itself when the run cannot be served.
func (h *Handler) runExists(w http.ResponseWriter, ctx context.Context, id string) bool {
	run, _, err := h.Store.GetRun(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get run", err)
		return false
	}
	if run == nil {
		writeError(w, http.StatusNotFound, "Run not found", nil)
		return false
	}
	return true
}

func toRunDTO(run sqlite.Run, statuses []sqlite.ScenarioStatus) RunDTO {
	dto := RunDTO{
		ID:          run.ID,
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
		CutoverYear: run.CutoverYear,
		Status:      run.Status,
	}
	for _, st := range statuses {
		dto.Scenarios = append(dto.Scenarios, ScenarioStatusDTO{
			Reallocate: st.Scenario.ReallocateEvenly,
			PayDay:     st.Scenario.PayDay.String(),
			Suffix:     st.Suffix,
			Status:     st.Status,
			Error:      st.Error,
		})
	}
	return dto
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
