/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes exchanged with clients. Amounts travel as strings so that
  decimal values survive the wire without float rounding; parsing into
  decimals happens at this boundary only.

SEE ALSO:
  - handlers.go: Handlers that produce/consume these
*/
package api

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// SWEEP REQUEST
// =============================================================================

// EventDTO is one ledger event.
type EventDTO struct {
	Date          string `json:"date"`
	BalanceChange string `json:"balance_change"`
}

// RateDTO is one annual interest rate change point.
type RateDTO struct {
	Date string `json:"date"`
	Rate string `json:"rate"`
}

// ReportedDTO is one reported figure (monthly interest or point balance).
type ReportedDTO struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// SweepRequest carries the inputs of one sweep. Reported series are optional.
type SweepRequest struct {
	CutoverYear      *int          `json:"cutover_year,omitempty"`
	PayDays          []string      `json:"pay_days,omitempty"` // "first", "last", or a day number
	ZeroRateGaps     bool          `json:"zero_rate_gaps,omitempty"`
	Events           []EventDTO    `json:"events"`
	Rates            []RateDTO     `json:"rates"`
	ReportedInterest []ReportedDTO `json:"reported_interest,omitempty"`
	ReportedBalances []ReportedDTO `json:"reported_balances,omitempty"`
}

// =============================================================================
// RUN RESPONSES
// =============================================================================

// ScenarioStatusDTO is one scenario's outcome within a run.
type ScenarioStatusDTO struct {
	Reallocate bool   `json:"reallocate"`
	PayDay     string `json:"pay_day"`
	Suffix     string `json:"suffix"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

// RunDTO is a stored sweep run.
type RunDTO struct {
	ID          string              `json:"id"`
	CreatedAt   string              `json:"created_at"`
	CutoverYear int                 `json:"cutover_year"`
	Status      string              `json:"status"`
	Scenarios   []ScenarioStatusDTO `json:"scenarios,omitempty"`
}

// ScenarioValueDTO is one scenario's figures for one ledger day.
type ScenarioValueDTO struct {
	Payment  string `json:"payment"`
	Interest string `json:"interest"`
	Balance  string `json:"balance"`
}

// LedgerRowDTO is one day of the merged ledger; Values is parallel to the
// response's scenario list.
type LedgerRowDTO struct {
	Date   string             `json:"date"`
	Rate   string             `json:"annual_interest_rate"`
	Values []ScenarioValueDTO `json:"values"`
}

// LedgerResponse is the merged daily ledger of a run.
type LedgerResponse struct {
	RunID     string         `json:"run_id"`
	Scenarios []string       `json:"scenarios"`
	Rows      []LedgerRowDTO `json:"rows"`
}

// InterestCellDTO is one stored interest comparison cell.
type InterestCellDTO struct {
	Month          string  `json:"month"`
	Scenario       string  `json:"scenario"`
	Calculated     string  `json:"calculated"`
	Difference     string  `json:"difference"`
	Reported       *string `json:"reported,omitempty"`
	ExactlyMatched bool    `json:"exactly_matched"`
	Within1Pct     bool    `json:"within_1_percent"`
	Within5Pct     bool    `json:"within_5_percent"`
}

// BalanceCellDTO is one stored balance comparison cell.
type BalanceCellDTO struct {
	Date           string `json:"date"`
	Scenario       string `json:"scenario"`
	Calculated     string `json:"calculated"`
	Difference     string `json:"difference"`
	Reported       string `json:"reported"`
	ExactlyMatched bool   `json:"exactly_matched"`
	Within1Pct     bool   `json:"within_1_percent"`
	Within5Pct     bool   `json:"within_5_percent"`
}

// ScenarioDTO describes one assumption set the sweep can run.
type ScenarioDTO struct {
	Reallocate  bool   `json:"reallocate"`
	PayDay      string `json:"pay_day"`
	Suffix      string `json:"suffix"`
	Description string `json:"description"`
}
