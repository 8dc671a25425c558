/*
Package sqlite persists completed sweep runs.

PURPOSE:
  Stores each sweep run with its per-scenario statuses, the merged daily
  ledger, and both comparison tables, so that run history survives the
  process and can be served over the API.

KEY TABLES:
  sweep_runs:        One row per executed sweep
  scenario_outcomes: Per-scenario success/failure, ordered as merged
  ledger_days:       Scenario-invariant date/rate spine
  ledger_values:     Per-scenario payments/interest/balance columns
  interest_rows:     Monthly interest comparison cells
  balance_rows:      Point-in-time balance comparison cells

DECIMALS:
  All amounts are stored as TEXT and re-parsed with shopspring/decimal;
  SQLite REAL would reintroduce the floating-point drift the engine avoids.

WAL MODE:
  Opened with WAL for better read concurrency; a run is written inside a
  single database transaction.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
	"github.com/warp/loan-engine/recon"
	"github.com/warp/loan-engine/sweep"
)

// Store persists sweep runs in SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and migrates) the database at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		cutover_year INTEGER NOT NULL,
		status TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scenario_outcomes (
		run_id TEXT NOT NULL REFERENCES sweep_runs(id),
		position INTEGER NOT NULL,
		reallocate INTEGER NOT NULL,
		pay_day TEXT NOT NULL,
		suffix TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		PRIMARY KEY (run_id, suffix)
	);

	CREATE TABLE IF NOT EXISTS ledger_days (
		run_id TEXT NOT NULL REFERENCES sweep_runs(id),
		date TEXT NOT NULL,
		rate TEXT NOT NULL,
		PRIMARY KEY (run_id, date)
	);

	CREATE TABLE IF NOT EXISTS ledger_values (
		run_id TEXT NOT NULL REFERENCES sweep_runs(id),
		suffix TEXT NOT NULL,
		date TEXT NOT NULL,
		payment TEXT NOT NULL,
		interest TEXT NOT NULL,
		balance TEXT NOT NULL,
		PRIMARY KEY (run_id, suffix, date)
	);

	CREATE TABLE IF NOT EXISTS interest_rows (
		run_id TEXT NOT NULL REFERENCES sweep_runs(id),
		month TEXT NOT NULL,
		suffix TEXT NOT NULL,
		calculated TEXT NOT NULL,
		difference TEXT NOT NULL,
		reported TEXT,
		exactly_matched INTEGER NOT NULL,
		within_1_percent INTEGER NOT NULL,
		within_5_percent INTEGER NOT NULL,
		PRIMARY KEY (run_id, month, suffix)
	);

	CREATE TABLE IF NOT EXISTS balance_rows (
		run_id TEXT NOT NULL REFERENCES sweep_runs(id),
		date TEXT NOT NULL,
		suffix TEXT NOT NULL,
		calculated TEXT NOT NULL,
		difference TEXT NOT NULL,
		reported TEXT NOT NULL,
		exactly_matched INTEGER NOT NULL,
		within_1_percent INTEGER NOT NULL,
		within_5_percent INTEGER NOT NULL,
		PRIMARY KEY (run_id, date, suffix)
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_values_run_suffix
		ON ledger_values(run_id, suffix, date);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RUN RECORDS
// =============================================================================

// Run is the stored header of one sweep execution.
type Run struct {
	ID          string
	CreatedAt   time.Time
	CutoverYear int
	Status      string // "complete" or "partial"
}

// ScenarioStatus is one scenario's stored outcome.
type ScenarioStatus struct {
	Scenario loan.Scenario
	Suffix   string
	Status   string // "ok" or "failed"
	Error    string
}

// SaveRun persists a completed sweep atomically.
func (s *Store) SaveRun(ctx context.Context, run Run, result *sweep.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sweep_runs (id, created_at, cutover_year, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339), run.CutoverYear, run.Status,
	); err != nil {
		return err
	}

	for i, out := range result.Outcomes {
		status, errText := "ok", ""
		if out.Err != nil {
			status, errText = "failed", out.Err.Error()
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO scenario_outcomes (run_id, position, reallocate, pay_day, suffix, status, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, boolInt(out.Scenario.ReallocateEvenly), out.Scenario.PayDay.String(),
			out.Scenario.Suffix(), status, errText,
		); err != nil {
			return err
		}
	}

	if result.Merged != nil {
		if err := saveMerged(ctx, tx, run.ID, result.Merged); err != nil {
			return err
		}
	}
	if result.Interest != nil {
		if err := saveInterest(ctx, tx, run.ID, result.Interest); err != nil {
			return err
		}
	}
	if result.Balances != nil {
		if err := saveBalances(ctx, tx, run.ID, result.Balances); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func saveMerged(ctx context.Context, tx *sql.Tx, runID string, m *recon.MergedLedger) error {
	dayStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ledger_days (run_id, date, rate) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer dayStmt.Close()
	valStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ledger_values (run_id, suffix, date, payment, interest, balance)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer valStmt.Close()

	for i, day := range m.Days {
		date := day.Date.Format("2006-01-02")
		if _, err := dayStmt.ExecContext(ctx, runID, date, day.Rate.String()); err != nil {
			return err
		}
		for _, cols := range m.Columns {
			if _, err := valStmt.ExecContext(ctx, runID, cols.Scenario.Suffix(), date,
				cols.Payments[i].String(), cols.Interest[i].String(), cols.Balance[i].String(),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveInterest(ctx context.Context, tx *sql.Tx, runID string, r *recon.InterestReport) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO interest_rows (run_id, month, suffix, calculated, difference, reported,
		 exactly_matched, within_1_percent, within_5_percent) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range r.Rows {
		var reported any
		if row.Reported != nil {
			reported = row.Reported.String()
		}
		for i, cell := range row.Cells {
			if _, err := stmt.ExecContext(ctx, runID, row.Month.String(), r.Scenarios[i].Suffix(),
				cell.Calculated.String(), cell.Difference.String(), reported,
				boolInt(cell.Flags.ExactlyMatched), boolInt(cell.Flags.Within1Pct), boolInt(cell.Flags.Within5Pct),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveBalances(ctx context.Context, tx *sql.Tx, runID string, r *recon.BalanceReport) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO balance_rows (run_id, date, suffix, calculated, difference, reported,
		 exactly_matched, within_1_percent, within_5_percent) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range r.Rows {
		for i, cell := range row.Cells {
			if _, err := stmt.ExecContext(ctx, runID, row.Date.Format("2006-01-02"), r.Scenarios[i].Suffix(),
				cell.Calculated.String(), cell.Difference.String(), row.Reported.String(),
				boolInt(cell.Flags.ExactlyMatched), boolInt(cell.Flags.Within1Pct), boolInt(cell.Flags.Within5Pct),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// =============================================================================
// QUERIES
// =============================================================================

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, cutover_year, status FROM sweep_runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns one run header with its per-scenario statuses, or nil if
// the run does not exist.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []ScenarioStatus, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, cutover_year, status FROM sweep_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT reallocate, pay_day, suffix, status, error FROM scenario_outcomes
		 WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var statuses []ScenarioStatus
	for rows.Next() {
		var (
			reallocate int
			payDay     string
			st         ScenarioStatus
		)
		if err := rows.Scan(&reallocate, &payDay, &st.Suffix, &st.Status, &st.Error); err != nil {
			return nil, nil, err
		}
		pd, err := loan.ParsePayDay(payDay)
		if err != nil {
			return nil, nil, err
		}
		st.Scenario = loan.Scenario{ReallocateEvenly: reallocate != 0, PayDay: pd}
		statuses = append(statuses, st)
	}
	return &run, statuses, rows.Err()
}

// MergedLedger reconstructs a run's merged daily ledger, or nil if the run
// does not exist.
func (s *Store) MergedLedger(ctx context.Context, runID string) (*recon.MergedLedger, error) {
	run, statuses, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, nil
	}

	dayRows, err := s.db.QueryContext(ctx,
		`SELECT date, rate FROM ledger_days WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer dayRows.Close()

	merged := &recon.MergedLedger{}
	dayIndex := make(map[string]int)
	for dayRows.Next() {
		var dateStr, rateStr string
		if err := dayRows.Scan(&dateStr, &rateStr); err != nil {
			return nil, err
		}
		date, rate, err := parseDayRate(dateStr, rateStr)
		if err != nil {
			return nil, err
		}
		dayIndex[dateStr] = len(merged.Days)
		merged.Days = append(merged.Days, recon.MergedDay{Date: date, Rate: rate})
	}
	if err := dayRows.Err(); err != nil {
		return nil, err
	}

	for _, st := range statuses {
		if st.Status != "ok" {
			continue
		}
		cols, err := s.scenarioColumns(ctx, runID, st, dayIndex, len(merged.Days))
		if err != nil {
			return nil, err
		}
		merged.Columns = append(merged.Columns, cols)
	}
	return merged, nil
}

func (s *Store) scenarioColumns(ctx context.Context, runID string, st ScenarioStatus, dayIndex map[string]int, n int) (recon.ScenarioColumns, error) {
	cols := recon.ScenarioColumns{
		Scenario: st.Scenario,
		Payments: make([]decimal.Decimal, n),
		Interest: make([]decimal.Decimal, n),
		Balance:  make([]decimal.Decimal, n),
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, payment, interest, balance FROM ledger_values
		 WHERE run_id = ? AND suffix = ? ORDER BY date`, runID, st.Suffix)
	if err != nil {
		return recon.ScenarioColumns{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var dateStr, payment, interest, balance string
		if err := rows.Scan(&dateStr, &payment, &interest, &balance); err != nil {
			return recon.ScenarioColumns{}, err
		}
		i, ok := dayIndex[dateStr]
		if !ok {
			return recon.ScenarioColumns{}, fmt.Errorf("ledger value for unknown day %s", dateStr)
		}
		if cols.Payments[i], err = decimal.NewFromString(payment); err != nil {
			return recon.ScenarioColumns{}, err
		}
		if cols.Interest[i], err = decimal.NewFromString(interest); err != nil {
			return recon.ScenarioColumns{}, err
		}
		if cols.Balance[i], err = decimal.NewFromString(balance); err != nil {
			return recon.ScenarioColumns{}, err
		}
	}
	return cols, rows.Err()
}

func scanRun(row interface{ Scan(...any) error }) (Run, error) {
	var (
		run       Run
		createdAt string
	)
	if err := row.Scan(&run.ID, &createdAt, &run.CutoverYear, &run.Status); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return Run{}, err
	}
	run.CreatedAt = t
	return run, nil
}

func parseDayRate(dateStr, rateStr string) (time.Time, decimal.Decimal, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, err
	}
	rate, err := decimal.NewFromString(rateStr)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, err
	}
	return loan.NormalizeDay(date), rate, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// =============================================================================
// FLAT COMPARISON RECORDS - For serving stored reports without rebuilding
// =============================================================================

// InterestRecord is one stored interest comparison cell.
type InterestRecord struct {
	Month          string
	Suffix         string
	Calculated     string
	Difference     string
	Reported       *string
	ExactlyMatched bool
	Within1Pct     bool
	Within5Pct     bool
}

// BalanceRecord is one stored balance comparison cell.
type BalanceRecord struct {
	Date           string
	Suffix         string
	Calculated     string
	Difference     string
	Reported       string
	ExactlyMatched bool
	Within1Pct     bool
	Within5Pct     bool
}

// InterestComparison returns a run's stored interest comparison cells.
func (s *Store) InterestComparison(ctx context.Context, runID string) ([]InterestRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month, suffix, calculated, difference, reported,
		        exactly_matched, within_1_percent, within_5_percent
		 FROM interest_rows WHERE run_id = ? ORDER BY month, suffix`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InterestRecord
	for rows.Next() {
		var (
			rec                     InterestRecord
			exact, within1, within5 int
		)
		if err := rows.Scan(&rec.Month, &rec.Suffix, &rec.Calculated, &rec.Difference,
			&rec.Reported, &exact, &within1, &within5); err != nil {
			return nil, err
		}
		rec.ExactlyMatched = exact != 0
		rec.Within1Pct = within1 != 0
		rec.Within5Pct = within5 != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// BalanceComparison returns a run's stored balance comparison cells.
func (s *Store) BalanceComparison(ctx context.Context, runID string) ([]BalanceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT date, suffix, calculated, difference, reported,
		        exactly_matched, within_1_percent, within_5_percent
		 FROM balance_rows WHERE run_id = ? ORDER BY date, suffix`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BalanceRecord
	for rows.Next() {
		var (
			rec                     BalanceRecord
			exact, within1, within5 int
		)
		if err := rows.Scan(&rec.Date, &rec.Suffix, &rec.Calculated, &rec.Difference,
			&rec.Reported, &exact, &within1, &within5); err != nil {
			return nil, err
		}
		rec.ExactlyMatched = exact != 0
		rec.Within1Pct = within1 != 0
		rec.Within5Pct = within5 != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}
