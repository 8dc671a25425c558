package loan

import (
	"fmt"
	"strconv"
	"time"
)

// =============================================================================
// PAY DAY - Which day of the month reallocated installments land on
// =============================================================================

type payDayKind int

const (
	payDayUnset payDayKind = iota
	payDayFirst
	payDayLast
	payDayExplicit
)

// PayDay is the assumed day-of-month for reallocated monthly installments.
// The zero value is "unset" (no assumption; only valid when reallocation is
// disabled).
type PayDay struct {
	kind payDayKind
	day  int
}

var (
	PayDayUnset = PayDay{}
	PayDayFirst = PayDay{kind: payDayFirst}
	PayDayLast  = PayDay{kind: payDayLast}
)

// PayDayOn pins installments to an explicit day-of-month. Days exceeding the
// target month's length are not clamped; DateIn fails for them.
func PayDayOn(day int) PayDay {
	return PayDay{kind: payDayExplicit, day: day}
}

func (p PayDay) IsUnset() bool { return p.kind == payDayUnset }

// DateIn resolves the installment date within the given month.
func (p PayDay) DateIn(year int, month time.Month) (time.Time, error) {
	switch p.kind {
	case payDayFirst:
		return Day(year, month, 1), nil
	case payDayLast:
		return MonthEnd(year, month), nil
	case payDayExplicit:
		if p.day < 1 || p.day > DaysInMonth(year, month) {
			return time.Time{}, &DateConstructionError{Year: year, Month: month, Day: p.day}
		}
		return Day(year, month, p.day), nil
	default:
		return time.Time{}, &DateConstructionError{Year: year, Month: month, Day: 0}
	}
}

func (p PayDay) String() string {
	switch p.kind {
	case payDayFirst:
		return "first"
	case payDayLast:
		return "last"
	case payDayExplicit:
		return strconv.Itoa(p.day)
	default:
		return "none"
	}
}

// ParsePayDay parses "none", "first", "last", or a day number.
func ParsePayDay(s string) (PayDay, error) {
	switch s {
	case "", "none":
		return PayDayUnset, nil
	case "first":
		return PayDayFirst, nil
	case "last":
		return PayDayLast, nil
	}
	day, err := strconv.Atoi(s)
	if err != nil || day < 1 || day > 31 {
		return PayDay{}, fmt.Errorf("invalid pay day %q", s)
	}
	return PayDayOn(day), nil
}

// =============================================================================
// SCENARIO - One assumption set in the sweep
// =============================================================================

// Scenario is a pure configuration value: whether historical repayments are
// reallocated into even monthly installments, and if so, which day of the
// month they are assumed to land on. Scenario identity is this value; the
// Suffix is derived formatting for column naming only.
type Scenario struct {
	ReallocateEvenly bool
	PayDay           PayDay
}

// Suffix returns the deterministic label appended to every derived output
// column of this scenario, e.g.
// "_payments_divided_equally_over_tax_year_assume_pay_last".
func (s Scenario) Suffix() string {
	suffix := ""
	if s.ReallocateEvenly {
		suffix += "_payments_divided_equally_over_tax_year"
	}
	return suffix + "_assume_pay_" + s.PayDay.String()
}

func (s Scenario) String() string { return s.Suffix() }

// EnumerateScenarios builds the sweep's scenario set: the raw-events baseline
// (no reallocation, pay day unset) followed by one reallocation scenario per
// supplied pay-day assumption. Output order is deterministic.
func EnumerateScenarios(payDays []PayDay) []Scenario {
	scenarios := []Scenario{{ReallocateEvenly: false, PayDay: PayDayUnset}}
	for _, pd := range payDays {
		if pd.IsUnset() {
			continue
		}
		scenarios = append(scenarios, Scenario{ReallocateEvenly: true, PayDay: pd})
	}
	return scenarios
}
