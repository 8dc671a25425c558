/*
accrual.go - Daily compounding accrual engine

PURPOSE:
  Produces the dense daily ledger: one row per calendar day between the
  earliest and latest known dates, with a forward-filled annual rate, the
  day's net payment, the day's accrued interest, and the running balance.

THE RECURRENCE:
  balance[d] = balance[d-1] + payment[d] + balance[d-1] * dailyRate(d)

  where dailyRate(d) = (1 + rate/100)^(1/daysInYear(d.year)) - 1.

  This is inherently sequential: no day's balance can be computed without its
  predecessor. The denominator is the day's own calendar year length, so the
  effective daily rate steps once per year even under a constant annual rate
  (a deliberate simplification, not a day-count-fraction model).

RATE GAPS:
  Days before the first rate observation have no forward-fillable rate.
  The policy is explicit: RateGapFail (default) aborts with MissingRateError;
  RateGapZero accrues no interest over the gap.

PRECISION:
  The daily interest is rounded to 10 decimal places before entering the
  balance. Decimal multiplication is exact, so without a rounding step the
  running balance would grow a new tail of digits every day of a multi-year
  ledger.
*/
package loan

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// interestScale bounds the running balance's digit growth across long ledgers.
const interestScale = 10

// RateGapPolicy decides what happens on days with no forward-fillable rate.
type RateGapPolicy int

const (
	// RateGapFail aborts the simulation with a MissingRateError.
	RateGapFail RateGapPolicy = iota
	// RateGapZero accrues no interest until the first rate observation.
	RateGapZero
)

// AccrualConfig controls the daily accrual engine.
type AccrualConfig struct {
	RateGap RateGapPolicy
}

// Simulate runs the daily compounding recurrence over the complete calendar
// spanned by the events and rates. Events sharing a date contribute their sum
// to that day's payment. Returns one DayRow per day, dates ascending, with
// no gaps and no duplicates. An empty input yields an empty ledger.
func Simulate(events []Event, rates []RatePoint, cfg AccrualConfig) ([]DayRow, error) {
	start, end, ok := calendarSpan(events, rates)
	if !ok {
		return nil, nil
	}

	changeByDay := make(map[time.Time]decimal.Decimal, len(events))
	for _, ev := range events {
		d := NormalizeDay(ev.Date)
		changeByDay[d] = changeByDay[d].Add(ev.Change)
	}

	sorted := make([]RatePoint, len(rates))
	copy(sorted, rates)
	SortRates(sorted)

	var (
		rows     = make([]DayRow, 0, int(end.Sub(start).Hours()/24)+1)
		balance  = decimal.Zero
		rate     decimal.Decimal
		haveRate = false
		next     = 0 // index of the next rate observation to take effect
		daily    dailyRateCache
	)

	for day := start; !day.After(end); day = NextDay(day) {
		for next < len(sorted) && !sorted[next].Date.After(day) {
			rate = sorted[next].Rate
			haveRate = true
			next++
		}

		var interest decimal.Decimal
		switch {
		case haveRate:
			interest = balance.Mul(daily.rateFor(rate, day.Year())).Round(interestScale)
		case cfg.RateGap == RateGapZero:
			// No rate in force yet: accrue nothing.
		default:
			firstRate := time.Time{}
			if len(sorted) > 0 {
				firstRate = sorted[0].Date
			}
			return nil, &MissingRateError{Date: day, FirstRate: firstRate}
		}

		balance = balance.Add(changeByDay[day]).Add(interest)
		rows = append(rows, DayRow{
			Date:     day,
			Payment:  changeByDay[day],
			Rate:     rate,
			Interest: interest,
			Balance:  balance,
		})
	}
	return rows, nil
}

// calendarSpan returns the inclusive [earliest, latest] day covered by the
// inputs, or ok=false when both series are empty.
func calendarSpan(events []Event, rates []RatePoint) (start, end time.Time, ok bool) {
	for _, ev := range events {
		start, end, ok = widen(start, end, ok, NormalizeDay(ev.Date))
	}
	for _, rp := range rates {
		start, end, ok = widen(start, end, ok, NormalizeDay(rp.Date))
	}
	return start, end, ok
}

func widen(start, end time.Time, ok bool, d time.Time) (time.Time, time.Time, bool) {
	if !ok {
		return d, d, true
	}
	if d.Before(start) {
		start = d
	}
	if d.After(end) {
		end = d
	}
	return start, end, true
}

// dailyRateCache memoizes the annual-to-daily conversion, which is constant
// within a (rate, year) pair.
type dailyRateCache struct {
	rate  decimal.Decimal
	year  int
	valid bool
	daily decimal.Decimal
}

func (c *dailyRateCache) rateFor(rate decimal.Decimal, year int) decimal.Decimal {
	if c.valid && c.year == year && c.rate.Equal(rate) {
		return c.daily
	}
	annual, _ := rate.Float64()
	factor := math.Pow(1+annual/100, 1/float64(DaysInYear(year))) - 1
	c.rate, c.year, c.valid = rate, year, true
	c.daily = decimal.NewFromFloat(factor)
	return c.daily
}
