package loan_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// CALENDAR DENSITY TESTS
// =============================================================================

func TestSimulate_DenseGaplessCalendar(t *testing.T) {
	// GIVEN: Sparse events with a multi-week gap between them
	// WHEN: Simulating
	// THEN: Every day between the earliest and latest input dates is present
	events := []loan.Event{
		loan.NewEvent(2020, time.January, 1, dec("1000")),
		loan.NewEvent(2020, time.February, 1, dec("-200")),
	}
	rates := []loan.RatePoint{{Date: loan.Day(2020, time.January, 1), Rate: dec("12")}}

	rows, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 32 {
		t.Fatalf("got %d rows, want 32 (Jan 1 through Feb 1)", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if !rows[i].Date.Equal(loan.NextDay(rows[i-1].Date)) {
			t.Fatalf("calendar gap between %s and %s",
				rows[i-1].Date.Format("2006-01-02"), rows[i].Date.Format("2006-01-02"))
		}
	}
}

func TestSimulate_EmptyInputsYieldEmptyLedger(t *testing.T) {
	rows, err := loan.Simulate(nil, nil, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestSimulate_SameDayEventsSum(t *testing.T) {
	events := []loan.Event{
		loan.NewEvent(2020, time.March, 1, dec("500")),
		loan.NewEvent(2020, time.March, 1, dec("-150")),
	}
	rates := []loan.RatePoint{{Date: loan.Day(2020, time.March, 1), Rate: dec("10")}}

	rows, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if !rows[0].Payment.Equal(dec("350")) {
		t.Errorf("payment = %s, want 350", rows[0].Payment)
	}
	if !rows[0].Balance.Equal(dec("350")) {
		t.Errorf("balance = %s, want 350", rows[0].Balance)
	}
}

// =============================================================================
// RECURRENCE TESTS
// =============================================================================

func TestSimulate_ZeroRateIsPureCumulativeSum(t *testing.T) {
	// At a zero rate the recurrence degenerates to a running sum of payments,
	// which the decimal arithmetic must reproduce exactly.
	events := []loan.Event{
		loan.NewEvent(2021, time.May, 1, dec("1000.55")),
		loan.NewEvent(2021, time.May, 10, dec("-100.05")),
		loan.NewEvent(2021, time.May, 20, dec("-0.50")),
	}
	rates := []loan.RatePoint{{Date: loan.Day(2021, time.May, 1), Rate: dec("0")}}

	rows, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	last := rows[len(rows)-1]
	if !last.Interest.IsZero() {
		t.Errorf("interest = %s, want 0", last.Interest)
	}
	if !last.Balance.Equal(dec("900")) {
		t.Errorf("final balance = %s, want 900", last.Balance)
	}
}

func TestSimulate_MatchesFloatReference(t *testing.T) {
	// GIVEN: A two-month ledger with a mid-stream rate change
	// WHEN: Simulating
	// THEN: Every balance agrees with an independent float64 rendition of the
	//       recurrence to well below a penny
	events := []loan.Event{
		loan.NewEvent(2020, time.January, 1, dec("10000")),
		loan.NewEvent(2020, time.February, 1, dec("-500")),
	}
	rates := []loan.RatePoint{
		{Date: loan.Day(2020, time.January, 1), Rate: dec("12")},
		{Date: loan.Day(2020, time.January, 20), Rate: dec("15")},
	}

	rows, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}

	dailyRate := func(annual float64, year int) float64 {
		return math.Pow(1+annual/100, 1/float64(loan.DaysInYear(year))) - 1
	}
	balance := 0.0
	for i, row := range rows {
		annual, _ := row.Rate.Float64()
		interest := balance * dailyRate(annual, row.Date.Year())
		payment, _ := row.Payment.Float64()
		balance += payment + interest

		got, _ := row.Balance.Float64()
		if math.Abs(got-balance) > 1e-6 {
			t.Fatalf("row %d (%s): balance %v, float reference %v",
				i, row.Date.Format("2006-01-02"), got, balance)
		}
	}
}

func TestSimulate_Deterministic(t *testing.T) {
	events := []loan.Event{
		loan.NewEvent(2020, time.January, 1, dec("10000")),
		loan.NewEvent(2020, time.March, 15, dec("-123.45")),
	}
	rates := []loan.RatePoint{{Date: loan.Day(2020, time.January, 1), Rate: dec("7.5")}}

	first, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for i := range first {
		if !first[i].Balance.Equal(second[i].Balance) || !first[i].Interest.Equal(second[i].Interest) {
			t.Fatalf("run divergence at row %d", i)
		}
	}
}

// =============================================================================
// RATE FORWARD-FILL TESTS
// =============================================================================

func TestSimulate_ForwardFillsRates(t *testing.T) {
	events := []loan.Event{loan.NewEvent(2020, time.January, 1, dec("1000"))}
	rates := []loan.RatePoint{
		{Date: loan.Day(2020, time.January, 1), Rate: dec("10")},
		{Date: loan.Day(2020, time.January, 5), Rate: dec("20")},
	}

	rows, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		want := "10"
		if !row.Date.Before(loan.Day(2020, time.January, 5)) {
			want = "20"
		}
		if !row.Rate.Equal(dec(want)) {
			t.Errorf("%s: rate = %s, want %s", row.Date.Format("2006-01-02"), row.Rate, want)
		}
	}
}

func TestSimulate_RateGapFailsByDefault(t *testing.T) {
	// The earliest event predates the first rate observation.
	events := []loan.Event{loan.NewEvent(2020, time.January, 1, dec("1000"))}
	rates := []loan.RatePoint{{Date: loan.Day(2020, time.January, 10), Rate: dec("10")}}

	_, err := loan.Simulate(events, rates, loan.AccrualConfig{})
	if !errors.Is(err, loan.ErrMissingRate) {
		t.Fatalf("err = %v, want ErrMissingRate", err)
	}

	var mre *loan.MissingRateError
	if !errors.As(err, &mre) {
		t.Fatal("expected *MissingRateError")
	}
	if !mre.Date.Equal(loan.Day(2020, time.January, 1)) {
		t.Errorf("gap day = %s", mre.Date.Format("2006-01-02"))
	}
	if !mre.FirstRate.Equal(loan.Day(2020, time.January, 10)) {
		t.Errorf("first rate = %s", mre.FirstRate.Format("2006-01-02"))
	}
}

func TestSimulate_RateGapZeroAccruesNothing(t *testing.T) {
	events := []loan.Event{loan.NewEvent(2020, time.January, 1, dec("1000"))}
	rates := []loan.RatePoint{{Date: loan.Day(2020, time.January, 10), Rate: dec("10")}}

	rows, err := loan.Simulate(events, rates, loan.AccrualConfig{RateGap: loan.RateGapZero})
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range rows {
		if row.Date.Before(loan.Day(2020, time.January, 10)) {
			if !row.Interest.IsZero() {
				t.Errorf("%s: interest = %s before any rate", row.Date.Format("2006-01-02"), row.Interest)
			}
			if !row.Balance.Equal(dec("1000")) {
				t.Errorf("%s: balance = %s, want 1000", row.Date.Format("2006-01-02"), row.Balance)
			}
		} else if row.Interest.IsZero() {
			t.Errorf("%s: expected interest once the rate is in force", row.Date.Format("2006-01-02"))
		}
	}
}

func TestSimulate_InterestBoundedByAnnualRate(t *testing.T) {
	// One day's interest on a flat balance must sit below the naive
	// annual-rate/365 bound and above zero.
	events := []loan.Event{loan.NewEvent(2021, time.June, 1, dec("10000"))}
	rates := []loan.RatePoint{{Date: loan.Day(2021, time.June, 1), Rate: dec("5")}}
	end := []loan.Event{loan.NewEvent(2021, time.June, 2, decimal.Zero)}

	rows, err := loan.Simulate(append(events, end...), rates, loan.AccrualConfig{})
	if err != nil {
		t.Fatal(err)
	}
	day2 := rows[1].Interest
	if !day2.IsPositive() {
		t.Fatalf("day-2 interest = %s, want > 0", day2)
	}
	// 10000 * 0.05 / 365 ~= 1.37; compounding daily rate is slightly lower.
	if day2.GreaterThan(dec("1.37")) {
		t.Errorf("day-2 interest = %s, want below simple-interest bound", day2)
	}
}
