package loan_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/loan-engine/loan"
)

// =============================================================================
// PAY DAY TESTS
// =============================================================================

func TestPayDay_DateIn(t *testing.T) {
	first, err := loan.PayDayFirst.DateIn(2021, time.June)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	if !first.Equal(loan.Day(2021, time.June, 1)) {
		t.Errorf("first = %s", first.Format("2006-01-02"))
	}

	last, err := loan.PayDayLast.DateIn(2020, time.February)
	if err != nil {
		t.Fatalf("last: %v", err)
	}
	if !last.Equal(loan.Day(2020, time.February, 29)) {
		t.Errorf("last = %s", last.Format("2006-01-02"))
	}

	pinned, err := loan.PayDayOn(15).DateIn(2021, time.June)
	if err != nil {
		t.Fatalf("pinned: %v", err)
	}
	if !pinned.Equal(loan.Day(2021, time.June, 15)) {
		t.Errorf("pinned = %s", pinned.Format("2006-01-02"))
	}
}

func TestPayDay_DateIn_NonexistentDayFails(t *testing.T) {
	// GIVEN: Installments pinned to the 31st
	// WHEN: The target month has only 30 days
	// THEN: The scenario fails with a date construction error; no clamping
	_, err := loan.PayDayOn(31).DateIn(2021, time.April)
	if !errors.Is(err, loan.ErrDateConstruction) {
		t.Fatalf("err = %v, want ErrDateConstruction", err)
	}

	var dce *loan.DateConstructionError
	if !errors.As(err, &dce) {
		t.Fatal("expected *DateConstructionError")
	}
	if dce.Year != 2021 || dce.Month != time.April || dce.Day != 31 {
		t.Errorf("error context = %+v", dce)
	}
}

func TestPayDay_DateIn_UnsetFails(t *testing.T) {
	if _, err := loan.PayDayUnset.DateIn(2021, time.June); err == nil {
		t.Fatal("unset pay day must not resolve to a date")
	}
}

func TestParsePayDay(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"first", "first"},
		{"last", "last"},
		{"15", "15"},
		{"none", "none"},
		{"", "none"},
	}
	for _, c := range cases {
		pd, err := loan.ParsePayDay(c.in)
		if err != nil {
			t.Errorf("ParsePayDay(%q): %v", c.in, err)
			continue
		}
		if pd.String() != c.want {
			t.Errorf("ParsePayDay(%q).String() = %q, want %q", c.in, pd.String(), c.want)
		}
	}

	for _, bad := range []string{"0", "32", "-1", "mid-month"} {
		if _, err := loan.ParsePayDay(bad); err == nil {
			t.Errorf("ParsePayDay(%q) should fail", bad)
		}
	}
}

// =============================================================================
// SCENARIO IDENTITY TESTS
// =============================================================================

func TestScenario_Suffix(t *testing.T) {
	cases := []struct {
		scenario loan.Scenario
		want     string
	}{
		{
			loan.Scenario{ReallocateEvenly: false, PayDay: loan.PayDayUnset},
			"_assume_pay_none",
		},
		{
			loan.Scenario{ReallocateEvenly: true, PayDay: loan.PayDayFirst},
			"_payments_divided_equally_over_tax_year_assume_pay_first",
		},
		{
			loan.Scenario{ReallocateEvenly: true, PayDay: loan.PayDayLast},
			"_payments_divided_equally_over_tax_year_assume_pay_last",
		},
		{
			loan.Scenario{ReallocateEvenly: true, PayDay: loan.PayDayOn(28)},
			"_payments_divided_equally_over_tax_year_assume_pay_28",
		},
	}
	for _, c := range cases {
		if got := c.scenario.Suffix(); got != c.want {
			t.Errorf("Suffix() = %q, want %q", got, c.want)
		}
	}
}

func TestEnumerateScenarios_BaselineFirst(t *testing.T) {
	scenarios := loan.EnumerateScenarios([]loan.PayDay{loan.PayDayFirst, loan.PayDayLast})

	if len(scenarios) != 3 {
		t.Fatalf("got %d scenarios, want 3", len(scenarios))
	}
	if scenarios[0].ReallocateEvenly || !scenarios[0].PayDay.IsUnset() {
		t.Errorf("baseline = %+v", scenarios[0])
	}
	if !scenarios[1].ReallocateEvenly || scenarios[1].PayDay.String() != "first" {
		t.Errorf("second = %+v", scenarios[1])
	}
	if !scenarios[2].ReallocateEvenly || scenarios[2].PayDay.String() != "last" {
		t.Errorf("third = %+v", scenarios[2])
	}
}

func TestEnumerateScenarios_SkipsUnsetPayDays(t *testing.T) {
	scenarios := loan.EnumerateScenarios([]loan.PayDay{loan.PayDayUnset})
	if len(scenarios) != 1 {
		t.Fatalf("got %d scenarios, want just the baseline", len(scenarios))
	}
}
