package recon

import "github.com/shopspring/decimal"

var (
	onePercent  = decimal.NewFromFloat(0.01)
	fivePercent = decimal.NewFromFloat(0.05)
)

// ToleranceFlags grade how closely a calculated figure matches a reported one.
// Within1Pct true implies Within5Pct true.
type ToleranceFlags struct {
	ExactlyMatched bool
	Within1Pct     bool
	Within5Pct     bool
}

// CompareTolerance derives the flags for one calculated/reported pair.
// A zero reported value makes the relative bands undefined; both resolve to
// false rather than dividing by zero.
func CompareTolerance(calculated, reported decimal.Decimal) ToleranceFlags {
	flags := ToleranceFlags{ExactlyMatched: calculated.Equal(reported)}
	if reported.IsZero() {
		return flags
	}
	relative := calculated.Sub(reported).Abs().Div(reported.Abs())
	flags.Within1Pct = relative.LessThan(onePercent)
	flags.Within5Pct = relative.LessThan(fivePercent)
	return flags
}
