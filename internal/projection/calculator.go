package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Round2 rounds an amount to 2 decimal places, half away from zero.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// RateFromPercent converts a whole-number percentage (20) to a fraction (0.2).
func RateFromPercent(pct float64) float64 {
	return decimal.NewFromFloat(pct).Div(hundred).InexactFloat64()
}

// PercentFromRate converts a fraction (0.2) to a percentage (20).
func PercentFromRate(rate float64) float64 {
	return decimal.NewFromFloat(rate).Mul(hundred).Round(4).InexactFloat64()
}

// ValidateRate rejects rates that would drive a budget to zero or below.
func ValidateRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= -1 {
		return fmt.Errorf("%w: %v must be greater than -1", domain.ErrInvalidRate, rate)
	}
	return nil
}

// NextBudget returns current × (1 + rate) rounded to 2 decimals. The
// multiplication is carried out in decimal so the rounding step sees the
// exact product.
func NextBudget(current, rate float64) (float64, error) {
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}
	next := decimal.NewFromFloat(current).Mul(one.Add(decimal.NewFromFloat(rate))).Round(2)
	return next.InexactFloat64(), nil
}

// PeriodsToTarget returns the number of growth steps needed for initial to
// reach target: ceil(log(target/initial) / log(1+rate)). Inputs that can
// never reach the target by growth return ErrUnreachableTarget, so callers
// leave the target fields unset.
func PeriodsToTarget(initial, target, rate float64) (int, error) {
	if err := ValidateRate(rate); err != nil {
		return 0, err
	}
	switch {
	case initial <= 0:
		return 0, fmt.Errorf("%w: initial budget must be positive", domain.ErrUnreachableTarget)
	case target <= initial:
		return 0, fmt.Errorf("%w: target %.2f does not exceed initial %.2f", domain.ErrUnreachableTarget, target, initial)
	case rate <= 0:
		return 0, fmt.Errorf("%w: rate %v does not grow the budget", domain.ErrUnreachableTarget, rate)
	}
	steps := math.Log(target/initial) / math.Log1p(rate)
	// 1e-9 absorbs float error when target is an exact power of (1+rate).
	n := int(math.Ceil(steps - 1e-9))
	if n < 1 {
		n = 1
	}
	return n, nil
}

// EstimatedDate returns start + periods × cadence days.
func EstimatedDate(start time.Time, periods int, cadence domain.Cadence) time.Time {
	return start.AddDate(0, 0, periods*cadence.Days())
}

// ProgressPct returns current/target as a percentage capped at 100. A
// missing or non-positive target yields 0.
func ProgressPct(current float64, target *float64) float64 {
	if target == nil || *target <= 0 {
		return 0
	}
	pct := current / *target * 100
	if pct > 100 {
		pct = 100
	}
	return Round2(pct)
}

// Sum adds amounts in decimal and rounds the total to 2 decimals.
func Sum(amounts ...float64) float64 {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}
	return total.Round(2).InexactFloat64()
}
