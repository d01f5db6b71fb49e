// Package roundup computes the savings contribution for a payment amount.
//
// Increment selectors ("10", "50", "100") denominate whole currency units and
// map to minor units by multiplying by 100, so selector "10" rounds payments
// up to the next multiple of 1000 kobo. Auto-mode bounds are already minor
// units since the analysis service writes them that way.
package roundup

import (
	"math"
	"strconv"

	"kobo/internal/models"
)

// MinorUnitsPerUnit converts a literal increment selector to minor units.
const MinorUnitsPerUnit = 100

// DefaultAutoIncrement is used when an auto-mode rule carries no bounds.
const DefaultAutoIncrement int64 = 1000

// IncrementDisabled is reported when no rule applies.
const IncrementDisabled = "disabled"

// Result is the outcome of a round-up computation.
type Result struct {
	RoundUpAmount int64
	IncrementUsed string
}

// Compute returns the round-up contribution for amount under rule. The result
// is 0 when the rule is nil or disabled, and for increment-based modes is
// always in [0, increment). An amount already on an increment boundary yields
// exactly 0, which callers treat as "no round-up transaction", not an error.
func Compute(amount int64, rule *models.RoundUpRule) Result {
	if amount <= 0 || rule == nil || !rule.IsEnabled {
		return Result{RoundUpAmount: 0, IncrementUsed: IncrementDisabled}
	}

	switch rule.IncrementType {
	case models.IncrementTypePercentage:
		pct := rule.PercentageValue
		if pct <= 0 {
			return Result{RoundUpAmount: 0, IncrementUsed: IncrementDisabled}
		}
		contribution := int64(math.Round(float64(amount) * pct / 100))
		return Result{RoundUpAmount: contribution, IncrementUsed: models.IncrementTypePercentage}

	case models.IncrementTypeAuto:
		increment := rule.AutoSettings.MaxIncrement
		if increment <= 0 {
			increment = rule.AutoSettings.MinIncrement
		}
		if increment <= 0 {
			increment = DefaultAutoIncrement
		}
		return Result{
			RoundUpAmount: toNextMultiple(amount, increment),
			IncrementUsed: strconv.FormatInt(increment, 10),
		}

	default:
		units, err := strconv.ParseInt(rule.IncrementType, 10, 64)
		if err != nil || units <= 0 {
			return Result{RoundUpAmount: 0, IncrementUsed: IncrementDisabled}
		}
		increment := units * MinorUnitsPerUnit
		return Result{
			RoundUpAmount: toNextMultiple(amount, increment),
			IncrementUsed: rule.IncrementType,
		}
	}
}

// toNextMultiple returns the distance from amount up to the next multiple of
// increment, in [0, increment).
func toNextMultiple(amount, increment int64) int64 {
	remainder := amount % increment
	if remainder == 0 {
		return 0
	}
	return increment - remainder
}
