package lib

// Split-billing bounds. The original flow let a single person "split" and
// allowed parties of 50; billing settled on 2..20 as the supported range.
const (
	MinSplitPersons = 2
	MaxSplitPersons = 20
)

// ComputeSplitCharge derives the per-person charge for splitting an order's
// residual between persons payers: floor(residual / persons).
//
// Floor division means the n individual charges can fall short of the residual
// by up to persons-1 cents. That shortfall is intentional and stays on the
// order's residual; the last payer is never auto-adjusted to absorb it.
func ComputeSplitCharge(residualCents int64, persons int) (int64, error) {
	if persons < MinSplitPersons || persons > MaxSplitPersons {
		return 0, ErrInvalidSplit
	}
	amount := residualCents / int64(persons)
	if amount <= 0 {
		return 0, ErrInvalidSplitAmount
	}
	return amount, nil
}
