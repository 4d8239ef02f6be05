package conservation

import "github.com/atlas12288/atlas/modring"

// Budget policy: the counter lives in [0, 95] at every observation point.
// Alloc fails on overdraw instead of wrapping; Release fails (hard bound at
// 95, not saturation) instead of wrapping past the representable range.
// Both are CAS retry loops, so the read-check-update is one atomic unit and
// calls linearize per domain.

// Budget returns the current budget value, always in [0, 95].
func (d *Domain) Budget() uint8 {
	return uint8(d.budget.Load())
}

// AllocBudget atomically subtracts amount (reduced mod 96) from the budget.
// Fails with CodeBudget if the reduced amount exceeds the current budget;
// on failure the budget is unchanged.
func (d *Domain) AllocBudget(amount uint8) error {
	a := int32(amount % modring.Modulus)
	for {
		cur := d.budget.Load()
		if a > cur {
			return newError(CodeBudget, "budget_alloc", "insufficient budget: have %d, need %d", cur, a)
		}
		if d.budget.CompareAndSwap(cur, cur-a) {
			return nil
		}
	}
}

// ReleaseBudget atomically adds amount (reduced mod 96) back to the budget.
// Fails with CodeBudget if the result would exceed 95; on failure the
// budget is unchanged. The bound is the ring range, not the original budget
// class, so release can restore more than was ever allocated as long as the
// counter stays representable.
func (d *Domain) ReleaseBudget(amount uint8) error {
	a := int32(amount % modring.Modulus)
	for {
		cur := d.budget.Load()
		next := cur + a
		if next >= modring.Modulus {
			return newError(CodeBudget, "budget_release", "release of %d would push budget %d past %d", a, cur, modring.Modulus-1)
		}
		if d.budget.CompareAndSwap(cur, next) {
			return nil
		}
	}
}
