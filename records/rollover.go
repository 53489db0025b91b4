/*
rollover.go - Payment rollover computation

PURPOSE:
  Resolves which of the last RolloverWindowMonths months are unpaid for one
  entity, and what they add up to. Pure function over payment records: no
  I/O, no clock reads, deterministic for identical inputs.

RESOLUTION RULES (per month, walking back from the reference month):
  - no stored record          -> Pending at the default amount
  - stored record, not Paid   -> Pending at the record's amount, falling
                                 back to the default when the stored amount
                                 is not positive
  - stored record, Paid       -> not pending

SEE ALSO:
  - month.go: window iteration
  - store/xlsx: feeds this from the cached payment snapshot
*/
package records

import "github.com/shopspring/decimal"

// RolloverWindowMonths is the fixed lookback for pending-month computation.
const RolloverWindowMonths = 24

// PendingMonth is one unpaid period and the amount owed for it.
type PendingMonth struct {
	Month  Month
	Amount decimal.Decimal
}

// PendingMonths returns the unpaid months for one entity within the window
// ending at asOf inclusive, oldest first, plus their total. recs may contain
// records for other entities or months outside the window; they are ignored.
func PendingMonths(recs []PaymentRecord, entityID EntityID, asOf Month, defaultAmount decimal.Decimal) ([]PendingMonth, decimal.Decimal) {
	byMonth := make(map[Month]PaymentRecord, len(recs))
	for _, r := range recs {
		if r.EntityID == entityID {
			byMonth[r.Month] = r
		}
	}

	var pending []PendingMonth
	total := decimal.Zero
	for _, m := range WindowEnding(asOf, RolloverWindowMonths) {
		rec, ok := byMonth[m]
		if ok && rec.Status.IsPaid() {
			continue
		}
		amount := defaultAmount
		if ok && rec.Amount.IsPositive() {
			amount = rec.Amount
		}
		pending = append(pending, PendingMonth{Month: m, Amount: amount})
		total = total.Add(amount)
	}
	return pending, total
}
