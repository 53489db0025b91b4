package records_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolworks/records-engine/records"
)

func paid(id string, y int, m time.Month, amount float64) records.PaymentRecord {
	return records.PaymentRecord{
		EntityID: records.EntityID(id),
		Month:    records.NewMonth(y, m),
		Status:   records.StatusPaid,
		Amount:   decimal.NewFromFloat(amount),
	}
}

func pendingRec(id string, y int, m time.Month, amount float64) records.PaymentRecord {
	return records.PaymentRecord{
		EntityID: records.EntityID(id),
		Month:    records.NewMonth(y, m),
		Status:   records.StatusPending,
		Amount:   decimal.NewFromFloat(amount),
	}
}

func TestPendingMonths_NoRecords_FullWindowAtDefault(t *testing.T) {
	// GIVEN: no payment records at all, default amount 100
	// WHEN: rolling over as of 2025-03
	// THEN: all 24 months 2023-04..2025-03 pend at 100, total 2400

	asOf := records.NewMonth(2025, time.March)
	pending, total := records.PendingMonths(nil, "STU-0001", asOf, decimal.NewFromInt(100))

	require.Len(t, pending, 24)
	assert.Equal(t, records.NewMonth(2023, time.April), pending[0].Month)
	assert.Equal(t, records.NewMonth(2025, time.March), pending[23].Month)
	for _, p := range pending {
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(100)))
	}
	assert.True(t, total.Equal(decimal.NewFromInt(2400)), "total = %s", total)
}

func TestPendingMonths_PaidMonthsExcluded(t *testing.T) {
	recs := []records.PaymentRecord{
		paid("STU-0001", 2025, time.February, 100),
		paid("STU-0001", 2025, time.March, 100),
	}

	pending, total := records.PendingMonths(recs, "STU-0001", records.NewMonth(2025, time.March), decimal.NewFromInt(100))

	assert.Len(t, pending, 22)
	assert.True(t, total.Equal(decimal.NewFromInt(2200)))
	for _, p := range pending {
		assert.NotEqual(t, records.NewMonth(2025, time.February), p.Month)
		assert.NotEqual(t, records.NewMonth(2025, time.March), p.Month)
	}
}

func TestPendingMonths_StoredPendingKeepsOwnAmount(t *testing.T) {
	// A stored non-Paid record pends at its own amount, not the default.
	recs := []records.PaymentRecord{
		pendingRec("STU-0001", 2025, time.March, 150),
	}

	pending, _ := records.PendingMonths(recs, "STU-0001", records.NewMonth(2025, time.March), decimal.NewFromInt(100))

	require.Len(t, pending, 24)
	last := pending[23]
	assert.Equal(t, records.NewMonth(2025, time.March), last.Month)
	assert.True(t, last.Amount.Equal(decimal.NewFromInt(150)))
}

func TestPendingMonths_NonPositiveStoredAmountFallsBackToDefault(t *testing.T) {
	recs := []records.PaymentRecord{
		pendingRec("STU-0001", 2025, time.March, 0),
	}

	pending, _ := records.PendingMonths(recs, "STU-0001", records.NewMonth(2025, time.March), decimal.NewFromInt(100))

	require.Len(t, pending, 24)
	assert.True(t, pending[23].Amount.Equal(decimal.NewFromInt(100)))
}

func TestPendingMonths_IgnoresOtherEntitiesAndOutOfWindowMonths(t *testing.T) {
	recs := []records.PaymentRecord{
		paid("STU-0002", 2025, time.March, 100),    // other entity
		paid("STU-0001", 2020, time.January, 100),  // outside the window
	}

	pending, total := records.PendingMonths(recs, "STU-0001", records.NewMonth(2025, time.March), decimal.NewFromInt(100))

	assert.Len(t, pending, 24)
	assert.True(t, total.Equal(decimal.NewFromInt(2400)))
}

func TestPendingMonths_CaseInsensitivePaidStatus(t *testing.T) {
	recs := []records.PaymentRecord{
		{EntityID: "STU-0001", Month: records.NewMonth(2025, time.March), Status: "paid", Amount: decimal.NewFromInt(100)},
		{EntityID: "STU-0001", Month: records.NewMonth(2025, time.February), Status: "PAID", Amount: decimal.NewFromInt(100)},
	}

	pending, _ := records.PendingMonths(recs, "STU-0001", records.NewMonth(2025, time.March), decimal.NewFromInt(100))

	assert.Len(t, pending, 22)
}

func TestPendingMonths_Deterministic(t *testing.T) {
	recs := []records.PaymentRecord{
		paid("STU-0001", 2024, time.July, 100),
		pendingRec("STU-0001", 2024, time.August, 80),
	}
	asOf := records.NewMonth(2025, time.March)
	def := decimal.NewFromInt(100)

	first, firstTotal := records.PendingMonths(recs, "STU-0001", asOf, def)
	second, secondTotal := records.PendingMonths(recs, "STU-0001", asOf, def)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Month, second[i].Month)
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}
	assert.True(t, firstTotal.Equal(secondTotal))
}

func TestPendingMonths_RoundTrip_MarkingAllPaidClearsPending(t *testing.T) {
	// GIVEN: a mixed record set with some pending months
	recs := []records.PaymentRecord{
		paid("STU-0001", 2024, time.December, 100),
		pendingRec("STU-0001", 2025, time.January, 120),
	}
	asOf := records.NewMonth(2025, time.March)
	def := decimal.NewFromInt(100)

	pending, _ := records.PendingMonths(recs, "STU-0001", asOf, def)
	require.NotEmpty(t, pending)

	// WHEN: every returned month is marked Paid at the listed amount
	marked := recs
	for _, p := range pending {
		marked = append(marked, records.PaymentRecord{
			EntityID: "STU-0001",
			Month:    p.Month,
			Status:   records.StatusPaid,
			Amount:   p.Amount,
		})
	}

	// THEN: re-running rollover yields no pending months
	after, total := records.PendingMonths(marked, "STU-0001", asOf, def)
	assert.Empty(t, after)
	assert.True(t, total.IsZero())
}
