package records

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH - Calendar-month arithmetic for payment periods
// =============================================================================

// Month is a (year, calendar month) pair. Payments are tracked per month;
// all rollover arithmetic walks Months backward and forward across year
// boundaries.
type Month struct {
	Year  int
	Month time.Month
}

func NewMonth(year int, month time.Month) Month {
	return Month{Year: year, Month: month}
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Prev returns the preceding month, rolling January back to December of the
// previous year.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Next returns the following month, rolling December into January of the
// next year.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Comparison
func (m Month) Before(other Month) bool {
	return m.Year < other.Year || (m.Year == other.Year && m.Month < other.Month)
}
func (m Month) After(other Month) bool { return other.Before(m) }
func (m Month) Equal(other Month) bool { return m == other }

// IsValid reports whether the month index is in the calendar range. Year is
// unchecked: sheets edited by hand can legitimately carry any year.
func (m Month) IsValid() bool {
	return m.Month >= time.January && m.Month <= time.December
}

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// WindowEnding returns the n months ending at m inclusive, oldest first.
func WindowEnding(m Month, n int) []Month {
	if n <= 0 {
		return nil
	}
	out := make([]Month, n)
	cur := m
	for i := n - 1; i >= 0; i-- {
		out[i] = cur
		cur = cur.Prev()
	}
	return out
}
