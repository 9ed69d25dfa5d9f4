package domain

import "time"

// DateLayout is the ISO date format used on the wire for calendar dates.
const DateLayout = "2006-01-02"

// AuditFields holds standard audit information for domain entities.
// LastUpdatedBy names the component (or "manual") that last touched the row.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// TruncateToDay drops the clock part of t, keeping it in UTC.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonthsClamped advances t by n calendar months. Unlike time.AddDate the
// day is clamped to the last day of the target month, so Jan 31 + 1 month is
// Feb 28/29 rather than early March.
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthIndex maps a date to a monotonically increasing month number, so the
// difference of two indexes is the number of calendar months between them.
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}
