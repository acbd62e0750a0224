package budget

import (
	"fmt"
	"time"
)

// Period identifies one month of budget data. Month is 0-based (0 = January)
// to match the persisted snapshot; the string key is 1-based.
type Period struct {
	Year  int
	Month int
}

// Valid reports whether the period's month is in [0, 11].
func (p Period) Valid() bool {
	return p.Month >= 0 && p.Month <= 11
}

// Key returns the canonical "YYYY-MM" key (month 1-indexed, zero-padded)
// used to partition income entries.
func (p Period) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month+1)
}

// Label returns a human-readable label such as "January 2025".
func (p Period) Label() string {
	return time.Date(p.Year, time.Month(p.Month+1), 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// currentPeriod returns the calendar period for the given instant.
func currentPeriod(now time.Time) Period {
	return Period{Year: now.Year(), Month: int(now.Month()) - 1}
}
