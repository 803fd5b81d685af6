package expiration

import (
	"fmt"
	"time"
)

// formatDistance renders the absolute distance between two instants in the
// largest sensible unit, e.g. "about 1 month", "5 days", "3 hours". Used in
// notification wording; past-due documents read the same as upcoming ones,
// matching the historical alert text.
func formatDistance(t, from time.Time) string {
	d := t.Sub(from)
	if d < 0 {
		d = -d
	}

	const (
		day   = 24 * time.Hour
		month = 30 * day
	)

	switch {
	case d >= 2*month:
		return fmt.Sprintf("about %d months", (d+month/2)/month)
	case d >= 45*day:
		return "about 2 months"
	case d >= 25*day:
		return "about 1 month"
	case d >= 2*day:
		return fmt.Sprintf("%d days", (d+day/2)/day)
	case d >= 22*time.Hour:
		return "1 day"
	case d >= 2*time.Hour:
		return fmt.Sprintf("about %d hours", (d+time.Hour/2)/time.Hour)
	case d >= 45*time.Minute:
		return "about 1 hour"
	case d >= 2*time.Minute:
		return fmt.Sprintf("%d minutes", (d+time.Minute/2)/time.Minute)
	default:
		return "less than a minute"
	}
}
