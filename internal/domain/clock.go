package domain

import "time"

// Now returns the current UTC time truncated to microseconds, the precision
// of the TIMESTAMPTZ columns.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
