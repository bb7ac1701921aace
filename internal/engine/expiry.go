package engine

import "time"

// DeletedAt returns the instant a map becomes eligible for deletion: the
// newest node modification, or the map's own last-modified time when the map
// has no nodes, plus windowDays calendar days. Calendar arithmetic is done
// in UTC, so the result lands on the same wall-clock time windowDays later
// regardless of month length.
func DeletedAt(mapLastModified int64, newestNodeChange *int64, windowDays int) time.Time {
	base := mapLastModified
	if newestNodeChange != nil {
		base = *newestNodeChange
	}
	return time.UnixMilli(base).UTC().AddDate(0, 0, windowDays)
}
