package utils

import (
	"hbs/src/config"
	"hbs/src/types"
	"time"
)

// NormalizeDate strips the time-of-day component, leaving midnight in the
// value's own location. Every date entering the booking path goes through here
// before any arithmetic; comparing raw timestamps across a DST boundary
// produces wrong night counts.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseStayDate reads a calendar date off the wire and normalizes it.
func ParseStayDate(s string) (time.Time, error) {
	t, err := time.Parse(config.DATE_PARSE_FORMAT, s)
	if err != nil {
		return time.Time{}, err
	}
	return NormalizeDate(t), nil
}

// NightsBetween counts the nights in [checkIn, checkOut). Both dates are
// re-anchored to UTC midnight so the subtraction is always a whole number of
// days regardless of the offsets the inputs carried.
func NightsBetween(checkIn, checkOut time.Time) (int64, error) {
	a := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	if !b.After(a) {
		return 0, types.ErrInvalidDateRange
	}
	nights := int64(b.Sub(a) / (24 * time.Hour))
	if nights < 1 {
		nights = 1
	}
	return nights, nil
}

// DatesOverlap is the interval test used for availability: two stays conflict
// when newCheckIn < oldCheckOut AND newCheckOut > oldCheckIn. A stay starting
// on another's check-out day is not a conflict.
func DatesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
