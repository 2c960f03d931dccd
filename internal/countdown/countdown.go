// Package countdown computes the number of days until the next occurrence of
// a calendar date. It is a pure utility: callers pass in "today" explicitly,
// so nothing here touches the clock or any request state.
package countdown

import "time"

// Days returns the number of whole days from today until the next
// same-or-future occurrence of birthDate's month/day. If the occurrence is
// today, the result is 0; if it already passed this year, the count wraps to
// next year's occurrence.
//
// Leap-day policy: a Feb 29 birth date in a non-leap year normalizes to
// Mar 1, which is time.Date's natural overflow behavior. In leap years it
// stays on Feb 29.
//
// Both arguments are truncated to their calendar date; time-of-day and
// location offsets within a day do not affect the result.
func Days(birthDate, today time.Time) int {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)

	next := time.Date(today.Year(), birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, birthDate.Month(), birthDate.Day(), 0, 0, 0, 0, time.UTC)
	}

	return int(next.Sub(today).Hours() / 24)
}
