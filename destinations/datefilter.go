package destinations

import "time"

// FilterMode selects the temporal bucket used for display filtering.
type FilterMode string

const (
	FilterAll       FilterMode = "all"
	FilterToday     FilterMode = "today"
	FilterThisWeek  FilterMode = "thisWeek"
	FilterThisMonth FilterMode = "thisMonth"
	FilterCustom    FilterMode = "custom"
)

// DateRange bounds a custom filter. Both ends are inclusive calendar
// days: From at 00:00:00, To at 23:59:59.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// weekBounds returns the local calendar week containing now. Weeks start
// on Sunday.
func weekBounds(now time.Time) (time.Time, time.Time) {
	start := startOfDay(now).AddDate(0, 0, -int(now.Weekday()))
	return start, endOfDay(start.AddDate(0, 0, 6))
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, endOfDay(start.AddDate(0, 1, -1))
}

// FilterByDate returns the destinations whose assignment Date falls in
// the requested bucket, evaluated against now's local calendar.
// Classification always uses Date, never ReachedAt, and is independent of
// priority order. A custom range missing either bound degrades to
// FilterAll rather than erroring; the screens this engine drives rely on
// that leniency. The input is never mutated.
func FilterByDate(ds []Destination, mode FilterMode, r DateRange, now time.Time) []Destination {
	var lo, hi time.Time
	switch mode {
	case FilterToday:
		lo, hi = startOfDay(now), endOfDay(now)
	case FilterThisWeek:
		lo, hi = weekBounds(now)
	case FilterThisMonth:
		lo, hi = monthBounds(now)
	case FilterCustom:
		if r.From == nil || r.To == nil {
			return append([]Destination(nil), ds...)
		}
		lo, hi = startOfDay(*r.From), endOfDay(*r.To)
	default:
		return append([]Destination(nil), ds...)
	}

	out := make([]Destination, 0, len(ds))
	for _, d := range ds {
		if !d.Date.Before(lo) && !d.Date.After(hi) {
			out = append(out, d)
		}
	}
	return out
}
