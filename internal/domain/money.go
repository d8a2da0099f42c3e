package domain

import "time"

// LineAmount multiplies a unit amount in cents by a quantity. Money stays
// in int64 cents end to end; no floats.
func LineAmount(unitCents int64, qty int) int64 {
	if qty < 0 {
		return 0
	}
	return unitCents * int64(qty)
}

// DateRange bounds transactions by timestamp, inclusive on both ends.
// A nil bound means unbounded on that side.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// DayRange snaps start to local midnight and end to 23:59:59.999 local,
// the day-boundary rule used by every report filter.
func DayRange(start, end time.Time) DateRange {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	e := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999_000_000, end.Location())
	return DateRange{Start: &s, End: &e}
}

// From and Until build half-open ranges from a single bound.
func From(start time.Time) DateRange {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	return DateRange{Start: &s}
}

func Until(end time.Time) DateRange {
	e := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999_000_000, end.Location())
	return DateRange{End: &e}
}

func (r DateRange) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether an epoch-millisecond timestamp falls inside
// the range.
func (r DateRange) Contains(epochMS int64) bool {
	if r.Start != nil && epochMS < r.Start.UnixMilli() {
		return false
	}
	if r.End != nil && epochMS > r.End.UnixMilli() {
		return false
	}
	return true
}
