package domain

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of date filters.
const DateLayout = "2006-01-02"

// DateRange is an optional, inclusive range of whole days.
// From and To hold the start (00:00:00) of their respective days.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// ParseDateRange parses YYYY-MM-DD bounds in the given location. Empty strings leave
// the corresponding bound open.
func ParseDateRange(from, to string, loc *time.Location) (DateRange, error) {
	if loc == nil {
		loc = time.UTC
	}

	var r DateRange

	if from != "" {
		t, err := time.ParseInLocation(DateLayout, from, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: from=%q", ErrInvalidDate, from)
		}
		r.From = &t
	}

	if to != "" {
		t, err := time.ParseInLocation(DateLayout, to, loc)
		if err != nil {
			return DateRange{}, fmt.Errorf("%w: to=%q", ErrInvalidDate, to)
		}
		r.To = &t
	}

	return r, nil
}

// Start returns the inclusive lower bound, or nil when open.
func (r DateRange) Start() *time.Time {
	return r.From
}

// End returns the exclusive upper bound: midnight after the To day, or nil when open.
func (r DateRange) End() *time.Time {
	if r.To == nil {
		return nil
	}
	end := r.To.AddDate(0, 0, 1)
	return &end
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	if start := r.Start(); start != nil && t.Before(*start) {
		return false
	}
	if end := r.End(); end != nil && !t.Before(*end) {
		return false
	}
	return true
}

// Key returns a stable textual form of the range, used for cache keys.
func (r DateRange) Key() string {
	from, to := "-", "-"
	if r.From != nil {
		from = r.From.Format(DateLayout)
	}
	if r.To != nil {
		to = r.To.Format(DateLayout)
	}
	return from + ":" + to
}
