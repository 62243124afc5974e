// Package input validates the coordinates and date interval entered by a user
// before any imagery request is issued.
package input

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"satview/internal/common"
	"satview/internal/geo"
)

var (
	ErrInvalidNumber  = errors.New("invalid coordinates, please enter numeric values")
	ErrInvalidDate    = errors.New("invalid date format, please use YYYY-MM-DD")
	ErrEndBeforeStart = errors.New("end date must be after start date")
)

// DateRange is an inclusive calendar-day interval
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange parses both dates and rejects an end date earlier than the start
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, err
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("%w: %s < %s", ErrEndBeforeStart, end, start)
	}
	return DateRange{Start: s, End: e}, nil
}

// ExclusiveEnd returns the first instant after the last included day
func (r DateRange) ExclusiveEnd() time.Time {
	return r.End.AddDate(0, 0, 1)
}

func (r DateRange) String() string {
	return common.FormatISO8601(r.Start) + ".." + common.FormatISO8601(r.End)
}

// ParseDate parses an ISO YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := common.ParseISO8601(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseCoordinate parses a decimal degree value
func ParseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}

// Request is a validated acquisition request
type Request struct {
	Point geo.Point
	Dates DateRange
}

// NewRequest validates raw user values into a Request
func NewRequest(lat, lon float64, start, end string) (Request, error) {
	p, err := geo.NewPoint(lat, lon)
	if err != nil {
		return Request{}, err
	}
	dates, err := NewDateRange(start, end)
	if err != nil {
		return Request{}, err
	}
	return Request{Point: p, Dates: dates}, nil
}

// Validate rechecks a Request built without NewRequest
func (r Request) Validate() error {
	if _, err := geo.NewPoint(r.Point.Lat, r.Point.Lon); err != nil {
		return err
	}
	if r.Dates.Start.IsZero() || r.Dates.End.IsZero() {
		return fmt.Errorf("%w: missing start or end date", ErrInvalidDate)
	}
	if r.Dates.End.Before(r.Dates.Start) {
		return fmt.Errorf("%w: %s", ErrEndBeforeStart, r.Dates)
	}
	return nil
}
