// Package timeframe provides the half-open date window emissions are measured over.
package timeframe

import (
	"fmt"
	"time"
)

// DateLayout is the layout used for dates on the wire
const DateLayout = "2006-01-02"

// Timeframe is the half-open interval [From, Until)
type Timeframe struct {
	From  time.Time `json:"from"`
	Until time.Time `json:"until"`
}

// New creates a timeframe, rejecting empty or inverted windows
func New(from, until time.Time) (Timeframe, error) {
	if !until.After(from) {
		return Timeframe{}, fmt.Errorf("timeframe until %s must be after from %s",
			until.Format(DateLayout), from.Format(DateLayout))
	}
	return Timeframe{From: from, Until: until}, nil
}

// Year returns the timeframe covering one calendar year
func Year(year int) Timeframe {
	return Timeframe{
		From:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		Until: time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Current returns the timeframe for the current calendar year
func Current() Timeframe {
	return Year(time.Now().UTC().Year())
}

// Parse builds a timeframe from two YYYY-MM-DD dates.
// An empty from and until selects the current calendar year.
func Parse(from, until string) (Timeframe, error) {
	if from == "" && until == "" {
		return Current(), nil
	}
	if from == "" || until == "" {
		return Timeframe{}, fmt.Errorf("timeframe needs both from and until, got %q and %q", from, until)
	}

	f, err := time.Parse(DateLayout, from)
	if err != nil {
		return Timeframe{}, fmt.Errorf("parsing timeframe from: %w", err)
	}
	u, err := time.Parse(DateLayout, until)
	if err != nil {
		return Timeframe{}, fmt.Errorf("parsing timeframe until: %w", err)
	}
	return New(f, u)
}

// Contains reports whether from <= date < until
func (t Timeframe) Contains(date time.Time) bool {
	return !date.Before(t.From) && date.Before(t.Until)
}

// IsZero reports whether the timeframe was never set
func (t Timeframe) IsZero() bool {
	return t.From.IsZero() && t.Until.IsZero()
}

// Days returns the length of the window in days
func (t Timeframe) Days() float64 {
	return t.Until.Sub(t.From).Hours() / 24
}

func (t Timeframe) String() string {
	return t.From.Format(DateLayout) + "/" + t.Until.Format(DateLayout)
}
