// Package fiscal derives club (Rotaract) year labels. A year runs from
// July 1 to June 30 and is labelled "2025-2026".
package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// StartMonth is the first month of a club year.
const StartMonth = time.July

// Clock returns the current time. Passing it explicitly keeps year lookups
// deterministic in tests.
type Clock func() time.Time

// Year is a club year identified by the calendar year it starts in.
type Year struct {
	Start int
}

// YearOf returns the club year containing t.
func YearOf(t time.Time) Year {
	if t.Month() >= StartMonth {
		return Year{Start: t.Year()}
	}
	return Year{Start: t.Year() - 1}
}

// Current returns the club year at the clock's current instant.
func Current(clock Clock) Year {
	if clock == nil {
		clock = time.Now
	}
	return YearOf(clock())
}

// Label formats the year as "2025-2026".
func (y Year) Label() string {
	return fmt.Sprintf("%d-%d", y.Start, y.Start+1)
}

func (y Year) String() string {
	return y.Label()
}

// Bounds returns the half-open interval [from, to) covered by the year.
func (y Year) Bounds(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(y.Start, StartMonth, 1, 0, 0, 0, 0, loc)
	return from, from.AddDate(1, 0, 0)
}

// Parse reads a "2025-2026" label. The second half must follow the first.
func Parse(label string) (Year, error) {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return Year{}, fmt.Errorf("invalid fiscal year %q: expected YYYY-YYYY", label)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil || len(parts[0]) != 4 {
		return Year{}, fmt.Errorf("invalid fiscal year %q: bad start year", label)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || len(parts[1]) != 4 {
		return Year{}, fmt.Errorf("invalid fiscal year %q: bad end year", label)
	}
	if end != start+1 {
		return Year{}, fmt.Errorf("invalid fiscal year %q: end must be start+1", label)
	}
	return Year{Start: start}, nil
}
