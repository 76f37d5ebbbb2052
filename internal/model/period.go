package model

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Year returns the calendar year as a period.
func Year(year int) Period {
	return Period{
		Start: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Month returns one calendar month as a period.
func Month(year, month int) Period {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Through returns the period from the zero date up to and including end.
func Through(end time.Time) Period {
	return Period{End: end}
}

// Contains reports whether t falls on a day within the period.
// A zero Start means unbounded below.
func (p Period) Contains(t time.Time) bool {
	day := truncateDay(t)
	if !p.Start.IsZero() && day.Before(truncateDay(p.Start)) {
		return false
	}
	return !day.After(truncateDay(p.End))
}

func (p Period) String() string {
	if p.Start.IsZero() {
		return fmt.Sprintf("..%s", p.End.Format(dateLayout))
	}
	return fmt.Sprintf("%s..%s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
