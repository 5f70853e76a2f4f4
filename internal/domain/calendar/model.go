package calendar

import (
	"errors"
	"time"
)

// ErrInvalidMonth is returned for a month outside 1..12 or an unreasonable year.
var ErrInvalidMonth = errors.New("invalid year or month")

// Year bounds accepted from query parameters.
const (
	MinYear = 1970
	MaxYear = 2100
)

// Day is one cell of the month grid.
type Day struct {
	Date    time.Time
	InMonth bool
}

// MonthGrid lays out a month as whole Monday-to-Sunday weeks.
// INVARIANT: Start is the Monday on or before the 1st, End is the Sunday on or after the last day
// INVARIANT: every date in [Start, End] appears exactly once in Weeks
type MonthGrid struct {
	Year  int
	Month time.Month
	Start time.Time
	End   time.Time
	Weeks [][7]Day
}

// NewMonthGrid builds the grid for the given month.
// PRE: 1 <= month <= 12, MinYear <= year <= MaxYear
// POST: Returns the grid, or ErrInvalidMonth
func NewMonthGrid(year int, month time.Month) (MonthGrid, error) {
	if month < time.January || month > time.December || year < MinYear || year > MaxYear {
		return MonthGrid{}, ErrInvalidMonth
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	// time.Weekday starts on Sunday; shift so Monday is 0.
	lead := (int(first.Weekday()) + 6) % 7
	trail := (7 - int(last.Weekday())) % 7

	g := MonthGrid{
		Year:  year,
		Month: month,
		Start: first.AddDate(0, 0, -lead),
		End:   last.AddDate(0, 0, trail),
	}
	for d := g.Start; !d.After(g.End); d = d.AddDate(0, 0, 7) {
		var week [7]Day
		for i := range week {
			day := d.AddDate(0, 0, i)
			week[i] = Day{Date: day, InMonth: day.Month() == month}
		}
		g.Weeks = append(g.Weeks, week)
	}
	return g, nil
}

// Prev returns the year and month before the grid's month.
func (g MonthGrid) Prev() (int, time.Month) {
	p := time.Date(g.Year, g.Month-1, 1, 0, 0, 0, 0, time.UTC)
	return p.Year(), p.Month()
}

// Next returns the year and month after the grid's month.
func (g MonthGrid) Next() (int, time.Month) {
	n := time.Date(g.Year, g.Month+1, 1, 0, 0, 0, 0, time.UTC)
	return n.Year(), n.Month()
}

// Key returns the bucket key used to group events under a grid day.
func Key(t time.Time) string {
	return t.Format("2006-01-02")
}
