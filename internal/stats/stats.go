// Package stats derives streaks and the completion heatmap from a collection.
// All dates are UTC calendar days.
package stats

import (
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/models"
)

// Level is a heatmap intensity bucket.
type Level int

const (
	LevelNone Level = iota
	LevelLow        // some records logged
	LevelMid        // more than 40%
	LevelHigh       // more than 75%
)

// Day is one heatmap cell.
type Day struct {
	Date   string
	Logged int
	Total  int
}

// Ratio is Logged/Total, or 0 for an empty collection.
func (d Day) Ratio() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Logged) / float64(d.Total)
}

func (d Day) Level() Level {
	r := d.Ratio()
	switch {
	case r > 0.75:
		return LevelHigh
	case r > 0.4:
		return LevelMid
	case r > 0:
		return LevelLow
	}
	return LevelNone
}

// Streak counts consecutive logged days ending at the newest entry. A record
// whose newest entry is older than yesterday has no streak.
func Streak(r models.Record, now time.Time) int {
	if len(r.Logs) == 0 {
		return 0
	}

	logged := make(map[string]struct{}, len(r.Logs))
	newest := ""
	for _, l := range r.Logs {
		logged[l.Date] = struct{}{}
		if l.Date > newest {
			newest = l.Date
		}
	}

	today := now.UTC()
	if newest != day(today) && newest != day(today.AddDate(0, 0, -1)) {
		return 0
	}

	current, err := time.Parse(constants.DateFormat, newest)
	if err != nil {
		return 0
	}
	streak := 0
	for {
		if _, ok := logged[day(current)]; !ok {
			return streak
		}
		streak++
		current = current.AddDate(0, 0, -1)
	}
}

// TotalCheckIns counts every log entry across the collection.
func TotalCheckIns(c models.Collection) int {
	n := 0
	for _, r := range c {
		n += len(r.Logs)
	}
	return n
}

// LoggedToday reports whether r has an entry for the current UTC day.
func LoggedToday(r models.Record, now time.Time) bool {
	return r.IsLogged(day(now.UTC()))
}

// Heatmap returns the last days cells, oldest first, ending today.
func Heatmap(c models.Collection, now time.Time, days int) []Day {
	if days <= 0 {
		days = constants.HeatmapDays
	}
	today := now.UTC()
	out := make([]Day, 0, days)
	for i := days - 1; i >= 0; i-- {
		date := day(today.AddDate(0, 0, -i))
		cell := Day{Date: date, Total: len(c)}
		for _, r := range c {
			if r.IsLogged(date) {
				cell.Logged++
			}
		}
		out = append(out, cell)
	}
	return out
}

func day(t time.Time) string {
	return t.Format(constants.DateFormat)
}
