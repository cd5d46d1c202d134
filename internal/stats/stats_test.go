package stats

import (
	"testing"
	"time"

	"github.com/julianstephens/afterglow/internal/models"
)

var now = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)

func record(dates ...string) models.Record {
	r := models.Record{ID: "r", Logs: []models.LogEntry{}}
	for _, d := range dates {
		r.Logs = append(r.Logs, models.LogEntry{Date: d})
	}
	return r
}

func TestStreak(t *testing.T) {
	tests := []struct {
		name  string
		dates []string
		want  int
	}{
		{"no logs", nil, 0},
		{"today only", []string{"2024-03-10"}, 1},
		{"ends yesterday", []string{"2024-03-09", "2024-03-08", "2024-03-07"}, 3},
		{"gap breaks streak", []string{"2024-03-10", "2024-03-09", "2024-03-07"}, 2},
		{"stale", []string{"2024-03-08", "2024-03-07"}, 0},
		{"unordered", []string{"2024-03-08", "2024-03-10", "2024-03-09"}, 3},
		{"across month", []string{"2024-03-01", "2024-02-29", "2024-02-28"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Streak(record(tt.dates...), now); got != tt.want {
				t.Errorf("Streak() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStreakAcrossMonthBoundary(t *testing.T) {
	march1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	r := record("2024-03-01", "2024-02-29", "2024-02-28")
	if got := Streak(r, march1); got != 3 {
		t.Errorf("Streak() = %d, want 3", got)
	}
}

func TestStreakUsesUTC(t *testing.T) {
	// 23:30 in UTC-5 is already the next day in UTC
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2024, 3, 9, 23, 30, 0, 0, loc)
	if got := Streak(record("2024-03-10"), local); got != 1 {
		t.Errorf("Streak() = %d, want 1", got)
	}
}

func TestTotalCheckIns(t *testing.T) {
	c := models.Collection{record("2024-03-10", "2024-03-09"), record(), record("2024-03-01")}
	if got := TotalCheckIns(c); got != 3 {
		t.Errorf("TotalCheckIns() = %d, want 3", got)
	}
}

func TestHeatmap(t *testing.T) {
	c := models.Collection{
		record("2024-03-10", "2024-03-09", "2024-03-08"),
		record("2024-03-10", "2024-03-09"),
		record("2024-03-10"),
		record(),
	}

	days := Heatmap(c, now, 30)
	if len(days) != 30 {
		t.Fatalf("len = %d, want 30", len(days))
	}
	if days[0].Date != "2024-02-10" || days[29].Date != "2024-03-10" {
		t.Errorf("range = %s..%s", days[0].Date, days[29].Date)
	}

	want := map[string]Level{
		"2024-03-10": LevelMid, // 3/4 is not above 0.75
		"2024-03-09": LevelMid,
		"2024-03-08": LevelLow,
		"2024-03-07": LevelNone,
	}
	for _, d := range days {
		if lvl, ok := want[d.Date]; ok && d.Level() != lvl {
			t.Errorf("%s level = %d, want %d (%d/%d)", d.Date, d.Level(), lvl, d.Logged, d.Total)
		}
	}
}

func TestHeatmapLevels(t *testing.T) {
	tests := []struct {
		logged, total int
		want          Level
	}{
		{0, 0, LevelNone},
		{0, 3, LevelNone},
		{1, 3, LevelLow},
		{2, 4, LevelMid},
		{4, 5, LevelHigh},
		{1, 1, LevelHigh},
	}
	for _, tt := range tests {
		d := Day{Logged: tt.logged, Total: tt.total}
		if got := d.Level(); got != tt.want {
			t.Errorf("Level(%d/%d) = %d, want %d", tt.logged, tt.total, got, tt.want)
		}
	}
}

func TestHeatmapDefaultLength(t *testing.T) {
	if got := len(Heatmap(nil, now, 0)); got != 30 {
		t.Errorf("len = %d, want 30", got)
	}
}
