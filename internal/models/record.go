package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
)

var (
	// ErrRecordNotFound is returned when no record has the requested id
	ErrRecordNotFound = errors.New("record not found")
	// ErrEntryNotFound is returned when a record has no log entry for the requested date
	ErrEntryNotFound = errors.New("log entry not found")
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
)

// LogEntry marks one completed day. An empty Note still means "completed".
// The JSON key stays "mood" so snapshots written by the web client parse as-is.
type LogEntry struct {
	Date string `json:"date"` // YYYY-MM-DD
	Note string `json:"mood"`
}

// Record is a single tracked routine together with its completion history.
type Record struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Color       string     `json:"color"`
	IsPrimary   bool       `json:"isMain"`
	CreatedAt   string     `json:"createdAt"` // ISO-8601, see constants.CreatedAtFormat
	Logs        []LogEntry `json:"logs"`
}

// RecordInput carries the user-editable fields of a new record.
type RecordInput struct {
	Title       string
	Description string
	Icon        string
	Color       string
	Primary     bool
}

// NewRecord builds a record with a fresh id, no logs and a creation timestamp.
func NewRecord(id string, in RecordInput, now time.Time) Record {
	return Record{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		Color:       in.Color,
		IsPrimary:   in.Primary,
		CreatedAt:   FormatCreatedAt(now),
		Logs:        []LogEntry{},
	}
}

// FormatCreatedAt renders t the way createdAt is stored (UTC, millisecond precision).
func FormatCreatedAt(t time.Time) string {
	return t.UTC().Format(constants.CreatedAtFormat)
}

// ValidateDate checks that day is a real calendar date in YYYY-MM-DD form.
func ValidateDate(day string) error {
	if _, err := time.Parse(constants.DateFormat, day); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, day)
	}
	return nil
}

// Entry returns the log entry for day and whether it exists.
func (r Record) Entry(day string) (LogEntry, bool) {
	for _, l := range r.Logs {
		if l.Date == day {
			return l, true
		}
	}
	return LogEntry{}, false
}

// IsLogged reports whether the record has an entry for day.
func (r Record) IsLogged(day string) bool {
	_, ok := r.Entry(day)
	return ok
}

func (r Record) clone() Record {
	c := r
	c.Logs = make([]LogEntry, len(r.Logs))
	copy(c.Logs, r.Logs)
	return c
}

func (r Record) indexOf(day string) int {
	for i, l := range r.Logs {
		if l.Date == day {
			return i
		}
	}
	return -1
}
