package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidCollection is returned when a collection breaks one of its invariants.
var ErrInvalidCollection = errors.New("invalid collection")

// Collection is the ordered set of records. It is the unit of local
// persistence and of every remote snapshot.
//
// Mutating operations never touch the receiver; they return a new
// Collection so a failed write leaves the caller's copy intact.
type Collection []Record

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, r := range c {
		out[i] = r.clone()
	}
	return out
}

// Find returns the record with the given id.
func (c Collection) Find(id string) (Record, bool) {
	if i := c.indexOf(id); i >= 0 {
		return c[i], true
	}
	return Record{}, false
}

// Primary returns the primary record, if any.
func (c Collection) Primary() (Record, bool) {
	for _, r := range c {
		if r.IsPrimary {
			return r, true
		}
	}
	return Record{}, false
}

// Add appends r. The first record of an empty collection is always primary;
// a primary record demotes every other record.
func (c Collection) Add(r Record) Collection {
	out := c.Clone()
	r = r.clone()
	if len(out) == 0 {
		r.IsPrimary = true
	}
	if r.IsPrimary {
		for i := range out {
			out[i].IsPrimary = false
		}
	}
	return append(out, r)
}

// Remove drops the record with the given id.
func (c Collection) Remove(id string) (Collection, error) {
	i := c.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	out := c.Clone()
	return append(out[:i], out[i+1:]...), nil
}

// SetPrimary promotes id and demotes every other record in one step.
func (c Collection) SetPrimary(id string) (Collection, error) {
	if c.indexOf(id) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	out := c.Clone()
	for i := range out {
		out[i].IsPrimary = out[i].ID == id
	}
	return out, nil
}

// CheckIn toggles a day. With a nil note an existing entry is removed
// (uncheck); with a note it is replaced. A missing entry is created with the
// note, or with an empty note meaning "completed, no note".
func (c Collection) CheckIn(id, day string, note *string) (Collection, error) {
	if err := ValidateDate(day); err != nil {
		return nil, err
	}
	return c.update(id, func(r *Record) error {
		i := r.indexOf(day)
		switch {
		case i >= 0 && note == nil:
			r.Logs = append(r.Logs[:i], r.Logs[i+1:]...)
		case i >= 0:
			r.Logs[i].Note = *note
		default:
			entry := LogEntry{Date: day}
			if note != nil {
				entry.Note = *note
			}
			r.Logs = append(r.Logs, entry)
		}
		return nil
	})
}

// Uncheck removes the entry for day. Removing a missing entry is a no-op.
func (c Collection) Uncheck(id, day string) (Collection, error) {
	if err := ValidateDate(day); err != nil {
		return nil, err
	}
	return c.update(id, func(r *Record) error {
		if i := r.indexOf(day); i >= 0 {
			r.Logs = append(r.Logs[:i], r.Logs[i+1:]...)
		}
		return nil
	})
}

// EditNote replaces the note of an existing entry.
func (c Collection) EditNote(id, day, note string) (Collection, error) {
	if err := ValidateDate(day); err != nil {
		return nil, err
	}
	return c.update(id, func(r *Record) error {
		i := r.indexOf(day)
		if i < 0 {
			return fmt.Errorf("%w: %s on %s", ErrEntryNotFound, id, day)
		}
		r.Logs[i].Note = note
		return nil
	})
}

// Validate checks the collection invariants: non-empty unique ids, at most
// one primary record, and at most one well-formed date per record.
func (c Collection) Validate() error {
	ids := make(map[string]struct{}, len(c))
	primaries := 0
	for _, r := range c {
		if r.ID == "" {
			return fmt.Errorf("%w: record with empty id", ErrInvalidCollection)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidCollection, r.ID)
		}
		ids[r.ID] = struct{}{}
		if r.IsPrimary {
			primaries++
		}
		days := make(map[string]struct{}, len(r.Logs))
		for _, l := range r.Logs {
			if err := ValidateDate(l.Date); err != nil {
				return fmt.Errorf("%w: record %s: %v", ErrInvalidCollection, r.ID, err)
			}
			if _, dup := days[l.Date]; dup {
				return fmt.Errorf("%w: record %s has two entries for %s", ErrInvalidCollection, r.ID, l.Date)
			}
			days[l.Date] = struct{}{}
		}
	}
	if primaries > 1 {
		return fmt.Errorf("%w: %d primary records", ErrInvalidCollection, primaries)
	}
	return nil
}

// Marshal serializes the collection as the JSON array stored in snapshots.
// A nil collection is written as an empty array.
func (c Collection) Marshal() ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	return json.Marshal(c)
}

// ParseCollection decodes a snapshot payload. The payload must be a JSON array.
// Records without a logs field come back with an empty history.
func ParseCollection(data []byte) (Collection, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: payload is not a JSON array", ErrInvalidCollection)
	}
	var c Collection
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}
	if c == nil {
		c = Collection{}
	}
	for i := range c {
		if c[i].Logs == nil {
			c[i].Logs = []LogEntry{}
		}
	}
	return c, nil
}

func (c Collection) update(id string, fn func(*Record) error) (Collection, error) {
	i := c.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	out := c.Clone()
	if err := fn(&out[i]); err != nil {
		return nil, err
	}
	return out, nil
}

func (c Collection) indexOf(id string) int {
	for i, r := range c {
		if r.ID == id {
			return i
		}
	}
	return -1
}
