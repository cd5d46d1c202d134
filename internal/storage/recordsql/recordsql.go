// Package recordsql holds the record and settings queries shared by the
// SQLite and PostgreSQL stores. Queries are written with "?" placeholders
// and rebound per driver.
package recordsql

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
)

// Rebind rewrites "?" placeholders for a driver.
type Rebind func(query string) string

// Question leaves queries unchanged (SQLite).
func Question(query string) string { return query }

// Dollar rewrites "?" placeholders to $1, $2, ... (PostgreSQL).
func Dollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Queries executes record and settings statements against db.
type Queries struct {
	db     *sql.DB
	rebind Rebind
}

func New(db *sql.DB, rebind Rebind) *Queries {
	if rebind == nil {
		rebind = Question
	}
	return &Queries{db: db, rebind: rebind}
}

const (
	upsertRecordSQL = `
		INSERT INTO records (id, position, title, description, icon, color, is_primary, created_at)
		VALUES (?, (SELECT COALESCE(MAX(position), -1) + 1 FROM records), ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			icon = excluded.icon,
			color = excluded.color,
			is_primary = excluded.is_primary,
			created_at = excluded.created_at`
	deleteLogsSQL = `DELETE FROM log_entries WHERE record_id = ?`
	insertLogSQL  = `INSERT INTO log_entries (record_id, day, note, position) VALUES (?, ?, ?, ?)`
)

// GetAll returns every record in insertion order, each with its log entries.
func (q *Queries) GetAll() (models.Collection, error) {
	rows, err := q.db.Query(`
		SELECT id, title, description, icon, color, is_primary, created_at
		FROM records
		ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c := models.Collection{}
	index := make(map[string]int)
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &r.Icon, &r.Color, &r.IsPrimary, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Logs = []models.LogEntry{}
		index[r.ID] = len(c)
		c = append(c, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	logRows, err := q.db.Query(`
		SELECT record_id, day, note
		FROM log_entries
		ORDER BY record_id, position`)
	if err != nil {
		return nil, err
	}
	defer logRows.Close()

	for logRows.Next() {
		var id string
		var entry models.LogEntry
		if err := logRows.Scan(&id, &entry.Date, &entry.Note); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			c[i].Logs = append(c[i].Logs, entry)
		}
	}
	return c, logRows.Err()
}

// PutAll upserts every record and rewrites its log entries in one transaction.
func (q *Queries) PutAll(c models.Collection) error {
	return q.inTx(func(tx *sql.Tx) error {
		return q.putAll(tx, c)
	})
}

// Replace clears the store and writes c in one transaction.
func (q *Queries) Replace(c models.Collection) error {
	return q.inTx(func(tx *sql.Tx) error {
		if err := q.clear(tx); err != nil {
			return err
		}
		return q.putAll(tx, c)
	})
}

// Delete removes a record and its log entries.
func (q *Queries) Delete(id string) error {
	return q.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(q.rebind(deleteLogsSQL), id); err != nil {
			return err
		}
		res, err := tx.Exec(q.rebind(`DELETE FROM records WHERE id = ?`), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", models.ErrRecordNotFound, id)
		}
		return nil
	})
}

// Clear removes every record.
func (q *Queries) Clear() error {
	return q.inTx(q.clear)
}

func (q *Queries) Count() (int, error) {
	var n int
	err := q.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&n)
	return n, err
}

func (q *Queries) GetSetting(key string) (string, error) {
	var value string
	err := q.db.QueryRow(q.rebind(`SELECT value FROM settings WHERE key = ?`), key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", storage.ErrSettingNotFound, key)
	}
	return value, err
}

func (q *Queries) SetSetting(key, value string) error {
	_, err := q.db.Exec(q.rebind(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, value)
	return err
}

func (q *Queries) DeleteSetting(key string) error {
	_, err := q.db.Exec(q.rebind(`DELETE FROM settings WHERE key = ?`), key)
	return err
}

func (q *Queries) inTx(fn func(*sql.Tx) error) error {
	tx, err := q.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (q *Queries) clear(tx *sql.Tx) error {
	if _, err := tx.Exec(`DELETE FROM log_entries`); err != nil {
		return err
	}
	_, err := tx.Exec(`DELETE FROM records`)
	return err
}

func (q *Queries) putAll(tx *sql.Tx, c models.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}

	upsert, err := tx.Prepare(q.rebind(upsertRecordSQL))
	if err != nil {
		return err
	}
	defer upsert.Close()

	clearLogs, err := tx.Prepare(q.rebind(deleteLogsSQL))
	if err != nil {
		return err
	}
	defer clearLogs.Close()

	insertLog, err := tx.Prepare(q.rebind(insertLogSQL))
	if err != nil {
		return err
	}
	defer insertLog.Close()

	for _, r := range c {
		if _, err := upsert.Exec(r.ID, r.Title, r.Description, r.Icon, r.Color, r.IsPrimary, r.CreatedAt); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
		if _, err := clearLogs.Exec(r.ID); err != nil {
			return fmt.Errorf("failed to write record %s: %w", r.ID, err)
		}
		for i, entry := range r.Logs {
			if _, err := insertLog.Exec(r.ID, entry.Date, entry.Note, i); err != nil {
				return fmt.Errorf("failed to write record %s: %w", r.ID, err)
			}
		}
	}
	return nil
}
