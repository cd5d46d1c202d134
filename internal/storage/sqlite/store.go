package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/migration"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
	"github.com/julianstephens/afterglow/internal/storage/recordsql"
	"github.com/julianstephens/afterglow/migrations"
)

const dsnParams = "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

var _ storage.Provider = (*Store)(nil)

type Store struct {
	path string
	db   *sql.DB
	q    *recordsql.Queries
}

func NewStore(path string) *Store {
	return &Store{
		path: path,
	}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := s.open(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'afterglow init' first")
	}

	if err := s.open(); err != nil {
		return err
	}

	// Schemas older than the binary are upgraded in place
	return s.runMigrations()
}

func (s *Store) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		s.q = nil
		return err
	}
	return nil
}

func (s *Store) open() error {
	db, err := sql.Open("sqlite", s.path+dsnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	s.q = recordsql.New(db, recordsql.Question)
	return nil
}

func (s *Store) runMigrations() error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS, migration.DriverSQLite)
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg, "store", "sqlite")
	})
	return err
}

func (s *Store) GetConfigPath() string {
	return s.path
}

func (s *Store) GetAll() (models.Collection, error) { return s.q.GetAll() }

func (s *Store) PutAll(c models.Collection) error { return s.q.PutAll(c) }

func (s *Store) Replace(c models.Collection) error { return s.q.Replace(c) }

func (s *Store) Delete(id string) error { return s.q.Delete(id) }

func (s *Store) Clear() error { return s.q.Clear() }

func (s *Store) Count() (int, error) { return s.q.Count() }

func (s *Store) GetSetting(key string) (string, error) { return s.q.GetSetting(key) }

func (s *Store) SetSetting(key, value string) error { return s.q.SetSetting(key, value) }

func (s *Store) DeleteSetting(key string) error { return s.q.DeleteSetting(key) }
