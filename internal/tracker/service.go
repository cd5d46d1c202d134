// Package tracker is the entry point the user interfaces call. It keeps the
// in-memory collection in step with the record store and routes remote
// operations through the backup engine.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/legacy"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
)

// ErrNotLoaded is returned by record operations before LoadRecords.
var ErrNotLoaded = errors.New("records not loaded")

// Service owns the in-memory collection. Every mutation is written to the
// store before the cached copy changes, so a failed write leaves both as
// they were.
type Service struct {
	store    storage.Provider
	importer *legacy.Importer
	engine   *backup.Engine
	newID    func() string
	now      func() time.Time

	mu      sync.Mutex
	records models.Collection
	loaded  bool
	remote  []string
}

type Option func(*Service)

// WithIDGenerator overrides uuid generation for new records.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithClock overrides the time used for createdAt and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store storage.Provider, importer *legacy.Importer, engine *backup.Engine, opts ...Option) *Service {
	s := &Service{
		store:    store,
		importer: importer,
		engine:   engine,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the UTC calendar date used for check-ins, matching the
// dates the web client writes.
func (s *Service) Today() string {
	return s.now().UTC().Format(constants.DateFormat)
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// LoadRecords runs the one-time legacy import and returns the collection.
func (s *Service) LoadRecords() (models.Collection, error) {
	res, err := s.importer.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.records = res.Collection
		s.loaded = true
	}
	return s.records.Clone(), nil
}

// Records returns a copy of the cached collection.
func (s *Service) Records() models.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records.Clone()
}

// AddRecord creates a record with a fresh id. The first record, or one
// added with Primary set, becomes the primary record.
func (s *Service) AddRecord(in models.RecordInput) (models.Record, error) {
	var added models.Record
	err := s.mutate(func(c models.Collection) (models.Collection, error) {
		out := c.Add(models.NewRecord(s.newID(), in, s.now()))
		added = out[len(out)-1]
		return out, nil
	})
	if err != nil {
		return models.Record{}, err
	}
	logger.Info("Record added", "id", added.ID, "title", added.Title)
	return added, nil
}

// DeleteRecord removes a record locally. Remote snapshots are not affected.
func (s *Service) DeleteRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}

	out, err := s.records.Remove(id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	s.records = out
	logger.Info("Record deleted", "id", id)
	return nil
}

// SetPrimary promotes id and demotes the others in a single write.
func (s *Service) SetPrimary(id string) error {
	return s.mutate(func(c models.Collection) (models.Collection, error) {
		return c.SetPrimary(id)
	})
}

// CheckIn toggles day for a record; see models.Collection.CheckIn.
func (s *Service) CheckIn(id, day string, note *string) error {
	return s.mutate(func(c models.Collection) (models.Collection, error) {
		return c.CheckIn(id, day, note)
	})
}

func (s *Service) Uncheck(id, day string) error {
	return s.mutate(func(c models.Collection) (models.Collection, error) {
		return c.Uncheck(id, day)
	})
}

func (s *Service) EditNote(id, day, note string) error {
	return s.mutate(func(c models.Collection) (models.Collection, error) {
		return c.EditNote(id, day, note)
	})
}

// BackupNow uploads a snapshot and returns its filename.
func (s *Service) BackupNow(ctx context.Context) (string, error) {
	name, err := s.engine.CreateBackup(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.remote = nil
	s.mu.Unlock()
	return name, nil
}

// ListRemoteBackups fetches the snapshot names, newest first, and caches them.
func (s *Service) ListRemoteBackups(ctx context.Context) ([]string, error) {
	names, err := s.engine.ListBackups(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.remote = slices.Clone(names)
	s.mu.Unlock()
	return names, nil
}

// RemoteBackups returns the names from the last listing.
func (s *Service) RemoteBackups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.remote)
}

// RestoreFrom replaces local records with a remote snapshot.
func (s *Service) RestoreFrom(ctx context.Context, filename string) (models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.engine.RestoreBackup(ctx, filename)
	if err != nil {
		return nil, err
	}
	return s.reload(c), nil
}

// RestoreLocal replaces local records with a pre-restore copy.
func (s *Service) RestoreLocal(name string) (models.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.engine.RestoreLocal(name)
	if err != nil {
		return nil, err
	}
	return s.reload(c), nil
}

// LocalBackups lists the pre-restore copies, newest first.
func (s *Service) LocalBackups() ([]backup.ArchiveInfo, error) {
	return s.engine.LocalBackups()
}

// DeleteRemoteBackup removes a snapshot and drops it from the cached list.
func (s *Service) DeleteRemoteBackup(ctx context.Context, filename string) error {
	if err := s.engine.DeleteBackup(ctx, filename); err != nil {
		return err
	}
	s.mu.Lock()
	s.remote = slices.DeleteFunc(s.remote, func(n string) bool { return n == filename })
	s.mu.Unlock()
	return nil
}

// Status reports the latest remote operation.
func (s *Service) Status() Status {
	st := s.engine.Status()
	return Status{State: st.State, Message: st.Message}
}

func (s *Service) reload(restored models.Collection) models.Collection {
	c, err := s.store.GetAll()
	if err != nil {
		logger.Warn("Failed to reload records after restore", "error", err)
		c = restored
	}
	s.records = c
	s.loaded = true
	return c.Clone()
}

func (s *Service) mutate(fn func(models.Collection) (models.Collection, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}

	out, err := fn(s.records)
	if err != nil {
		return err
	}
	if err := s.store.PutAll(out); err != nil {
		return fmt.Errorf("failed to save records: %w", err)
	}
	s.records = out
	return nil
}
