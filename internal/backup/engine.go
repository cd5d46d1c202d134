// Package backup snapshots the record store to a WebDAV server, lists and
// restores snapshots, and enforces the remote retention cap.
package backup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/webdav"
)

var (
	// ErrConfigIncomplete is returned before any request when url, username
	// or password is empty.
	ErrConfigIncomplete = errors.New("webdav configuration incomplete")
	// ErrBusy is returned while another engine operation is running.
	ErrBusy = errors.New("another backup operation is in progress")
)

// Store is the part of the record store the engine needs.
type Store interface {
	GetAll() (models.Collection, error)
	Replace(models.Collection) error
}

// Remote is the WebDAV operation set.
type Remote interface {
	EnsureDirectory(ctx context.Context) error
	Upload(ctx context.Context, filename string, content []byte) error
	List(ctx context.Context) ([]string, error)
	Download(ctx context.Context, filename string) (models.Collection, error)
	Delete(ctx context.Context, filename string) error
}

type Op string

const (
	OpBackup  Op = "backup"
	OpList    Op = "list"
	OpRestore Op = "restore"
	OpDelete  Op = "delete"
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSuccess State = "success"
	StateFailed  State = "failed"
	// StateEmpty is a listing that found no snapshots. It is not a failure.
	StateEmpty State = "empty"
)

// Status is the outcome of the latest operation, for UI polling.
type Status struct {
	Op      Op
	State   State
	Message string
	At      time.Time
}

// Engine runs one operation at a time. Every operation is a single attempt;
// retrying is up to the caller.
type Engine struct {
	store   Store
	remote  Remote
	config  webdav.ConfigSource
	archive *Archive
	now     func() time.Time

	mu     sync.Mutex
	busy   bool
	status Status
}

type Option func(*Engine)

// WithArchive keeps a local copy of the collection before every restore.
func WithArchive(a *Archive) Option {
	return func(e *Engine) { e.archive = a }
}

// WithClock overrides the time used for snapshot names.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, remote Remote, config webdav.ConfigSource, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		remote: remote,
		config: config,
		now:    time.Now,
		status: Status{State: StateIdle},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SnapshotName returns the remote filename for a backup taken at t.
func SnapshotName(t time.Time) string {
	return constants.SnapshotFilePrefix + t.UTC().Format(constants.SnapshotTimestampFormat) + constants.SnapshotFileSuffix
}

// Status returns the state of the latest operation.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// CreateBackup uploads the current collection as a new snapshot and then
// prunes old snapshots. Pruning failures are logged and never fail the backup.
func (e *Engine) CreateBackup(ctx context.Context) (filename string, err error) {
	if err := e.begin(OpBackup); err != nil {
		return "", err
	}
	defer func() {
		e.finish(OpBackup, err, StateSuccess, fmt.Sprintf("Backup saved as %s", filename))
	}()

	cfg, err := e.checkConfig()
	if err != nil {
		return "", err
	}

	records, err := e.store.GetAll()
	if err != nil {
		return "", fmt.Errorf("failed to read records: %w", err)
	}
	data, err := records.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	if err := e.remote.EnsureDirectory(ctx); err != nil {
		return "", err
	}
	filename = SnapshotName(e.now())
	if err := e.remote.Upload(ctx, filename, data); err != nil {
		return "", err
	}
	logger.Info("Backup uploaded", "file", filename, "records", len(records))

	if err := e.rotateBackups(ctx, cfg.Retention()); err != nil {
		logger.Warn("Backup retention cleanup failed", "error", err)
	}
	return filename, nil
}

// ListBackups returns snapshot filenames, newest first. No snapshots is an
// empty slice and a nil error; Status reports StateEmpty.
func (e *Engine) ListBackups(ctx context.Context) (names []string, err error) {
	if err := e.begin(OpList); err != nil {
		return nil, err
	}
	state := StateSuccess
	defer func() {
		msg := fmt.Sprintf("Found %d backup(s)", len(names))
		if state == StateEmpty {
			msg = "No backups found"
		}
		e.finish(OpList, err, state, msg)
	}()

	if _, err := e.checkConfig(); err != nil {
		return nil, err
	}
	names, err = e.remote.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		state = StateEmpty
		return []string{}, nil
	}
	return names, nil
}

// RestoreBackup replaces the record store with a snapshot. The store is not
// touched unless the snapshot was downloaded and validated.
func (e *Engine) RestoreBackup(ctx context.Context, filename string) (restored models.Collection, err error) {
	if err := e.begin(OpRestore); err != nil {
		return nil, err
	}
	defer func() {
		e.finish(OpRestore, err, StateSuccess, fmt.Sprintf("Restored %d record(s) from %s", len(restored), filename))
	}()

	if _, err := e.checkConfig(); err != nil {
		return nil, err
	}
	c, err := e.remote.Download(ctx, filename)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, &webdav.ParseError{Op: string(OpRestore), Err: err}
	}
	if err := e.replace(c); err != nil {
		return nil, err
	}
	logger.Info("Backup restored", "file", filename, "records", len(c))
	return c, nil
}

// RestoreLocal replaces the record store with a local pre-restore copy.
func (e *Engine) RestoreLocal(name string) (restored models.Collection, err error) {
	if e.archive == nil {
		return nil, errors.New("local backups are not enabled")
	}
	if err := e.begin(OpRestore); err != nil {
		return nil, err
	}
	defer func() {
		e.finish(OpRestore, err, StateSuccess, fmt.Sprintf("Restored %d record(s) from %s", len(restored), name))
	}()

	c, err := e.archive.Load(name)
	if err != nil {
		return nil, err
	}
	if err := e.replace(c); err != nil {
		return nil, err
	}
	logger.Info("Local backup restored", "file", name, "records", len(c))
	return c, nil
}

// LocalBackups lists the local pre-restore copies, newest first.
func (e *Engine) LocalBackups() ([]ArchiveInfo, error) {
	if e.archive == nil {
		return []ArchiveInfo{}, nil
	}
	return e.archive.List()
}

// DeleteBackup removes one snapshot from the server.
func (e *Engine) DeleteBackup(ctx context.Context, filename string) (err error) {
	if err := e.begin(OpDelete); err != nil {
		return err
	}
	defer func() {
		e.finish(OpDelete, err, StateSuccess, fmt.Sprintf("Deleted %s", filename))
	}()

	if _, err := e.checkConfig(); err != nil {
		return err
	}
	if err := e.remote.Delete(ctx, filename); err != nil {
		return err
	}
	logger.Info("Backup deleted", "file", filename)
	return nil
}

// rotateBackups deletes every snapshot beyond the max newest. Each deletion
// is attempted even if an earlier one failed.
func (e *Engine) rotateBackups(ctx context.Context, max int) error {
	names, err := e.remote.List(ctx)
	if err != nil {
		return err
	}
	if len(names) <= max {
		return nil
	}

	var errs []error
	for _, name := range names[max:] {
		if err := e.remote.Delete(ctx, name); err != nil {
			logger.Warn("Failed to delete old backup", "file", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		logger.Info("Deleted old backup", "file", name)
	}
	return errors.Join(errs...)
}

// replace archives the current collection, then swaps in c.
func (e *Engine) replace(c models.Collection) error {
	if e.archive != nil {
		current, err := e.store.GetAll()
		if err != nil {
			return fmt.Errorf("failed to read records: %w", err)
		}
		path, err := e.archive.Save(current)
		if err != nil {
			return fmt.Errorf("failed to back up current records before restore: %w", err)
		}
		logger.Info("Saved local copy before restore", "path", path)
	}
	if err := e.store.Replace(c); err != nil {
		return fmt.Errorf("failed to replace records: %w", err)
	}
	return nil
}

func (e *Engine) checkConfig() (models.WebDAVConfig, error) {
	cfg := e.config.Current()
	if !cfg.IsComplete() {
		return cfg, fmt.Errorf("%w: missing %s", ErrConfigIncomplete, strings.Join(cfg.MissingFields(), ", "))
	}
	return cfg, nil
}

func (e *Engine) begin(op Op) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return ErrBusy
	}
	e.busy = true
	e.status = Status{Op: op, State: StateRunning, At: e.now()}
	return nil
}

func (e *Engine) finish(op Op, err error, ok State, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.busy = false
	if err != nil {
		e.status = Status{Op: op, State: StateFailed, Message: err.Error(), At: e.now()}
		logger.Error("Backup operation failed", "op", op, "error", err)
		return
	}
	e.status = Status{Op: op, State: ok, Message: msg, At: e.now()}
}
