// Package legacy moves data from the old single-blob format into the record
// store on first start, or seeds the store when there is nothing to import.
package legacy

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
)

// Source tells where the startup collection came from.
type Source string

const (
	SourceStore    Source = "store"    // store already populated or previously initialized
	SourceSettings Source = "settings" // legacy blob in the settings table
	SourceFile     Source = "file"     // legacy export file on disk
	SourceSeed     Source = "seed"     // default collection
)

// Result is the outcome of the one-time startup import.
type Result struct {
	Source     Source
	Collection models.Collection
}

// Importer runs at most once per process. It never writes to a store that
// already holds records, and a persistent marker keeps it from re-seeding a
// store the user emptied on purpose.
type Importer struct {
	store storage.Provider
	file  string
	now   func() time.Time

	once   sync.Once
	result Result
	err    error
}

type Option func(*Importer)

// WithFile adds a legacy JSON export on disk as a second import source.
func WithFile(path string) Option {
	return func(i *Importer) { i.file = path }
}

// WithClock overrides the time used for the seed collection.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

func NewImporter(store storage.Provider, opts ...Option) *Importer {
	i := &Importer{store: store, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run performs the import on its first call and returns the same result on
// every later call.
func (i *Importer) Run() (Result, error) {
	i.once.Do(func() {
		i.result, i.err = i.run()
	})
	return i.result, i.err
}

func (i *Importer) run() (Result, error) {
	n, err := i.store.Count()
	if err != nil {
		return Result{}, fmt.Errorf("failed to inspect record store: %w", err)
	}
	if n > 0 || i.initialized() {
		c, err := i.store.GetAll()
		if err != nil {
			return Result{}, err
		}
		return Result{Source: SourceStore, Collection: c}, nil
	}

	source, c := i.discover()
	if err := i.store.PutAll(c); err != nil {
		return Result{}, fmt.Errorf("failed to write %s collection: %w", source, err)
	}
	if err := i.store.SetSetting(constants.SettingLegacyImported, string(source)); err != nil {
		return Result{}, fmt.Errorf("failed to mark store initialized: %w", err)
	}

	logger.Info("Record store initialized", "source", source, "records", len(c))
	return Result{Source: source, Collection: c}, nil
}

func (i *Importer) initialized() bool {
	_, err := i.store.GetSetting(constants.SettingLegacyImported)
	return err == nil
}

func (i *Importer) discover() (Source, models.Collection) {
	if blob, err := i.store.GetSetting(constants.SettingLegacyRecords); err == nil {
		if c, ok := parse([]byte(blob), "settings"); ok {
			return SourceSettings, c
		}
	} else if !errors.Is(err, storage.ErrSettingNotFound) {
		logger.Warn("Failed to read legacy records", "error", err)
	}

	if i.file != "" {
		data, err := os.ReadFile(i.file)
		switch {
		case err == nil:
			if c, ok := parse(data, i.file); ok {
				return SourceFile, c
			}
		case !os.IsNotExist(err):
			logger.Warn("Failed to read legacy file", "path", i.file, "error", err)
		}
	}

	return SourceSeed, DefaultCollection(i.now())
}

// parse treats unreadable or empty legacy data as absent.
func parse(data []byte, origin string) (models.Collection, bool) {
	c, err := models.ParseCollection(data)
	if err == nil {
		err = c.Validate()
	}
	if err == nil && len(c) == 0 {
		return nil, false
	}
	if err != nil {
		logger.Warn("Ignoring unreadable legacy records", "origin", origin, "error", err)
		return nil, false
	}
	return c, true
}
