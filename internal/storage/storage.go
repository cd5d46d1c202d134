package storage

import (
	"errors"

	"github.com/julianstephens/afterglow/internal/models"
)

// ErrSettingNotFound is returned when a settings key has never been written.
var ErrSettingNotFound = errors.New("setting not found")

// Provider is the record store: the single source of truth for the
// collection, plus a small key/value area for settings blobs.
//
// PutAll upserts every record of the collection in one transaction. Each
// record is written together with its log entries, so no record is ever
// stored half-written. Replace clears and refills the store in the same
// transaction.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Records
	GetAll() (models.Collection, error)
	PutAll(models.Collection) error
	Delete(id string) error
	Clear() error
	Replace(models.Collection) error
	Count() (int, error)

	// Settings
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error

	// Utils
	GetConfigPath() string
}
