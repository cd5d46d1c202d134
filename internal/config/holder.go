package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/keyring"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
)

// ErrUnknownField is returned by Set for a field name it does not know.
var ErrUnknownField = errors.New("unknown webdav setting")

// SettingsStore is the key/value area the config blob is persisted in.
type SettingsStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
}

// SecretStore keeps the WebDAV password outside the settings blob.
type SecretStore interface {
	Get() (string, error)
	Set(secret string) error
	Delete() error
}

// Holder owns the WebDAV configuration for the lifetime of the process.
// It is built once at startup and handed to the client and backup engine.
// Every change is persisted immediately; nothing is validated here.
type Holder struct {
	mu       sync.RWMutex
	settings SettingsStore
	secrets  SecretStore
	current  models.WebDAVConfig
}

// NewHolder returns a holder with default values. secrets may be nil, in
// which case the password is kept in the settings blob.
func NewHolder(settings SettingsStore, secrets SecretStore) *Holder {
	return &Holder{
		settings: settings,
		secrets:  secrets,
		current:  models.DefaultWebDAVConfig(),
	}
}

// Load reads the persisted configuration, falling back to defaults when
// nothing was saved or the blob cannot be decoded.
func (h *Holder) Load() (models.WebDAVConfig, error) {
	cfg := models.DefaultWebDAVConfig()

	blob, err := h.settings.GetSetting(constants.SettingWebDAVConfig)
	switch {
	case errors.Is(err, storage.ErrSettingNotFound):
	case err != nil:
		return cfg, fmt.Errorf("failed to read webdav config: %w", err)
	default:
		if err := json.Unmarshal([]byte(blob), &cfg); err != nil {
			logger.Warn("Ignoring unreadable webdav config", "error", err)
			cfg = models.DefaultWebDAVConfig()
		}
	}

	if h.secrets != nil && cfg.Password == "" {
		pw, err := h.secrets.Get()
		switch {
		case err == nil:
			cfg.Password = pw
		case !errors.Is(err, keyring.ErrNotFound):
			logger.Warn("Failed to read webdav password from keyring", "error", err)
		}
	}

	h.mu.Lock()
	h.current = cfg
	h.mu.Unlock()
	return cfg, nil
}

// Current returns a copy of the configuration in effect.
func (h *Holder) Current() models.WebDAVConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Update applies fn to a copy of the current config and persists the result.
func (h *Holder) Update(fn func(*models.WebDAVConfig)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.current
	fn(&next)
	if err := h.persist(next); err != nil {
		return err
	}
	h.current = next
	return nil
}

// Set merges a single field, given in its textual form, into the config.
func (h *Holder) Set(field, value string) error {
	var apply func(*models.WebDAVConfig)

	switch field {
	case constants.FieldURL:
		apply = func(c *models.WebDAVConfig) { c.URL = strings.TrimSpace(value) }
	case constants.FieldUsername:
		apply = func(c *models.WebDAVConfig) { c.Username = value }
	case constants.FieldPassword:
		apply = func(c *models.WebDAVConfig) { c.Password = value }
	case constants.FieldUseProxy:
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		apply = func(c *models.WebDAVConfig) { c.UseProxy = v }
	case constants.FieldProxyURL:
		apply = func(c *models.WebDAVConfig) { c.ProxyURL = strings.TrimSpace(value) }
	case constants.FieldMaxBackups:
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: %w", field, err)
		}
		apply = func(c *models.WebDAVConfig) { c.MaxBackups = v }
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	return h.Update(apply)
}

// Fields lists the names accepted by Set.
func Fields() []string {
	return []string{
		constants.FieldURL,
		constants.FieldUsername,
		constants.FieldPassword,
		constants.FieldUseProxy,
		constants.FieldProxyURL,
		constants.FieldMaxBackups,
	}
}

// persist writes cfg. The password goes to the keyring when possible and
// stays in the blob only if the keyring refuses it.
func (h *Holder) persist(cfg models.WebDAVConfig) error {
	stored := cfg

	if h.secrets != nil {
		if cfg.Password == "" {
			if err := h.secrets.Delete(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
				logger.Warn("Failed to clear webdav password from keyring", "error", err)
			}
		} else if err := h.secrets.Set(cfg.Password); err != nil {
			logger.Warn("OS keyring unavailable, storing webdav password in settings", "error", err)
		} else {
			stored.Password = ""
		}
	}

	blob, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode webdav config: %w", err)
	}
	if err := h.settings.SetSetting(constants.SettingWebDAVConfig, string(blob)); err != nil {
		return fmt.Errorf("failed to save webdav config: %w", err)
	}
	return nil
}
