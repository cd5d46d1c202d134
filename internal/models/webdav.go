package models

import (
	"strings"

	"github.com/julianstephens/afterglow/internal/constants"
)

// WebDAVConfig holds the remote backup endpoint settings.
type WebDAVConfig struct {
	URL        string `json:"url"`                // base endpoint, trailing slash insignificant
	Username   string `json:"username"`           // basic auth user
	Password   string `json:"password,omitempty"` // only persisted here when the OS keyring is unavailable
	UseProxy   bool   `json:"useProxy"`           // rewrite requests through the CORS relay
	ProxyURL   string `json:"proxyUrl"`           // relay prefix, the encoded target url is appended
	MaxBackups int    `json:"maxBackups"`         // retention cap
}

// DefaultWebDAVConfig returns the configuration used when nothing is persisted.
func DefaultWebDAVConfig() WebDAVConfig {
	return WebDAVConfig{MaxBackups: constants.DefaultMaxBackups}
}

// IsComplete reports whether url, username and password are all set.
func (c WebDAVConfig) IsComplete() bool {
	return c.URL != "" && c.Username != "" && c.Password != ""
}

// MissingFields lists the empty required fields.
func (c WebDAVConfig) MissingFields() []string {
	var missing []string
	if c.URL == "" {
		missing = append(missing, constants.FieldURL)
	}
	if c.Username == "" {
		missing = append(missing, constants.FieldUsername)
	}
	if c.Password == "" {
		missing = append(missing, constants.FieldPassword)
	}
	return missing
}

// Retention returns the effective retention cap; values below 1 fall back to the default.
func (c WebDAVConfig) Retention() int {
	if c.MaxBackups < 1 {
		return constants.DefaultMaxBackups
	}
	return c.MaxBackups
}

// RelayEnabled reports whether requests should go through the relay.
func (c WebDAVConfig) RelayEnabled() bool {
	return c.UseProxy && c.ProxyURL != ""
}

// BaseURL returns the endpoint without a trailing slash.
func (c WebDAVConfig) BaseURL() string {
	return strings.TrimRight(c.URL, "/")
}
