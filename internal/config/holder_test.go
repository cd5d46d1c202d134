package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/keyring"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage"
)

type memSettings map[string]string

func (m memSettings) GetSetting(key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrSettingNotFound, key)
	}
	return v, nil
}

func (m memSettings) SetSetting(key, value string) error {
	m[key] = value
	return nil
}

func storedBlob(t *testing.T, m memSettings) models.WebDAVConfig {
	t.Helper()
	var cfg models.WebDAVConfig
	require.NoError(t, json.Unmarshal([]byte(m[constants.SettingWebDAVConfig]), &cfg))
	return cfg
}

func TestHolderDefaults(t *testing.T) {
	h := NewHolder(memSettings{}, nil)
	cfg, err := h.Load()
	require.NoError(t, err)
	require.Equal(t, models.DefaultWebDAVConfig(), cfg)
	require.Equal(t, 15, cfg.MaxBackups)
}

func TestHolderSetPersistsImmediately(t *testing.T) {
	settings := memSettings{}
	h := NewHolder(settings, nil)

	require.NoError(t, h.Set(constants.FieldURL, "https://dav.example.com/remote.php/"))
	require.NoError(t, h.Set(constants.FieldUsername, "alice"))
	require.NoError(t, h.Set(constants.FieldPassword, "pw"))
	require.NoError(t, h.Set(constants.FieldUseProxy, "true"))
	require.NoError(t, h.Set(constants.FieldProxyURL, "http://127.0.0.1:8787/"))
	require.NoError(t, h.Set(constants.FieldMaxBackups, "3"))

	want := models.WebDAVConfig{
		URL:        "https://dav.example.com/remote.php/",
		Username:   "alice",
		Password:   "pw",
		UseProxy:   true,
		ProxyURL:   "http://127.0.0.1:8787/",
		MaxBackups: 3,
	}
	require.Equal(t, want, h.Current())
	require.Equal(t, want, storedBlob(t, settings))

	reloaded, err := NewHolder(settings, nil).Load()
	require.NoError(t, err)
	require.Equal(t, want, reloaded)
}

func TestHolderSetDoesNotValidate(t *testing.T) {
	h := NewHolder(memSettings{}, nil)
	require.NoError(t, h.Set(constants.FieldMaxBackups, "0"))
	require.Equal(t, 0, h.Current().MaxBackups)
	require.Equal(t, 15, h.Current().Retention())

	require.NoError(t, h.Set(constants.FieldURL, ""))
	require.False(t, h.Current().IsComplete())
}

func TestHolderSetRejectsBadInput(t *testing.T) {
	h := NewHolder(memSettings{}, nil)
	require.ErrorIs(t, h.Set("color", "x"), ErrUnknownField)
	require.Error(t, h.Set(constants.FieldUseProxy, "sometimes"))
	require.Error(t, h.Set(constants.FieldMaxBackups, "many"))
	require.Equal(t, models.DefaultWebDAVConfig(), h.Current())
}

func TestHolderUnreadableBlobFallsBackToDefaults(t *testing.T) {
	settings := memSettings{constants.SettingWebDAVConfig: "{not json"}
	cfg, err := NewHolder(settings, nil).Load()
	require.NoError(t, err)
	require.Equal(t, models.DefaultWebDAVConfig(), cfg)
}

func TestHolderMissingMaxBackupsUsesDefault(t *testing.T) {
	settings := memSettings{constants.SettingWebDAVConfig: `{"url":"https://x","username":"u","password":"p"}`}
	cfg, err := NewHolder(settings, nil).Load()
	require.NoError(t, err)
	require.Equal(t, 15, cfg.MaxBackups)
	require.True(t, cfg.IsComplete())
}

func TestHolderPasswordInKeyring(t *testing.T) {
	gokeyring.MockInit()
	settings := memSettings{}
	h := NewHolder(settings, keyring.WebDAVPassword())

	require.NoError(t, h.Set(constants.FieldPassword, "s3cret"))
	require.Empty(t, storedBlob(t, settings).Password, "password must not be written to the settings blob")

	pw, err := keyring.WebDAVPassword().Get()
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)

	cfg, err := NewHolder(settings, keyring.WebDAVPassword()).Load()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.Password)

	require.NoError(t, h.Set(constants.FieldPassword, ""))
	_, err = keyring.WebDAVPassword().Get()
	require.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestHolderKeyringFallback(t *testing.T) {
	gokeyring.MockInitWithError(errors.New("no secret service"))
	t.Cleanup(gokeyring.MockInit)

	settings := memSettings{}
	h := NewHolder(settings, keyring.WebDAVPassword())
	require.NoError(t, h.Set(constants.FieldPassword, "s3cret"))
	require.Equal(t, "s3cret", storedBlob(t, settings).Password)

	cfg, err := NewHolder(settings, keyring.WebDAVPassword()).Load()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.Password)
}

func TestFields(t *testing.T) {
	require.Equal(t, []string{"url", "username", "password", "useProxy", "proxyUrl", "maxBackups"}, Fields())
}
