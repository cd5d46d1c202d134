package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/afterglow/internal/constants"
)

var (
	// ErrNotFound is returned when no password is stored in the keyring
	ErrNotFound = errors.New("credentials not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Password stores a single secret under the application's keyring service.
type Password struct {
	Service string
	User    string
}

// WebDAVPassword is the keyring slot of the WebDAV credential.
func WebDAVPassword() Password {
	return Password{Service: constants.KeyringService, User: constants.KeyringUser}
}

// Get returns ErrNotFound if nothing is stored and wraps every other
// failure as ErrKeyringUnavailable.
func (p Password) Get() (string, error) {
	secret, err := keyring.Get(p.Service, p.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func (p Password) Set(secret string) error {
	if secret == "" {
		return errors.New("password cannot be empty")
	}
	if err := keyring.Set(p.Service, p.User, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return nil
}

func (p Password) Delete() error {
	err := keyring.Delete(p.Service, p.User)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable checks if the OS keyring is available on the current system.
// This is a best-effort check and may not catch all failure scenarios.
func IsAvailable() bool {
	_, err := keyring.Get(constants.KeyringService, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
