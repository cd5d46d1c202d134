package system

import (
	"errors"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/keyring"
)

// KeyringStatusCmd reports where the WebDAV password is kept
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		ctx.Println("   The WebDAV password is stored in the local database instead.")
		return errors.New("keyring unavailable")
	}
	ctx.Println("✓ OS keyring is available")

	_, err := keyring.WebDAVPassword().Get()
	switch {
	case err == nil:
		ctx.Println("✓ WebDAV password is stored in keyring")
	case errors.Is(err, keyring.ErrNotFound):
		ctx.Println("ℹ No WebDAV password stored in keyring")
	default:
		return err
	}
	return nil
}

// KeyringDeleteCmd removes the stored WebDAV password
type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	err := keyring.WebDAVPassword().Delete()
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.New("no WebDAV password found in keyring")
	}
	if err != nil {
		return err
	}
	if _, err := ctx.Holder.Load(); err != nil {
		return err
	}
	ctx.Println("✓ WebDAV password deleted from OS keyring")
	return nil
}
