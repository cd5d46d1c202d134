// Package clitest builds a command context backed by a temporary SQLite
// store and an in-memory WebDAV server.
package clitest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/config"
	"github.com/julianstephens/afterglow/internal/keyring"
	"github.com/julianstephens/afterglow/internal/legacy"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage/sqlite"
	"github.com/julianstephens/afterglow/internal/tracker"
	"github.com/julianstephens/afterglow/internal/webdav"
	"github.com/julianstephens/afterglow/internal/webdav/davtest"
)

// Now is the fixed clock every context uses.
var Now = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

type Env struct {
	Ctx    *cli.Context
	Out    *bytes.Buffer
	Store  *sqlite.Store
	Server *davtest.Server
}

// New returns an initialized context. The WebDAV settings are left empty;
// call Configure to point them at the test server.
func New(t *testing.T) *Env {
	t.Helper()
	gokeyring.MockInit()

	dir := t.TempDir()
	store := sqlite.NewStore(filepath.Join(dir, "afterglow.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})

	holder := config.NewHolder(store, keyring.WebDAVPassword())
	if _, err := holder.Load(); err != nil {
		t.Fatalf("failed to load webdav config: %v", err)
	}

	clock := func() time.Time { return Now }
	engine := backup.NewEngine(store, webdav.NewClient(holder), holder,
		backup.WithClock(clock),
		backup.WithArchive(backup.NewArchive(dir)))

	n := 0
	svc := tracker.NewService(store, legacy.NewImporter(store, legacy.WithClock(clock)), engine,
		tracker.WithClock(clock),
		tracker.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}))

	out := &bytes.Buffer{}
	app := config.Default()
	app.Storage.DSN = store.GetConfigPath()
	return &Env{
		Ctx: &cli.Context{
			Store:     store,
			App:       app,
			ConfigDir: dir,
			Holder:    holder,
			Service:   svc,
			Out:       out,
		},
		Out:    out,
		Store:  store,
		Server: davtest.NewServer(t),
	}
}

// Configure stores complete settings for the test server.
func (e *Env) Configure(t *testing.T) {
	t.Helper()
	cfg := e.Server.Config()
	if err := e.Ctx.Holder.Update(func(c *models.WebDAVConfig) { *c = cfg }); err != nil {
		t.Fatalf("failed to save webdav config: %v", err)
	}
}
