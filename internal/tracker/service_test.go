package tracker

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/legacy"
	"github.com/julianstephens/afterglow/internal/models"
	"github.com/julianstephens/afterglow/internal/storage/sqlite"
	"github.com/julianstephens/afterglow/internal/webdav"
	"github.com/julianstephens/afterglow/internal/webdav/davtest"
)

var now = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store   *sqlite.Store
	srv     *davtest.Server
	service *Service
}

func setup(t *testing.T, cfg func(*models.WebDAVConfig)) *fixture {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "afterglow.db"))
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	srv := davtest.NewServer(t)
	c := srv.Config()
	if cfg != nil {
		cfg(&c)
	}
	src := davtest.Static(c)
	clock := func() time.Time { return now }

	engine := backup.NewEngine(store, webdav.NewClient(src), src,
		backup.WithClock(clock),
		backup.WithArchive(backup.NewArchive(t.TempDir())))

	n := 0
	svc := NewService(store, legacy.NewImporter(store, legacy.WithClock(clock)), engine,
		WithClock(clock),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}))
	return &fixture{store: store, srv: srv, service: svc}
}

func (f *fixture) stored(t *testing.T) models.Collection {
	t.Helper()
	c, err := f.store.GetAll()
	require.NoError(t, err)
	return c
}

func TestOperationsRequireLoad(t *testing.T) {
	f := setup(t, nil)
	require.ErrorIs(t, f.service.SetPrimary("1"), ErrNotLoaded)
	require.ErrorIs(t, f.service.DeleteRecord("1"), ErrNotLoaded)
	_, err := f.service.AddRecord(models.RecordInput{Title: "x"})
	require.ErrorIs(t, err, ErrNotLoaded)
}

func TestLoadRecordsSeedsEmptyStore(t *testing.T) {
	f := setup(t, nil)

	c, err := f.service.LoadRecords()
	require.NoError(t, err)
	require.Len(t, c, 2)
	require.Equal(t, "Morning Yoga", c[0].Title)
	require.True(t, c[0].IsPrimary)
	require.True(t, c[0].IsLogged(f.service.Today()))
	require.Equal(t, c, f.stored(t))

	again, err := f.service.LoadRecords()
	require.NoError(t, err)
	require.Equal(t, c, again)
}

func TestAddRecord(t *testing.T) {
	f := setup(t, nil)
	_, err := f.service.LoadRecords()
	require.NoError(t, err)

	r, err := f.service.AddRecord(models.RecordInput{Title: "Run", Icon: "🏃"})
	require.NoError(t, err)
	require.Equal(t, "id-1", r.ID)
	require.False(t, r.IsPrimary)
	require.Equal(t, "2024-01-03T12:00:00.000Z", r.CreatedAt)
	require.Empty(t, r.Logs)

	r, err = f.service.AddRecord(models.RecordInput{Title: "Swim", Primary: true})
	require.NoError(t, err)
	require.True(t, r.IsPrimary)

	stored := f.stored(t)
	require.Len(t, stored, 4)
	p, ok := stored.Primary()
	require.True(t, ok)
	require.Equal(t, "id-2", p.ID)
	require.NoError(t, stored.Validate())
	require.Equal(t, stored, f.service.Records())
}

func TestSetPrimaryWritesOnce(t *testing.T) {
	f := setup(t, nil)
	_, err := f.service.LoadRecords()
	require.NoError(t, err)

	require.NoError(t, f.service.SetPrimary("2"))
	stored := f.stored(t)
	require.False(t, stored[0].IsPrimary)
	require.True(t, stored[1].IsPrimary)

	require.ErrorIs(t, f.service.SetPrimary("nope"), models.ErrRecordNotFound)
	require.Equal(t, stored, f.stored(t))
}

func TestCheckInUncheckAndNotes(t *testing.T) {
	f := setup(t, nil)
	_, err := f.service.LoadRecords()
	require.NoError(t, err)
	note := "20 pages"

	require.NoError(t, f.service.CheckIn("2", "2024-01-02", nil))
	require.NoError(t, f.service.EditNote("2", "2024-01-02", note))
	e, ok := f.stored(t)[1].Entry("2024-01-02")
	require.True(t, ok)
	require.Equal(t, note, e.Note)

	require.NoError(t, f.service.Uncheck("2", "2024-01-02"))
	require.False(t, f.stored(t)[1].IsLogged("2024-01-02"))

	require.ErrorIs(t, f.service.EditNote("2", "2024-01-02", "x"), models.ErrEntryNotFound)
	require.ErrorIs(t, f.service.CheckIn("2", "Jan 2", nil), models.ErrInvalidDate)
}

func TestDeleteRecordIsLocalOnly(t *testing.T) {
	f := setup(t, nil)
	_, err := f.service.LoadRecords()
	require.NoError(t, err)
	ctx := context.Background()

	name, err := f.service.BackupNow(ctx)
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteRecord("2"))
	require.Len(t, f.stored(t), 1)
	require.Len(t, f.service.Records(), 1)
	require.ErrorIs(t, f.service.DeleteRecord("2"), models.ErrRecordNotFound)

	remote, err := models.ParseCollection(f.srv.Read(t, name))
	require.NoError(t, err)
	require.Len(t, remote, 2)
}

func TestBackupListRestoreDelete(t *testing.T) {
	f := setup(t, nil)
	seeded, err := f.service.LoadRecords()
	require.NoError(t, err)
	ctx := context.Background()

	name, err := f.service.BackupNow(ctx)
	require.NoError(t, err)
	require.Equal(t, "backup_20240103120000.json", name)

	require.NoError(t, f.service.DeleteRecord("1"))

	names, err := f.service.ListRemoteBackups(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{name}, names)
	require.Equal(t, names, f.service.RemoteBackups())
	require.Equal(t, backup.StateSuccess, f.service.Status().State)

	restored, err := f.service.RestoreFrom(ctx, name)
	require.NoError(t, err)
	require.Equal(t, seeded, restored)
	require.Equal(t, seeded, f.service.Records())
	require.Equal(t, seeded, f.stored(t))

	local, err := f.service.LocalBackups()
	require.NoError(t, err)
	require.Len(t, local, 1)
	require.Equal(t, 1, local[0].Records)

	require.NoError(t, f.service.DeleteRemoteBackup(ctx, name))
	require.Empty(t, f.service.RemoteBackups())
	require.Empty(t, f.srv.Files(t))
}

func TestRestoreLocalRoundTrip(t *testing.T) {
	f := setup(t, nil)
	_, err := f.service.LoadRecords()
	require.NoError(t, err)
	ctx := context.Background()

	name, err := f.service.BackupNow(ctx)
	require.NoError(t, err)
	_, err = f.service.AddRecord(models.RecordInput{Title: "Run"})
	require.NoError(t, err)
	_, err = f.service.RestoreFrom(ctx, name)
	require.NoError(t, err)
	require.Len(t, f.service.Records(), 2)

	local, err := f.service.LocalBackups()
	require.NoError(t, err)
	require.Len(t, local, 1)

	c, err := f.service.RestoreLocal(local[0].Name)
	require.NoError(t, err)
	require.Len(t, c, 3)
	require.Equal(t, c, f.stored(t))
}

func TestFailedRestoreKeepsRecords(t *testing.T) {
	f := setup(t, nil)
	before, err := f.service.LoadRecords()
	require.NoError(t, err)

	_, err = f.service.RestoreFrom(context.Background(), "missing.json")
	require.ErrorIs(t, err, webdav.ErrNotFound)
	require.Equal(t, before, f.service.Records())
	require.Equal(t, before, f.stored(t))

	st := f.service.Status()
	require.True(t, st.Failed())
	require.Equal(t, "Backup file not found on server.", Describe(err).Message)
}

func TestBackupWithoutPassword(t *testing.T) {
	f := setup(t, func(c *models.WebDAVConfig) { c.Password = "" })
	_, err := f.service.LoadRecords()
	require.NoError(t, err)

	_, err = f.service.BackupNow(context.Background())
	require.ErrorIs(t, err, backup.ErrConfigIncomplete)
	require.Empty(t, f.srv.Requests())
}

func TestListOnFreshServerIsEmpty(t *testing.T) {
	f := setup(t, nil)
	require.NoError(t, webdav.NewClient(davtest.Static(f.srv.Config())).EnsureDirectory(context.Background()))

	names, err := f.service.ListRemoteBackups(context.Background())
	require.NoError(t, err)
	require.Empty(t, names)
	require.Equal(t, backup.StateEmpty, f.service.Status().State)
	require.Equal(t, backup.StateEmpty, DescribeList(names, err).State)
}
