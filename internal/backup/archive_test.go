package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/models"
)

func newArchive(t *testing.T, now time.Time) *Archive {
	t.Helper()
	a := NewArchive(t.TempDir())
	a.now = fixedClock(now)
	return a
}

func TestArchiveSaveAndLoad(t *testing.T) {
	a := newArchive(t, jan3)

	path, err := a.Save(records())
	require.NoError(t, err)
	require.Equal(t, filepath.Join(a.Dir(), "pre-restore-20240103000000.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	got, err := a.Load(filepath.Base(path))
	require.NoError(t, err)
	require.Equal(t, records(), got)

	got, err = a.Load(path)
	require.NoError(t, err)
	require.Equal(t, records(), got)
}

func TestArchiveSameSecondGetsCounter(t *testing.T) {
	a := newArchive(t, jan3)

	first, err := a.Save(records())
	require.NoError(t, err)
	second, err := a.Save(models.Collection{})
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.True(t, strings.HasSuffix(second, "-1.json"), second)

	list, err := a.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, filepath.Base(second), list[0].Name, "the later copy sorts first")
	require.Equal(t, 0, list[0].Records)
	require.Equal(t, 2, list[1].Records)
}

func TestArchiveListMissingDir(t *testing.T) {
	a := NewArchive(filepath.Join(t.TempDir(), "nope"))
	list, err := a.List()
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)
}

func TestArchiveListSkipsForeignFiles(t *testing.T) {
	a := newArchive(t, jan3)
	_, err := a.Save(records())
	require.NoError(t, err)

	for _, name := range []string{"notes.txt", "pre-restore-garbage.json", "backup_20240101000000.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(a.Dir(), name), []byte("[]"), 0600))
	}

	list, err := a.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestArchiveRotation(t *testing.T) {
	a := NewArchive(t.TempDir())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < constants.MaxLocalBackups+3; i++ {
		a.now = fixedClock(start.Add(time.Duration(i) * time.Hour))
		_, err := a.Save(records())
		require.NoError(t, err)
	}

	list, err := a.List()
	require.NoError(t, err)
	require.Len(t, list, constants.MaxLocalBackups)

	newest := start.Add(time.Duration(constants.MaxLocalBackups+2) * time.Hour)
	require.True(t, list[0].Timestamp.Equal(newest))
	oldestKept := start.Add(3 * time.Hour)
	require.True(t, list[len(list)-1].Timestamp.Equal(oldestKept))
}

func TestArchiveLoadRejectsInvalid(t *testing.T) {
	a := newArchive(t, jan3)
	require.NoError(t, os.MkdirAll(a.Dir(), 0700))

	tests := map[string]string{
		"not-json.json":  "not json",
		"object.json":    `{"id":"1"}`,
		"duplicate.json": `[{"id":"1"},{"id":"1"}]`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(a.Dir(), name)
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))
			_, err := a.Load(name)
			require.ErrorContains(t, err, "corrupted or invalid")
		})
	}

	_, err := a.Load("missing.json")
	require.ErrorContains(t, err, "does not exist")
}

func TestArchiveListMarksUndecodable(t *testing.T) {
	a := newArchive(t, jan3)
	require.NoError(t, os.MkdirAll(a.Dir(), 0700))
	name := fmt.Sprintf("%s20240101000000%s", constants.LocalBackupFilePrefix, constants.LocalBackupFileSuffix)
	require.NoError(t, os.WriteFile(filepath.Join(a.Dir(), name), []byte("{"), 0600))

	list, err := a.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, -1, list[0].Records)
}
