package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/models"
)

// ArchiveInfo describes one local pre-restore copy
type ArchiveInfo struct {
	Name      string
	Path      string
	Timestamp time.Time
	Size      int64
	// Records is -1 when the file could not be decoded
	Records int
}

// Archive keeps local JSON copies of the collection taken right before a
// restore replaces it. Only the newest MaxLocalBackups are kept.
type Archive struct {
	dir string
	now func() time.Time
}

// NewArchive creates an archive under <configDir>/backups
func NewArchive(configDir string) *Archive {
	return &Archive{
		dir: filepath.Join(configDir, constants.BackupDirName),
		now: time.Now,
	}
}

// Dir returns the archive directory path
func (a *Archive) Dir() string {
	return a.dir
}

// Save writes c to a new timestamped file and rotates old copies.
func (a *Archive) Save(c models.Collection) (string, error) {
	if err := os.MkdirAll(a.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}

	path, err := a.uniquePath()
	if err != nil {
		return "", err
	}

	// Write to a temporary file and rename so a partial copy never appears
	tempPath := path + ".tmp"
	if err := writeFileSync(tempPath, data); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if err := a.rotate(); err != nil {
		logger.Warn("Failed to rotate local backups", "error", err)
	}
	return path, nil
}

func (a *Archive) uniquePath() (string, error) {
	stamp := a.now().UTC().Format(constants.SnapshotTimestampFormat)
	name := constants.LocalBackupFilePrefix + stamp + constants.LocalBackupFileSuffix
	path := filepath.Join(a.dir, name)

	for counter := 1; ; counter++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		name = fmt.Sprintf("%s%s-%d%s", constants.LocalBackupFilePrefix, stamp, counter, constants.LocalBackupFileSuffix)
		path = filepath.Join(a.dir, name)
	}
}

// List returns the archived copies, newest first
func (a *Archive) List() ([]ArchiveInfo, error) {
	entries, err := os.ReadDir(a.dir)
	if os.IsNotExist(err) {
		return []ArchiveInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := []ArchiveInfo{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() ||
			!strings.HasPrefix(name, constants.LocalBackupFilePrefix) ||
			!strings.HasSuffix(name, constants.LocalBackupFileSuffix) {
			continue
		}

		stamp := strings.TrimSuffix(strings.TrimPrefix(name, constants.LocalBackupFilePrefix), constants.LocalBackupFileSuffix)
		counter := 0
		if i := strings.IndexByte(stamp, '-'); i >= 0 {
			if _, err := fmt.Sscanf(stamp[i+1:], "%d", &counter); err != nil {
				continue
			}
			stamp = stamp[:i]
		}
		timestamp, err := time.Parse(constants.SnapshotTimestampFormat, stamp)
		if err != nil {
			continue
		}

		path := filepath.Join(a.dir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}

		records := -1
		if c, err := readCollection(path); err == nil {
			records = len(c)
		}

		backups = append(backups, ArchiveInfo{
			Name:      name,
			Path:      path,
			Timestamp: timestamp.Add(time.Duration(counter)), // keeps same-second copies ordered
			Size:      info.Size(),
			Records:   records,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Load reads an archived copy by file name or path and verifies it.
func (a *Archive) Load(name string) (models.Collection, error) {
	path := name
	if !filepath.IsAbs(name) && filepath.Base(name) == name {
		path = filepath.Join(a.dir, name)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("backup file does not exist: %s", path)
	}
	c, err := readCollection(path)
	if err != nil {
		return nil, fmt.Errorf("backup file is corrupted or invalid: %w", err)
	}
	return c, nil
}

// rotate removes copies beyond the retention limit
func (a *Archive) rotate() error {
	backups, err := a.List()
	if err != nil {
		return err
	}
	for i := constants.MaxLocalBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Name, err)
		}
	}
	return nil
}

func readCollection(path string) (models.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := models.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}
	// Sync to ensure data is written to disk
	return f.Sync()
}
