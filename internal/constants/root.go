package constants

import "time"

const (
	AppName           = "afterglow"
	DefaultConfigDir  = "~/.config/afterglow"
	DefaultConfigPath = "~/.config/afterglow/afterglow.db"
	DefaultAppConfig  = "~/.config/afterglow/config.yaml"
	Version           = "v0.3.0"

	// DateFormat is the calendar date format used for log entries (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// CreatedAtFormat matches the ISO-8601 layout written by the web client
	CreatedAtFormat = "2006-01-02T15:04:05.000Z07:00"

	// Remote snapshot constants
	RemoteDirName           = "afterglow"
	SnapshotFilePrefix      = "backup_"
	SnapshotFileSuffix      = ".json"
	SnapshotTimestampFormat = "20060102150405"
	DefaultMaxBackups       = 15
	DefaultHTTPTimeout      = 30 * time.Second

	// RelayHeader marks a request as forwarded through the CORS relay
	RelayHeader      = "X-Requested-With"
	RelayHeaderValue = "XMLHttpRequest"
	DefaultRelayAddr = "127.0.0.1:8787"

	// Local pre-restore archive constants
	MaxLocalBackups       = 14
	BackupDirName         = "backups"
	LocalBackupFilePrefix = "pre-restore-"
	LocalBackupFileSuffix = ".json"

	// Keyring constants
	KeyringService = AppName
	KeyringUser    = "webdav-password"

	// Statistics
	HeatmapDays = 30
)
