package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/afterglow/internal/backup"
	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/cli/backups"
	"github.com/julianstephens/afterglow/internal/cli/records"
	"github.com/julianstephens/afterglow/internal/cli/settings"
	"github.com/julianstephens/afterglow/internal/cli/system"
	"github.com/julianstephens/afterglow/internal/config"
	"github.com/julianstephens/afterglow/internal/constants"
	"github.com/julianstephens/afterglow/internal/errors"
	"github.com/julianstephens/afterglow/internal/keyring"
	"github.com/julianstephens/afterglow/internal/legacy"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/storage"
	"github.com/julianstephens/afterglow/internal/storage/postgres"
	"github.com/julianstephens/afterglow/internal/storage/sqlite"
	"github.com/julianstephens/afterglow/internal/tracker"
	"github.com/julianstephens/afterglow/internal/webdav"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"Application config file (YAML)." type:"string" default:"${config_file}"`
	DB      string `name:"db" help:"SQLite database path or PostgreSQL connection string. Credentials must NOT be embedded in the connection string; use PGPASSWORD or .pgpass." type:"string"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init   system.InitCmd `cmd:"" help:"Initialize afterglow storage."`
	Tui    system.TuiCmd  `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Record struct {
		Add     records.AddCmd     `cmd:"" help:"Add a new record."`
		List    records.ListCmd    `cmd:"" help:"List records with today's status."`
		Delete  records.DeleteCmd  `cmd:"" help:"Delete a record and its history."`
		Primary records.PrimaryCmd `cmd:"" help:"Make a record the primary one."`
		Checkin records.CheckinCmd `cmd:"" help:"Check in a record for a day."`
		Uncheck records.UncheckCmd `cmd:"" help:"Remove a day's check-in."`
		Note    records.NoteCmd    `cmd:"" help:"Edit the note of a check-in."`
		Stats   records.StatsCmd   `cmd:"" help:"Show streaks and the completion heatmap."`
	} `cmd:"" help:"Manage tracked records."`
	Backup struct {
		Now     backups.NowCmd     `cmd:"" help:"Upload a snapshot now." default:"1"`
		List    backups.ListCmd    `cmd:"" help:"List remote snapshots, newest first."`
		Restore backups.RestoreCmd `cmd:"" help:"Replace local records with a remote snapshot."`
		Delete  backups.DeleteCmd  `cmd:"" help:"Delete a remote snapshot."`
		Local   backups.LocalCmd   `cmd:"" help:"List or restore local pre-restore copies."`
	} `cmd:"" help:"Manage WebDAV backups."`
	Webdav struct {
		Show settings.WebDAVShowCmd `cmd:"" help:"Show the WebDAV settings." default:"1"`
		Set  settings.WebDAVSetCmd  `cmd:"" help:"Change one WebDAV setting."`
	} `cmd:"" name:"webdav" help:"Manage WebDAV settings."`
	Keyring struct {
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability." default:"1"`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete the WebDAV password from the OS keyring."`
	} `cmd:"" help:"Manage the OS keyring entry."`
	Diag  system.DebugCmd `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
	Relay system.RelayCmd `cmd:"" help:"Run the CORS relay for browser clients."`
}

// storeless commands run without opening the record store.
var storeless = map[string]bool{
	"init":  true,
	"relay": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily check-in tracker with WebDAV backups"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":      constants.Version,
			"config_file":  constants.DefaultAppConfig,
			"heatmap_days": fmt.Sprint(constants.HeatmapDays),
		},
	)

	app, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatal(err)
	}
	if CLI.DB != "" {
		app.Storage.DSN = CLI.DB
	}
	if CLI.Debug {
		app.Log.Debug = true
	}

	configDir := filepath.Dir(config.ExpandPath(CLI.Config))
	if err := logger.Init(logger.Config{Debug: app.Log.Debug, ConfigDir: configDir}); err != nil {
		errors.Fatalf("failed to initialize logger: %v", err)
	}

	store, err := openStore(app.Storage.DSN)
	if err != nil {
		errors.Fatal(err)
	}

	holder := config.NewHolder(store, keyring.WebDAVPassword())
	command := strings.Fields(ctx.Command())
	if len(command) == 0 || !storeless[command[0]] {
		if err := store.Load(); err != nil {
			errors.Fatal(err)
		}
		if _, err := holder.Load(); err != nil {
			errors.Fatal(err)
		}
	}

	client := webdav.NewClient(holder, webdav.WithTimeout(app.HTTP.Timeout))
	engine := backup.NewEngine(store, client, holder,
		backup.WithArchive(backup.NewArchive(configDir)))
	importer := legacy.NewImporter(store, legacy.WithFile(config.ExpandPath(app.Legacy.File)))

	appCtx := &cli.Context{
		Store:     store,
		App:       app,
		ConfigDir: configDir,
		Holder:    holder,
		Service:   tracker.NewService(store, importer, engine),
		Debug:     app.Log.Debug,
	}

	runErr := ctx.Run(appCtx)
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	errors.Fatal(runErr)
}

func openStore(dsn string) (storage.Provider, error) {
	if postgres.IsConnString(dsn) {
		if _, err := postgres.ValidateConnString(dsn); err != nil {
			return nil, err
		}
		return postgres.New(dsn), nil
	}
	return sqlite.NewStore(config.ExpandPath(dsn)), nil
}
