package system

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/logger"
)

type DebugCmd struct {
	DBPath      *DebugDBPathCmd      `cmd:"" name:"db-path" help:"Show database and log paths."`
	DumpRecords *DebugDumpRecordsCmd `cmd:"" help:"Dump all records as JSON, in snapshot format."`
	DumpWebDAV  *DebugDumpWebDAVCmd  `cmd:"" name:"dump-webdav" help:"Dump the WebDAV settings as JSON (password masked)."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	output := map[string]string{
		"path": ctx.Store.GetConfigPath(),
		"log":  logger.LogPath(ctx.ConfigDir),
	}
	return printJSON(ctx, output)
}

type DebugDumpRecordsCmd struct{}

func (cmd *DebugDumpRecordsCmd) Run(ctx *cli.Context) error {
	records, err := ctx.Store.GetAll()
	if err != nil {
		return fmt.Errorf("failed to get records: %w", err)
	}
	return printJSON(ctx, records)
}

type DebugDumpWebDAVCmd struct{}

func (cmd *DebugDumpWebDAVCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Holder.Current()
	if cfg.Password != "" {
		cfg.Password = "****"
	}
	return printJSON(ctx, cfg)
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}
