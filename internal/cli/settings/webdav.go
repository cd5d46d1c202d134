package settings

import (
	"fmt"
	"strings"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/constants"
)

type WebDAVShowCmd struct{}

func (c *WebDAVShowCmd) Run(ctx *cli.Context) error {
	cfg := ctx.Holder.Current()

	password := "(not set)"
	if cfg.Password != "" {
		password = "****"
	}

	ctx.Println("WebDAV Settings:")
	ctx.Printf("  URL:          %s\n", orUnset(cfg.URL))
	ctx.Printf("  Username:     %s\n", orUnset(cfg.Username))
	ctx.Printf("  Password:     %s\n", password)
	ctx.Printf("  Use Proxy:    %v\n", cfg.UseProxy)
	ctx.Printf("  Proxy URL:    %s\n", orUnset(cfg.ProxyURL))
	ctx.Printf("  Max Backups:  %d\n", cfg.Retention())

	if missing := cfg.MissingFields(); len(missing) > 0 {
		ctx.Printf("\n%s\n", cli.WarnStyle.Render("Backups are disabled until these are set: "+strings.Join(missing, ", ")))
	}
	return nil
}

type WebDAVSetCmd struct {
	Field string `arg:"" help:"Setting to change: url, username, password, useProxy, proxyUrl or maxBackups."`
	Value string `arg:"" help:"New value. Use \"\" to clear text fields."`
}

func (c *WebDAVSetCmd) Run(ctx *cli.Context) error {
	if err := ctx.Holder.Set(c.Field, c.Value); err != nil {
		return fmt.Errorf("failed to save setting: %w", err)
	}

	shown := c.Value
	if c.Field == constants.FieldPassword {
		shown = "****"
	}
	ctx.Printf("%s %s = %s\n", cli.SuccessStyle.Render("✓"), c.Field, shown)

	if c.Field == constants.FieldMaxBackups && ctx.Holder.Current().MaxBackups < 1 {
		ctx.Printf("Values below 1 keep the default of %d backups.\n", constants.DefaultMaxBackups)
	}
	if c.Field == constants.FieldUseProxy && ctx.Holder.Current().UseProxy && ctx.Holder.Current().ProxyURL == "" {
		ctx.Println(cli.WarnStyle.Render("Set proxyUrl as well, requests go direct until it is set."))
	}
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}
