package system

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/afterglow/internal/cli"
	"github.com/julianstephens/afterglow/internal/logger"
	"github.com/julianstephens/afterglow/internal/relay"
)

type RelayCmd struct {
	Listen string   `help:"Address to listen on. Defaults to relay.listen from the config file."`
	Prefix string   `help:"Path prefix to mount the relay under, e.g. /proxy."`
	Allow  []string `help:"Hosts the relay may forward to. Defaults to relay.allowed_hosts; empty allows any host."`
}

func (c *RelayCmd) Run(ctx *cli.Context) error {
	if !ctx.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := c.server(ctx)
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	ctx.Printf("Relay listening on http://%s%s/\n", srv.Addr, c.Prefix)
	ctx.Println(cli.MutedStyle.Render("Set proxyUrl to this address and useProxy to true. Press Ctrl+C to stop."))
	logger.Info("Relay started", "addr", srv.Addr, "prefix", c.Prefix)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("relay stopped: %w", err)
		}
		return nil
	case <-runCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop relay: %w", err)
	}
	logger.Info("Relay stopped")
	return nil
}

func (c *RelayCmd) server(ctx *cli.Context) *http.Server {
	addr := c.Listen
	if addr == "" {
		addr = ctx.App.Relay.Listen
	}
	allowed := c.Allow
	if len(allowed) == 0 {
		allowed = ctx.App.Relay.AllowedHosts
	}

	r := relay.New(
		relay.WithPrefix(c.Prefix),
		relay.WithAllowedHosts(allowed...),
		relay.WithTimeout(ctx.App.HTTP.Timeout),
	)
	return &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
