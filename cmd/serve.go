package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Another0Noob/title-dedupe/internal/config"
	"github.com/Another0Noob/title-dedupe/web"
	"github.com/Another0Noob/title-dedupe/web/backend"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page and the dedupe API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config or $"+config.EnvAddr+")")
}

func runServe(ctx context.Context, c config.Config, log zerolog.Logger) error {
	opts, err := c.MatchOptions()
	if err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}

	settings := backend.Settings{
		Options:        opts,
		MaxUploadBytes: int64(c.Server.MaxUploadMB) << 20,
		QueueSize:      c.Server.QueueSize,
		RatePerSec:     c.Server.RatePerSec,
		RateBurst:      c.Server.RateBurst,
		JobTimeout:     c.Server.JobTimeout,
	}

	mux := http.NewServeMux()
	web.HandleBack(ctx, mux, settings, log)
	if err := web.HandleFront(mux); err != nil {
		return err
	}

	return web.RunServer(ctx, c.Server.Addr, mux, log)
}
