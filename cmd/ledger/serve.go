package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	apphttp "ledger/internal/http"
	"ledger/internal/ledger"
	"ledger/internal/log"
)

var (
	servePort    string
	serveBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	config.LoadEnvFile()
	cfg := config.Load()
	if servePort != "" {
		cfg.Port = strings.TrimSpace(servePort)
	}
	if serveBackend != "" {
		cfg.DataBackend = strings.ToLower(strings.TrimSpace(serveBackend))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := cli.SetupLogger(cfg)

	cat, err := cli.LoadCatalog(cfg.CatalogFile, logger)
	if err != nil {
		return err
	}

	ctx, stop := cli.SignalContext(parent)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateStore(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Store cleanup failed", log.FieldError, err)
			}
		}()
	}

	l := ledger.New(cat,
		ledger.WithStore(res.Store),
		ledger.WithLogger(logger),
	)
	srv := apphttp.NewServer(":"+cfg.Port, l, logger)

	logger.Info("Starting ledger server",
		"port", cfg.Port,
		log.FieldBackend, cfg.DataBackend,
		"categories", cat.Len(),
		log.FieldOperation, log.OpStartup)

	if err := cli.Serve(ctx, srv, cfg.ShutdownTimeout, logger); err != nil {
		logger.Error("Server error", log.FieldError, err)
		return err
	}

	logger.Info("Server stopped gracefully")
	return nil
}
