package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lectern/internal/daemon"
	"lectern/internal/logging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the lectern daemon and HTTP API in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := ctx.newLogger(true)
			if err != nil {
				return err
			}
			store, err := ctx.openStore()
			if err != nil {
				logger.Error("open session store", logging.Error(err))
				return err
			}

			mgr, err := buildManager(cfg, store, logger)
			if err != nil {
				store.Close()
				return err
			}
			d, err := daemon.New(cfg, store, logger, mgr)
			if err != nil {
				store.Close()
				return fmt.Errorf("create daemon: %w", err)
			}
			defer d.Close()

			if err := d.Start(signalCtx); err != nil {
				return fmt.Errorf("start daemon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "lectern listening on http://%s\n", d.Addr())

			<-signalCtx.Done()
			logger.Info("lectern daemon shutting down")
			return nil
		},
	}
}
