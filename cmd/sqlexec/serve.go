package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nnnkkk7/sqlexec/pkg/command"
	"github.com/nnnkkk7/sqlexec/pkg/statement"
	"github.com/nnnkkk7/sqlexec/server/handlers"
)

const (
	statementTTL    = time.Hour
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 10 * time.Second
)

func (a *app) serveCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the statement API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Listen = listen
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, :8080)")
	return cmd
}

// serve runs the HTTP server until it fails or the process is interrupted.
func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := statement.NewStore(statementTTL)
	go store.Run(ctx)

	newCommand := func() command.Command { return a.manager.NewCommand("") }
	h := handlers.NewStatementHandler(newCommand, a.executor, store)

	server := &http.Server{
		Addr:         a.cfg.Listen,
		Handler:      handlers.NewRouter(h),
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		color.New(color.FgCyan).Fprintf(os.Stderr, "sqlexec serving %s on %s\n", a.cfg.Driver, a.cfg.Listen)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
