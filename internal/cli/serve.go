package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/trellis/internal/server"
	"github.com/roach88/trellis/internal/token"
)

// shutdownTimeout bounds how long serve waits for in-flight requests
// after a signal.
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen string
	NoAuth bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the store over HTTP",
		Long: `Open the store and expose it over HTTP until interrupted. Mutating
routes require a single-use bearer token unless auth is disabled.

Example:
  trellis serve --path ./data --listen :7474
  trellis serve --config trellis.yaml --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "bind address, overrides config")
	cmd.Flags().BoolVar(&opts.NoAuth, "no-auth", false, "disable the write-token gate")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	if opts.NoAuth {
		cfg.Server.Auth = false
	}

	logLevel, err := cfg.Log.SlogLevel()
	if err != nil {
		return WrapExitError(ExitCommandError, "loading config", err)
	}
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	logger.Info("opening store",
		"backend", cfg.Storage.Backend,
		"path", cfg.Storage.Path,
		"adjacency_index", cfg.Storage.AdjacencyIndex,
	)
	store, eng, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("closing store", "error", closeErr)
		}
	}()

	srv := server.New(store, token.NewService(eng), logger, server.Options{
		Listen: cfg.Server.Listen,
		Auth:   cfg.Server.Auth,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	// Use the command's context when set (tests cancel through it),
	// falling back to signals for normal operation.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", cfg.Server.Listen)

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context canceled, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown", err)
	}
	if err := <-errCh; err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}

	logger.Info("server stopped")
	return nil
}