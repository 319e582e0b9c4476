package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/owaspscan/internal/logging"
	"github.com/raysh454/owaspscan/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var (
		addr     string
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket analysis API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("debounce") {
				cfg.Server.Debounce = debounce
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := root.logger(cfg)
			srv, err := server.NewServer(server.Config{AppConfig: cfg, Logger: logger})
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer srv.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return listen(ctx, srv.HTTPServer(), logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, e.g. :8080")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Delay before a live analysis runs, e.g. 500ms")
	return cmd
}

// listen serves until ctx is cancelled, then shuts down gracefully.
func listen(ctx context.Context, hs *http.Server, logger logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: hs.Addr})
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
