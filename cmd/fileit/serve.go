package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kiratsolutions/fileit/config"
	fileithttp "github.com/kiratsolutions/fileit/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the FileIt HTTP server.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().Int("port", 8080, "HTTP server port (env: FILEIT_SERVER_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	var c cleanup
	defer c.run()

	service, signer, err := newService(ctx, cfg, &c)
	if err != nil {
		return err
	}

	auth, err := openAuthenticator(ctx, cfg, &c)
	if err != nil {
		return err
	}

	handlerConfig := fileithttp.HandlerConfig{
		Auth:           auth,
		Verifier:       newVerifier(cfg, signer),
		Bucket:         cfg.Cloud.Bucket,
		MaxUploadBytes: cfg.Server.MaxUploadSize,
		CORS:           cfg.CORS,
	}

	handler := fileithttp.NewHandler(&handlerConfig, service)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	server := &http.Server{
		Addr:              addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		// Document conversion can run for minutes, so no write timeout.
		IdleTimeout: 120 * time.Second,
	}

	slog.Info("starting server",
		"addr", addr,
		"storage", cfg.Storage.Backend,
		"bucket", cfg.Cloud.Bucket,
		"index", service.IndexObject(),
		"auth", cfg.Auth.Backend,
		"signing", signer != nil,
	)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return serveUntil(server, ln, sigCh, cfg.Server.ShutdownTimeout)
}

// serveUntil serves on ln until a signal arrives on stop, then shuts the
// server down. It returns only after in-flight requests have finished or
// timeout has passed, so callers may release resources afterwards.
func serveUntil(server *http.Server, ln net.Listener, stop <-chan os.Signal, timeout time.Duration) error {
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		select {
		case sig := <-stop:
			slog.Info("shutting down server...", "signal", sig.String())
		case <-quit:
			return
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "err", err)
		}
	}()

	err := server.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		close(quit)
		<-done
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	return nil
}
