package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goa.design/clue/log"

	"github.com/Pharbi/arachnid/config"
	"github.com/Pharbi/arachnid/httpapi"
)

// serveShutdownTimeout bounds how long a graceful shutdown waits for
// in-flight requests before giving up.
const serveShutdownTimeout = 10 * time.Second

// runServe starts the JSON/SSE HTTP API, which also serves the Prometheus
// metrics at /metrics, running until SIGINT/SIGTERM, matching the signal-driven
// graceful shutdown the example service commands in the pack use.
func runServe(ctx context.Context, cfg config.Config) int {
	d, closeDeps, err := buildDeps(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
		return 1
	}
	defer closeDeps()

	api := httpapi.New(d.store, d.engine, d.logger, d.metricsHandler)

	server := &http.Server{Addr: cfg.ListenAddr, Handler: api}

	errc := make(chan error, 1)
	go func() {
		log.Printf(ctx, "coordinatord: listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		if err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: %v\n", err)
			return 1
		}
	case sig := <-sigc:
		log.Printf(ctx, "coordinatord: received %v, shutting down", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "coordinatord: shutdown: %v\n", err)
			return 1
		}
	}
	return 0
}
