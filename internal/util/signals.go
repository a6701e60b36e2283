package util

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler creates a context that is cancelled on receiving SIGINT or SIGTERM.
// In-flight device sessions observe the cancellation and the pool tears down.
// A second signal will force immediate exit. A nil logger means the
// default logger at the time the signal arrives.
func SetupSignalHandler(logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		if logger == nil {
			logger = slog.Default()
		}
		logger.Info("received shutdown signal, cancelling discovery", "signal", sig.String())
		cancel()

		// Second signal forces immediate exit
		sig = <-sigCh
		logger.Warn("received second shutdown signal, forcing exit", "signal", sig.String())
		os.Exit(ExitCancelled)
	}()

	return ctx
}
