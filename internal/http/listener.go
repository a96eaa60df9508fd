package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// listener owns one *http.Server and logs its lifecycle under name.
type listener struct {
	name   string
	srv    *http.Server
	logger *slog.Logger
}

func newListener(name, host string, port int, logger *slog.Logger) listener {
	return listener{
		name:   name,
		logger: logger,
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", host, port),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// serve blocks until the server stops. A stop caused by Shutdown is not an error.
func (l *listener) serve(handler http.Handler) error {
	l.srv.Handler = handler
	l.logger.Info("starting "+l.name, slog.String("addr", l.srv.Addr))

	if err := l.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start %s: %w", l.name, err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (l *listener) Shutdown(ctx context.Context) error {
	l.logger.Info("shutting down " + l.name)
	return l.srv.Shutdown(ctx)
}
