package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HTTP timeouts. They bound the handshake and the plain endpoints; upgraded
// connections are governed by the pumps' own deadlines.
const (
	readHeaderTimeout = 5 * time.Second
	httpReadTimeout   = 15 * time.Second
	httpWriteTimeout  = 15 * time.Second
	httpIdleTimeout   = 60 * time.Second
)

// CreateServer builds the HTTP server that listens on port.
func CreateServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       httpReadTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
}

// StartServer blocks serving requests. It returns http.ErrServerClosed after
// a shutdown.
func StartServer(httpServer *http.Server, log *slog.Logger) error {
	log.Info("Relay listening", "address", httpServer.Addr)
	return httpServer.ListenAndServe()
}

// ShutdownServer stops accepting requests and waits for in-flight ones, at
// most timeout. Hijacked WebSocket connections are not waited for.
func ShutdownServer(httpServer *http.Server, timeout time.Duration, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP shutdown failed", "error", err)
		return err
	}
	log.Info("HTTP listener closed")
	return nil
}
