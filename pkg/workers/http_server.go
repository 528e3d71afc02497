package workers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 15 * time.Second

type httpServer struct {
	srv   *http.Server
	drain func()
}

// NewHTTPServer serves handler on addr. drain runs after shutdown, e.g. to
// wait for background work started by requests.
func NewHTTPServer(addr string, handler http.Handler, drain func()) *httpServer {
	return &httpServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		drain: drain,
	}
}

func (h *httpServer) Name() string { return "http_server" }

func (h *httpServer) Start(ctx context.Context) error {
	slog.Info("Starting worker", "name", h.Name(), "addr", h.srv.Addr)
	defer slog.Info("Worker stopped", "name", h.Name())

	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	return h.serve(ctx, ln)
}

func (h *httpServer) serve(ctx context.Context, ln net.Listener) error {
	h.srv.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := h.srv.Shutdown(shutdownCtx)
	<-errCh
	if h.drain != nil {
		h.drain()
	}
	if err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
