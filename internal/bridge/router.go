// Package bridge exposes a display session over HTTP.
package bridge

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/moffa90/go-genie/genie"
	"github.com/moffa90/go-genie/internal/config"
	"github.com/moffa90/go-genie/protocol"
	"github.com/rs/zerolog"
)

// Display is the part of a session the bridge drives. *genie.Display
// satisfies it.
type Display interface {
	ReadObject(ctx context.Context, object protocol.ObjectType, index byte) (uint16, error)
	WriteObject(ctx context.Context, object protocol.ObjectType, index byte, value uint16) error
	WriteString(ctx context.Context, index byte, s string) error
	WriteStringUnicode(ctx context.Context, index byte, s string) error
	WriteContrast(ctx context.Context, value byte) error
	Stats() genie.Stats
}

// Handler serves the bridge endpoints.
type Handler struct {
	display Display
	hub     *Hub
	widgets []config.Widget
	logger  zerolog.Logger
	metrics *metrics
}

// NewHandler binds the endpoints to a display and the hub feeding the
// event stream. widgets may be nil.
func NewHandler(display Display, hub *Hub, widgets []config.Widget, logger zerolog.Logger) *Handler {
	return &Handler{
		display: display,
		hub:     hub,
		widgets: widgets,
		logger:  logger.With().Str("component", "bridge").Logger(),
		metrics: newMetrics(display, hub),
	}
}

// NewRouter registers the bridge routes and middleware stack.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware(handler.logger))
	r.Use(loggingMiddleware(handler.logger))
	r.Use(requestMetricsMiddleware(handler.metrics))

	r.Get("/healthz", handler.healthz)
	r.Method(http.MethodGet, "/metrics", handler.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", handler.stats)
		r.Get("/objects/{object}/{index}", handler.readObject)
		r.Put("/objects/{object}/{index}", handler.writeObject)
		r.Get("/widgets/{name}", handler.readWidget)
		r.Put("/widgets/{name}", handler.writeWidget)
		r.Put("/strings/{index}", handler.writeString)
		r.Put("/contrast", handler.writeContrast)
		r.Get("/events", handler.events)
	})

	return r
}

// Serve runs an HTTP server for h on addr until ctx is done.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
