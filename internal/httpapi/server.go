package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"runtimed/internal/manager"
	"runtimed/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	EnsureRuntimeReady(ctx context.Context) (bool, error)
	CheckInstalled(ctx context.Context) (types.InstallStatus, error)
	Port(ctx context.Context) (int, error)
	Status() types.StatusResponse
	Ready() bool
	Subscribe(buf int) (<-chan manager.Event, func())
}

// statusClientClosedRequest is reported when the caller went away before
// the runtime became ready.
const statusClientClosedRequest = 499

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	// The event stream hijacks the connection and stays uncompressed.
	r.Get("/events", eventsHandler(svc))

	r.Group(func(r chi.Router) {
		// Compression for JSON endpoints
		r.Use(middleware.Compress(5))

		r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, svc.Status())
		})

		r.Get("/runtime/check", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			st, err := svc.CheckInstalled(r.Context())
			if err != nil {
				status := statusFor(err)
				writeJSONError(w, status, err.Error(), manager.KindOf(err))
				logEnd(r, "check end", status, start, err)
				return
			}
			writeJSON(w, st)
		})

		r.Get("/runtime/port", func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			port, err := svc.Port(r.Context())
			if err != nil {
				status := statusFor(err)
				writeJSONError(w, status, err.Error(), manager.KindOf(err))
				logEnd(r, "port end", status, start, err)
				return
			}
			writeJSON(w, types.PortResponse{Port: port, Endpoints: types.EndpointsFor(port)})
		})

		r.Post("/runtime/ensure", ensureHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("not ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func ensureHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		// Join server base context with request context so shutdown releases waiters too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if ensureTimeout > 0 {
			var tcancel context.CancelFunc
			ctx, tcancel = context.WithTimeout(ctx, ensureTimeout)
			defer tcancel()
		}
		if requestLogLevel(r) >= LevelDebug {
			zlog.Debug().Str("path", r.URL.Path).Str("request_id", middleware.GetReqID(r.Context())).Msg("ensure start")
		}

		if _, err := svc.EnsureRuntimeReady(ctx); err != nil {
			status := statusFor(err)
			switch {
			case r.Context().Err() != nil:
				// Client is gone; nobody reads the body.
				logEnd(r, "ensure end", statusClientClosedRequest, start, err)
				return
			case errors.Is(err, context.DeadlineExceeded), serverBaseCtx.Err() != nil:
				status = http.StatusServiceUnavailable
			}
			writeJSONError(w, status, err.Error(), manager.KindOf(err))
			logEnd(r, "ensure end", status, start, err)
			return
		}

		port, err := svc.Port(r.Context())
		if err != nil {
			writeJSONError(w, statusFor(err), err.Error(), manager.KindOf(err))
			logEnd(r, "ensure end", statusFor(err), start, err)
			return
		}
		writeJSON(w, types.EnsureResponse{Ready: true, Port: port, Endpoints: types.EndpointsFor(port)})
		logEnd(r, "ensure end", http.StatusOK, start, nil)
	}
}
