package router

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/telemetry"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg          *config.Config
	Logger       *slog.Logger
	BlogHandler  *handlers.BlogHandler
	AssetHandler *handlers.AssetHandler
	Limiter      *middleware.IPRateLimiter
	Tracer       trace.Tracer
	Metrics      *telemetry.Metrics
	Telemetry    *telemetry.Telemetry
}

func NewRouter(deps RouterDependencies) http.Handler {
	appMux := http.NewServeMux()

	// API
	appMux.Handle("POST /api/blog/blogpost", deps.BlogHandler.HandleCreatePost())
	appMux.Handle("GET /api/blog/blogget", deps.BlogHandler.HandleListPosts())
	appMux.Handle("GET /api/blog/blogget/{id}", deps.BlogHandler.HandleGetPost())

	// stored assets
	appMux.Handle("GET /uploads/{key...}", deps.AssetHandler)

	appMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		deps.BlogHandler.NotFound(w, r, "Not found")
	})

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Telemetry.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.Limiter.Middleware(deps.Logger),
		middleware.Logger(deps.Logger), // Inner logger (shows simple text logs)
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	// prometheus when telemetry is on, runtime stats otherwise
	if deps.Telemetry != nil && deps.Telemetry.PrometheusHandler != nil {
		rootMux.Handle("GET /metrics", deps.Telemetry.PrometheusHandler)
	} else {
		rootMux.Handle("GET /metrics", deps.BlogHandler.HandleMetrics())
	}

	// lightweight for docker keepalive
	rootMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	rootMux.Handle("/", appHandler)

	return rootMux
}
