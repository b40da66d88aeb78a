package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/branchweb/branchweb-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP handler chain.
type RouterConfig struct {
	// Dispatcher serves every request that passes the middleware.
	Dispatcher *Dispatcher

	// Logger for request logging.
	Logger *slog.Logger

	// Metrics receives request counters.
	Metrics *metric.Registry

	// EnableAudit enables one log line per request.
	EnableAudit bool
}

// NewRouter wraps the dispatcher in the middleware chain.
//
// Order: Recover -> RequestID -> Instrument -> Audit -> Dispatcher
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	middlewares := []Middleware{Recover(logger), RequestID()}
	if cfg.Metrics != nil {
		middlewares = append(middlewares, Instrument(cfg.Metrics))
	}
	if cfg.EnableAudit {
		middlewares = append(middlewares, Audit(logger))
	}
	return Chain(cfg.Dispatcher, middlewares...)
}
