package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
)

// Handler serves one resolved request.
//
// Returning a *domain.DomainError with a client status sends that envelope.
// Any other error is logged and answered with a generic internal error.
type Handler func(ctx context.Context, req *Request) (Response, error)

// Request is what a handler sees of an incoming request.
type Request struct {
	// HTTP is the underlying request. Its body has already been consumed for POST.
	HTTP *http.Request

	// RealPath is the routing string the request resolved to.
	RealPath string

	// Query holds the pairs parsed from the target, nil if there were none.
	Query FormData

	// Body holds the decoded POST body, nil for GET.
	Body FormData
}

// Route identifies an endpoint.
type Route struct {
	Method string
	Path   string
}

// Registry maps (method, real path) to handlers.
//
// All registration happens before serving starts. Once sealed, the
// registry is read without locking.
type Registry struct {
	handlers map[Route]Handler
	order    []Route
	sealed   atomic.Bool
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		handlers: make(map[Route]Handler),
		logger:   logger,
	}
}

// RegisterGet registers h for GET requests resolving to path.
func (r *Registry) RegisterGet(path string, h Handler) bool {
	return r.register(http.MethodGet, path, h)
}

// RegisterPost registers h for POST requests resolving to path.
func (r *Registry) RegisterPost(path string, h Handler) bool {
	return r.register(http.MethodPost, path, h)
}

// register adds a route. The first registration of a route wins.
func (r *Registry) register(method, path string, h Handler) bool {
	if r.sealed.Load() {
		r.logger.Error("endpoint registered after serving started", "method", method, "path", path)
		return false
	}
	if h == nil {
		r.logger.Warn("ignoring nil endpoint handler", "method", method, "path", path)
		return false
	}
	route := Route{Method: method, Path: path}
	if _, dup := r.handlers[route]; dup {
		r.logger.Warn("duplicate endpoint ignored", "method", method, "path", path)
		return false
	}
	r.handlers[route] = h
	r.order = append(r.order, route)
	r.logger.Info("registered endpoint", "method", method, "path", path)
	return true
}

// Resolve returns the handler for an exact method and path match.
func (r *Registry) Resolve(method, path string) (Handler, bool) {
	h, ok := r.handlers[Route{Method: method, Path: path}]
	return h, ok
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []Route {
	out := make([]Route, len(r.order))
	copy(out, r.order)
	return out
}

// Seal stops further registration.
func (r *Registry) Seal() {
	r.sealed.Store(true)
}
