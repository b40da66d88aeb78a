package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync/atomic"

	"github.com/branchweb/branchweb-go/internal/core/domain"
	"github.com/branchweb/branchweb-go/internal/telemetry/logger"
	"github.com/branchweb/branchweb-go/internal/telemetry/metric"
)

// Options are the dispatcher settings that may change while serving.
type Options struct {
	// Debug logs stack traces for handler failures.
	Debug bool

	// SendCORSHeaders adds wildcard Access-Control-Allow-* headers to every response.
	SendCORSHeaders bool

	// MaxBodyBytes caps POST bodies.
	MaxBodyBytes int64
}

// Dispatcher turns HTTP requests into registry lookups and handler calls.
type Dispatcher struct {
	registry *Registry
	opts     atomic.Pointer[Options]
	logger   *slog.Logger
	metrics  *metric.Registry
}

// NewDispatcher creates a dispatcher over registry and seals it.
func NewDispatcher(registry *Registry, opts Options, logger *slog.Logger, metrics *metric.Registry) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = metric.NewRegistry()
	}
	registry.Seal()

	d := &Dispatcher{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
	}
	d.SetOptions(opts)
	return d
}

// SetOptions replaces the runtime options.
func (d *Dispatcher) SetOptions(opts Options) {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	d.opts.Store(&opts)
}

// Options returns the current runtime options.
func (d *Dispatcher) Options() Options {
	return *d.opts.Load()
}

// ServeHTTP implements http.Handler.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	opts := d.opts.Load()

	if opts.SendCORSHeaders {
		d.logger.Debug("sending wildcard CORS headers")
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "*")
		h.Set("Access-Control-Allow-Headers", "*")
	}

	var resp Response
	switch r.Method {
	case http.MethodOptions:
		resp = Success("OK")
	case http.MethodGet, http.MethodPost:
		resp = d.dispatch(r, opts)
	default:
		resp = Raw(http.StatusNotImplemented, fmt.Sprintf("Unsupported method (%q)", r.Method))
	}

	d.send(w, r, resp)
}

// dispatch runs the parse, resolve and invoke steps and never fails:
// every outcome is a Response.
func (d *Dispatcher) dispatch(r *http.Request, opts *Options) Response {
	realPath, query, err := ParseRealPath(r.URL.RequestURI())
	if err != nil {
		d.logger.Debug("malformed request target", "target", r.URL.RequestURI(), "error", err)
		return errorResponse(domain.ErrMalformedRequest)
	}

	req := &Request{HTTP: r, RealPath: realPath, Query: query}

	if r.Method == http.MethodPost {
		if !hasContentLength(r) {
			return errorResponse(domain.ErrMalformedRequest)
		}
		body, err := parseBody(r, opts.MaxBodyBytes)
		if err != nil {
			d.logger.Debug("could not parse post data", "path", realPath, "error", err)
			return errorResponse(domain.ErrBodyUnparseable)
		}
		req.Body = body
	}

	h, ok := d.registry.Resolve(r.Method, realPath)
	if !ok {
		return errorResponse(domain.ErrMalformedRequest)
	}

	resp, err := d.invoke(r.Context(), h, req, opts)
	if err != nil {
		return d.failure(r.Context(), realPath, err)
	}
	if resp == nil {
		return Success(nil)
	}
	return resp
}

// errPanic marks a recovered handler panic.
var errPanic = errors.New("handler panicked")

// invoke calls h inside the panic boundary.
func (d *Dispatcher) invoke(ctx context.Context, h Handler, req *Request, opts *Options) (resp Response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if errors.Is(asError(rec), http.ErrAbortHandler) {
				panic(rec)
			}
			attrs := []any{"path", req.RealPath, "panic", rec}
			if opts.Debug {
				attrs = append(attrs, "stack", string(debug.Stack()))
			}
			logger.L(ctx, d.logger).Error("panic in endpoint handler", attrs...)
			resp, err = nil, fmt.Errorf("%w: %v", errPanic, rec)
		}
	}()
	return h(ctx, req)
}

// failure maps a handler error to a response.
func (d *Dispatcher) failure(ctx context.Context, path string, err error) Response {
	log := logger.L(ctx, d.logger)
	status, msg, public := domain.StatusOf(err)
	if public {
		log.Debug("endpoint refused request", "path", path, "code", domain.GetErrorCode(err), "error", err)
		return JSON(status, msg)
	}

	d.metrics.HandlerFailures.Inc()
	if !errors.Is(err, errPanic) {
		log.Error("endpoint handler failed", "path", path, "error", err)
	}
	return JSON(status, msg)
}

func (d *Dispatcher) send(w http.ResponseWriter, r *http.Request, resp Response) {
	err := resp.write(w)
	switch {
	case err == nil:
	case isClientGone(err):
		d.logger.Debug("client closed connection before response completed", "remote", r.RemoteAddr)
	default:
		d.logger.Warn("writing response failed", "remote", r.RemoteAddr, "error", err)
	}
}

func errorResponse(err *domain.DomainError) Response {
	return JSON(err.Status, err.Message)
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}
