// Package httpapi serves the extractor and Javadoc conversion over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/docfang/pkg/htmlbody"
	"github.com/Sumatoshi-tech/docfang/pkg/javadoc"
	"github.com/Sumatoshi-tech/docfang/pkg/observability"
	"github.com/Sumatoshi-tech/docfang/pkg/stubs"
	"github.com/Sumatoshi-tech/docfang/pkg/version"
)

// defaultMaxBodySize bounds request bodies when Options leaves it unset.
const defaultMaxBodySize = 4 << 20

// ExtractRequest is the body of POST /v1/extract.
type ExtractRequest struct {
	HTML string `json:"html"`
}

// ExtractResponse is returned by POST /v1/extract.
type ExtractResponse struct {
	Body  string `json:"body"`
	Kind  string `json:"kind"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// JavadocRequest is the body of POST /v1/javadoc.
type JavadocRequest struct {
	HTML      string `json:"html"`
	Package   string `json:"package,omitempty"`
	Header    string `json:"header,omitempty"`
	WrapWidth int    `json:"wrap_width,omitempty"`
}

// JavadocResponse is returned by POST /v1/javadoc.
type JavadocResponse struct {
	Comment     string `json:"comment"`
	PackageInfo string `json:"package_info,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Options configures the handler and server.
type Options struct {
	Addr            string
	MaxBodySize     int64
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// WrapWidth applies when a request leaves wrap_width unset.
	WrapWidth int
}

// Deps carries the ambient services the handler reports through.
type Deps struct {
	Logger *slog.Logger
	Tracer trace.Tracer
	RED    *observability.REDMetrics
	// Metrics serves /metrics when non-nil.
	Metrics http.Handler
}

type api struct {
	opts   Options
	logger *slog.Logger
}

// NewHandler builds the routed, instrumented HTTP handler.
func NewHandler(opts Options, deps Deps) http.Handler {
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = defaultMaxBodySize
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a := &api{opts: opts, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/extract", a.handleExtract)
	mux.HandleFunc("POST /v1/javadoc", a.handleJavadoc)
	mux.HandleFunc("GET /healthz", a.handleHealth)

	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	if deps.Tracer == nil {
		return mux
	}

	return observability.HTTPMiddleware(deps.Tracer, deps.RED, mux)
}

// Serve runs the server until ctx is canceled, then shuts it down gracefully.
func Serve(ctx context.Context, opts Options, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:         opts.Addr,
		Handler:      handler,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting", "addr", opts.Addr)

		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), opts.ShutdownTimeout)
	defer cancel()

	logger.Info("http server shutting down")

	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		return fmt.Errorf("http shutdown: %w", shutdownErr)
	}

	return nil
}

func (a *api) handleExtract(rw http.ResponseWriter, req *http.Request) {
	var body ExtractRequest
	if !a.decode(rw, req, &body) {
		return
	}

	span := htmlbody.Find(body.HTML)

	a.writeJSON(req.Context(), rw, http.StatusOK, ExtractResponse{
		Body:  body.HTML[span.Start:span.End],
		Kind:  span.Kind.String(),
		Start: span.Start,
		End:   span.End,
	})
}

func (a *api) handleJavadoc(rw http.ResponseWriter, req *http.Request) {
	var body JavadocRequest
	if !a.decode(rw, req, &body) {
		return
	}

	wrap := body.WrapWidth
	if wrap == 0 {
		wrap = a.opts.WrapWidth
	}

	comment := javadoc.PackageHTMLToJavadoc(body.HTML, javadoc.Options{WrapWidth: wrap})

	resp := JavadocResponse{Comment: comment}
	if body.Package != "" {
		resp.PackageInfo = stubs.PackageInfo(body.Package, comment, body.Header)
	}

	a.writeJSON(req.Context(), rw, http.StatusOK, resp)
}

func (a *api) handleHealth(rw http.ResponseWriter, req *http.Request) {
	a.writeJSON(req.Context(), rw, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (a *api) decode(rw http.ResponseWriter, req *http.Request, into any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(rw, req.Body, a.opts.MaxBodySize))

	err := dec.Decode(into)
	if err == nil {
		return true
	}

	status := http.StatusBadRequest

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		status = http.StatusRequestEntityTooLarge
	}

	a.writeJSON(req.Context(), rw, status, errorResponse{Error: "invalid request body: " + err.Error()})

	return false
}

func (a *api) writeJSON(ctx context.Context, rw http.ResponseWriter, status int, value any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)

	encodeErr := json.NewEncoder(rw).Encode(value)
	if encodeErr != nil {
		a.logger.ErrorContext(ctx, "failed to encode JSON response", "error", encodeErr)
	}
}
