// Package server exposes the price optimizer over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/iwvelando/price-optimizer/internal/catalog"
	"github.com/iwvelando/price-optimizer/internal/metrics"
	"github.com/iwvelando/price-optimizer/internal/optimizer"
	"github.com/iwvelando/price-optimizer/pkg/constants"
	"go.uber.org/zap"
)

// MaxBatchSize caps the number of contexts in one batch request.
const MaxBatchSize = 100

type ctxKey int

const requestIDKey ctxKey = iota

// Dependencies are the services behind the API.
type Dependencies struct {
	Runner    *optimizer.Runner
	Catalog   *catalog.Catalog
	Converter catalog.Converter
	Metrics   *metrics.Recorder
}

type handler struct {
	logger         *zap.Logger
	runner         *optimizer.Runner
	catalog        *catalog.Catalog
	converter      catalog.Converter
	metrics        *metrics.Recorder
	validate       *validator.Validate
	maxRequestSize int64
	timeout        time.Duration
	version        string
}

// NewHandler constructs the HTTP handler that serves the pricing API.
func NewHandler(logger *zap.Logger, deps Dependencies, cfg *Config, version string) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Runner == nil {
		return nil, errors.New("server requires an optimizer runner")
	}
	if deps.Catalog == nil {
		deps.Catalog = catalog.New(logger, nil, nil, "")
	}
	if deps.Converter.Rate <= 0 {
		deps.Converter = catalog.NewConverter(deps.Converter.Code, deps.Converter.Rate)
	}
	if cfg == nil {
		cfg, _ = LoadConfig("")
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:         logger,
		runner:         deps.Runner,
		catalog:        deps.Catalog,
		converter:      deps.Converter,
		metrics:        deps.Metrics,
		validate:       newValidator(),
		maxRequestSize: cfg.RequestSizeBytes(),
		timeout:        cfg.Timeout(),
		version:        trimmedVersion,
	}
	if h.maxRequestSize <= 0 {
		h.maxRequestSize = constants.DefaultMaxRequestSizeBytes
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(h.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		if h.timeout > 0 {
			r.Use(middleware.Timeout(h.timeout))
		}

		r.Get("/version", h.handleVersion)
		r.Get("/valid-values", h.handleValidValues)
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.handleProducts)
			r.Get("/{id}", h.handleProduct)
			r.Get("/{id}/stats", h.handleProductStats)
		})
		r.Post("/optimize", h.handleOptimize)
		r.Post("/optimize/batch", h.handleOptimizeBatch)
		r.Post("/simulate", h.handleSimulate)
	})

	return r, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// requestID tags each request with an X-Request-ID, generating a UUID when the
// client sent none.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func getRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		if h.metrics != nil {
			h.metrics.ObserveRequest(route, strconv.Itoa(status))
		}
		if ce := h.logger.Check(zap.DebugLevel, "request served"); ce != nil {
			ce.Write(
				zap.String("op", "server.instrument"),
				zap.String("requestId", getRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			)
		}
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"products": len(h.catalog.Products()),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error, op string) {
	h.respondErrorWithOp(w, r, statusFor(err), err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("requestId", getRequestID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("pricing request failed", fields...)
	} else {
		h.logger.Warn("pricing request rejected", fields...)
	}

	h.writeJSON(w, r, status, map[string]string{
		"error":     msg,
		"requestId": getRequestID(r.Context()),
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	render.Status(r, status)
	render.JSON(w, r, payload)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytesErr *http.MaxBytesError
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validationErrs), errors.Is(err, optimizer.ErrInvalidInput), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, optimizer.ErrOracleUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

// decode reads a size-limited JSON body into dst and validates it.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request exceeds limit of %d bytes: %w", h.maxRequestSize, err)
		}
		return fmt.Errorf("%w: failed to decode request: %v", errBadRequest, err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError renders validator errors as one readable message.
func validationError(err error) error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		field := fe.Field()
		switch fe.Tag() {
		case "required", "required_without":
			parts = append(parts, field+" is required")
		case "gt", "gte", "lte", "min", "max":
			parts = append(parts, fmt.Sprintf("%s must be %s %s", field, fe.Tag(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", errBadRequest, strings.Join(parts, "; "))
}
