package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/splax/shelf/internal/domain"
	"github.com/splax/shelf/internal/repository"
	"github.com/splax/shelf/internal/service/auth"
	"github.com/splax/shelf/internal/service/catalog"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *mux.Router
	logger   *slog.Logger
	auth     auth.Service
	catalog  catalog.Service
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
}

const healthCheckTimeout = 2 * time.Second

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, authSvc auth.Service, catalogSvc catalog.Service, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:      mux.NewRouter(),
		logger:   logger,
		auth:     authSvc,
		catalog:  catalogSvc,
		dbHealth: dbHealth,
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.mux.HandleFunc("/healthz", r.audit(r.handleHealthz)).Methods(http.MethodGet)
	r.mux.HandleFunc("/auth/register", r.audit(r.handleRegister)).Methods(http.MethodPost)
	r.mux.HandleFunc("/auth/login", r.audit(r.handleLogin)).Methods(http.MethodPost)

	api := r.mux.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", r.audit(r.requireAuth(r.handleListProducts))).Methods(http.MethodGet)
	api.HandleFunc("/products", r.audit(r.requireAuth(r.handleCreateProduct))).Methods(http.MethodPost)
	api.HandleFunc("/products/{id:[0-9]+}", r.audit(r.requireAuth(r.handleGetProduct))).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", r.audit(r.requireAuth(r.handleUpdateProduct))).Methods(http.MethodPut)
	api.HandleFunc("/products/{id:[0-9]+}", r.audit(r.requireAuth(r.handleDeleteProduct))).Methods(http.MethodDelete)
}

func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := r.auth.Register(req.Context(), payload.Email, payload.Password); err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "registered"})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, err := r.auth.Login(req.Context(), payload.Email, payload.Password)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (r *Router) handleListProducts(w http.ResponseWriter, req *http.Request) {
	query := catalog.ListQuery{Name: strings.TrimSpace(req.URL.Query().Get("name"))}
	if raw := req.URL.Query().Get("max_price"); raw != "" {
		maxPrice, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_price")
			return
		}
		query.MaxPrice = &maxPrice
	}
	products, err := r.catalog.List(req.Context(), query)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (r *Router) handleGetProduct(w http.ResponseWriter, req *http.Request) {
	id, ok := r.productID(w, req)
	if !ok {
		return
	}
	product, err := r.catalog.Get(req.Context(), id)
	if err != nil {
		r.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (r *Router) handleCreateProduct(w http.ResponseWriter, req *http.Request) {
	var payload domain.Product
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	payload.ID = 0
	if err := r.catalog.Create(req.Context(), &payload); err != nil {
		r.writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", fmt.Sprintf("/api/products/%d", payload.ID))
	writeJSON(w, http.StatusCreated, payload)
}

func (r *Router) handleUpdateProduct(w http.ResponseWriter, req *http.Request) {
	id, ok := r.productID(w, req)
	if !ok {
		return
	}
	var payload domain.Product
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.ID != id {
		writeError(w, http.StatusBadRequest, "body id does not match path id")
		return
	}
	if err := r.catalog.Update(req.Context(), &payload); err != nil {
		r.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleDeleteProduct(w http.ResponseWriter, req *http.Request) {
	id, ok := r.productID(w, req)
	if !ok {
		return
	}
	if err := r.catalog.Delete(req.Context(), id); err != nil {
		r.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) productID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
func (r *Router) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeValidationErrors(w, validationErr.Violations)
	case errors.Is(err, auth.ErrEmailTaken):
		// Duplicate registration collapses into the validation response.
		writeValidationErrors(w, []string{err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		r.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (r *Router) audit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		route := req.URL.Path
		if current := mux.CurrentRoute(req); current != nil {
			if template, err := current.GetPathTemplate(); err == nil {
				route = template
			}
		}
		r.recordRequestMetrics(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		ctx := recorder.ctx
		if ctx == nil {
			ctx = req.Context()
		}
		actor := "anonymous"
		if info, ok := authInfoFromContext(ctx); ok {
			actor = "user"
			fields = append(fields, "user_id", info.UserID)
		}
		fields = append(fields, "actor", actor)

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
	ctx    context.Context
}

func (sr *statusRecorder) SetContext(ctx context.Context) {
	sr.ctx = ctx
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func clientIP(req *http.Request) string {
	if forwarded := strings.TrimSpace(req.Header.Get("X-Forwarded-For")); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			if ip := strings.TrimSpace(parts[0]); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(req.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(req.RemoteAddr)
	}
	return host
}
