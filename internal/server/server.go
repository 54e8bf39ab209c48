// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/plaid-ask/internal/assistant"
	"github.com/Veraticus/plaid-ask/internal/common"
	"github.com/Veraticus/plaid-ask/internal/daterange"
	"github.com/Veraticus/plaid-ask/internal/metrics"
	"github.com/Veraticus/plaid-ask/internal/model"
)

const maxBodyBytes = 4 << 20

// Assistant is the part of *assistant.Service the server needs.
type Assistant interface {
	Ask(ctx context.Context, question string) (*assistant.Result, error)
	Enrich(txns []model.Transaction) assistant.Enriched
	Resolve(text string) (daterange.Range, bool, error)
}

// NewRouter wires every route and middleware.
func NewRouter(svc Assistant, m *metrics.Metrics) http.Handler {
	h := &handlers{
		svc:    svc,
		logger: slog.Default().With("component", "server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", m.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", h.ask)
		r.Post("/daterange", h.dateRange)
		r.Post("/enrich", h.enrich)
	})
	return r
}

type handlers struct {
	svc    Assistant
	logger *slog.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

type askRequest struct {
	Question string `json:"question"`
}

type dateRangeRequest struct {
	Text          string `json:"text"`
	ReferenceDate string `json:"reference_date,omitempty"`
}

type dateRangeResponse struct {
	Range *daterange.Range `json:"range,omitempty"`
	Match bool             `json:"match"`
}

type enrichRequest struct {
	Transactions []model.Transaction `json:"transactions"`
}

func (h *handlers) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) ask(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	res, err := h.svc.Ask(r.Context(), req.Question)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) dateRange(w http.ResponseWriter, r *http.Request) {
	var req dateRangeRequest
	if !decode(w, r, &req) {
		return
	}

	var (
		rng daterange.Range
		ok  bool
		err error
	)
	if req.ReferenceDate != "" {
		ref, parseErr := model.ParseDate(req.ReferenceDate)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, "reference_date must be YYYY-MM-DD")
			return
		}
		rng, ok, err = daterange.Resolve(req.Text, ref.Time)
	} else {
		rng, ok, err = h.svc.Resolve(req.Text)
	}

	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		writeJSON(w, http.StatusOK, dateRangeResponse{Match: false})
		return
	}
	writeJSON(w, http.StatusOK, dateRangeResponse{Match: true, Range: &rng})
}

func (h *handlers) enrich(w http.ResponseWriter, r *http.Request) {
	var req enrichRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Enrich(req.Transactions))
}

// serviceError maps pipeline errors to HTTP responses.
func (h *handlers) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, daterange.ErrInvalidDateRange), errors.Is(err, common.ErrNoAnswer) && isUserError(err):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// client went away
		status = 499
	}

	reqID := middleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		common.LogError(h.logger, err, "ask failed", common.Fields{
			"request_id": reqID,
			"status":     status,
		})
	} else {
		h.logger.Warn("ask failed",
			"request_id", reqID,
			"status", status,
			"error", err)
	}
	writeError(w, status, common.UserMessage(err))
}

func isUserError(err error) bool {
	var userErr *common.UserError
	return errors.As(err, &userErr)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"status", status,
					"latency", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				}
				switch {
				case status >= 500:
					logger.Error("http request", attrs...)
				case status >= 400:
					logger.Warn("http request", attrs...)
				default:
					logger.Info("http request", attrs...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// ListenAndServe serves handler on addr until ctx is done, then shuts down
// gracefully. A non-nil tlsConfig serves HTTPS with its certificates.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, tlsConfig *tls.Config) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if tlsConfig != nil {
			slog.Info("https server listening", "addr", addr)
			err = srv.ListenAndServeTLS("", "")
		} else {
			slog.Info("http server listening", "addr", addr)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
