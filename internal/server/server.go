package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	apperrors "github.com/tdcjreform/community/internal/errors"
	"github.com/tdcjreform/community/internal/models"
	"github.com/tdcjreform/community/internal/webhook"
)

// maxBodyBytes matches the largest payload GitHub delivers
const maxBodyBytes = 25 << 20

// Pipeline authenticates webhook events and deploys a repository's functions
type Pipeline interface {
	Authenticate(event *models.WebhookEvent) error
	DeployRepository(ctx context.Context, repository string) ([]models.Result, error)
}

// Handler serves the GitHub webhook and health endpoints
type Handler struct {
	pipeline Pipeline
	limiter  *webhook.RateLimiter
}

// NewHandler returns the webhook handler. A nil limiter disables rate limiting.
func NewHandler(pipeline Pipeline, limiter *webhook.RateLimiter) *Handler {
	return &Handler{
		pipeline: pipeline,
		limiter:  limiter,
	}
}

// Routes configures all HTTP routes
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /webhook", h.handleWebhook)
	mux.HandleFunc("POST /{$}", h.handleWebhook)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	return mux
}

// LoggingMiddleware injects a request scoped logger into the context and logs
// each request and response. The request id is the GitHub delivery id when present.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(webhook.DeliveryHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			w.Header().Set("X-Request-Id", requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			r = r.WithContext(reqLogger.WithContext(r.Context()))

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Str("event", r.Header.Get(webhook.EventHeader)).
				Msg("Incoming request")

			next.ServeHTTP(rw, r)

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status_code", rw.statusCode).
				Dur("duration", time.Since(start)).
				Msg("Request completed")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.textResponse(w, http.StatusOK, "OK")
}

func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.textResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		h.textResponse(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	event := webhook.NewEvent(r.Header, body)
	if err := h.pipeline.Authenticate(event); err != nil {
		logger.Warn().Err(err).Msg("Rejected webhook")
		h.errorResponse(w, err)
		return
	}

	switch {
	case event.Event == webhook.EventPing:
		h.textResponse(w, http.StatusOK, "pong")
		return
	case !webhook.IsPush(event):
		logger.Info().Str("event", event.Event).Msg("Ignoring non-push event")
		h.textResponse(w, http.StatusAccepted, "ignored event "+event.Event)
		return
	}

	if err := webhook.ParsePushEvent(event); err != nil {
		h.textResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.limiter != nil && !h.limiter.Allow(event.Repository) {
		logger.Warn().Str("repository", event.Repository).Msg("Rate limit exceeded")
		h.textResponse(w, http.StatusTooManyRequests, "rate limit exceeded for "+event.Repository)
		return
	}

	logger.Info().
		Str("repository", event.Repository).
		Str("ref", event.Ref).
		Str("after", event.After).
		Msg("Deploying push")

	// GitHub hangs up after 10s; the deployment must outlive the request
	results, err := h.pipeline.DeployRepository(context.WithoutCancel(ctx), event.Repository)
	if err != nil {
		logger.Error().Err(err).Str("kind", string(apperrors.KindOf(err))).Msg("Deployment failed")
		h.errorResponse(w, err)
		return
	}

	h.jsonResponse(w, http.StatusOK, results)
}

// jsonResponse writes a JSON response
func (h *Handler) jsonResponse(w http.ResponseWriter, statusCode int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		h.textResponse(w, http.StatusInternalServerError, "failed to marshal response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// errorResponse writes err's message as plain text with the status its kind maps to
func (h *Handler) errorResponse(w http.ResponseWriter, err error) {
	h.textResponse(w, apperrors.StatusCode(err), err.Error())
}

func (h *Handler) textResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, message)
}
