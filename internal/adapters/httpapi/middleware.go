package httpapi

import (
	"SabhaPay/internal/shared/metrics"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	callerIDKey    contextKey = "caller_id"
	callerEmailKey contextKey = "caller_email"
	callerNameKey  contextKey = "caller_name"
)

// RequestID attaches a correlation id to every request.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// GetRequestID returns the correlation id set by RequestID.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Identity trusts the upstream gateway's user headers. Authentication
// itself happens before traffic reaches this service.
func Identity(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := r.Header.Get("X-User-ID")
			callerID, err := uuid.Parse(rawID)
			if err != nil {
				log.Warn().Str("raw", rawID).Msg("Request without a usable identity header")
				writeErrorJSON(w, http.StatusUnauthorized, "unauthorized", "missing or invalid identity", "")
				return
			}

			ctx := context.WithValue(r.Context(), callerIDKey, callerID)
			ctx = context.WithValue(ctx, callerEmailKey, r.Header.Get("X-User-Email"))
			ctx = context.WithValue(ctx, callerNameKey, r.Header.Get("X-User-Name"))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerID returns the authenticated caller set by Identity.
func CallerID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(callerIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// CallerEmail returns the caller's email header value.
func CallerEmail(ctx context.Context) string {
	if email, ok := ctx.Value(callerEmailKey).(string); ok {
		return email
	}
	return ""
}

// CallerName returns the caller's display name header value.
func CallerName(ctx context.Context) string {
	if name, ok := ctx.Value(callerNameKey).(string); ok {
		return name
	}
	return ""
}

// Logger writes one access-log line per request.
func Logger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", recorder.status).
				Dur("duration", time.Since(start)).
				Str("request_id", GetRequestID(r.Context())).
				Msg("Request handled")
		})
	}
}

// Measure records the request latency histogram by route pattern.
func Measure(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPDuration.
				WithLabelValues(route, strconv.Itoa(recorder.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
