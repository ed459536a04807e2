package expense

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Structured log field names shared by the HTTP layer
const (
	fieldRequestID  = "request_id"
	fieldMethod     = "method"
	fieldPath       = "path"
	fieldStatusCode = "status_code"
	fieldDuration   = "duration_ms"
	fieldClientIP   = "client_ip"
	fieldUser       = "user"
)

type contextKey int

const (
	loggerKey contextKey = iota
	userKey
)

func withUser(ctx context.Context, user string) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFrom returns the authenticated caller identity
func userFrom(ctx context.Context) string {
	if user, ok := ctx.Value(userKey).(string); ok {
		return user
	}
	return DefaultUser
}

// loggerFrom returns the request-scoped logger, or the default logger
func loggerFrom(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an ID and logs its outcome
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		logger := slog.Default().With(fieldRequestID, requestID)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey, logger)))

		logger.Info("HTTP request",
			fieldMethod, r.Method,
			fieldPath, r.URL.Path,
			fieldStatusCode, rec.status,
			fieldDuration, time.Since(start).Milliseconds(),
			fieldClientIP, r.RemoteAddr,
		)
	})
}

// recoverPanics turns a handler panic into a 500 JSON response
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				loggerFrom(r.Context()).Error("Panic recovered",
					"error", rec,
					fieldMethod, r.Method,
					fieldPath, r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers to every response and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}
