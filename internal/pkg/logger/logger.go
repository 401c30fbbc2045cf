// Package logger provides the project's logging built on top of Uber's Zap logging library.
// It creates leveled loggers for the client and the stub service. Both sides tag their
// lines with the request id the client sends in RequestIDHeader: the executor through
// ForRequest, the stub service through the WithLogging middleware.
package logger

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Logger wraps the zap.Logger to provide additional logging functionality.
type Logger struct {
	*zap.Logger
}

// newLogger initializes a new Logger instance using the production configuration of Zap.
// In case of an error during creation, it logs the error using the standard log package.
func newLogger() *Logger {
	customLog, err := zap.NewProduction()
	if err != nil {
		log.Println(err)
	}
	return &Logger{Logger: customLog}
}

// CreateLogger creates and configures a Logger with the specified log level.
// It parses the provided level, applies it to the production configuration, and builds a new Zap logger.
func CreateLogger(level string) (customLog *Logger, err error) {
	log := newLogger()
	defer log.Sync()

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return log, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = lvl

	zl, err := cfg.Build()
	if err != nil {
		return log, err
	}

	log.Logger = zl
	return log, nil
}

// NewNop returns a Logger that discards everything. Intended for tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// RequestIDHeader carries the id transport.Executor assigns to every request.
// The stub's WithLogging middleware logs the same id, so the client line and the
// server line of one round trip can be joined.
const RequestIDHeader = "X-Request-Id"

// ForRequest returns a child logger tagged with one API round trip.
func (log *Logger) ForRequest(method, path, requestID string) *Logger {
	return &Logger{Logger: log.With(
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID))}
}

// WithLogging returns HTTP middleware that logs incoming HTTP requests.
// Requests arriving without an id get a fresh one; the id is echoed in the
// response header either way.
func (log *Logger) WithLogging() func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()
			defer func() {
				log.ForRequest(r.Method, r.URL.Path, requestID).Info("served",
					zap.Int("status", ww.Status()),
					zap.Duration("duration", time.Since(t1)),
					zap.Int("size", ww.BytesWritten()))
			}()
			h.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
