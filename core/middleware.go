package core

import (
	"net/http"
	"time"
)

// All middleware conforms to fn(next http.Handler) http.Handler.
// Differentiate from the request handlers by suffix.

// Logger logs the method, path, status, and duration of every request.
func (a *App) Logger(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		rec := &ResponseRecorder{ResponseWriter: w, StartTime: time.Now()}
		next.ServeHTTP(rec, r)
		a.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"bytes", rec.BytesWritten,
			"duration", rec.Duration(),
		)
	}
	return http.HandlerFunc(fn)
}
