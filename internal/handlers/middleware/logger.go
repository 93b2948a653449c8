package middleware

import (
	"net/http"
	"time"
)

type logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

// Log every request once it is served. Server errors are logged at error level
func LoggerMiddleware(l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newRecordingWriter(w)

			next.ServeHTTP(rw, r)

			log := l.Info
			if rw.status >= http.StatusInternalServerError {
				log = l.Error
			}

			log(
				"got HTTP request",
				"method", r.Method,
				"uri", r.RequestURI,
				"duration", time.Since(start),
				"status", rw.status,
				"size", rw.size,
			)
		})
	}
}
