package server

import (
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// requestLogger logs one structured line per request, with the level picked
// from the response status.
func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			entry := logger.WithFields(logrus.Fields{
				"method":  r.Method,
				"path":    r.URL.Path,
				"status":  ww.Status(),
				"bytes":   ww.BytesWritten(),
				"latency": time.Since(startTime),
			})
			if id := chiMiddleware.GetReqID(r.Context()); id != "" {
				entry = entry.WithField("request_id", id)
			}
			if r.URL.RawQuery != "" {
				entry = entry.WithField("query", r.URL.RawQuery)
			}

			status := ww.Status()
			switch {
			case status >= 500:
				entry.Error("Internal Server Error")
			case status >= 400:
				entry.Warn("Client Error")
			default:
				entry.Info("Request completed")
			}
		})
	}
}
