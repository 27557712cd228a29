package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/AnshRaj112/thoughtify-backend/internal/metrics"
	"github.com/AnshRaj112/thoughtify-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs every request and records its latency by route pattern.
func RequestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			elapsed := time.Since(start)
			metrics.ObserveRequest(r.Method, route, status, elapsed.Seconds())

			if log == nil {
				return
			}
			fields := []interface{}{
				"method", strings.ToUpper(r.Method),
				"path", r.URL.Path,
				"status", status,
				"duration_ms", elapsed.Milliseconds(),
			}
			if route != "" {
				fields = append(fields, "route", route)
			}
			if reqID := chimw.GetReqID(r.Context()); reqID != "" {
				fields = append(fields, "request_id", reqID)
			}

			switch {
			case status >= 500:
				log.Error("HTTP request", fields...)
			case status >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		})
	}
}
