package kit

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Recoverer turns handler panics into 500 responses so a single bad
// request cannot take a storefront service down.
func Recoverer(next http.Handler) http.Handler {
	return middleware.Recoverer(next)
}

// Logging emits one structured access line per request once the
// response is written. The route label comes from the matched chi
// pattern where one exists, keeping lines greppable per endpoint
// rather than per URL.
func Logging(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info("http request",
				accessFields(r, ww, time.Since(start))...,
			)
		})
	}
}

func accessFields(r *http.Request, ww middleware.WrapResponseWriter, took time.Duration) []zap.Field {
	return []zap.Field{
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("method", r.Method),
		zap.String("route", ChiRoutePatternOrPath(r)),
		zap.String("path", r.URL.Path),
		zap.Int("status", ww.Status()),
		zap.Int("bytes", ww.BytesWritten()),
		zap.Duration("took", took),
		zap.String("remote", r.RemoteAddr),
	}
}
