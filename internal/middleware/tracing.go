package middleware

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"

	"github.com/usermeta/usermeta/internal/telemetry"
)

// Tracing opens one server span per request. The span covers the whole
// handler chain below it and is ended on every exit path, including
// panics recovered further down.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := telemetry.StartSpan(r.Context(), r.Method+" "+r.URL.Path,
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.RequestURI()),
			attribute.String("request.id", GetRequestID(r.Context())),
		)
		defer span.End()

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r.WithContext(ctx))

		span.SetAttribute("http.status_code", strconv.Itoa(wrapped.status))
	})
}
