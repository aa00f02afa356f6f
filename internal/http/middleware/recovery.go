package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// NewRecoveryMiddleware turns a panic in a handler into a logged 500 instead
// of a crashed process.
func NewRecoveryMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						slog.Any("panic", rec),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					response.WriteJSON(w, http.StatusInternalServerError,
						response.Error("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Chain wraps h so that mws run in the order given: the first is outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
