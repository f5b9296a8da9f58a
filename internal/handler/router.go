package handler

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter registers the session endpoints of h.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(loggerMiddleware(h.logger))

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/repositories", h.GetRepositories).Methods(http.MethodGet)
	api.HandleFunc("/session", h.GetSession).Methods(http.MethodGet)
	api.HandleFunc("/session/selection", h.UpdateSelection).Methods(http.MethodPut)
	api.HandleFunc("/session/start", h.StartCycle).Methods(http.MethodPost)
	api.HandleFunc("/session/reset", h.ResetSession).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, ErrorCodeNotFound, "route not found", http.StatusNotFound)
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, ErrorCodeMethodNotAllowed, r.Method+" is not allowed on "+r.URL.Path, http.StatusMethodNotAllowed)
	})
	r.MethodNotAllowedHandler = methodNotAllowed
	api.MethodNotAllowedHandler = methodNotAllowed

	return r
}

// loggerMiddleware logs every request with its status code and duration.
func loggerMiddleware(logger *log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Printf("%s %s - Status: %d - Duration: %v\n", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start))
		})
	}
}

// responseWriter captures the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
