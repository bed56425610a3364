package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/tvbatch/internal/api/handlers"
	"github.com/wonny/tvbatch/pkg/logger"
)

// NewRouter creates and configures the HTTP router. metrics may be nil.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(runHandler *handlers.RunHandler, configHandler *handlers.ConfigHandler, metrics http.Handler, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}

	api := r.PathPrefix("/api").Subrouter()

	// Run configuration
	api.HandleFunc("/config", configHandler.Get).Methods("GET")
	api.HandleFunc("/config", configHandler.Put).Methods("PUT")

	// Batch runs
	api.HandleFunc("/runs", runHandler.Start).Methods("POST")
	api.HandleFunc("/runs/status", runHandler.Status).Methods("GET")
	api.HandleFunc("/runs/latest", runHandler.Latest).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "tvbatch-api",
	})
}

// statusRecorder captures the response code for the request log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
