package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// HealthChecker is the part of the database the admin endpoint needs.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	CountTables(ctx context.Context) (int, error)
}

type HealthResponse struct {
	Status string `json:"status"`
	Tables int    `json:"tables"`
	Error  string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func healthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			log.Warn().Err(err).Msg("Проверка здоровья не пройдена")
			writeJSON(w, HealthResponse{Status: "unavailable", Error: err.Error()}, http.StatusServiceUnavailable)
			return
		}

		count, err := db.CountTables(ctx)
		if err != nil {
			writeJSON(w, HealthResponse{Status: "unavailable", Error: err.Error()}, http.StatusServiceUnavailable)
			return
		}

		writeJSON(w, HealthResponse{Status: "ok", Tables: count}, http.StatusOK)
	}
}

// NewRouter serves /health and /metrics.
func NewRouter(db HealthChecker, m *Metrics) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler(db)).Methods(http.MethodGet)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	return router
}

func NewAdminServer(addr string, db HealthChecker, m *Metrics) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(db, m),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
