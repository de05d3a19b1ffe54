package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"voice-agent/internal/observe"
)

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	swaggerURL := a.opts.SwaggerURL
	if swaggerURL == "" {
		swaggerURL = "/swagger/doc.json"
	}
	mux.Handle("/swagger/", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Voice Agent API is running"))
	})
	mux.HandleFunc("GET /health", a.HealthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/candidates", a.ListCandidatesHandler)
	mux.HandleFunc("POST /api/candidates", a.CreateCandidateHandler)
	mux.HandleFunc("GET /api/candidates/{id}", a.GetCandidateHandler)
	mux.HandleFunc("PUT /api/candidates/{id}", a.UpdateCandidateHandler)
	mux.HandleFunc("DELETE /api/candidates/{id}", a.DeleteCandidateHandler)
	mux.HandleFunc("GET /api/candidates/{id}/conversations", a.ListCandidateConversationsHandler)
	mux.HandleFunc("GET /api/candidates/{id}/appointments", a.ListCandidateAppointmentsHandler)

	mux.HandleFunc("GET /api/jobs", a.ListJobsHandler)
	mux.HandleFunc("POST /api/jobs", a.CreateJobHandler)
	mux.HandleFunc("POST /api/jobs/import", a.ImportJobHandler)
	mux.HandleFunc("GET /api/jobs/{id}", a.GetJobHandler)
	mux.HandleFunc("PUT /api/jobs/{id}", a.UpdateJobHandler)
	mux.HandleFunc("DELETE /api/jobs/{id}", a.DeleteJobHandler)

	mux.HandleFunc("GET /api/appointments", a.ListAppointmentsHandler)
	mux.HandleFunc("POST /api/appointments", a.CreateAppointmentHandler)
	mux.HandleFunc("GET /api/appointments/{id}", a.GetAppointmentHandler)
	mux.HandleFunc("PUT /api/appointments/{id}", a.UpdateAppointmentHandler)
	mux.HandleFunc("DELETE /api/appointments/{id}", a.DeleteAppointmentHandler)

	mux.HandleFunc("GET /api/conversations", a.ListConversationsHandler)
	mux.HandleFunc("POST /api/conversations", a.CreateConversationHandler)
	mux.HandleFunc("GET /api/conversations/{id}", a.GetConversationHandler)
	mux.HandleFunc("PUT /api/conversations/{id}", a.UpdateConversationHandler)
	mux.HandleFunc("DELETE /api/conversations/{id}", a.DeleteConversationHandler)

	mux.HandleFunc("GET /api/interviews/ws", a.InterviewSocketHandler)

	return cors(observe.Middleware(a.opts.Metrics)(mux))
}

// cors allows any origin, as the dashboard is served separately.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, traceparent")
		h.Set("Access-Control-Expose-Headers", "X-Correlation-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthHandler reports whether the database is reachable
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.db.GetConnection().PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
