package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"viz-query-service/handlers"
	"viz-query-service/logger"
	"viz-query-service/services"
)

// NewRouter exposes the dashboard. Metrics are served from gatherer when it is set.
func NewRouter(d *services.Dashboard, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger.GetLogger("http")))

	r.HandleFunc("/nodes/{node_id}", handlers.PutNode(d)).Methods(http.MethodPut)
	r.HandleFunc("/nodes/{node_id}", handlers.DeleteNode(d)).Methods(http.MethodDelete)
	r.HandleFunc("/nodes/{node_id}/trees", handlers.GetTrees(d)).Methods(http.MethodGet)
	r.HandleFunc("/indices", handlers.GetIndices(d)).Methods(http.MethodGet)
	r.HandleFunc("/schema/{data_type}/{node_type}/fields", handlers.GetFieldsHandler(d)).Methods(http.MethodGet)
	r.HandleFunc("/views/{view_id}/query", handlers.QueryView(d)).Methods(http.MethodPost)
	r.HandleFunc("/views/{view_id}/documents", handlers.AssembleView(d)).Methods(http.MethodPost)
	r.HandleFunc("/facades", handlers.GetFacades(d)).Methods(http.MethodGet)
	r.HandleFunc("/facades", handlers.PostFacade(d)).Methods(http.MethodPost)
	r.HandleFunc("/facades", handlers.ResetFacades(d)).Methods(http.MethodDelete)
	r.HandleFunc("/facades/{facade_id}", handlers.GetFacade(d)).Methods(http.MethodGet)
	r.HandleFunc("/facades/{facade_id}", handlers.DeleteFacade(d)).Methods(http.MethodDelete)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	return r
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(l *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			l.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("took", time.Since(start)).
				Msg("request")
		})
	}
}
