// FilePath: api/api.router.go
package api

import (
	"net/http"

	"github.com/boatmonitor/hub/api/middleware"
	"github.com/boatmonitor/hub/api/resources"
	"github.com/gorilla/mux"
)

type Router struct {
	router    *mux.Router
	resources *resources.Resources
}

func NewRouter(svc resources.Dashboard, metrics http.Handler) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		resources: resources.NewResources(svc, metrics),
	}

	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.router.Use(middleware.RequestID)
	r.router.Handle("/metrics", r.resources.Metrics).Methods(http.MethodGet)

	// API version prefix
	api := r.router.PathPrefix("/v1").Subrouter()

	api.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	api.HandleFunc("/live", r.resources.Telemetry.GetLive).Methods(http.MethodGet)
	api.HandleFunc("/history", r.resources.Telemetry.GetHistory).Methods(http.MethodGet)
	api.HandleFunc("/history.xlsx", r.resources.Telemetry.GetHistoryXLSX).Methods(http.MethodGet)
	api.HandleFunc("/recent", r.resources.Telemetry.GetRecent).Methods(http.MethodGet)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}
