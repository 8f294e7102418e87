package api

import (
	"net/http"

	"facility-route-service/internal/api/handlers"
	"facility-route-service/internal/services"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP layer needs. Handlers stay unaware of
// concrete adapters.
type Deps struct {
	Finder    *services.FacilityFinder
	Planner   *services.RoutePlanner
	Estimator *services.TravelEstimator
	Sessions  *services.SessionStore
	Bounds    services.DurationBounds
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
func NewRouter(d Deps) http.Handler {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware, loggingMiddleware)

	facilities := &handlers.FacilityHandler{Finder: d.Finder, Sessions: d.Sessions}
	routes := &handlers.RouteHandler{
		Planner:   d.Planner,
		Estimator: d.Estimator,
		Sessions:  d.Sessions,
		Bounds:    d.Bounds,
	}

	r.HandleFunc("/health", handlers.Health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/facilities/nearby", facilities.Nearby).Methods(http.MethodGet)
	r.HandleFunc("/facilities/viewport", facilities.Viewport).Methods(http.MethodGet)
	r.HandleFunc("/facilities/nearest", facilities.Nearest).Methods(http.MethodGet)
	r.HandleFunc("/facilities/{source_type}/{source_id}", facilities.Get).Methods(http.MethodGet)

	r.HandleFunc("/routes", routes.Plan).Methods(http.MethodPost)
	r.HandleFunc("/routes/animation", routes.Animation).Methods(http.MethodPost)
	r.HandleFunc("/routes/estimates", routes.Estimates).Methods(http.MethodPost)

	return r
}
