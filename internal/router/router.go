package router

import (
	"net/http"

	"point-service/internal/config"
	"point-service/internal/handlers"
	"point-service/internal/metrics"
	"point-service/internal/middleware"
	"point-service/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func SetupRouter(cfg config.Config, pointService *services.PointService, queryService *services.PointQueryService, logger zerolog.Logger) *mux.Router {
	pointHandler := handlers.NewPointHandler(pointService, queryService, logger)

	r := mux.NewRouter()

	rateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)

	r.Use(middleware.ErrorHandling(logger))
	r.Use(metrics.InstrumentHandler)
	r.Use(middleware.PerformanceMonitoring(logger, cfg.SlowRequestThreshold))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	r.Use(rateLimiter.Middleware())

	points := r.PathPrefix("/point/{id}").Subrouter()
	points.HandleFunc("", pointHandler.GetPoint).Methods("GET")
	points.HandleFunc("/histories", pointHandler.GetHistories).Methods("GET")
	points.HandleFunc("/at", pointHandler.GetPointAt).Methods("GET")
	points.HandleFunc("/reconcile", pointHandler.Reconcile).Methods("GET")

	mutations := points.PathPrefix("").Subrouter()
	mutations.Use(middleware.RequestValidation())
	mutations.HandleFunc("/charge", pointHandler.Charge).Methods("PATCH")
	mutations.HandleFunc("/use", pointHandler.Use).Methods("PATCH")

	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	return r
}
