package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"worldgraph-backend/interfaces/http/rest/handlers"
	"worldgraph-backend/interfaces/http/rest/middleware"
	"worldgraph-backend/internal/service/enrich"
	"worldgraph-backend/internal/service/explore"
	"worldgraph-backend/internal/service/ledger"
	"worldgraph-backend/pkg/auth"
	"worldgraph-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	ledger    *ledger.Service
	explore   *explore.Service
	enrich    *enrich.Service
	validator *auth.JWTValidator
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	ledgerSvc *ledger.Service,
	exploreSvc *explore.Service,
	enrichSvc *enrich.Service,
	validator *auth.JWTValidator,
	metrics *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		ledger:    ledgerSvc,
		explore:   exploreSvc,
		enrich:    enrichSvc,
		validator: validator,
		metrics:   metrics,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	if rt.metrics != nil {
		router.Use(rt.metrics.Middleware)
	}

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://*.worldgraph.app"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(rt.validator, rt.logger))

		// Claim endpoints
		r.Route("/claims", func(r chi.Router) {
			claimsHandler := handlers.NewClaimsHandler(rt.ledger, rt.logger)
			r.Post("/person-event", claimsHandler.CreateClaim)
			r.Post("/{claimID}/evidence", claimsHandler.AddEvidence)
			r.Post("/{claimID}/vote", claimsHandler.CastVote)
		})

		// People endpoints
		r.Route("/people", func(r chi.Router) {
			peopleHandler := handlers.NewPeopleHandler(rt.explore, rt.logger)
			r.Get("/{id}/graph", peopleHandler.ProfileGraph)
			r.Get("/{id}/neighborhood", peopleHandler.Neighborhood)
			r.Get("/{id}/connections", peopleHandler.Connections)
			r.Get("/{aID}/why/{bID}", peopleHandler.WhyConnected)
			r.Get("/{aID}/shared-events/{bID}", peopleHandler.SharedEvents)
		})

		// Event endpoints
		r.Route("/events", func(r chi.Router) {
			eventsHandler := handlers.NewEventsHandler(rt.explore, rt.logger)
			r.Get("/{id}/neighborhood", eventsHandler.Neighborhood)
		})

		// Entity detail endpoint with enrichment
		r.Get("/entity/{id}/details", handlers.NewEntitiesHandler(rt.enrich, rt.logger).Details)

		// Search endpoint
		r.Get("/search", handlers.NewSearchHandler(rt.explore, rt.logger).Search)
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
