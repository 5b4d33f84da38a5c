package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pulsedeck/pulsedeck/internal/config"
	"github.com/pulsedeck/pulsedeck/internal/store"
	"github.com/pulsedeck/pulsedeck/internal/websocket"
)

// NewRouter creates a new HTTP router
func NewRouter(cfg *config.Config, st *store.Store, hub *websocket.Hub, live StatusSource) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Derived status surfaces
		r.Get("/status", HandleGetStatus(live, st))

		// Endpoint routes
		r.Get("/endpoints", HandleGetEndpoints(st))
		r.Post("/endpoints", HandleCreateEndpoint(st, hub))
		r.Get("/endpoints/{id}", HandleGetEndpoint(st))
		r.Put("/endpoints/{id}", HandleUpdateEndpoint(st, hub))
		r.Delete("/endpoints/{id}", HandleDeleteEndpoint(st, hub))
		r.Get("/endpoints/{id}/series", HandleGetEndpointSeries(st))
		r.Get("/endpoints/{id}/checks", HandleGetEndpointChecks(st))
		r.Post("/endpoints/{id}/checks", HandleIngestCheck(st, hub))

		// Incident routes
		r.Get("/incidents", HandleGetIncidents(st))
		r.Post("/incidents", HandleCreateIncident(st, hub))
		r.Put("/incidents/{id}", HandleUpdateIncident(st, hub))
		r.Delete("/incidents/{id}", HandleDeleteIncident(st, hub))
	})

	// WebSocket endpoint
	r.Get("/ws", hub.HandleWebSocket)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
