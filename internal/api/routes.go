package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/procroute/internal/config"
	"github.com/yegors/procroute/pkg/logger"
)

// Router is the API router
type Router struct {
	handler    *Handler
	middleware *Middleware
	config     config.ServerConfig
	logger     *logger.Logger
}

// NewRouter creates a new API router
func NewRouter(handler *Handler, config config.ServerConfig, logger *logger.Logger) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(logger),
		config:     config,
		logger:     logger.Named("api-router"),
	}
}

// Routes returns the API routes
func (r *Router) Routes() http.Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(r.middleware.RequestID)
	router.Use(r.middleware.Logger)
	router.Use(r.middleware.Recoverer)
	router.Use(r.middleware.CORS(r.config.CORSAllowedOrigins))

	router.Route("/api/v1", func(router chi.Router) {
		router.Get("/health", r.handler.GetHealth)

		// Reference data
		router.Get("/reference/status", r.handler.GetReferenceStatus)
		router.Post("/reference/reload", r.handler.ReloadReference)

		// Procedure lookups. The literal combined route is registered
		// before the {family} patterns.
		router.Get("/procedures/combined", r.handler.ResolveCombined)
		router.Route("/procedures/{family}", func(router chi.Router) {
			router.Get("/resolve", r.handler.ResolveToken)
			router.Get("/search", r.handler.SearchProcedures)
			router.Get("/fix/{fix}", r.handler.GetProceduresAtFix)
		})

		// Routes
		router.Post("/routes/preprocess", r.handler.PreprocessRoute)
		router.Post("/routes/expand", r.handler.ExpandRoute)
	})

	r.logger.Debug("Routes registered")
	return router
}
