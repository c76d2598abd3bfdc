package handler

import (
	"fmt"
	"net/http"
	"time"

	"anti-food-waste-backend/pkg/config"
	"anti-food-waste-backend/pkg/database"
	"anti-food-waste-backend/pkg/handlers"
	customMiddleware "anti-food-waste-backend/pkg/middleware"
	"anti-food-waste-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handler is the single HTTP entry point: every API endpoint is managed by
// one Chi router so the service can run as a plain server or a serverless
// function.
func Handler(w http.ResponseWriter, r *http.Request) {
	cfg := config.GetCached()

	if err := cfg.Validate(); err != nil {
		utils.WriteInternalServerErrorResponse(w, "Configuration error: "+err.Error())
		return
	}

	store := database.GetStore(database.StoreConfig{
		UseMemoryStore: cfg.UseMemoryStore,
		PostgresDSN:    cfg.PostgresDSN,
		Debug:          cfg.Debug,
	})

	NewRouter(cfg, store).ServeHTTP(w, r)
}

// NewRouter builds the full router with middleware and routes wired
func NewRouter(cfg *config.Config, store database.StoreInterface) *chi.Mux {
	router := chi.NewRouter()
	setupMiddleware(router, cfg)
	setupRoutes(router, cfg, store)
	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(customMiddleware.Logger(cfg))
	router.Use(customMiddleware.Recovery(cfg))

	router.Use(customMiddleware.CORS(cfg))

	router.Use(middleware.Timeout(25 * time.Second))
	router.Use(middleware.Compress(5))
	router.Use(customMiddleware.ContentTypeJSON)
	router.Use(customMiddleware.MaxBodySize(1 << 20)) // 1 MiB

	if cfg.IsDevelopment() {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

func setupRoutes(router *chi.Mux, cfg *config.Config, store database.StoreInterface) {
	authHandler := handlers.NewAuthHandler(cfg, store)
	categoriesHandler := handlers.NewCategoriesHandler(cfg, store)
	itemsHandler := handlers.NewItemsHandler(cfg, store)
	sharedItemsHandler := handlers.NewSharedItemsHandler(cfg, store)
	claimsHandler := handlers.NewClaimsHandler(cfg, store)
	groupsHandler := handlers.NewGroupsHandler(cfg, store)
	invitationsHandler := handlers.NewInvitationsHandler(cfg, store)
	externalHandler := handlers.NewExternalHandler(cfg)

	// Health check endpoint
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		if err := store.HealthCheck(); err != nil {
			status = "degraded: " + err.Error()
		}
		utils.WriteSuccessResponse(w, map[string]interface{}{
			"service": "anti-food-waste-backend",
			"status":  status,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Store diagnostics (debugging only)
	if cfg.IsDevelopment() {
		router.Get("/debug/db-pool", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteSuccessResponse(w, database.GetConnectionStats())
		})
	}

	router.Route("/api", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
		})

		// External product lookups (no auth; read-only proxy)
		r.Route("/products", func(r chi.Router) {
			r.Get("/search", externalHandler.SearchProducts)
			r.Get("/barcode/{code}", externalHandler.GetProductByBarcode)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuthMiddleware(cfg))

			r.Get("/auth/me", authHandler.Me)

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", categoriesHandler.ListCategories)
				r.Post("/", categoriesHandler.CreateCategory)
				r.Patch("/{id}", categoriesHandler.UpdateCategory)
				r.Delete("/{id}", categoriesHandler.DeleteCategory)
			})

			r.Route("/items", func(r chi.Router) {
				r.Get("/", itemsHandler.ListItems)
				r.Post("/", itemsHandler.CreateItem)
				r.Get("/expiring", itemsHandler.ListExpiring)
				r.Patch("/{id}", itemsHandler.UpdateItem)
				r.Patch("/{id}/shareable", itemsHandler.ToggleShareable)
				r.Delete("/{id}", itemsHandler.DeleteItem)
			})

			r.Get("/shared-items", sharedItemsHandler.ListSharedItems)

			r.Route("/claims", func(r chi.Router) {
				r.Post("/items/{itemID}/claims", claimsHandler.CreateClaim)
				r.Get("/incoming", claimsHandler.ListIncoming)
				r.Get("/mine", claimsHandler.ListMine)
				r.Patch("/{id}", claimsHandler.UpdateClaim)
			})

			r.Route("/groups", func(r chi.Router) {
				r.Get("/", groupsHandler.ListGroups)
				r.Post("/", groupsHandler.CreateGroup)
				r.Post("/{id}/invite", groupsHandler.InviteMember)
				r.Get("/{id}/members", groupsHandler.ListMembers)
				r.Patch("/{id}/members/{memberID}/preferences", groupsHandler.UpdateMemberPreferences)
			})

			r.Post("/invitations/accept", invitationsHandler.AcceptInvitation)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteNotFoundResponse(w, fmt.Sprintf("Route not found: %s %s", r.Method, r.URL.Path))
	})

	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.WriteErrorResponseWithCode(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("Method %s not allowed for %s", r.Method, r.URL.Path), "")
	})
}
