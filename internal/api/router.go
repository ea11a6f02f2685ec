package api

import (
	"context"
	"net/http"

	"github.com/Rrens/teamhub/internal/api/handler"
	customMiddleware "github.com/Rrens/teamhub/internal/api/middleware"
	"github.com/Rrens/teamhub/internal/config"
	"github.com/Rrens/teamhub/internal/domain"
	"github.com/Rrens/teamhub/internal/executor"
	"github.com/Rrens/teamhub/internal/security"
	"github.com/Rrens/teamhub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
)

// Deps are the collaborators the router wires services from
type Deps struct {
	Store   *domain.Store
	Clock   clockwork.Clock
	Backend executor.Backend
	// Ready reports storage connectivity for /ready; nil means always ready
	Ready func(ctx context.Context) error
	// LoginLimiter throttles POST /auth/login; nil disables throttling
	LoginLimiter customMiddleware.Limiter
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: !cfg.Server.Debug,
		MaxAge:           300,
	}))

	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	backend := deps.Backend
	if backend == nil {
		backend = executor.LocalBackend{}
	}

	// Initialize services
	hasher := security.NewAPIKeyHasher(cfg.Auth.SecretKey)
	authService := service.NewAuthService(deps.Store, cfg.Auth, hasher, clock)
	userService := service.NewUserService(deps.Store)
	teamService := service.NewTeamService(deps.Store, clock)
	invitationService := service.NewInvitationService(deps.Store, clock)
	apiKeyService := service.NewAPIKeyService(deps.Store, hasher, clock, cfg.Auth.APIKeyEmailDomain)
	resourceService := service.NewResourceService(deps.Store, executor.New(deps.Store.Resources, backend, clock), clock)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(authService, userService)
	teamHandler := handler.NewTeamHandler(teamService)
	invitationHandler := handler.NewInvitationHandler(invitationService)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService)
	resourceHandler := handler.NewResourceHandler(resourceService)

	authMiddleware := customMiddleware.NewAuthMiddleware(authService)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Ready))

		// Public routes
		r.Group(func(r chi.Router) {
			if deps.LoginLimiter != nil {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.LoginLimiter, "login").Limit)
			}
			r.Post("/auth/login", authHandler.Login)
		})
		r.Post("/users", userHandler.Register)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/users", userHandler.List)
			r.Get("/users/{id}", userHandler.Get)

			r.Route("/teams", func(r chi.Router) {
				r.Get("/", teamHandler.List)
				r.Post("/", teamHandler.Create)
				r.Get("/all_teams", teamHandler.ListAll)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Get("/", teamHandler.Get)
					r.Patch("/", teamHandler.Update)
					r.Put("/", teamHandler.Update)
					r.Delete("/", teamHandler.Delete)
					r.Post("/user_add", teamHandler.AddUsers)
					r.Post("/user_remove", teamHandler.RemoveUsers)
				})
			})

			r.Route("/invitations", func(r chi.Router) {
				r.Get("/", invitationHandler.List)
				r.Post("/", invitationHandler.Create)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Get("/", invitationHandler.Get)
					r.Delete("/", invitationHandler.Delete)
					r.Get("/accept", invitationHandler.Accept)
					r.Get("/reject", invitationHandler.Delete)
				})
			})

			r.Route("/join_requests", func(r chi.Router) {
				r.Get("/", invitationHandler.ListJoinRequests)
				r.Post("/", invitationHandler.CreateJoinRequest)
				r.Get("/{uuid}", invitationHandler.GetJoinRequest)
				r.Delete("/{uuid}", invitationHandler.DeleteJoinRequest)
			})

			r.Route("/apikeys", func(r chi.Router) {
				r.Get("/", apiKeyHandler.List)
				r.Post("/", apiKeyHandler.Create)
				r.Get("/{uuid}", apiKeyHandler.Get)
				r.Delete("/{uuid}", apiKeyHandler.Delete)
			})

			r.Route("/resources", func(r chi.Router) {
				r.Get("/", resourceHandler.List)
				r.Post("/", resourceHandler.Create)

				r.Route("/{uuid}", func(r chi.Router) {
					r.Get("/", resourceHandler.Get)
					r.Patch("/", resourceHandler.Update)
					r.Delete("/", resourceHandler.Delete)
					r.Post("/recover", resourceHandler.Recover)
				})
			})
		})
	})

	return r
}
