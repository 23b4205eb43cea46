package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olivergrant/ibts-backend/api/controllers"
	"github.com/olivergrant/ibts-backend/api/middleware"
	"github.com/olivergrant/ibts-backend/internal/auth"
	"github.com/olivergrant/ibts-backend/internal/incidents"
	"github.com/olivergrant/ibts-backend/internal/invitations"
	"github.com/olivergrant/ibts-backend/internal/notes"
	"github.com/olivergrant/ibts-backend/internal/users"
	"github.com/olivergrant/ibts-backend/pkg/config"
	"github.com/olivergrant/ibts-backend/pkg/db"
	"github.com/olivergrant/ibts-backend/pkg/logger"
	"github.com/olivergrant/ibts-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	authService auth.Service,
	registerService auth.RegisterService,
	userService users.Service,
	incidentService incidents.Service,
	noteService notes.Service,
	invitationService invitations.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/users", func(r chi.Router) {
			r.Get("/me", controllers.CurrentUser(userService, logg))
			r.Get("/lookup", controllers.UsersLookup(userService, logg))
		})

		r.Route("/v1/incidents", func(r chi.Router) {
			r.Post("/", controllers.IncidentCreate(incidentService, logg))
			r.Get("/", controllers.IncidentList(incidentService, logg))
			r.Get("/{incidentId}", controllers.IncidentGet(incidentService, logg))
			r.Patch("/{incidentId}", controllers.IncidentUpdate(incidentService, logg))
			r.Delete("/{incidentId}", controllers.IncidentDelete(incidentService, logg))
			r.Post("/{incidentId}/notes", controllers.IncidentNoteCreate(noteService, logg))
			r.Get("/{incidentId}/notes", controllers.IncidentNotesList(noteService, logg))
		})

		r.Route("/v1/lookups", func(r chi.Router) {
			r.Get("/incident-statuses", controllers.LookupIncidentStatuses())
			r.Get("/incident-priorities", controllers.LookupIncidentPriorities())
		})

		r.Route("/v1/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Get("/ping", controllers.AdminPing())
			r.Route("/users", func(r chi.Router) {
				r.Post("/", controllers.UserCreate(userService, logg))
				r.Get("/", controllers.UsersList(userService, logg))
				r.Get("/{userId}", controllers.UserGet(userService, logg))
				r.Patch("/{userId}", controllers.UserUpdate(userService, logg))
				r.Delete("/{userId}", controllers.UserDelete(userService, logg))
			})
			r.Route("/invitations", func(r chi.Router) {
				r.Post("/", controllers.InvitationCreate(invitationService, logg))
				r.Get("/", controllers.InvitationList(invitationService, logg))
			})
		})
	})

	return r
}
