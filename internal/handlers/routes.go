package handlers

import (
	"net/http"

	"github.com/campus-hub/campus-events-api/internal/auth"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func RegisterRoutes(
	r *chi.Mux,
	authHandler *auth.AuthHandler,
	eventHandler *EventHandler,
	registrationHandler *RegistrationHandler,
	userHandler *UserHandler,
	apiKeyHandler *APIKeyHandler,
) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("Campus Events API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKeyAuth": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-Key",
		},
	}
	api := humachi.New(r, config)

	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKeyAuth": {}}}
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Auth routes
	r.Get("/auth/google/login", authHandler.HandleLogin)
	r.Get("/auth/google/callback", authHandler.HandleCallback)
	huma.Get(api, "/me", authHandler.HandleMe, secured)

	// Events
	huma.Get(api, "/events", eventHandler.HandleListEvents)
	huma.Get(api, "/events/{id}", eventHandler.HandleGetEvent)
	huma.Post(api, "/events", eventHandler.HandleCreateEvent, secured)
	huma.Put(api, "/events/{id}", eventHandler.HandleUpdateEvent, secured)
	huma.Delete(api, "/events/{id}", eventHandler.HandleDeleteEvent, secured)

	// Registrations
	huma.Post(api, "/registrations", registrationHandler.HandleCreateRegistration, secured)
	huma.Get(api, "/registrations", registrationHandler.HandleListRegistrations, secured)
	huma.Get(api, "/registrations/{id}", registrationHandler.HandleGetRegistration, secured)
	huma.Put(api, "/registrations/{id}", registrationHandler.HandleUpdateRegistration, secured)
	huma.Delete(api, "/registrations/{id}", registrationHandler.HandleDeleteRegistration, secured)
	huma.Get(api, "/registrations/{id}/audit", registrationHandler.HandleRegistrationAudit, secured)

	// Users
	huma.Get(api, "/users", userHandler.HandleListUsers, secured)
	huma.Get(api, "/users/{id}", userHandler.HandleGetUser, secured)
	huma.Put(api, "/users/{id}", userHandler.HandleUpdateUser, secured)
	huma.Delete(api, "/users/{id}", userHandler.HandleDeleteUser, secured)

	// API keys
	huma.Post(api, "/apikeys", apiKeyHandler.HandleCreate, secured)
	huma.Get(api, "/apikeys", apiKeyHandler.HandleList, secured)
	huma.Delete(api, "/apikeys/{id}", apiKeyHandler.HandleDelete, secured)

	// Roster export streams CSV, so it stays a plain chi route behind the
	// auth middleware instead of a huma operation.
	r.Group(func(r chi.Router) {
		r.Use(authHandler.AuthMiddleware)
		r.Get("/events/{id}/roster.csv", registrationHandler.HandleExportRoster)
	})
}
