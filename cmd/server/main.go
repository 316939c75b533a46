package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/campus-hub/campus-events-api/internal/admission"
	"github.com/campus-hub/campus-events-api/internal/auth"
	"github.com/campus-hub/campus-events-api/internal/config"
	"github.com/campus-hub/campus-events-api/internal/database"
	"github.com/campus-hub/campus-events-api/internal/handlers"
	"github.com/campus-hub/campus-events-api/internal/notifier"
	"github.com/go-chi/chi/v5"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Discord announcements are optional; the API runs without them.
	var announcer notifier.Notifier
	if cfg.DiscordBotToken != "" {
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			announcer = notifier.NewDiscordNotifier(session, cfg.DiscordAnnounceChannelID)
		}
	}

	// Initialize Handlers
	authHandler := auth.NewAuthHandler(cfg, db)
	controller := admission.NewController(db)
	eventHandler := handlers.NewEventHandler(db, authHandler)
	registrationHandler := handlers.NewRegistrationHandler(db, controller, announcer, authHandler)
	userHandler := handlers.NewUserHandler(db, authHandler)
	apiKeyHandler := handlers.NewAPIKeyHandler(db, authHandler)

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, authHandler, eventHandler, registrationHandler, userHandler, apiKeyHandler)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
