package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                     string `mapstructure:"PORT"`
	DatabasePath             string `mapstructure:"DATABASE_PATH"`
	GoogleClientID           string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret       string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL        string `mapstructure:"GOOGLE_REDIRECT_URL"`
	AllowedEmailDomain       string `mapstructure:"ALLOWED_EMAIL_DOMAIN"`
	JWTSecret                string `mapstructure:"JWT_SECRET"`
	FrontendURL              string `mapstructure:"FRONTEND_URL"`
	DiscordBotToken          string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordAnnounceChannelID string `mapstructure:"DISCORD_ANNOUNCE_CHANNEL_ID"`
	EnableCORS               bool   `mapstructure:"ENABLE_CORS"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_PATH", "campus_events.db")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8080/auth/google/callback")
	viper.SetDefault("ALLOWED_EMAIL_DOMAIN", "")
	viper.SetDefault("FRONTEND_URL", "")

	viper.BindEnv("GOOGLE_CLIENT_ID")
	viper.BindEnv("GOOGLE_CLIENT_SECRET")
	viper.BindEnv("ALLOWED_EMAIL_DOMAIN")
	viper.BindEnv("JWT_SECRET")
	viper.BindEnv("FRONTEND_URL")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_ANNOUNCE_CHANNEL_ID")
	viper.BindEnv("ENABLE_CORS")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
