package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server     Server
	Database   Database
	Auth       Auth
	AI         AI
	Proctoring Proctoring
	Cache      Cache
	Mail       Mail
	Log        Log
}

type Server struct {
	Port           string
	Mode           string
	BodyLimitBytes int64
	AllowedOrigins []string
	ClientURL      string
}

type Database struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN prefers DATABASE_URL and falls back to the discrete connection fields.
func (d Database) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type Auth struct {
	JWTSecret     string
	TokenTTL      time.Duration
	AssignmentTTL time.Duration
}

type AI struct {
	Provider     string // "http" or "gemini"
	ServiceURL   string
	Timeout      time.Duration
	GeminiApiKey string
	GeminiModel  string
}

type Proctoring struct {
	ServiceURL    string
	HealthTimeout time.Duration
}

type Cache struct {
	TestTTL    time.Duration
	AttemptTTL time.Duration
	SweepSpec  string
}

type Mail struct {
	SendGridApiKey string
	FromAddress    string
	FromName       string
}

type Log struct {
	Level  string
	Format string
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "5000")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("BODY_LIMIT_BYTES", 5<<20)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("CLIENT_URL", "http://localhost:5173")

	viper.SetDefault("DATABASE_HOST", "localhost")
	viper.SetDefault("DATABASE_PORT", "5432")
	viper.SetDefault("DATABASE_SSLMODE", "disable")

	viper.SetDefault("JWT_TTL", "720h")
	viper.SetDefault("ASSIGNMENT_TTL", "720h")

	viper.SetDefault("AI_PROVIDER", "http")
	viper.SetDefault("AI_SERVICE_URL", "http://localhost:8000")
	viper.SetDefault("AI_TIMEOUT", "60s")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")

	viper.SetDefault("PROCTORING_SERVICE_URL", "http://localhost:5001")
	viper.SetDefault("PROCTORING_HEALTH_TIMEOUT", "1s")

	viper.SetDefault("CACHE_TEST_TTL", "5m")
	viper.SetDefault("CACHE_ATTEMPT_TTL", "3m")
	viper.SetDefault("CACHE_SWEEP_SPEC", "@every 5m")

	viper.SetDefault("MAIL_FROM_ADDRESS", "no-reply@assessa.local")
	viper.SetDefault("MAIL_FROM_NAME", "Assessa")

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Server.Mode = viper.GetString("SERVER_MODE")
	config.Server.BodyLimitBytes = viper.GetInt64("BODY_LIMIT_BYTES")
	config.Server.AllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	config.Server.ClientURL = strings.TrimRight(viper.GetString("CLIENT_URL"), "/")

	config.Database.URL = viper.GetString("DATABASE_URL")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")
	config.Database.SSLMode = viper.GetString("DATABASE_SSLMODE")

	config.Auth.JWTSecret = viper.GetString("JWT_SECRET")
	config.Auth.TokenTTL = viper.GetDuration("JWT_TTL")
	config.Auth.AssignmentTTL = viper.GetDuration("ASSIGNMENT_TTL")

	config.AI.Provider = strings.ToLower(viper.GetString("AI_PROVIDER"))
	config.AI.ServiceURL = strings.TrimRight(viper.GetString("AI_SERVICE_URL"), "/")
	config.AI.Timeout = viper.GetDuration("AI_TIMEOUT")
	config.AI.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.AI.GeminiModel = viper.GetString("GEMINI_MODEL")

	config.Proctoring.ServiceURL = strings.TrimRight(viper.GetString("PROCTORING_SERVICE_URL"), "/")
	config.Proctoring.HealthTimeout = viper.GetDuration("PROCTORING_HEALTH_TIMEOUT")

	config.Cache.TestTTL = viper.GetDuration("CACHE_TEST_TTL")
	config.Cache.AttemptTTL = viper.GetDuration("CACHE_ATTEMPT_TTL")
	config.Cache.SweepSpec = viper.GetString("CACHE_SWEEP_SPEC")

	config.Mail.SendGridApiKey = viper.GetString("SENDGRID_API_KEY")
	config.Mail.FromAddress = viper.GetString("MAIL_FROM_ADDRESS")
	config.Mail.FromName = viper.GetString("MAIL_FROM_NAME")

	config.Log.Level = viper.GetString("LOG_LEVEL")
	config.Log.Format = viper.GetString("LOG_FORMAT")

	if config.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	log.Info().
		Str("port", config.Server.Port).
		Str("mode", config.Server.Mode).
		Strs("origins", config.Server.AllowedOrigins).
		Str("aiProvider", config.AI.Provider).
		Msg("Config loaded")
	return &config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
