package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

type Config struct {
	// Server
	Port        string
	Environment string
	PublicURL   string

	// Ticketing API
	APIBaseURL   string
	APITimeout   time.Duration
	PageSize     int
	ListCacheTTL time.Duration
	FakeAPI      bool

	// Identity provider
	FirebaseAPIKey     string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Sessions
	SessionSecret []byte
	SessionTTL    time.Duration
	CookieSecure  bool

	// External collaborators
	ImgBBAPIKey     string
	StripeSecretKey string

	// Redis
	RedisURL string

	// RabbitMQ
	RabbitMQURL string
	Exchange    string

	// Notifier
	MailerSendAPIKey     string
	MailerSendFromEmail  string
	MailerSendTemplateID string
	NotifierWorkers      int
	NotifierPrefetch     int
	DBHost               string
	DBPort               string
	DBUser               string
	DBPassword           string
	DBName               string
	DBSSLMode            string

	// Monitoring
	EnableMetrics bool
}

// LoadConfig reads the environment, after merging an optional .env file.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		PublicURL:   getEnv("PUBLIC_URL", "http://localhost:8080"),

		APIBaseURL:   getEnv("API_URL", "https://online-ticket-system-server.vercel.app"),
		APITimeout:   getEnvAsDuration("API_TIMEOUT", "15s"),
		PageSize:     getEnvAsInt("PAGE_SIZE", 6),
		ListCacheTTL: getEnvAsDuration("LIST_CACHE_TTL", "30s"),
		FakeAPI:      getEnvAsBool("FAKE_API", false),

		FirebaseAPIKey:     getEnv("FIREBASE_API_KEY", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback"),

		SessionSecret: []byte(getEnv("SESSION_SECRET", "")),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", "168h"),
		CookieSecure:  getEnvAsBool("COOKIE_SECURE", false),

		ImgBBAPIKey:     getEnv("IMGBB_API_KEY", ""),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		Exchange:    getEnv("RABBITMQ_EXCHANGE", "ticketbari"),

		MailerSendAPIKey:     getEnv("MAILERSEND_API_KEY", ""),
		MailerSendFromEmail:  getEnv("MAILERSEND_EMAIL", ""),
		MailerSendTemplateID: getEnv("MAILERSEND_TEMPLATE_ID", ""),
		NotifierWorkers:      getEnvAsInt("NOTIFIER_WORKERS", 5),
		NotifierPrefetch:     getEnvAsInt("NOTIFIER_PREFETCH", 10),
		DBHost:               getEnv("DB_HOST", "localhost"),
		DBPort:               getEnv("DB_PORT", "5432"),
		DBUser:               getEnv("DB_USER", "postgres"),
		DBPassword:           getEnv("DB_PASSWORD", "postgres"),
		DBName:               getEnv("DB_NAME", "notification_db"),
		DBSSLMode:            getEnv("DB_SSLMODE", "disable"),

		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// ValidateWeb reports the settings the web service cannot start without.
func (c *Config) ValidateWeb() error {
	if len(c.SessionSecret) == 0 {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if c.FirebaseAPIKey == "" {
		return fmt.Errorf("FIREBASE_API_KEY environment variable is required")
	}
	if c.APIBaseURL == "" && !c.FakeAPI {
		return fmt.Errorf("API_URL environment variable is required")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	return nil
}

// ValidateNotifier reports the settings the notifier cannot start without.
func (c *Config) ValidateNotifier() error {
	if c.MailerSendAPIKey == "" || c.MailerSendTemplateID == "" || c.MailerSendFromEmail == "" {
		return fmt.Errorf("required environment variables are not set: MAILERSEND_API_KEY, MAILERSEND_TEMPLATE_ID, MAILERSEND_EMAIL")
	}
	if c.RabbitMQURL == "" {
		return fmt.Errorf("RABBITMQ_URL environment variable is required")
	}
	if c.NotifierWorkers < 1 {
		return fmt.Errorf("NOTIFIER_WORKERS must be at least 1, got %d", c.NotifierWorkers)
	}
	return nil
}

// OAuth2 returns the Google sign-in configuration.
func (c *Config) OAuth2() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.GoogleClientID,
		ClientSecret: c.GoogleClientSecret,
		Scopes:       []string{"openid", "https://www.googleapis.com/auth/userinfo.profile", "https://www.googleapis.com/auth/userinfo.email"},
		Endpoint:     google.Endpoint,
		RedirectURL:  c.GoogleRedirectURL,
	}
}

// DSN builds the postgres connection string for the notifier's ledger.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
