// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains server configuration parameters.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8000"`
	LogLevel int    `env:"LOG_LEVEL" envDefault:"0"` // slog level: -4 debug, 0 info, 4 warn, 8 error
	DBPath   string `env:"DB_PATH" envDefault:"data/app.db"`

	// ClientURL is the frontend that OAuth callbacks redirect back to.
	ClientURL      string   `env:"CLIENT_URL" envDefault:"http://localhost:3000"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Salt   string `env:"SALT"`
	Upload Upload `envPrefix:"UPLOAD_"`

	JWT      JWT         `envPrefix:"JWT_"`
	Google   OAuthClient `envPrefix:"GOOGLE_"`
	GitHub   OAuthClient `envPrefix:"GITHUB_"`
	Telegram Telegram    `envPrefix:"TELEGRAM_"`
	Storage  Storage     `envPrefix:"MINIO_"`
}

// JWT contains session token parameters.
type JWT struct {
	Secret string        `env:"SECRET,required,notEmpty"`
	Expiry time.Duration `env:"EXPIRY" envDefault:"24h"`
	Issuer string        `env:"ISSUER" envDefault:"social-auth"`
}

// OAuthClient holds the credentials of one OAuth 2.0 app. A provider with
// an empty ClientID is not registered.
type OAuthClient struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	CallbackURL  string `env:"CALLBACK_URL"`
}

// Enabled reports whether the client is configured.
func (c OAuthClient) Enabled() bool { return c.ClientID != "" }

// Telegram contains the login widget bot.
type Telegram struct {
	BotToken string `env:"BOT_TOKEN"`
}

// Storage contains media host parameters. Uploads are disabled when
// Endpoint is empty.
type Storage struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"uploads"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
	PublicURL string `env:"PUBLIC_URL"`
}

// Upload contains limits for staged uploads.
type Upload struct {
	MaxBytes int64  `env:"MAX_BYTES" envDefault:"52428800"` // 50 MiB
	TempDir  string `env:"TEMP_DIR"`
}

// Origins returns the CORS origins, falling back to ClientURL.
func (c *Config) Origins() []string {
	if len(c.AllowedOrigins) > 0 {
		return c.AllowedOrigins
	}
	return []string{c.ClientURL}
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Upload.MaxBytes <= 0 {
		return nil, fmt.Errorf("config: UPLOAD_MAX_BYTES must be positive, got %d", cfg.Upload.MaxBytes)
	}
	return &cfg, nil
}
