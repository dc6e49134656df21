package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"production"`

	DBConnectionString string `envconfig:"DB_CONNECTION_STRING" required:"true"`

	// Token verification. JWTSecret may hold an HMAC secret or a PEM public key.
	// When JWTSecretName is set the key is read from Secret Manager instead.
	JWTSecret     string `envconfig:"JWT_SECRET"`
	JWTSecretName string `envconfig:"JWT_SECRET_NAME"`

	// Google Cloud
	GCPProjectID       string `envconfig:"GCP_PROJECT_ID"`
	PubSubEmulatorHost string `envconfig:"PUBSUB_EMULATOR_HOST"`
	ChatEventsTopic    string `envconfig:"CHAT_EVENTS_TOPIC" default:"chat-events"`

	// Realtime chat store
	RedisAddr              string `envconfig:"REDIS_ADDR"`
	RedisPassword          string `envconfig:"REDIS_PASSWORD"`
	RedisPrefix            string `envconfig:"REDIS_PREFIX" default:"campusportal"`
	ChatSendLimit          int    `envconfig:"CHAT_SEND_LIMIT" default:"20"`
	ChatSendWindowSec      int    `envconfig:"CHAT_SEND_WINDOW_SEC" default:"60"`
	ChatBackendTimeoutSec  int    `envconfig:"CHAT_BACKEND_TIMEOUT_SEC" default:"10"`
	PortalSessionTTLMinute int    `envconfig:"PORTAL_SESSION_TTL_MIN" default:"10"`

	// Catalog data source: "http" reads CatalogURL, "postgres" reads the catalog tables
	CatalogSource string `envconfig:"CATALOG_SOURCE" default:"postgres"`
	CatalogURL    string `envconfig:"CATALOG_URL"`

	// Object storage: "s3" or "minio"
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"s3"`
	S3URL         string `envconfig:"S3_URL"`
	S3Bucket      string `envconfig:"S3_BUCKET" default:"marketplace"`
	S3Region      string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey   string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey   string `envconfig:"S3_SECRET_KEY"`
	S3PublicURL   string `envconfig:"S3_PUBLIC_URL"`
	MinioEndpoint string `envconfig:"MINIO_ENDPOINT"`
	MinioUseSSL   bool   `envconfig:"MINIO_USE_SSL" default:"false"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	cfg.CatalogSource = strings.ToLower(strings.TrimSpace(cfg.CatalogSource))
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	return &cfg, nil
}

// IsDevelopment reports whether the service runs against local emulators
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// ChatBackendTimeout bounds every realtime store call
func (c *Config) ChatBackendTimeout() time.Duration {
	if c.ChatBackendTimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.ChatBackendTimeoutSec) * time.Second
}

// ChatSendWindow is the fixed window for the per-user chat send limit
func (c *Config) ChatSendWindow() time.Duration {
	if c.ChatSendWindowSec <= 0 {
		return time.Minute
	}
	return time.Duration(c.ChatSendWindowSec) * time.Second
}

// PortalSessionTTL is how long a disconnected portal session can be resumed
func (c *Config) PortalSessionTTL() time.Duration {
	if c.PortalSessionTTLMinute <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.PortalSessionTTLMinute) * time.Minute
}
