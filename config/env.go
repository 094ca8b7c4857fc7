package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultAppKey is the development APP_KEY. Production refuses it when the
// key seals data at rest.
const DefaultAppKey = "change-me-in-production"

// Config is built once at startup and handed to every component.
type Config struct {
	AppEnv  string `envconfig:"APP_ENV" default:"local"`
	AppPort string `envconfig:"APP_PORT" default:"4000"`
	AppKey  string `envconfig:"APP_KEY" default:"change-me-in-production"`

	// ── Database ─────────────────────────────────────────────────────────────
	DBDriver      string `envconfig:"DB_DRIVER" default:"mongo"`
	MongoURI      string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"myappdb"`
	DatabaseDSN   string `envconfig:"DATABASE_DSN"`

	// ── Redis ────────────────────────────────────────────────────────────────
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// ── OTP ──────────────────────────────────────────────────────────────────
	PendingStore     string        `envconfig:"PENDING_STORE" default:"memory"`
	OTPExpiryMinutes int           `envconfig:"OTP_EXPIRY_MINUTES" default:"10"`
	OTPLength        int           `envconfig:"OTP_LENGTH" default:"6"`
	OTPSweepInterval time.Duration `envconfig:"OTP_SWEEP_INTERVAL" default:"1m"`
	OTPRateLimit     int           `envconfig:"OTP_RATE_LIMIT" default:"5"`
	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honoured by the send-otp limiter.
	TrustedProxies   []string      `envconfig:"TRUSTED_PROXIES"`

	// ── Mail ─────────────────────────────────────────────────────────────────
	MailDriver   string `envconfig:"MAIL_DRIVER" default:"smtp"`
	MailHost     string `envconfig:"MAIL_HOST" default:"smtp.mailtrap.io"`
	MailPort     string `envconfig:"MAIL_PORT" default:"587"`
	MailUsername string `envconfig:"MAIL_USERNAME"`
	MailPassword string `envconfig:"MAIL_PASSWORD"`
	MailFrom     string `envconfig:"MAIL_FROM"`
	MailFromName string `envconfig:"MAIL_FROM_NAME" default:"No-Reply"`

	// ── Images ───────────────────────────────────────────────────────────────
	ImageDriver         string `envconfig:"IMAGE_DRIVER" default:"cloudinary"`
	CloudinaryCloudName string `envconfig:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `envconfig:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `envconfig:"CLOUDINARY_API_SECRET"`
	S3Bucket            string `envconfig:"S3_BUCKET"`
	S3Region            string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Key               string `envconfig:"S3_KEY"`
	S3Secret            string `envconfig:"S3_SECRET"`
	S3Endpoint          string `envconfig:"S3_ENDPOINT"`
	S3URL               string `envconfig:"S3_URL"`
	StorageLocalRoot    string `envconfig:"STORAGE_LOCAL_ROOT" default:"uploads"`
	StorageURL          string `envconfig:"STORAGE_URL" default:"http://localhost:4000/uploads"`

	// ── HTTP ─────────────────────────────────────────────────────────────────
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	MaxBodyBytes       int64    `envconfig:"MAX_BODY_BYTES" default:"10485760"`
	MaxUploadBytes     int64    `envconfig:"MAX_UPLOAD_BYTES" default:"10485760"`

	// ── Events / logs ────────────────────────────────────────────────────────
	KafkaBrokers       []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic         string   `envconfig:"KAFKA_TOPIC" default:"bazaar.events"`
	LogMongoCollection string   `envconfig:"LOG_MONGO_COLLECTION"`
}

// OTPTTL returns the configured OTP lifetime.
func (c *Config) OTPTTL() time.Duration {
	return time.Duration(c.OTPExpiryMinutes) * time.Minute
}

// IsProduction reports whether the app runs with production defaults.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.AppEnv) {
	case "production", "prod":
		return true
	}
	return false
}

// Load reads config/app.json and .env, then decodes the environment into a
// Config. Real environment variables always win over both files.
func Load() (*Config, error) {
	return LoadFrom("config/app.json", ".env")
}

// LoadFrom is Load with explicit file locations. Missing files are ignored.
func LoadFrom(jsonPath, envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: read %s: %w", envPath, err)
	}

	if err := mergeJSONConfig(jsonPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OTPExpiryMinutes <= 0 {
		return fmt.Errorf("config: OTP_EXPIRY_MINUTES must be positive, got %d", c.OTPExpiryMinutes)
	}
	if c.OTPLength < 4 || c.OTPLength > 10 {
		return fmt.Errorf("config: OTP_LENGTH must be between 4 and 10, got %d", c.OTPLength)
	}

	c.DBDriver = strings.ToLower(c.DBDriver)
	switch c.DBDriver {
	case "mongo", "sqlite", "postgres", "mysql", "sqlserver", "memory":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}

	c.PendingStore = strings.ToLower(c.PendingStore)
	switch c.PendingStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported PENDING_STORE %q", c.PendingStore)
	}

	if c.PendingStore == "redis" && c.IsProduction() && (c.AppKey == "" || c.AppKey == DefaultAppKey) {
		return fmt.Errorf("config: APP_KEY must be set to a secret value when PENDING_STORE=redis in production")
	}

	c.ImageDriver = strings.ToLower(c.ImageDriver)
	switch c.ImageDriver {
	case "cloudinary", "s3", "local":
	default:
		return fmt.Errorf("config: unsupported IMAGE_DRIVER %q", c.ImageDriver)
	}

	if c.MailFrom == "" {
		c.MailFrom = c.MailUsername
	}
	return nil
}

// mergeJSONConfig exports flat string keys from app.json into the process
// environment unless the variable is already set.
func mergeJSONConfig(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		if _, set := os.LookupEnv(k); set {
			continue
		}
		if err := os.Setenv(k, strings.TrimSpace(s)); err != nil {
			return fmt.Errorf("config: set %s: %w", k, err)
		}
	}

	return nil
}
