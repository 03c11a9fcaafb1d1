package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    Server    `yaml:"server"`
	YouTube   YouTube   `yaml:"youtube"`
	Database  Database  `yaml:"database"`
	S3        S3        `yaml:"s3"`
	NATS      NATS      `yaml:"nats"`
	Analysis  Analysis  `yaml:"analysis"`
	Retention Retention `yaml:"retention"`
	Auth      Auth      `yaml:"auth"`
	Log       Log       `yaml:"log"`
}

// S3 holds S3/MinIO storage configuration; an empty bucket keeps results in memory
type S3 struct {
	Endpoint        string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"http://localhost:9000"`
	AccessKeyID     string `yaml:"access_key_id" env:"S3_ACCESS_KEY_ID" env-default:"minioadmin"`
	SecretAccessKey string `yaml:"secret_access_key" env:"S3_SECRET_ACCESS_KEY" env-default:"minioadmin"`
	Bucket          string `yaml:"bucket" env:"S3_BUCKET"`
	Region          string `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
}

// Server holds HTTP server configuration
type Server struct {
	Host            string        `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"SERVER_PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"*"`
}

// Address returns the full server address
func (s Server) Address() string {
	return s.Host + ":" + s.Port
}

// YouTube holds YouTube Data API configuration
type YouTube struct {
	APIKey            string  `yaml:"api_key" env:"YOUTUBE_API_KEY"`
	BaseURL           string  `yaml:"base_url" env:"YOUTUBE_BASE_URL" env-default:"https://www.googleapis.com/youtube/v3"`
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"YOUTUBE_REQUESTS_PER_SECOND" env-default:"5"`
	Burst             int     `yaml:"burst" env:"YOUTUBE_BURST" env-default:"5"`
	MaxPages          int     `yaml:"max_pages" env:"YOUTUBE_MAX_PAGES" env-default:"20"`
}

// Database holds database configuration; an empty DSN keeps the index in memory
type Database struct {
	PostgresDSN string `yaml:"postgres_dsn" env:"DATABASE_URL"`

	// Connection pool settings
	MaxConns int32 `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"25"`
	MinConns int32 `yaml:"min_conns" env:"DB_MIN_CONNS" env-default:"5"`
}

// NATS holds job event publishing configuration; an empty URL disables events
type NATS struct {
	URL string `yaml:"url" env:"NATS_URL"`
}

// Analysis holds job execution limits
type Analysis struct {
	Timeout        time.Duration `yaml:"timeout" env:"ANALYSIS_TIMEOUT" env-default:"15m"`
	BatchSize      int           `yaml:"batch_size" env:"ANALYSIS_BATCH_SIZE" env-default:"500"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"ANALYSIS_MAX_UPLOAD_BYTES" env-default:"104857600"`
	Workers        int           `yaml:"workers" env:"ANALYSIS_WORKERS" env-default:"2"`
}

// Retention holds stored result cleanup configuration
type Retention struct {
	Enabled  bool          `yaml:"enabled" env:"RETENTION_ENABLED" env-default:"false"`
	Interval time.Duration `yaml:"interval" env:"RETENTION_INTERVAL" env-default:"24h"`
	MaxAge   int           `yaml:"max_age_days" env:"RETENTION_MAX_AGE_DAYS" env-default:"30"`
}

// Auth holds API key configuration
type Auth struct {
	// APIKeys entries are "key:name"
	APIKeys  []string `yaml:"api_keys" env:"API_KEYS"`
	AdminKey string   `yaml:"admin_key" env:"ADMIN_API_KEY"`
}

// Users parses APIKeys into a key to name map
func (a Auth) Users() (map[string]string, error) {
	users := make(map[string]string, len(a.APIKeys))
	for _, entry := range a.APIKeys {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, name, ok := strings.Cut(entry, ":")
		key, name = strings.TrimSpace(key), strings.TrimSpace(name)
		if !ok || key == "" || name == "" {
			return nil, fmt.Errorf("invalid api key entry %q, want key:name", entry)
		}
		users[key] = name
	}
	return users, nil
}

// Log holds logging configuration
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// MustLoad loads configuration from environment and panics on error
func MustLoad() Config {
	// Load .env file if exists (for development)
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (Config, error) {
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
