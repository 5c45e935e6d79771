package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Assembly AssemblyAIConfig
	Groq     GroqConfig
	JWT      JWTConfig
	Pipeline PipelineConfig
	Scoring  ScoringConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Host            string
	Environment     string
	AllowedOrigins  []string
	ShutdownTimeout int
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig holds object storage configuration
type StorageConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	UseSSL          bool
	PublicURL       string
}

// AssemblyAIConfig holds transcription provider configuration
type AssemblyAIConfig struct {
	APIKey         string
	BaseURL        string
	WebhookBaseURL string
	WebhookSecret  string
}

// GroqConfig holds enrichment provider configuration
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// JWTConfig holds token verification configuration. The auth flow itself
// lives outside this service; only the subject claim is consumed here.
type JWTConfig struct {
	AccessSecret string
	AccessExpiry time.Duration
}

// PipelineConfig holds orchestrator tuning
type PipelineConfig struct {
	// StaleAfter is how long a processing record may wait for its
	// transcription callback before the sweeper marks it as error.
	StaleAfter time.Duration
	// SweepInterval is how often the sweeper scans for stale records.
	SweepInterval time.Duration
}

// ScoringConfig holds the quality-score weighting, loaded via envconfig
// (SCORING_* variables). Weights are passed into the scoring engine per
// call, never read from globals, so recompute can override them.
type ScoringConfig struct {
	WeightClarity   float64 `envconfig:"WEIGHT_CLARITY" default:"0.40"`
	WeightSentiment float64 `envconfig:"WEIGHT_SENTIMENT" default:"0.30"`
	WeightBalance   float64 `envconfig:"WEIGHT_BALANCE" default:"0.20"`
	WeightSafety    float64 `envconfig:"WEIGHT_SAFETY" default:"0.10"`

	// DominanceThreshold is the talk-time share above which one-sidedness
	// starts costing points.
	DominanceThreshold float64 `envconfig:"DOMINANCE_THRESHOLD" default:"0.60"`
	// UnsafeThreshold is the content-safety severity above which the safety
	// component starts losing points.
	UnsafeThreshold float64 `envconfig:"UNSAFE_THRESHOLD" default:"0.50"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	config := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			Host:            getEnv("HOST", "0.0.0.0"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			AllowedOrigins:  []string{getEnv("ALLOWED_ORIGINS", "http://localhost:3000")},
			ShutdownTimeout: getEnvAsInt("SHUTDOWN_TIMEOUT", 10),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "callpulse"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:        getEnv("STORAGE_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
			SecretAccessKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
			BucketName:      getEnv("STORAGE_BUCKET", "callpulse-recordings"),
			UseSSL:          getEnvAsBool("STORAGE_USE_SSL", false),
			PublicURL:       getEnv("STORAGE_PUBLIC_URL", ""),
		},
		Assembly: AssemblyAIConfig{
			APIKey:         getEnv("ASSEMBLYAI_API_KEY", ""),
			BaseURL:        getEnv("ASSEMBLYAI_API_URL", "https://api.assemblyai.com"),
			WebhookBaseURL: getEnv("ASSEMBLYAI_WEBHOOK_BASE_URL", ""),
			WebhookSecret:  getEnv("ASSEMBLYAI_WEBHOOK_SECRET", ""),
		},
		Groq: GroqConfig{
			APIKey:  getEnv("GROQ_API_KEY", ""),
			BaseURL: getEnv("GROQ_API_URL", "https://api.groq.com"),
			Model:   getEnv("GROQ_MODEL", "llama-3.1-70b-versatile"),
		},
		JWT: JWTConfig{
			AccessSecret: getEnv("JWT_ACCESS_SECRET", "change-me-in-production"),
			AccessExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", "15m"),
		},
		Pipeline: PipelineConfig{
			StaleAfter:    getEnvAsDuration("PIPELINE_STALE_AFTER", "30m"),
			SweepInterval: getEnvAsDuration("PIPELINE_SWEEP_INTERVAL", "5m"),
		},
	}

	if err := envconfig.Process("scoring", &config.Scoring); err != nil {
		return nil, fmt.Errorf("failed to load scoring config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Assembly.APIKey == "" {
		return fmt.Errorf("ASSEMBLYAI_API_KEY is required")
	}
	if c.Assembly.WebhookBaseURL == "" {
		return fmt.Errorf("ASSEMBLYAI_WEBHOOK_BASE_URL is required")
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
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
	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}
	return duration
}
