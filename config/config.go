package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Scorer strategy names accepted by RETRIEVAL_SCORER.
const (
	ScorerBiEncoder    = "bi_encoder"
	ScorerCrossEncoder = "cross_encoder"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Groq        GroqConfig
	TEI         TEIConfig
	Retrieval   RetrievalConfig
	LogLevel    string
	Environment string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// GroqConfig holds the chat-completion provider configuration
type GroqConfig struct {
	APIKey          string
	BaseURL         string
	ExtractionModel string
	SynthesisModel  string
	Timeout         time.Duration
	MaxRetries      int
}

// TEIConfig holds the text-embeddings-inference endpoints
type TEIConfig struct {
	EmbedBaseURL  string
	RerankBaseURL string
	Timeout       time.Duration
}

// RetrievalConfig holds the retrieval pipeline tuning knobs
type RetrievalConfig struct {
	// Scorer selects the strategy: bi_encoder or cross_encoder
	Scorer string

	// MaxAttempts bounds the retrieval retry loop
	MaxAttempts int

	// MaxCourses caps how many ranked courses enter the synthesis prompt
	MaxCourses int

	// BatchSize is the cross-encoder scoring batch size
	BatchSize int

	// MaxInFlight caps concurrent cross-encoder batches
	MaxInFlight int

	// EmbeddingIndexPath points at the precomputed field embedding file
	EmbeddingIndexPath string

	// ExtractorPromptFile optionally overrides the extraction system prompt
	ExtractorPromptFile string
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: loadDatabaseConfig(),
		Groq: GroqConfig{
			APIKey:          getEnv("GROQ_API_KEY", ""),
			BaseURL:         getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			ExtractionModel: getEnv("GROQ_EXTRACTION_MODEL", "llama-3.3-70b-versatile"),
			SynthesisModel:  getEnv("GROQ_SYNTHESIS_MODEL", "llama-3.3-70b-versatile"),
			Timeout:         getEnvAsDuration("GROQ_TIMEOUT", 60*time.Second),
			MaxRetries:      getEnvAsInt("GROQ_MAX_RETRIES", 2),
		},
		TEI: TEIConfig{
			EmbedBaseURL:  getEnv("TEI_EMBED_URL", "http://localhost:8081"),
			RerankBaseURL: getEnv("TEI_RERANK_URL", "http://localhost:8082"),
			Timeout:       getEnvAsDuration("TEI_TIMEOUT", 30*time.Second),
		},
		Retrieval: RetrievalConfig{
			Scorer:              getEnv("RETRIEVAL_SCORER", ScorerBiEncoder),
			MaxAttempts:         getEnvAsInt("RETRIEVAL_MAX_ATTEMPTS", 3),
			MaxCourses:          getEnvAsInt("RETRIEVAL_MAX_COURSES", 5),
			BatchSize:           getEnvAsInt("RERANK_BATCH_SIZE", 256),
			MaxInFlight:         getEnvAsInt("RERANK_MAX_IN_FLIGHT", 4),
			EmbeddingIndexPath:  getEnv("EMBEDDING_INDEX_PATH", "data/field_embeddings.json"),
			ExtractorPromptFile: getEnv("EXTRACTOR_PROMPT_FILE", ""),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.Retrieval.Scorer != ScorerBiEncoder && c.Retrieval.Scorer != ScorerCrossEncoder {
		return fmt.Errorf("unknown retrieval scorer %q", c.Retrieval.Scorer)
	}
	if c.Retrieval.MaxAttempts <= 0 {
		return fmt.Errorf("retrieval max attempts must be positive")
	}
	if c.Retrieval.MaxCourses <= 0 {
		return fmt.Errorf("retrieval max courses must be positive")
	}
	if c.Retrieval.EmbeddingIndexPath == "" {
		return fmt.Errorf("embedding index path is required")
	}

	// The chat provider is required in production; dev setups may point the
	// base URL at a local stub instead.
	if c.IsProduction() && c.Groq.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required in production")
	}

	if c.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "dev"),
		Password:        getEnv("DB_PASSWORD", ""),
		Database:        getEnv("DB_NAME", "courses"),
		SSLMode:         getEnv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}
}

// Environment variable helpers

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
