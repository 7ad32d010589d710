package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"docqa-backend/models"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// Object store (document corpus)
	DocumentDir    string
	DocumentPrefix string

	// Catalog
	MongoURI string
	DBName   string

	// Redis (task queue + embedding cache)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// Vector store
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	VectorDimensions int

	// Models
	GeminiAPIKey    string
	GenerationModel string
	EmbeddingsModel string

	// Chunking
	MaxChunkSize int
	ChunkOverlap int
	MinChunkSize int

	// Embedding
	EmbedBatchSize   int
	EmbedConcurrency int
	EmbedCacheTTL    time.Duration

	// Retrieval
	RetrievalTopK       int
	SimilarityThreshold float64
	ContextBudget       int

	// Generation
	GenerationTimeout     time.Duration
	GenerationMaxRetries  int
	GenerationMaxTokens   int
	GenerationTemperature float64
	GenerationStreaming   bool
	ReformulationTimeout  time.Duration
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),

		DocumentDir:    getEnv("DOCUMENT_DIR", "./documents"),
		DocumentPrefix: getEnv("DOCUMENT_PREFIX", ""),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/docqa"),
		DBName:   getEnv("DB_NAME", "docqa"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "docqa_chunks"),
		VectorDimensions: getEnvInt("VECTOR_DIM", 768),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GenerationModel: getEnv("GENERATION_MODEL", "gemini-2.0-flash"),
		EmbeddingsModel: getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		MinChunkSize: getEnvInt("MIN_CHUNK_SIZE", 100),

		EmbedBatchSize:   getEnvInt("EMBED_BATCH_SIZE", 32),
		EmbedConcurrency: getEnvInt("EMBED_CONCURRENCY", 4),
		EmbedCacheTTL:    getEnvDuration("EMBED_CACHE_TTL", 24*time.Hour),

		RetrievalTopK:       getEnvInt("RETRIEVAL_TOP_K", 5),
		SimilarityThreshold: getEnvFloat64("SIMILARITY_THRESHOLD", 0.0),
		ContextBudget:       getEnvInt("CONTEXT_BUDGET", 6000),

		GenerationTimeout:     getEnvDuration("GENERATION_TIMEOUT", 30*time.Second),
		GenerationMaxRetries:  getEnvInt("GENERATION_MAX_RETRIES", 3),
		GenerationMaxTokens:   getEnvInt("GENERATION_MAX_TOKENS", 1000),
		GenerationTemperature: getEnvFloat64("GENERATION_TEMPERATURE", 0.7),
		GenerationStreaming:   getEnvBool("GENERATION_STREAMING", true),
		ReformulationTimeout:  getEnvDuration("REFORMULATION_TIMEOUT", 8*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects combinations that would otherwise surface mid
// request. Startup is the last safe moment to fail.
func (cfg *Config) Validate() error {
	if cfg.GeminiAPIKey == "" {
		return models.Kindf(models.ErrInvalidConfiguration, "GEMINI_API_KEY is required - set it in .env file")
	}
	if cfg.MaxChunkSize <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "MAX_CHUNK_SIZE must be positive, got %d", cfg.MaxChunkSize)
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.MaxChunkSize {
		return models.Kindf(models.ErrInvalidConfiguration, "CHUNK_OVERLAP must be in [0, MAX_CHUNK_SIZE), got overlap=%d size=%d", cfg.ChunkOverlap, cfg.MaxChunkSize)
	}
	if cfg.MinChunkSize < 0 || cfg.MinChunkSize > cfg.MaxChunkSize {
		return models.Kindf(models.ErrInvalidConfiguration, "MIN_CHUNK_SIZE must be in [0, MAX_CHUNK_SIZE], got %d", cfg.MinChunkSize)
	}
	if cfg.EmbedBatchSize <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "EMBED_BATCH_SIZE must be positive, got %d", cfg.EmbedBatchSize)
	}
	if cfg.EmbedConcurrency <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "EMBED_CONCURRENCY must be positive, got %d", cfg.EmbedConcurrency)
	}
	if cfg.VectorDimensions <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "VECTOR_DIM must be positive, got %d", cfg.VectorDimensions)
	}
	if cfg.RetrievalTopK <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "RETRIEVAL_TOP_K must be positive, got %d", cfg.RetrievalTopK)
	}
	if cfg.SimilarityThreshold < 0 || cfg.SimilarityThreshold >= 1 {
		return models.Kindf(models.ErrInvalidConfiguration, "SIMILARITY_THRESHOLD must be in [0, 1), got %g", cfg.SimilarityThreshold)
	}
	if cfg.ContextBudget <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "CONTEXT_BUDGET must be positive, got %d", cfg.ContextBudget)
	}
	if cfg.GenerationMaxRetries < 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "GENERATION_MAX_RETRIES must be non-negative, got %d", cfg.GenerationMaxRetries)
	}
	if cfg.GenerationTimeout <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "GENERATION_TIMEOUT must be positive, got %s", cfg.GenerationTimeout)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
