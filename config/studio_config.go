// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// generateWorkerID creates a unique worker ID using hostname and PID
func generateWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%d", hostname, os.Getpid())
}

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	ImageModel     string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeoutSec  int

	// Video render backend
	VideoRenderURL    string
	VideoRenderAPIKey string
	VideoTimeoutSec   int

	// Worker
	WorkerID        string
	WorkerMax       int
	WorkerQueueSize int
	ImageTimeout    time.Duration
	VideoTimeout    time.Duration

	// Consumer (Redis Stream)
	ConsumerGroup           string
	ConsumerMaxDeliveries   int
	ConsumerPendingCheckSec int
	ConsumerPendingIdleSec  int

	// Generation backend protection
	GenMaxConcurrent     int
	GenRequestsPerSecond int
	GenBurstSize         int

	// Queue
	QueueMaxRetries int

	// Compliance severity cut points (category scores below each bound
	// raise an error / warning / suggestion respectively)
	ComplianceErrorBelow  float64
	ComplianceWarnBelow   float64
	ComplianceTargetBelow float64

	// ID generation
	SnowflakeNode int64

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "studio"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		ImageModel:     getEnv("IMAGE_MODEL", "dall-e-3"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeoutSec:  getEnvInt("LLM_TIMEOUT_SEC", 60),

		// Video render backend
		VideoRenderURL:    getEnv("VIDEO_RENDER_URL", ""),
		VideoRenderAPIKey: getEnv("VIDEO_RENDER_API_KEY", ""),
		VideoTimeoutSec:   getEnvInt("VIDEO_TIMEOUT_SEC", 300),

		// Worker
		WorkerID:        getEnv("WORKER_ID", generateWorkerID()),
		WorkerMax:       getEnvInt("WORKER_MAX", 8),
		WorkerQueueSize: getEnvInt("WORKER_QUEUE_SIZE", 500),
		ImageTimeout:    time.Duration(getEnvInt("IMAGE_TIMEOUT_SEC", 120)) * time.Second,
		VideoTimeout:    time.Duration(getEnvInt("VIDEO_TIMEOUT_SEC", 360)) * time.Second,

		// Consumer
		ConsumerGroup:           getEnv("CONSUMER_GROUP", "studio-workers"),
		ConsumerMaxDeliveries:   getEnvInt("CONSUMER_MAX_DELIVERIES", 3),
		ConsumerPendingCheckSec: getEnvInt("CONSUMER_PENDING_CHECK_SEC", 30),
		ConsumerPendingIdleSec:  getEnvInt("CONSUMER_PENDING_IDLE_SEC", 120),

		// Generation backend protection
		GenMaxConcurrent:     getEnvInt("GEN_MAX_CONCURRENT", 20),
		GenRequestsPerSecond: getEnvInt("GEN_REQUESTS_PER_SECOND", 5),
		GenBurstSize:         getEnvInt("GEN_BURST_SIZE", 10),

		// Queue
		QueueMaxRetries: getEnvInt("QUEUE_MAX_RETRIES", 3),

		// Compliance
		ComplianceErrorBelow:  getEnvFloat("COMPLIANCE_ERROR_BELOW", 50),
		ComplianceWarnBelow:   getEnvFloat("COMPLIANCE_WARN_BELOW", 75),
		ComplianceTargetBelow: getEnvFloat("COMPLIANCE_TARGET_BELOW", 90),

		// ID generation
		SnowflakeNode: int64(getEnvInt("SNOWFLAKE_NODE", 1)),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
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

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
