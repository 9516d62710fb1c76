// Package config loads service configuration from the environment with an
// optional YAML overlay file. The overlay can be watched for changes so the
// dynamic settings (status thresholds) apply without a restart.
package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"gopkg.in/yaml.v3"

	"worldgraph-backend/internal/domain"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	LogLevel      string

	// Store configuration
	StoreDriver   string // "memory" or "dynamodb"
	AWSRegion     string
	DynamoDBTable string
	GSI1IndexName string // entity search / claim point lookup
	GSI2IndexName string // object-side claim traversal

	// Authentication
	AuthEnabled bool
	JWTSecret   string
	JWTIssuer   string

	// Enrichment
	EnrichmentEnabled   bool
	EnrichmentBaseURL   string
	EnrichmentUserAgent string

	// Observability
	EnableMetrics    bool
	MetricsNamespace string

	// Dynamic settings live behind a lock so the watcher can swap them.
	mu      sync.RWMutex
	dynamic Dynamic
}

// Dynamic holds the settings that may be reloaded at runtime.
type Dynamic struct {
	ApproveScore int `yaml:"approveScore"`
	RejectScore  int `yaml:"rejectScore"`
	MinVoters    int `yaml:"minVoters"`
	MinEvidence  int `yaml:"minEvidence"`
}

// overlay is the YAML file shape.
type overlay struct {
	Thresholds Dynamic `yaml:"thresholds"`
}

// LoadConfig loads configuration from environment variables, applying the
// YAML overlay named by CONFIG_FILE when present.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		StoreDriver:   getEnv("STORE_DRIVER", "memory"),
		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("DYNAMODB_TABLE", "worldgraph"),
		GSI1IndexName: getEnv("GSI1_INDEX_NAME", "EntityIndex"),
		GSI2IndexName: getEnv("GSI2_INDEX_NAME", "ClaimObjectIndex"),

		AuthEnabled: getEnvBool("AUTH_ENABLED", false),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTIssuer:   getEnv("JWT_ISSUER", "worldgraph-backend"),

		EnrichmentEnabled:   getEnvBool("ENRICHMENT_ENABLED", true),
		EnrichmentBaseURL:   getEnv("ENRICHMENT_BASE_URL", ""),
		EnrichmentUserAgent: getEnv("ENRICHMENT_USER_AGENT", "WorldGraph/1.0 (dev@worldgraph.app)"),

		EnableMetrics:    getEnvBool("ENABLE_METRICS", true),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "worldgraph"),

		dynamic: Dynamic{
			ApproveScore: getEnvInt("APPROVE_SCORE", 6),
			RejectScore:  getEnvInt("REJECT_SCORE", -6),
			MinVoters:    getEnvInt("MIN_VOTERS", 4),
			MinEvidence:  getEnvInt("MIN_EVIDENCE", 1),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyOverlay(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverlay re-reads the YAML overlay and swaps the dynamic settings.
func (c *Config) ApplyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config overlay: %w", err)
	}
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config overlay: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if o.Thresholds.ApproveScore != 0 {
		c.dynamic.ApproveScore = o.Thresholds.ApproveScore
	}
	if o.Thresholds.RejectScore != 0 {
		c.dynamic.RejectScore = o.Thresholds.RejectScore
	}
	if o.Thresholds.MinVoters != 0 {
		c.dynamic.MinVoters = o.Thresholds.MinVoters
	}
	if o.Thresholds.MinEvidence != 0 {
		c.dynamic.MinEvidence = o.Thresholds.MinEvidence
	}
	return nil
}

// StatusRules returns the current claim thresholds.
func (c *Config) StatusRules() domain.StatusRules {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return domain.StatusRules{
		ApproveScore: c.dynamic.ApproveScore,
		RejectScore:  c.dynamic.RejectScore,
		MinVoters:    c.dynamic.MinVoters,
		MinEvidence:  c.dynamic.MinEvidence,
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case "memory", "dynamodb":
	default:
		return fmt.Errorf("STORE_DRIVER must be memory or dynamodb, got %q", c.StoreDriver)
	}
	if c.StoreDriver == "dynamodb" && c.DynamoDBTable == "" {
		return fmt.Errorf("DYNAMODB_TABLE is required with the dynamodb store")
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_ENABLED is set")
	}
	if c.IsProduction() && !c.AuthEnabled {
		return fmt.Errorf("AUTH_ENABLED is required in production")
	}
	rules := c.StatusRules()
	if rules.ApproveScore <= 0 || rules.RejectScore >= 0 || rules.MinVoters <= 0 {
		return fmt.Errorf("invalid status thresholds: approve=%d reject=%d voters=%d",
			rules.ApproveScore, rules.RejectScore, rules.MinVoters)
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
