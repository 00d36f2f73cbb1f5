// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.luminate/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - AI: provider, model, temperature, embedder model
//   - Storage: PostgreSQL connection (see storage.go)
//   - Classifier: mode-routing keyword lists and the course topic allow-list
//   - Governor: admission policy thresholds and the fail-open switch
//
// The classifier keyword lists and the governor thresholds are deliberately
// configuration data rather than code so they can be tuned per course
// offering without a redeploy.
//
// Security: sensitive values (the database password) are masked in
// MarshalJSON and String. Validation is fail-fast with sentinel errors
// checked via errors.Is (see validation.go).
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidBypassConfidence indicates governor.bypass_confidence is
	// outside [0,1].
	ErrInvalidBypassConfidence = errors.New("invalid bypass confidence")

	// ErrInvalidScopeDistance indicates governor.max_scope_distance is not
	// a positive distance.
	ErrInvalidScopeDistance = errors.New("invalid max scope distance")

	// ErrEmptyKeywordList indicates a classifier keyword list is empty.
	ErrEmptyKeywordList = errors.New("empty classifier keyword list")

	// ErrInvalidRetrievalTopK indicates retrieval_top_k is out of range.
	ErrInvalidRetrievalTopK = errors.New("invalid retrieval top k")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions, which is
	// what the course_documents schema stores.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultBypassConfidence is the reasoning-confidence threshold at or
	// above which the governor skips the vector scope check.
	DefaultBypassConfidence = 0.8

	// DefaultMaxScopeDistance is the top-1 cosine distance above which a
	// query is considered not covered by the indexed course material.
	DefaultMaxScopeDistance = 0.75

	// DefaultRetrievalTopK is the number of course chunks retrieved to
	// ground an approved answer.
	DefaultRetrievalTopK = 5
)

// GovernorConfig holds the admission-policy tunables.
//
// BypassConfidence applies to the reasoning signal (higher = more
// trusted); MaxScopeDistance applies to the vector search result
// (lower = closer match). The two scales are unrelated and must never be
// compared against each other.
type GovernorConfig struct {
	BypassConfidence float64 `mapstructure:"bypass_confidence" json:"bypass_confidence"`
	MaxScopeDistance float64 `mapstructure:"max_scope_distance" json:"max_scope_distance"`

	// FailOpen controls what happens when the scope check itself fails
	// (vector store down, empty index). True approves the query with a
	// logged warning; false rejects it. Blocking every student on an
	// infrastructure hiccup is usually the worse failure mode, so the
	// default is true.
	FailOpen bool `mapstructure:"fail_open" json:"fail_open"`
}

// ClassifierConfig holds the lexical routing data for the mode classifier.
type ClassifierConfig struct {
	// CoreTopics always route to educate mode, overriding keyword counts.
	CoreTopics []string `mapstructure:"core_topics" json:"core_topics"`

	// NavigateKeywords indicate lookup/retrieval language.
	NavigateKeywords []string `mapstructure:"navigate_keywords" json:"navigate_keywords"`

	// EducateKeywords indicate tutoring language.
	EducateKeywords []string `mapstructure:"educate_keywords" json:"educate_keywords"`
}

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Course identity, used in prompts and rejection messages.
	CourseName string `mapstructure:"course_name" json:"course_name"`

	// AI provider and model configuration
	ModelName   string  `mapstructure:"model_name" json:"model_name"`
	Temperature float32 `mapstructure:"temperature" json:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" json:"max_tokens"`

	// RAG configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	RetrievalTopK int    `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Query governance
	Governor   GovernorConfig   `mapstructure:"governor" json:"governor"`
	Classifier ClassifierConfig `mapstructure:"classifier" json:"classifier"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".luminate")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use defaults.
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL (if set) overrides individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Validate immediately (fail-fast).
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	viper.SetDefault("course_name", "the course")

	// AI defaults
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 2048)

	// RAG defaults
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("retrieval_top_k", DefaultRetrievalTopK)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "luminate")
	viper.SetDefault("postgres_password", "luminate_dev_password")
	viper.SetDefault("postgres_db_name", "luminate")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Governor defaults
	viper.SetDefault("governor.bypass_confidence", DefaultBypassConfidence)
	viper.SetDefault("governor.max_scope_distance", DefaultMaxScopeDistance)
	viper.SetDefault("governor.fail_open", true)

	// Classifier defaults. Tuned for the observed course corpus; override
	// per offering in config.yaml.
	viper.SetDefault("classifier.core_topics", DefaultCoreTopics())
	viper.SetDefault("classifier.navigate_keywords", DefaultNavigateKeywords())
	viper.SetDefault("classifier.educate_keywords", DefaultEducateKeywords())
}

// DefaultCoreTopics returns the built-in course topic allow-list.
// A query mentioning any of these always gets tutoring treatment.
func DefaultCoreTopics() []string {
	return []string{
		"gradient descent",
		"backpropagation",
		"chain rule",
		"loss function",
		"activation function",
		"overfitting",
		"regularization",
		"cross-validation",
	}
}

// DefaultNavigateKeywords returns the built-in lookup-language indicators.
func DefaultNavigateKeywords() []string {
	return []string{
		"find",
		"show me",
		"where is",
		"what is",
		"locate",
		"list",
		"link",
		"video",
		"slides",
		"syllabus",
		"download",
	}
}

// DefaultEducateKeywords returns the built-in tutoring-language indicators.
func DefaultEducateKeywords() []string {
	return []string{
		"explain",
		"why",
		"how does",
		"step by step",
		"walk me through",
		"understand",
		"teach",
		"derive",
		"intuition",
		"help me",
	}
}

// bindEnvVariables binds environment variable overrides explicitly.
//
// GEMINI_API_KEY is read directly by Genkit (not via Viper); validation
// only checks its presence.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't
	// fail). If this panics it's a BUG in our code, not a runtime error.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "LUMINATE_MODEL_NAME")
	mustBind("course_name", "LUMINATE_COURSE_NAME")
	mustBind("governor.bypass_confidence", "LUMINATE_BYPASS_CONFIDENCE")
	mustBind("governor.max_scope_distance", "LUMINATE_MAX_SCOPE_DISTANCE")
	mustBind("governor.fail_open", "LUMINATE_FAIL_OPEN")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid accidental substring matches against
// real secret material.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets show
// the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field
// masking. When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified model name for Genkit,
// e.g. "googleai/gemini-2.5-flash". A ModelName that already contains a
// "/" is returned as-is.
func (c *Config) FullModelName() string {
	if strings.Contains(c.ModelName, "/") {
		return c.ModelName
	}
	return "googleai/" + c.ModelName
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
