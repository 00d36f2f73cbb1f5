package config

import (
	"fmt"
	"os"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key (required for all AI operations; read directly by Genkit)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// Model configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// RAG configuration
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.RetrievalTopK < 1 || c.RetrievalTopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidRetrievalTopK, c.RetrievalTopK)
	}

	// PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	// Governor policy. The bypass threshold shares the reasoning
	// confidence scale, so it must be a valid confidence itself.
	if c.Governor.BypassConfidence < 0 || c.Governor.BypassConfidence > 1 {
		return fmt.Errorf("%w: must be between 0.0 and 1.0, got %.2f",
			ErrInvalidBypassConfidence, c.Governor.BypassConfidence)
	}

	// Cosine distance over normalized embeddings lands in [0,2];
	// thresholds above that cannot reject anything.
	if c.Governor.MaxScopeDistance <= 0 || c.Governor.MaxScopeDistance > 2 {
		return fmt.Errorf("%w: must be in (0.0, 2.0], got %.2f",
			ErrInvalidScopeDistance, c.Governor.MaxScopeDistance)
	}

	// Classifier keyword data. Empty lists would silently disable a whole
	// routing branch, which is a configuration mistake, not a tuning choice.
	if len(c.Classifier.CoreTopics) == 0 {
		return fmt.Errorf("%w: classifier.core_topics", ErrEmptyKeywordList)
	}
	if len(c.Classifier.NavigateKeywords) == 0 {
		return fmt.Errorf("%w: classifier.navigate_keywords", ErrEmptyKeywordList)
	}
	if len(c.Classifier.EducateKeywords) == 0 {
		return fmt.Errorf("%w: classifier.educate_keywords", ErrEmptyKeywordList)
	}

	return nil
}
