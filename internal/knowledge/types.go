package knowledge

import "time"

// Source type constants for course documents.
const (
	// SourceTypeDocument represents chunked course documents (lecture
	// notes, readings, exported PDFs).
	SourceTypeDocument = "document"

	// SourceTypeSyllabus represents syllabus and schedule content.
	SourceTypeSyllabus = "syllabus"

	// SourceTypeMedia represents media metadata (video titles,
	// descriptions, transcripts).
	SourceTypeMedia = "media"
)

// Document represents one indexed chunk of course content.
type Document struct {
	ID         string            // Unique identifier
	Content    string            // Chunk text content
	SourceType string            // One of the SourceType constants
	Metadata   map[string]string // Source file, chunk index, etc.
	CreatedAt  time.Time         // Indexing timestamp
}

// Result represents a single search result with similarity score.
type Result struct {
	Document   Document
	Similarity float32 // Cosine similarity (1 - cosine distance), higher is closer
}

// SearchOption configures search behavior using the functional options
// pattern.
type SearchOption func(*searchConfig)

// searchConfig holds internal search configuration.
type searchConfig struct {
	topK    int32
	filter  map[string]string
	timeout time.Duration
}

// defaultSearchTimeout bounds vector search queries so a slow index scan
// cannot block the caller indefinitely.
const defaultSearchTimeout = 10 * time.Second

// WithTopK sets the maximum number of results to return. Default is 5.
func WithTopK(k int32) SearchOption {
	return func(c *searchConfig) {
		c.topK = k
	}
}

// WithFilter adds a metadata filter restricting search results.
// Multiple calls add additional filters (AND logic).
// Example: WithFilter("source_type", knowledge.SourceTypeSyllabus)
func WithFilter(key, value string) SearchOption {
	return func(c *searchConfig) {
		if c.filter == nil {
			c.filter = make(map[string]string)
		}
		c.filter[key] = value
	}
}

// WithTimeout overrides the per-search timeout. Default is 10 seconds.
func WithTimeout(d time.Duration) SearchOption {
	return func(c *searchConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// buildSearchConfig applies search options over the defaults.
func buildSearchConfig(opts []SearchOption) *searchConfig {
	cfg := &searchConfig{
		topK:    5,
		timeout: defaultSearchTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
