// Package knowledge manages the course content vector store.
//
// Course exports are chunked upstream (internal/ingest) and stored here
// with embeddings generated through a Genkit ai.Embedder. Search runs a
// cosine-distance query through pgvector and reports similarity scores.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/firebase/genkit/go/ai"
	pgvector "github.com/pgvector/pgvector-go"
)

// Querier defines the database operations the Store needs. The interface
// is defined by the consumer (like io.Reader or http.RoundTripper) so the
// Store depends on an abstraction; production uses *Queries over a pgx
// pool, tests substitute a fake.
type Querier interface {
	// UpsertDocument inserts or updates a document
	UpsertDocument(ctx context.Context, arg UpsertParams) error

	// SearchDocuments performs filtered vector search
	SearchDocuments(ctx context.Context, embedding *pgvector.Vector, filterMetadata []byte, limit int32) ([]SearchRow, error)

	// SearchDocumentsAll performs unfiltered vector search
	SearchDocumentsAll(ctx context.Context, embedding *pgvector.Vector, limit int32) ([]SearchRow, error)

	// CountDocuments counts documents matching filter
	CountDocuments(ctx context.Context, filterMetadata []byte) (int64, error)

	// CountDocumentsAll counts all documents
	CountDocumentsAll(ctx context.Context) (int64, error)

	// DeleteDocument deletes a document by ID
	DeleteDocument(ctx context.Context, id string) error

	// ListDocumentsBySourceType lists documents by source type
	ListDocumentsBySourceType(ctx context.Context, sourceType string, limit int32) ([]DocumentRow, error)
}

// Store manages course documents with vector search capabilities.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	queries  Querier
	embedder ai.Embedder
	logger   *slog.Logger
}

// New creates a Store.
//
// Example (production):
//
//	store := knowledge.New(knowledge.NewQueries(pool), embedder, logger)
//
// Example (testing):
//
//	store := knowledge.New(fakeQuerier, fakeEmbedder, log.NewNop())
func New(querier Querier, embedder ai.Embedder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		queries:  querier,
		embedder: embedder,
		logger:   logger,
	}
}

// Add adds a document to the store. The content is embedded with the
// configured embedder; the write is an upsert keyed on doc.ID.
func (s *Store) Add(ctx context.Context, doc Document) error {
	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("embedding document %q: %w", doc.ID, err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata for %q: %w", doc.ID, err)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	if err := s.queries.UpsertDocument(ctx, UpsertParams{
		ID:         doc.ID,
		Content:    doc.Content,
		Embedding:  embedding,
		SourceType: doc.SourceType,
		Metadata:   metadataJSON,
		CreatedAt:  createdAt,
	}); err != nil {
		return fmt.Errorf("upserting document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document",
		"id", doc.ID,
		"source_type", doc.SourceType,
		"content_length", len(doc.Content))
	return nil
}

// Search performs semantic search over the indexed course content.
// Results are ordered by similarity, best first. A per-search timeout
// (default 10s, see WithTimeout) bounds the vector query.
//
// Example:
//
//	results, err := store.Search(ctx, "gradient descent",
//	    knowledge.WithTopK(5),
//	    knowledge.WithFilter("source_type", knowledge.SourceTypeDocument))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	embedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var rows []SearchRow
	if len(cfg.filter) > 0 {
		filterJSON, marshalErr := json.Marshal(cfg.filter)
		if marshalErr != nil {
			return nil, fmt.Errorf("marshaling filter: %w", marshalErr)
		}
		rows, err = s.queries.SearchDocuments(queryCtx, embedding, filterJSON, cfg.topK)
	} else {
		rows, err = s.queries.SearchDocumentsAll(queryCtx, embedding, cfg.topK)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return s.rowsToResults(rows), nil
}

// Count returns the number of documents matching the given filter.
// A nil or empty filter counts all documents.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int, error) {
	var count int64
	var err error

	if len(filter) > 0 {
		filterJSON, marshalErr := json.Marshal(filter)
		if marshalErr != nil {
			return 0, fmt.Errorf("marshaling filter: %w", marshalErr)
		}
		count, err = s.queries.CountDocuments(ctx, filterJSON)
	} else {
		count, err = s.queries.CountDocumentsAll(ctx)
	}
	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}

	// Overflow protection for 32-bit platforms.
	if count > math.MaxInt {
		return 0, fmt.Errorf("document count %d exceeds platform int capacity", count)
	}

	return int(count), nil
}

// Delete removes a document from the store.
func (s *Store) Delete(ctx context.Context, docID string) error {
	if err := s.queries.DeleteDocument(ctx, docID); err != nil {
		return fmt.Errorf("deleting document %q: %w", docID, err)
	}
	s.logger.Debug("deleted document", "id", docID)
	return nil
}

// ListBySourceType lists documents of one source type, newest first,
// without similarity calculation. Useful for listing what has been
// indexed without generating embeddings.
func (s *Store) ListBySourceType(ctx context.Context, sourceType string, limit int32) ([]Document, error) {
	const maxListLimit = 1000
	if limit <= 0 || limit > maxListLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", maxListLimit, limit)
	}

	switch sourceType {
	case SourceTypeDocument, SourceTypeSyllabus, SourceTypeMedia:
	default:
		return nil, fmt.Errorf("invalid sourceType: %q, must be one of: document, syllabus, media", sourceType)
	}

	rows, err := s.queries.ListDocumentsBySourceType(ctx, sourceType, limit)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	documents := make([]Document, 0, len(rows))
	for _, row := range rows {
		documents = append(documents, Document{
			ID:         row.ID,
			Content:    row.Content,
			SourceType: row.SourceType,
			Metadata:   s.parseMetadata(row.ID, row.Metadata),
			CreatedAt:  row.CreatedAt,
		})
	}
	return documents, nil
}

// embed generates the embedding vector for one text.
func (s *Store) embed(ctx context.Context, text string) (*pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	v := pgvector.NewVector(resp.Embeddings[0].Embedding)
	return &v, nil
}

// rowsToResults converts search rows to business-model results.
func (s *Store) rowsToResults(rows []SearchRow) []Result {
	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, Result{
			Document: Document{
				ID:         row.ID,
				Content:    row.Content,
				SourceType: row.SourceType,
				Metadata:   s.parseMetadata(row.ID, row.Metadata),
				CreatedAt:  row.CreatedAt,
			},
			Similarity: row.Similarity,
		})
	}
	return results
}

// parseMetadata unmarshals row metadata, degrading to an empty map on
// corrupt JSON rather than failing the whole result set.
func (s *Store) parseMetadata(docID string, raw []byte) map[string]string {
	var metadata map[string]string
	if err := json.Unmarshal(raw, &metadata); err != nil {
		s.logger.Warn("failed to parse metadata", "document_id", docID, "error", err)
		return map[string]string{}
	}
	return metadata
}
