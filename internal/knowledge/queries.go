package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

// UpsertParams carries one document row for insertion or update.
type UpsertParams struct {
	ID         string
	Content    string
	Embedding  *pgvector.Vector
	SourceType string
	Metadata   []byte
	CreatedAt  time.Time
}

// SearchRow is one row of a vector search result.
type SearchRow struct {
	ID         string
	Content    string
	SourceType string
	Metadata   []byte
	CreatedAt  time.Time
	Similarity float32
}

// DocumentRow is one row of a non-search listing.
type DocumentRow struct {
	ID         string
	Content    string
	SourceType string
	Metadata   []byte
	CreatedAt  time.Time
}

// Queries implements Querier on a pgx connection pool with hand-written
// SQL. All statements are parameterized; filter JSON is always produced
// by json.Marshal upstream, never concatenated.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries creates a Queries bound to the given pool.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// UpsertDocument inserts or updates one course document.
func (q *Queries) UpsertDocument(ctx context.Context, arg UpsertParams) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO course_documents (id, content, embedding, source_type, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			source_type = EXCLUDED.source_type,
			metadata = EXCLUDED.metadata`,
		arg.ID, arg.Content, arg.Embedding, arg.SourceType, arg.Metadata, arg.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

// SearchDocuments performs a filtered vector search ordered by cosine
// distance. Similarity is reported as 1 - distance.
func (q *Queries) SearchDocuments(ctx context.Context, embedding *pgvector.Vector, filterMetadata []byte, limit int32) ([]SearchRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, content, source_type, metadata, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM course_documents
		WHERE metadata @> $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		embedding, filterMetadata, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// SearchDocumentsAll performs an unfiltered vector search.
func (q *Queries) SearchDocumentsAll(ctx context.Context, embedding *pgvector.Vector, limit int32) ([]SearchRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, content, source_type, metadata, created_at,
		       1 - (embedding <=> $1) AS similarity
		FROM course_documents
		ORDER BY embedding <=> $1
		LIMIT $2`,
		embedding, limit)
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}
	defer rows.Close()
	return scanSearchRows(rows)
}

// CountDocuments counts documents matching the metadata filter.
func (q *Queries) CountDocuments(ctx context.Context, filterMetadata []byte) (int64, error) {
	var count int64
	err := q.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM course_documents WHERE metadata @> $1`,
		filterMetadata).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// CountDocumentsAll counts all documents.
func (q *Queries) CountDocumentsAll(ctx context.Context) (int64, error) {
	var count int64
	err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM course_documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// DeleteDocument deletes a document by ID.
func (q *Queries) DeleteDocument(ctx context.Context, id string) error {
	if _, err := q.pool.Exec(ctx,
		`DELETE FROM course_documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// ListDocumentsBySourceType lists documents of one source type, newest
// first, without similarity calculation.
func (q *Queries) ListDocumentsBySourceType(ctx context.Context, sourceType string, limit int32) ([]DocumentRow, error) {
	rows, err := q.pool.Query(ctx, `
		SELECT id, content, source_type, metadata, created_at
		FROM course_documents
		WHERE source_type = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		sourceType, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var r DocumentRow
		if err := rows.Scan(&r.ID, &r.Content, &r.SourceType, &r.Metadata, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return out, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSearchRows(rows pgxRows) ([]SearchRow, error) {
	var out []SearchRow
	for rows.Next() {
		var r SearchRow
		if err := rows.Scan(&r.ID, &r.Content, &r.SourceType, &r.Metadata, &r.CreatedAt, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}
	return out, nil
}
