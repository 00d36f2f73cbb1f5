package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/AazainKhan/luminate-ai-sub002/internal/knowledge"
)

// Adder is the slice of the knowledge store the indexer needs.
type Adder interface {
	Add(ctx context.Context, doc knowledge.Document) error
}

// Stats summarizes one indexing run.
type Stats struct {
	Files   int
	Chunks  int
	Skipped int
}

// Indexer walks course export files and indexes their chunks.
type Indexer struct {
	store   Adder
	chunker *Chunker
	logger  *slog.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(store Adder, chunker *Chunker, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{store: store, chunker: chunker, logger: logger}
}

// indexableExtensions are the file types a course export contains as
// text. Everything else is skipped, not failed.
var indexableExtensions = map[string]string{
	".md":   knowledge.SourceTypeDocument,
	".txt":  knowledge.SourceTypeDocument,
	".html": knowledge.SourceTypeDocument,
}

// IndexFS indexes every supported file under the given filesystem.
// File names containing "syllabus" index as syllabus content.
//
// Indexing is idempotent per file: chunk IDs are derived from the file
// path and chunk index, so re-running over the same export updates
// rather than duplicates.
func (ix *Indexer) IndexFS(ctx context.Context, fsys fs.FS) (Stats, error) {
	var stats Stats

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		sourceType, ok := indexableExtensions[strings.ToLower(filepath.Ext(path))]
		if !ok {
			stats.Skipped++
			return nil
		}
		if strings.Contains(strings.ToLower(filepath.Base(path)), "syllabus") {
			sourceType = knowledge.SourceTypeSyllabus
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		added, err := ix.indexFile(ctx, path, string(data), sourceType)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", path, err)
		}

		stats.Files++
		stats.Chunks += added
		return nil
	})
	if err != nil {
		return stats, err
	}

	ix.logger.Info("indexing complete",
		"files", stats.Files,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped)
	return stats, nil
}

// IndexText indexes one in-memory document, returning chunk count.
// Used for media metadata and other content that does not arrive as a
// file on disk.
func (ix *Indexer) IndexText(ctx context.Context, name, text, sourceType string, metadata map[string]string) (int, error) {
	merged := map[string]string{"source_file": name}
	for k, v := range metadata {
		merged[k] = v
	}
	return ix.index(ctx, name, text, sourceType, merged)
}

func (ix *Indexer) indexFile(ctx context.Context, path, text, sourceType string) (int, error) {
	return ix.index(ctx, path, text, sourceType, map[string]string{"source_file": path})
}

func (ix *Indexer) index(ctx context.Context, name, text, sourceType string, metadata map[string]string) (int, error) {
	chunks := ix.chunker.Split(text)
	for _, chunk := range chunks {
		meta := map[string]string{
			"chunk_index": strconv.Itoa(chunk.Index),
			"source_type": sourceType,
		}
		for k, v := range metadata {
			meta[k] = v
		}

		doc := knowledge.Document{
			ID:         chunkID(name, chunk.Index),
			Content:    chunk.Text,
			SourceType: sourceType,
			Metadata:   meta,
		}
		if err := ix.store.Add(ctx, doc); err != nil {
			return 0, fmt.Errorf("chunk %d: %w", chunk.Index, err)
		}
	}
	return len(chunks), nil
}

// chunkID derives a stable UUID from the source name and chunk index,
// keeping re-indexing idempotent.
func chunkID(name string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("luminate:%s:%d", name, index))).String()
}
