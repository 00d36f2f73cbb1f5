package knowledge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/AazainKhan/luminate-ai-sub002/internal/log"
)

// mockEmbedder implements ai.Embedder for testing.
type mockEmbedder struct {
	embedErr      error
	returnEmpty   bool
	embedding     []float32
	callCount     int
	lastInputText string
}

func (m *mockEmbedder) Name() string { return "mock-embedder" }

func (m *mockEmbedder) Register(api.Registry) {}

func (m *mockEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	m.callCount++
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		m.lastInputText = req.Input[0].Content[0].Text
	}
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.returnEmpty {
		return &ai.EmbedResponse{}, nil
	}
	embedding := m.embedding
	if embedding == nil {
		embedding = []float32{0.1, 0.2, 0.3}
	}
	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: embedding}},
	}, nil
}

// mockQuerier implements Querier with error injection and call tracking.
type mockQuerier struct {
	upsertErr error
	searchErr error
	countErr  error
	deleteErr error
	listErr   error

	searchRows []SearchRow
	listRows   []DocumentRow
	count      int64

	upsertCalls      int
	searchCalls      int
	searchAllCalls   int
	lastUpsertParams UpsertParams
	lastFilter       []byte
	lastLimit        int32
}

func (m *mockQuerier) UpsertDocument(_ context.Context, arg UpsertParams) error {
	m.upsertCalls++
	m.lastUpsertParams = arg
	return m.upsertErr
}

func (m *mockQuerier) SearchDocuments(_ context.Context, _ *pgvector.Vector, filterMetadata []byte, limit int32) ([]SearchRow, error) {
	m.searchCalls++
	m.lastFilter = filterMetadata
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRows, nil
}

func (m *mockQuerier) SearchDocumentsAll(_ context.Context, _ *pgvector.Vector, limit int32) ([]SearchRow, error) {
	m.searchAllCalls++
	m.lastLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchRows, nil
}

func (m *mockQuerier) CountDocuments(_ context.Context, filterMetadata []byte) (int64, error) {
	m.lastFilter = filterMetadata
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockQuerier) CountDocumentsAll(_ context.Context) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.count, nil
}

func (m *mockQuerier) DeleteDocument(_ context.Context, _ string) error {
	return m.deleteErr
}

func (m *mockQuerier) ListDocumentsBySourceType(_ context.Context, _ string, limit int32) ([]DocumentRow, error) {
	m.lastLimit = limit
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listRows, nil
}

func TestStoreAdd(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	embedder := &mockEmbedder{}
	store := New(querier, embedder, log.NewNop())

	doc := Document{
		ID:         "doc-1",
		Content:    "Gradient descent minimizes the loss function iteratively.",
		SourceType: SourceTypeDocument,
		Metadata:   map[string]string{"source_file": "lecture03.pdf"},
	}
	if err := store.Add(context.Background(), doc); err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	if embedder.lastInputText != doc.Content {
		t.Errorf("embedded text = %q, want document content", embedder.lastInputText)
	}
	if querier.upsertCalls != 1 {
		t.Errorf("upsert calls = %d, want 1", querier.upsertCalls)
	}
	got := querier.lastUpsertParams
	if got.ID != "doc-1" || got.SourceType != SourceTypeDocument {
		t.Errorf("upsert params = %+v", got)
	}
	if !strings.Contains(string(got.Metadata), "lecture03.pdf") {
		t.Errorf("metadata JSON = %s, want source_file present", got.Metadata)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not defaulted")
	}
}

func TestStoreAdd_PreservesCreatedAt(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	at := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	err := store.Add(context.Background(), Document{
		ID:         "doc-2",
		Content:    "syllabus week 1",
		SourceType: SourceTypeSyllabus,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}
	if !querier.lastUpsertParams.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", querier.lastUpsertParams.CreatedAt, at)
	}
}

func TestStoreAdd_EmbeddingFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		embedder *mockEmbedder
	}{
		{"embedder error", &mockEmbedder{embedErr: errors.New("quota exceeded")}},
		{"empty embedding", &mockEmbedder{returnEmpty: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			querier := &mockQuerier{}
			store := New(querier, tt.embedder, log.NewNop())

			err := store.Add(context.Background(), Document{ID: "x", Content: "y", SourceType: SourceTypeDocument})
			if err == nil {
				t.Fatal("expected error")
			}
			if querier.upsertCalls != 0 {
				t.Error("upsert should not run when embedding fails")
			}
		})
	}
}

func TestStoreSearch(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{
		searchRows: []SearchRow{
			{ID: "a", Content: "chain rule", SourceType: SourceTypeDocument, Metadata: []byte(`{"week":"3"}`), Similarity: 0.91},
			{ID: "b", Content: "product rule", SourceType: SourceTypeDocument, Metadata: []byte(`{"week":"3"}`), Similarity: 0.74},
		},
	}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	results, err := store.Search(context.Background(), "how does the chain rule work")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Similarity != 0.91 || results[0].Document.ID != "a" {
		t.Errorf("first result = %+v", results[0])
	}
	if results[0].Document.Metadata["week"] != "3" {
		t.Errorf("metadata = %v", results[0].Document.Metadata)
	}
	if querier.searchAllCalls != 1 || querier.searchCalls != 0 {
		t.Errorf("unfiltered search should use SearchDocumentsAll, got filtered=%d all=%d",
			querier.searchCalls, querier.searchAllCalls)
	}
	if querier.lastLimit != 5 {
		t.Errorf("default topK = %d, want 5", querier.lastLimit)
	}
}

func TestStoreSearch_Filtered(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	_, err := store.Search(context.Background(), "syllabus grading policy",
		WithTopK(3),
		WithFilter("source_type", SourceTypeSyllabus))
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if querier.searchCalls != 1 || querier.searchAllCalls != 0 {
		t.Errorf("filtered search should use SearchDocuments, got filtered=%d all=%d",
			querier.searchCalls, querier.searchAllCalls)
	}
	if querier.lastLimit != 3 {
		t.Errorf("topK = %d, want 3", querier.lastLimit)
	}
	if !strings.Contains(string(querier.lastFilter), SourceTypeSyllabus) {
		t.Errorf("filter JSON = %s", querier.lastFilter)
	}
}

func TestStoreSearch_Errors(t *testing.T) {
	t.Parallel()

	t.Run("embed error", func(t *testing.T) {
		t.Parallel()
		store := New(&mockQuerier{}, &mockEmbedder{embedErr: errors.New("boom")}, log.NewNop())
		if _, err := store.Search(context.Background(), "q"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		store := New(&mockQuerier{searchErr: errors.New("connection reset")}, &mockEmbedder{}, log.NewNop())
		_, err := store.Search(context.Background(), "q")
		if err == nil || !strings.Contains(err.Error(), "search failed") {
			t.Errorf("err = %v, want search failed", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()
		store := New(&mockQuerier{searchErr: context.DeadlineExceeded}, &mockEmbedder{}, log.NewNop())
		_, err := store.Search(context.Background(), "q")
		if err == nil || !strings.Contains(err.Error(), "timeout") {
			t.Errorf("err = %v, want timeout", err)
		}
	})
}

func TestStoreCount(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{count: 42}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	n, err := store.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}

	n, err = store.Count(context.Background(), map[string]string{"source_type": SourceTypeMedia})
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
	if !strings.Contains(string(querier.lastFilter), SourceTypeMedia) {
		t.Errorf("filter = %s", querier.lastFilter)
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	store := New(&mockQuerier{}, &mockEmbedder{}, log.NewNop())
	if err := store.Delete(context.Background(), "doc-1"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	store = New(&mockQuerier{deleteErr: errors.New("gone")}, &mockEmbedder{}, log.NewNop())
	if err := store.Delete(context.Background(), "doc-1"); err == nil {
		t.Error("expected error")
	}
}

func TestStoreListBySourceType(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{
		listRows: []DocumentRow{
			{ID: "m1", Content: "Lecture 5 recording", SourceType: SourceTypeMedia, Metadata: []byte(`{"url":"https://example.edu/l5"}`)},
		},
	}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	docs, err := store.ListBySourceType(context.Background(), SourceTypeMedia, 10)
	if err != nil {
		t.Fatalf("ListBySourceType() error: %v", err)
	}
	if len(docs) != 1 || docs[0].Metadata["url"] == "" {
		t.Errorf("docs = %+v", docs)
	}
}

func TestStoreListBySourceType_Validation(t *testing.T) {
	t.Parallel()

	store := New(&mockQuerier{}, &mockEmbedder{}, log.NewNop())

	tests := []struct {
		name       string
		sourceType string
		limit      int32
	}{
		{"zero limit", SourceTypeDocument, 0},
		{"negative limit", SourceTypeDocument, -1},
		{"limit too large", SourceTypeDocument, 1001},
		{"unknown source type", "wiki", 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := store.ListBySourceType(context.Background(), tt.sourceType, tt.limit); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestStoreCorruptMetadata(t *testing.T) {
	t.Parallel()

	querier := &mockQuerier{
		searchRows: []SearchRow{
			{ID: "bad", Content: "c", SourceType: SourceTypeDocument, Metadata: []byte(`{broken`), Similarity: 0.5},
		},
	}
	store := New(querier, &mockEmbedder{}, log.NewNop())

	results, err := store.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("corrupt metadata must not drop the row")
	}
	if results[0].Document.Metadata == nil || len(results[0].Document.Metadata) != 0 {
		t.Errorf("metadata = %v, want empty map", results[0].Document.Metadata)
	}
}
