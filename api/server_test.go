package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/AazainKhan/luminate-ai-sub002/internal/classifier"
	"github.com/AazainKhan/luminate-ai-sub002/internal/config"
	"github.com/AazainKhan/luminate-ai-sub002/internal/governor"
	"github.com/AazainKhan/luminate-ai-sub002/internal/testutil"
	"github.com/AazainKhan/luminate-ai-sub002/internal/tutor"
)

type fakeAsker struct {
	out tutor.Output
	err error

	gotQuery string
}

func (f *fakeAsker) Ask(_ context.Context, query string) (tutor.Output, error) {
	f.gotQuery = query
	if f.err != nil {
		return tutor.Output{}, f.err
	}
	return f.out, nil
}

func newTestServer(asker Asker) *Server {
	cls := classifier.New(
		config.DefaultCoreTopics(),
		config.DefaultNavigateKeywords(),
		config.DefaultEducateKeywords(),
	)
	return NewServer(asker, cls, nil, testutil.QuietLogger())
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestQueryEndpoint(t *testing.T) {
	t.Parallel()

	asker := &fakeAsker{out: tutor.Output{
		Mode:       classifier.ModeEducate,
		Confidence: 0.95,
		Approved:   true,
		Answer:     "Gradient descent iteratively...",
	}}
	srv := newTestServer(asker)

	rec := postJSON(t, srv.Handler(), "/api/query", `{"query": "explain gradient descent"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var out tutor.Output
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !out.Approved || out.Answer == "" {
		t.Errorf("response = %+v", out)
	}
	if asker.gotQuery != "explain gradient descent" {
		t.Errorf("pipeline got query %q", asker.gotQuery)
	}
}

func TestQueryEndpoint_RejectionIsOK(t *testing.T) {
	t.Parallel()

	asker := &fakeAsker{out: tutor.Output{
		Mode:       classifier.ModeEducate,
		Confidence: 0.6,
		Approved:   false,
		Reason:     governor.OutOfScopeReason,
	}}
	srv := newTestServer(asker)

	rec := postJSON(t, srv.Handler(), "/api/query", `{"query": "who won the election"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rejection should be 200, got %d", rec.Code)
	}
	var out tutor.Output
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Approved || out.Reason == "" {
		t.Errorf("response = %+v", out)
	}
}

func TestQueryEndpoint_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{broken`, http.StatusBadRequest},
		{"missing query", `{}`, http.StatusBadRequest},
		{"blank query", `{"query": "   "}`, http.StatusBadRequest},
		{"oversized query", `{"query": "` + strings.Repeat("a", 5000) + `"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(&fakeAsker{})
			rec := postJSON(t, srv.Handler(), "/api/query", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestQueryEndpoint_PipelineError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeAsker{err: errors.New("db down")})
	rec := postJSON(t, srv.Handler(), "/api/query", `{"query": "explain overfitting"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error != "pipeline_error" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeAsker{})
	rec := postJSON(t, srv.Handler(), "/api/classify", `{"query": "find me the syllabus link"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var cls classifier.Classification
	if err := json.Unmarshal(rec.Body.Bytes(), &cls); err != nil {
		t.Fatal(err)
	}
	if cls.Mode != classifier.ModeNavigate {
		t.Errorf("mode = %s, want navigate", cls.Mode)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&fakeAsker{})
	handler := srv.Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("/health = %d", rec.Code)
	}

	// No pool configured: not ready.
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready = %d, want 503", rec.Code)
	}
}
