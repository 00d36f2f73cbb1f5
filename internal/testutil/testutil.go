// Package testutil provides shared testing utilities for the luminate
// project: a deterministic fake embedder, a scripted scope checker, a
// quiet logger, and a PostgreSQL test container with pgvector.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"math"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
)

// QuietLogger returns a logger suitable for tests: warnings and errors
// only, so expected-failure paths stay visible without log noise.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// FakeEmbedder is a deterministic ai.Embedder: the embedding is derived
// from the input text, so equal texts embed equally and different texts
// (almost always) differ. No network, no API key.
type FakeEmbedder struct {
	// Err, if set, is returned from every Embed call.
	Err error

	// Dimensions of the produced vectors. Defaults to 8.
	Dimensions int

	// Calls counts Embed invocations.
	Calls int
}

// Name implements ai.Embedder.
func (f *FakeEmbedder) Name() string { return "fake-embedder" }

// Register implements ai.Embedder. No-op for testing.
func (f *FakeEmbedder) Register(api.Registry) {}

// Embed implements ai.Embedder with a hash-derived unit vector.
func (f *FakeEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}

	dims := f.Dimensions
	if dims <= 0 {
		dims = 8
	}

	text := ""
	if len(req.Input) > 0 && len(req.Input[0].Content) > 0 {
		text = req.Input[0].Content[0].Text
	}

	// FNV-style rolling hash per dimension, normalized to unit length.
	vec := make([]float32, dims)
	var norm float64
	h := uint64(14695981039346656037)
	for i := range dims {
		for _, b := range []byte(text) {
			h ^= uint64(b) + uint64(i)
			h *= 1099511628211
		}
		v := float32(h%2000)/1000 - 1 // [-1, 1)
		vec[i] = v
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return &ai.EmbedResponse{
		Embeddings: []*ai.Embedding{{Embedding: vec}},
	}, nil
}

// ScriptedScope is a governor.ScopeChecker whose behavior is fixed up
// front: either a distance or an error.
type ScriptedScope struct {
	Distance float64
	Err      error
	Calls    int
}

// BestMatch implements governor.ScopeChecker.
func (s *ScriptedScope) BestMatch(context.Context, string) (float64, error) {
	s.Calls++
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Distance, nil
}
