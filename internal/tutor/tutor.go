// Package tutor wires the query pipeline end to end: classify the mode,
// produce a reasoning signal, run the governance gates, then either
// retrieve resources (navigate) or generate a grounded explanation
// (educate).
package tutor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/AazainKhan/luminate-ai-sub002/internal/classifier"
	"github.com/AazainKhan/luminate-ai-sub002/internal/governor"
	"github.com/AazainKhan/luminate-ai-sub002/internal/knowledge"
	"github.com/AazainKhan/luminate-ai-sub002/internal/reasoning"
)

// Source describes one retrieved document backing an answer.
type Source struct {
	ID         string            `json:"id"`
	SourceType string            `json:"source_type"`
	Similarity float32           `json:"similarity"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Excerpt    string            `json:"excerpt,omitempty"`
}

// Output is the pipeline result for one query.
type Output struct {
	Mode       classifier.Mode `json:"mode"`
	Confidence float64         `json:"confidence"`
	Approved   bool            `json:"approved"`
	Reason     string          `json:"reason,omitempty"`
	Answer     string          `json:"answer,omitempty"`
	Sources    []Source        `json:"sources,omitempty"`
}

// Retriever is the slice of the knowledge store the pipeline needs.
type Retriever interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Generator produces the final answer text from the query and its
// retrieved context. Production uses genkitGenerator; tests substitute
// a fake.
type Generator interface {
	Answer(ctx context.Context, query string, contexts []knowledge.Result) (string, error)
}

// Pipeline runs queries through governance and on to retrieval and
// generation.
//
// Pipeline is safe for concurrent use by multiple goroutines.
type Pipeline struct {
	classifier *classifier.Classifier
	producer   reasoning.Producer
	governor   *governor.Governor
	retriever  Retriever
	generator  Generator
	topK       int32
	logger     *slog.Logger
}

// Config collects the pipeline dependencies.
type Config struct {
	Classifier *classifier.Classifier
	Producer   reasoning.Producer
	Governor   *governor.Governor
	Retriever  Retriever
	Generator  Generator

	// TopK bounds retrieval for educate answers. Defaults to 5.
	TopK int32

	Logger *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}
	return &Pipeline{
		classifier: cfg.Classifier,
		producer:   cfg.Producer,
		governor:   cfg.Governor,
		retriever:  cfg.Retriever,
		generator:  cfg.Generator,
		topK:       topK,
		logger:     logger,
	}
}

// Ask runs one query through the full pipeline.
//
// A rejected query returns Approved=false with the governor's reason
// and no answer; that is a normal outcome, not an error. Errors are
// reserved for infrastructure failures after approval.
func (p *Pipeline) Ask(ctx context.Context, query string) (Output, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Output{}, fmt.Errorf("empty query")
	}

	cls := p.classifier.Classify(query)

	sig, err := p.producer.Produce(ctx, query, cls)
	if err != nil {
		// The lexical fallback cannot fail for a valid classification.
		p.logger.Warn("reasoning producer failed, falling back to lexical signal", "error", err)
		sig, err = reasoning.LexicalProducer{}.Produce(ctx, query, cls)
		if err != nil {
			return Output{}, fmt.Errorf("producing reasoning signal: %w", err)
		}
	}

	decision := p.governor.CheckPolicies(ctx, query, sig)

	out := Output{
		Mode:       cls.Mode,
		Confidence: cls.Confidence,
		Approved:   decision.Approved,
		Reason:     decision.Reason,
	}
	if !decision.Approved {
		p.logger.Info("query rejected",
			"mode", cls.Mode,
			"confidence", cls.Confidence,
			"reason", decision.Reason)
		return out, nil
	}

	switch cls.Mode {
	case classifier.ModeNavigate:
		return p.navigate(ctx, query, out)
	default:
		return p.educate(ctx, query, out)
	}
}

// navigate answers a resource-lookup query with the closest indexed
// resources rather than a generated explanation.
func (p *Pipeline) navigate(ctx context.Context, query string, out Output) (Output, error) {
	results, err := p.retriever.Search(ctx, query, knowledge.WithTopK(p.topK))
	if err != nil {
		return Output{}, fmt.Errorf("retrieving resources: %w", err)
	}
	if len(results) == 0 {
		out.Answer = "No matching course resources found."
		return out, nil
	}

	var b strings.Builder
	b.WriteString("Closest course resources:\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s", i+1, resourceLabel(r.Document))
		if url := r.Document.Metadata["url"]; url != "" {
			fmt.Fprintf(&b, " (%s)", url)
		}
		b.WriteByte('\n')
	}
	out.Answer = b.String()
	out.Sources = toSources(results)
	return out, nil
}

// educate retrieves supporting context and generates a grounded answer.
func (p *Pipeline) educate(ctx context.Context, query string, out Output) (Output, error) {
	results, err := p.retriever.Search(ctx, query, knowledge.WithTopK(p.topK))
	if err != nil {
		return Output{}, fmt.Errorf("retrieving context: %w", err)
	}

	answer, err := p.generator.Answer(ctx, query, results)
	if err != nil {
		return Output{}, fmt.Errorf("generating answer: %w", err)
	}

	out.Answer = answer
	out.Sources = toSources(results)
	return out, nil
}

// resourceLabel prefers a human title from metadata over raw content.
func resourceLabel(doc knowledge.Document) string {
	if title := doc.Metadata["title"]; title != "" {
		return title
	}
	const maxExcerpt = 80
	if len(doc.Content) > maxExcerpt {
		return doc.Content[:maxExcerpt] + "..."
	}
	return doc.Content
}

func toSources(results []knowledge.Result) []Source {
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		excerpt := r.Document.Content
		const maxExcerpt = 160
		if len(excerpt) > maxExcerpt {
			excerpt = excerpt[:maxExcerpt] + "..."
		}
		sources = append(sources, Source{
			ID:         r.Document.ID,
			SourceType: r.Document.SourceType,
			Similarity: r.Similarity,
			Metadata:   r.Document.Metadata,
			Excerpt:    excerpt,
		})
	}
	return sources
}

const tutorSystemPrompt = `You are a tutoring assistant for a university course.
Answer the student's question using only the provided course material excerpts.
Explain step by step, building understanding rather than just stating the result.
If the excerpts do not cover the question, say so plainly instead of guessing.
Never provide direct answers to graded exam or quiz questions.`

// genkitGenerator generates answers through the configured Gemini model.
type genkitGenerator struct {
	genkit    *genkit.Genkit
	modelName string
}

// NewGenerator creates the production Generator. modelName is the fully
// qualified Genkit model name, like "googleai/gemini-2.5-flash".
func NewGenerator(g *genkit.Genkit, modelName string) Generator {
	return &genkitGenerator{genkit: g, modelName: modelName}
}

func (g *genkitGenerator) Answer(ctx context.Context, query string, contexts []knowledge.Result) (string, error) {
	var b strings.Builder
	for i, r := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, r.Document.Content)
	}
	contextBlock := b.String()
	if contextBlock == "" {
		contextBlock = "(no course material matched this question)"
	}

	response, err := genkit.Generate(ctx, g.genkit,
		ai.WithModelName(g.modelName),
		ai.WithSystem(tutorSystemPrompt),
		ai.WithPrompt("Course material:\n%s\nQuestion: %s", contextBlock, query),
	)
	if err != nil {
		return "", fmt.Errorf("answer generation: %w", err)
	}
	return response.Text(), nil
}
