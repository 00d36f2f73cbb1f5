// Package reasoning produces the structured reasoning signal the
// governor consumes.
//
// Two producers exist. The lexical producer derives a signal directly
// from the mode classification and is always available. The model
// producer asks the configured Gemini model for a structured intent
// assessment through Genkit; the pipeline falls back to the lexical
// producer when the model call fails or returns an out-of-contract
// signal.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/AazainKhan/luminate-ai-sub002/internal/classifier"
	"github.com/AazainKhan/luminate-ai-sub002/internal/governor"
)

// Producer turns a query and its classification into a reasoning signal.
type Producer interface {
	Produce(ctx context.Context, query string, cls classifier.Classification) (governor.ReasoningSignal, error)
}

// LexicalProducer derives the signal from the classification alone.
// No model call, deterministic, always succeeds.
type LexicalProducer struct{}

// Produce maps the classification onto a reasoning signal. The mode
// becomes the intent and the classifier confidence carries over
// unchanged, so both values stay on their documented scales.
func (LexicalProducer) Produce(_ context.Context, _ string, cls classifier.Classification) (governor.ReasoningSignal, error) {
	sig, err := governor.NewReasoningSignal(string(cls.Mode), cls.Confidence, nil)
	if err != nil {
		return governor.ReasoningSignal{}, fmt.Errorf("lexical signal: %w", err)
	}
	return sig, nil
}

// signalOutput is the structured output schema requested from the model.
type signalOutput struct {
	Intent           string   `json:"intent"`
	Confidence       float64  `json:"confidence"`
	DetectedConcepts []string `json:"detected_concepts"`
}

const signalSystemPrompt = `You analyze a student's question to a university course tutoring assistant.
Classify the intent as exactly one of "navigate" (the student wants to locate a course resource) or "educate" (the student wants a concept explained).
Report your confidence as a number between 0 and 1, and list the course concepts the question touches.
Answer only from the question text. Do not answer the question itself.`

// ModelProducer asks the configured model for a structured intent
// assessment.
type ModelProducer struct {
	genkit    *genkit.Genkit
	modelName string
	logger    *slog.Logger
}

// NewModelProducer creates a ModelProducer. modelName is the fully
// qualified Genkit model name, like "googleai/gemini-2.5-flash".
func NewModelProducer(g *genkit.Genkit, modelName string, logger *slog.Logger) *ModelProducer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelProducer{genkit: g, modelName: modelName, logger: logger}
}

// Produce runs one structured generation and validates the result
// through the signal constructor. A model that reports confidence
// outside [0, 1] yields an error, never a clamped signal.
func (p *ModelProducer) Produce(ctx context.Context, query string, cls classifier.Classification) (governor.ReasoningSignal, error) {
	response, err := genkit.Generate(ctx, p.genkit,
		ai.WithModelName(p.modelName),
		ai.WithSystem(signalSystemPrompt),
		ai.WithPrompt("Question: %s\n\nLexical pre-classification: %s (confidence %.2f)", query, cls.Mode, cls.Confidence),
		ai.WithOutputType(signalOutput{}),
	)
	if err != nil {
		return governor.ReasoningSignal{}, fmt.Errorf("reasoning generation: %w", err)
	}

	var out signalOutput
	if err := response.Output(&out); err != nil {
		return governor.ReasoningSignal{}, fmt.Errorf("parsing reasoning output: %w", err)
	}

	sig, err := fromOutput(out)
	if err != nil {
		return governor.ReasoningSignal{}, err
	}

	p.logger.Debug("model reasoning signal",
		"intent", sig.Intent,
		"confidence", sig.Confidence,
		"concepts", len(sig.Concepts))
	return sig, nil
}

// fromOutput validates a raw model output into a signal. Unknown
// intents are rejected so a hallucinated label cannot reach the
// governor.
func fromOutput(out signalOutput) (governor.ReasoningSignal, error) {
	switch out.Intent {
	case string(classifier.ModeNavigate), string(classifier.ModeEducate):
	default:
		return governor.ReasoningSignal{}, fmt.Errorf("model returned unknown intent %q: %w", out.Intent, governor.ErrInvalidSignal)
	}
	sig, err := governor.NewReasoningSignal(out.Intent, out.Confidence, out.DetectedConcepts)
	if err != nil {
		return governor.ReasoningSignal{}, fmt.Errorf("model signal out of contract: %w", err)
	}
	return sig, nil
}
