// Package synthesizer turns retrieved chunks into answers and summaries.
package synthesizer

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"docassist/internal/domain"
)

var (
	queryPrompt   = template.Must(template.New("query").Parse(queryPromptTmpl))
	summaryPrompt = template.Must(template.New("summary").Parse(summaryPromptTmpl))
)

// Options fixes the model and sampling temperature for every request.
type Options struct {
	Model       string
	Temperature float64
}

// Synthesizer asks a completion model to answer from context.
type Synthesizer struct {
	completer   domain.Completer
	model       string
	temperature float64
}

func New(completer domain.Completer, opts Options) *Synthesizer {
	if opts.Model == "" {
		opts.Model = "gpt-3.5-turbo"
	}
	return &Synthesizer{completer: completer, model: opts.Model, temperature: opts.Temperature}
}

// QueryPrompt renders the prompt used to answer query from chunks.
func QueryPrompt(query string, chunks []domain.Chunk) string {
	var sb strings.Builder
	_ = queryPrompt.Execute(&sb, struct {
		Chunks   []domain.Chunk
		Question string
	}{chunks, strings.TrimSpace(query)})
	return sb.String()
}

// SummaryPrompt renders the prompt used to summarize chunks.
func SummaryPrompt(chunks []domain.Chunk) string {
	var sb strings.Builder
	_ = summaryPrompt.Execute(&sb, struct {
		Chunks      []domain.Chunk
		Instruction string
	}{chunks, SummaryInstruction})
	return sb.String()
}

// Synthesize answers query from chunks. Without chunks it returns
// domain.NoDocumentsMessage and makes no request.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, chunks []domain.Chunk) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", domain.ErrEmptyQuery
	}
	if len(chunks) == 0 {
		return domain.NoDocumentsMessage, nil
	}
	return s.complete(ctx, QueryPrompt(query, chunks))
}

// Summarize summarizes chunks across documents. Without chunks it returns
// domain.NoDocumentsMessage and makes no request.
func (s *Synthesizer) Summarize(ctx context.Context, chunks []domain.Chunk) (string, error) {
	if len(chunks) == 0 {
		return domain.NoDocumentsMessage, nil
	}
	return s.complete(ctx, SummaryPrompt(chunks))
}

func (s *Synthesizer) complete(ctx context.Context, prompt string) (string, error) {
	out, err := s.completer.Complete(ctx, domain.CompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		System:      SystemMessage,
		Prompt:      prompt,
	})
	if err != nil {
		return "", wrapCompletion(err)
	}
	return out, nil
}

func wrapCompletion(err error) error {
	if domain.Retryable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrCompletionService, err)
}
