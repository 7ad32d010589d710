package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"docqa-backend/internal/ai"
	"docqa-backend/models"
)

// fakeEmbedder returns canned vectors by exact text, or a zero vector
// for unknown texts. A non-zero failures count makes that many leading
// calls return err before it starts succeeding.
type fakeEmbedder struct {
	dim      int
	vectors  map[string][]float32
	err      error
	failures int
	calls    int
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.err != nil && (f.failures == 0 || f.calls <= f.failures) {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = make([]float32, f.dim)
		}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return f.dim }

// scriptedStream yields its tokens then the final error (io.EOF for a
// clean finish).
type scriptedStream struct {
	tokens []string
	final  error
	pos    int
}

func (s *scriptedStream) Next() (string, error) {
	if s.pos < len(s.tokens) {
		token := s.tokens[s.pos]
		s.pos++
		return token, nil
	}
	if s.final != nil {
		return "", s.final
	}
	return "", io.EOF
}

// scriptedModel plays one scripted outcome per attempt.
type scriptedModel struct {
	attempts []func() (ai.TokenStream, error)
	calls    int
}

func (m *scriptedModel) StreamGenerate(ctx context.Context, req ai.GenerationRequest) (ai.TokenStream, error) {
	if m.calls >= len(m.attempts) {
		return nil, fmt.Errorf("unexpected attempt %d", m.calls+1)
	}
	attempt := m.attempts[m.calls]
	m.calls++
	return attempt()
}

func streamOf(tokens ...string) func() (ai.TokenStream, error) {
	return func() (ai.TokenStream, error) {
		return &scriptedStream{tokens: tokens}, nil
	}
}

func failBeforeFirstToken(err error) func() (ai.TokenStream, error) {
	return func() (ai.TokenStream, error) { return nil, err }
}

func dieMidStream(err error, tokens ...string) func() (ai.TokenStream, error) {
	return func() (ai.TokenStream, error) {
		return &scriptedStream{tokens: tokens, final: err}, nil
	}
}

// fakeCompletion is a CompletionModel with a fixed reply.
type fakeCompletion struct {
	reply string
	err   error
}

func (f *fakeCompletion) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	return f.reply, f.err
}

// textExtractor treats the document bytes as plain text, page breaks
// on form feeds. Content containing failOn triggers an extraction
// error.
type textExtractor struct {
	failOn string
}

func (e *textExtractor) Extract(ctx context.Context, content []byte) ([]TextBlock, error) {
	if e.failOn != "" && strings.Contains(string(content), e.failOn) {
		return nil, models.Kindf(models.ErrExtractionFailed, "corrupt document")
	}
	var blocks []TextBlock
	for i, page := range strings.Split(string(content), "\f") {
		blocks = append(blocks, TextBlock{Page: i + 1, Text: page})
	}
	return blocks, nil
}

// collectEvents drains a generation stream into a slice.
func collectEvents(events <-chan models.GenerationEvent) []models.GenerationEvent {
	var out []models.GenerationEvent
	for event := range events {
		out = append(out, event)
	}
	return out
}

func bundleOf(fragments ...models.ContextFragment) models.ContextBundle {
	bundle := models.ContextBundle{Fragments: fragments}
	for _, f := range fragments {
		bundle.Size += len(f.Text)
	}
	return bundle
}
