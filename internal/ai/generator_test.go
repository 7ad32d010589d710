package ai

import (
	"io"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}},
		}},
	}
}

func TestGeminiStreamReplaysPendingResponse(t *testing.T) {
	spanEnded := false
	s := &geminiStream{
		pending: textResponse("first"),
		done:    true,
		gen:     &Generator{},
		span:    func() { spanEnded = true },
	}

	token, err := s.Next()
	if err != nil {
		t.Fatalf("next error: %v", err)
	}
	if token != "first" {
		t.Errorf("token %q, want %q", token, "first")
	}
	if spanEnded {
		t.Error("span ended before the stream was drained")
	}

	if _, err := s.Next(); err != io.EOF {
		t.Fatalf("want io.EOF after pending, got %v", err)
	}
	if !spanEnded {
		t.Error("span not ended on stream finish")
	}

	// Drained streams stay drained.
	if _, err := s.Next(); err != io.EOF {
		t.Errorf("want io.EOF on closed stream, got %v", err)
	}
}

func TestExtractTextConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("a"), genai.Text("b")}},
		}},
	}
	if got := extractText(resp); got != "ab" {
		t.Errorf("extractText = %q, want %q", got, "ab")
	}
	if got := extractText(nil); got != "" {
		t.Errorf("extractText(nil) = %q, want empty", got)
	}
}
