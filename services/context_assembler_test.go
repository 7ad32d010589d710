package services

import (
	"strings"
	"testing"

	"docqa-backend/models"
)

func retrieved(text, docID, filename string, score float64) models.RetrievedChunk {
	return models.RetrievedChunk{Text: text, Score: score, DocumentID: docID, Filename: filename}
}

func TestAssembleRespectsBudget(t *testing.T) {
	a := NewContextAssembler(10)
	bundle := a.Assemble([]models.RetrievedChunk{
		retrieved("aaaa", "d1", "a.pdf", 0.9),
		retrieved("bbbb", "d2", "b.pdf", 0.8),
		retrieved("cccc", "d3", "c.pdf", 0.7),
	})
	if len(bundle.Fragments) != 2 {
		t.Fatalf("want 2 fragments, got %d", len(bundle.Fragments))
	}
	if bundle.Size != 8 {
		t.Errorf("want size 8, got %d", bundle.Size)
	}
}

func TestAssembleSkipsOversizedButKeepsTrying(t *testing.T) {
	a := NewContextAssembler(10)
	bundle := a.Assemble([]models.RetrievedChunk{
		retrieved("aaaa", "d1", "a.pdf", 0.9),
		retrieved(strings.Repeat("x", 50), "d2", "b.pdf", 0.8),
		retrieved("cccc", "d3", "c.pdf", 0.7),
	})
	if len(bundle.Fragments) != 2 {
		t.Fatalf("want 2 fragments, got %d", len(bundle.Fragments))
	}
	if bundle.Fragments[1].Text != "cccc" {
		t.Errorf("later chunk was not considered after an oversized one")
	}
}

func TestAssembleEmptyInput(t *testing.T) {
	a := NewContextAssembler(100)
	bundle := a.Assemble(nil)
	if !bundle.Empty() {
		t.Error("want empty bundle")
	}
	if Render(bundle) != "" {
		t.Error("empty bundle should render to an empty string")
	}
}

func TestBundleSourcesAreDistinct(t *testing.T) {
	a := NewContextAssembler(1000)
	bundle := a.Assemble([]models.RetrievedChunk{
		retrieved("one", "d1", "a.pdf", 0.9),
		retrieved("two", "d1", "a.pdf", 0.8),
		retrieved("three", "d2", "b.pdf", 0.7),
	})
	sources := bundle.Sources()
	if len(sources) != 2 {
		t.Fatalf("want 2 distinct sources, got %d", len(sources))
	}
	if sources[0].Filename != "a.pdf" || sources[1].Filename != "b.pdf" {
		t.Errorf("unexpected sources: %+v", sources)
	}
}

func TestRenderFormat(t *testing.T) {
	a := NewContextAssembler(1000)
	bundle := a.Assemble([]models.RetrievedChunk{
		retrieved("first passage", "d1", "a.pdf", 0.9),
		retrieved("second passage", "d2", "b.pdf", 0.8),
	})
	rendered := Render(bundle)
	if !strings.Contains(rendered, "Document 1 (from a.pdf):\nfirst passage") {
		t.Errorf("missing first fragment header:\n%s", rendered)
	}
	if !strings.Contains(rendered, "Document 2 (from b.pdf):\nsecond passage") {
		t.Errorf("missing second fragment header:\n%s", rendered)
	}
	if !strings.Contains(rendered, "\n---\n") {
		t.Errorf("missing separator:\n%s", rendered)
	}
}
