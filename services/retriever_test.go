package services

import (
	"context"
	"testing"
	"time"

	"docqa-backend/internal/vectorstore"
	"docqa-backend/internal/vectorstore/memory"
)

func seedStore(t *testing.T, records ...vectorstore.Record) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	if err := store.Upsert(context.Background(), records); err != nil {
		t.Fatalf("seed error: %v", err)
	}
	return store
}

func TestRetrieveOrdersAndLimits(t *testing.T) {
	store := seedStore(t,
		vectorstore.Record{ID: "1", Vector: []float32{1, 0}, Text: "exact", DocumentID: "d1", Start: 0, End: 5},
		vectorstore.Record{ID: "2", Vector: []float32{0.7, 0.7}, Text: "partial", DocumentID: "d2", Start: 0, End: 7},
		vectorstore.Record{ID: "3", Vector: []float32{0, 1}, Text: "orthogonal", DocumentID: "d3", Start: 0, End: 10},
	)
	embedder := &fakeEmbedder{dim: 2, vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(embedder, store, 2, 0, nil)

	chunks, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("retrieve error: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("want 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "exact" || chunks[1].Text != "partial" {
		t.Errorf("wrong order: %q, %q", chunks[0].Text, chunks[1].Text)
	}
	if chunks[0].Score < chunks[1].Score {
		t.Error("scores not descending")
	}
}

func TestRetrieveAppliesThreshold(t *testing.T) {
	store := seedStore(t,
		vectorstore.Record{ID: "1", Vector: []float32{1, 0}, Text: "good", DocumentID: "d1", End: 4},
		vectorstore.Record{ID: "2", Vector: []float32{0, 1}, Text: "bad", DocumentID: "d2", End: 3},
	)
	embedder := &fakeEmbedder{dim: 2, vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(embedder, store, 5, 0.5, nil)

	chunks, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("retrieve error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text != "good" {
		t.Errorf("threshold not applied: %+v", chunks)
	}
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	embedder := &fakeEmbedder{dim: 2, vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(embedder, memory.NewStore(), 5, 0, nil)

	chunks, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("retrieve error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("want no chunks, got %d", len(chunks))
	}
}

func TestRetrieveDedupesOverlappingChunks(t *testing.T) {
	// Chunks 10-110 and 90-190 of the same document overlap; the
	// higher-scoring one must win. The same ranges in a different
	// document are unaffected.
	store := seedStore(t,
		vectorstore.Record{ID: "1", Vector: []float32{1, 0}, Text: "a1", DocumentID: "d1", Start: 10, End: 110},
		vectorstore.Record{ID: "2", Vector: []float32{0.9, 0.1}, Text: "a2", DocumentID: "d1", Start: 90, End: 190},
		vectorstore.Record{ID: "3", Vector: []float32{0.8, 0.2}, Text: "b1", DocumentID: "d2", Start: 10, End: 110},
		vectorstore.Record{ID: "4", Vector: []float32{0.5, 0.5}, Text: "a3", DocumentID: "d1", Start: 200, End: 300},
	)
	embedder := &fakeEmbedder{dim: 2, vectors: map[string][]float32{"q": {1, 0}}}
	r := NewRetriever(embedder, store, 5, 0, nil)

	chunks, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("retrieve error: %v", err)
	}
	got := make([]string, len(chunks))
	for i, c := range chunks {
		got[i] = c.Text
	}
	want := []string{"a1", "b1", "a3"}
	if len(got) != len(want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: want %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRetrievePropagatesEmbedderError(t *testing.T) {
	embedder := &fakeEmbedder{dim: 2, err: context.DeadlineExceeded}
	r := NewRetriever(embedder, memory.NewStore(), 5, 0, nil)
	r.backoffBase = time.Millisecond

	if _, err := r.Retrieve(context.Background(), "q"); err == nil {
		t.Fatal("want error from embedder")
	}
	if embedder.calls != 3 {
		t.Errorf("want 3 attempts (1 + 2 retries), got %d", embedder.calls)
	}
}

func TestRetrieveRetriesTransientEmbedderFailure(t *testing.T) {
	store := seedStore(t,
		vectorstore.Record{ID: "1", Vector: []float32{1, 0}, Text: "hit", DocumentID: "d1", End: 3},
	)
	embedder := &fakeEmbedder{
		dim:      2,
		vectors:  map[string][]float32{"q": {1, 0}},
		err:      context.DeadlineExceeded,
		failures: 1,
	}
	r := NewRetriever(embedder, store, 5, 0, nil)
	r.backoffBase = time.Millisecond

	chunks, err := r.Retrieve(context.Background(), "q")
	if err != nil {
		t.Fatalf("retrieve error after transient failure: %v", err)
	}
	if embedder.calls != 2 {
		t.Errorf("want 2 embed attempts, got %d", embedder.calls)
	}
	if len(chunks) != 1 || chunks[0].Text != "hit" {
		t.Errorf("unexpected chunks: %+v", chunks)
	}
}

func TestRetrieveRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	embedder := &fakeEmbedder{dim: 2, err: context.DeadlineExceeded}
	r := NewRetriever(embedder, memory.NewStore(), 5, 0, nil)
	r.backoffBase = time.Second

	if _, err := r.Retrieve(ctx, "q"); err == nil {
		t.Fatal("want error")
	}
	if embedder.calls != 1 {
		t.Errorf("cancelled context must not retry, got %d attempts", embedder.calls)
	}
}
