package memory

import (
	"context"
	"testing"

	"docqa-backend/internal/vectorstore"
)

func mustUpsert(t *testing.T, s *Store, records ...vectorstore.Record) {
	t.Helper()
	if err := s.Upsert(context.Background(), records); err != nil {
		t.Fatalf("upsert error: %v", err)
	}
}

func TestQueryOrdersByScoreThenInsertion(t *testing.T) {
	s := NewStore()
	if err := s.EnsureCollection(context.Background(), 2); err != nil {
		t.Fatalf("ensure error: %v", err)
	}
	mustUpsert(t, s,
		vectorstore.Record{ID: "a", Vector: []float32{1, 0}, DocumentID: "d1"},
		vectorstore.Record{ID: "b", Vector: []float32{0, 1}, DocumentID: "d1"},
		vectorstore.Record{ID: "c", Vector: []float32{1, 0}, DocumentID: "d2"},
	)

	matches, err := s.Query(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("want 3 matches, got %d", len(matches))
	}
	// a and c tie at score 1; a was inserted first.
	if matches[0].Record.ID != "a" || matches[1].Record.ID != "c" || matches[2].Record.ID != "b" {
		t.Errorf("unexpected order: %s %s %s", matches[0].Record.ID, matches[1].Record.ID, matches[2].Record.ID)
	}
}

func TestQueryTopK(t *testing.T) {
	s := NewStore()
	mustUpsert(t, s,
		vectorstore.Record{ID: "a", Vector: []float32{1, 0}},
		vectorstore.Record{ID: "b", Vector: []float32{0.9, 0.1}},
		vectorstore.Record{ID: "c", Vector: []float32{0, 1}},
	)
	matches, err := s.Query(context.Background(), []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("query error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("want 2 matches, got %d", len(matches))
	}
}

func TestUpsertKeepsInsertionPosition(t *testing.T) {
	s := NewStore()
	mustUpsert(t, s,
		vectorstore.Record{ID: "a", Vector: []float32{1, 0}},
		vectorstore.Record{ID: "b", Vector: []float32{1, 0}},
	)
	// Overwrite a; it must still win the tie against b.
	mustUpsert(t, s, vectorstore.Record{ID: "a", Vector: []float32{1, 0}, Text: "updated"})

	matches, _ := s.Query(context.Background(), []float32{1, 0}, 2)
	if matches[0].Record.ID != "a" {
		t.Errorf("a lost its insertion position after upsert")
	}
	if matches[0].Record.Text != "updated" {
		t.Errorf("upsert did not overwrite the record")
	}
	if s.Len() != 2 {
		t.Errorf("upsert duplicated a record, len=%d", s.Len())
	}
}

func TestDeleteBySource(t *testing.T) {
	s := NewStore()
	mustUpsert(t, s,
		vectorstore.Record{ID: "a", Vector: []float32{1, 0}, DocumentID: "d1"},
		vectorstore.Record{ID: "b", Vector: []float32{0, 1}, DocumentID: "d2"},
		vectorstore.Record{ID: "c", Vector: []float32{1, 1}, DocumentID: "d1"},
	)
	if err := s.DeleteBySource(context.Background(), "d1"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("want 1 record after delete, got %d", s.Len())
	}
	if s.Records()[0].ID != "b" {
		t.Errorf("wrong record survived: %s", s.Records()[0].ID)
	}
}

func TestEnsureCollectionDimensionMismatch(t *testing.T) {
	s := NewStore()
	if err := s.EnsureCollection(context.Background(), 4); err != nil {
		t.Fatalf("ensure error: %v", err)
	}
	if err := s.EnsureCollection(context.Background(), 8); err == nil {
		t.Error("want dimension mismatch error")
	}
	if err := s.Upsert(context.Background(), []vectorstore.Record{{ID: "a", Vector: []float32{1, 2}}}); err == nil {
		t.Error("want dimension error on upsert")
	}
}
