package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"docqa-backend/internal/vectorstore"
)

// Store is an in-process vector store with deterministic ordering:
// descending cosine similarity, ties broken by insertion order. Used
// in tests and for local runs without a Qdrant instance.
type Store struct {
	mu        sync.RWMutex
	dimension int
	order     []string // insertion order of IDs
	records   map[string]vectorstore.Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]vectorstore.Record)}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return fmt.Errorf("dimension mismatch: collection has %d, requested %d", s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if s.dimension != 0 && len(r.Vector) != s.dimension {
			return fmt.Errorf("record %s has dimension %d, collection expects %d", r.ID, len(r.Vector), s.dimension)
		}
		// Overwriting keeps the original insertion position so
		// tie-breaking stays stable across re-ingestions.
		if _, exists := s.records[r.ID]; !exists {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		match vectorstore.Match
		pos   int
	}
	all := make([]scored, 0, len(s.order))
	for pos, id := range s.order {
		r, ok := s.records[id]
		if !ok {
			continue
		}
		all = append(all, scored{
			match: vectorstore.Match{Record: r, Score: cosine(vector, r.Vector)},
			pos:   pos,
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		if all[i].match.Score != all[j].match.Score {
			return all[i].match.Score > all[j].match.Score
		}
		return all[i].pos < all[j].pos
	})

	if len(all) > topK {
		all = all[:topK]
	}
	matches := make([]vectorstore.Match, len(all))
	for i, sc := range all {
		matches[i] = sc.match
	}
	return matches, nil
}

func (s *Store) DeleteBySource(ctx context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	for _, id := range s.order {
		if r, ok := s.records[id]; ok && r.DocumentID == documentID {
			delete(s.records, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return nil
}

// Len reports the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Records returns a snapshot of all records in insertion order.
func (s *Store) Records() []vectorstore.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]vectorstore.Record, 0, len(s.order))
	for _, id := range s.order {
		if r, ok := s.records[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
