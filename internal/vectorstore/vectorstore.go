package vectorstore

import "context"

// Record is the unit persisted in the vector store: a chunk's text,
// its embedding, and enough source metadata to cite it later. IDs are
// stable across re-ingestions so upserts overwrite, never duplicate.
type Record struct {
	ID         string
	Vector     []float32
	Text       string
	DocumentID string
	Filename   string
	ChunkIndex int
	Start      int
	End        int
}

// Match is one similarity-search hit, highest score first.
type Match struct {
	Record Record
	Score  float64
}

// Store abstracts the external similarity-search index. Cosine is the
// only supported metric; the schema dimension is fixed at startup.
type Store interface {
	// EnsureCollection creates the collection when missing and verifies
	// the vector dimensionality.
	EnsureCollection(ctx context.Context, dimension int) error
	// Upsert writes records keyed by ID. Individual upserts are atomic.
	Upsert(ctx context.Context, records []Record) error
	// Query returns at most topK matches by descending cosine similarity.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)
	// DeleteBySource removes every record belonging to one document.
	DeleteBySource(ctx context.Context, documentID string) error
}
