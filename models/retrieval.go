package models

// SourceRef identifies where a retrieved fragment came from, for
// citation in answers.
type SourceRef struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
}

// RetrievedChunk is one ranked similarity-search match. Vectors are
// never surfaced here; only the text and its score travel upward.
type RetrievedChunk struct {
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// ContextFragment is a retrieved chunk admitted into the prompt budget.
type ContextFragment struct {
	Text   string    `json:"text"`
	Score  float64   `json:"score"`
	Source SourceRef `json:"source"`
}

// ContextBundle is the ordered, budget-bounded context handed to prompt
// construction. Consumed once per request, then discarded.
type ContextBundle struct {
	Fragments []ContextFragment `json:"fragments"`
	Size      int               `json:"size"`
}

// Empty reports whether retrieval produced nothing usable. This is a
// valid state, not an error; generation must answer accordingly.
func (b ContextBundle) Empty() bool {
	return len(b.Fragments) == 0
}

// Sources returns the distinct sources in fragment order.
func (b ContextBundle) Sources() []SourceRef {
	seen := make(map[string]bool, len(b.Fragments))
	out := make([]SourceRef, 0, len(b.Fragments))
	for _, f := range b.Fragments {
		if seen[f.Source.DocumentID] {
			continue
		}
		seen[f.Source.DocumentID] = true
		out = append(out, f.Source)
	}
	return out
}
