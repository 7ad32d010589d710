package services

import (
	"context"
	"sort"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/telemetry"
	"docqa-backend/internal/vectorstore"
	"docqa-backend/models"
)

// Retriever turns a query into the most relevant indexed chunks. Hits
// below the similarity threshold are dropped, and pairs of hits whose
// byte ranges overlap within the same document are collapsed to the
// higher-scoring one, so chunk overlap never surfaces the same passage
// twice. An empty result is a valid outcome, not an error.
type Retriever struct {
	embedder    ai.Embedder
	vectors     vectorstore.Store
	topK        int
	threshold   float64
	maxRetries  int
	backoffBase time.Duration
	metrics     *telemetry.Metrics
}

func NewRetriever(embedder ai.Embedder, vectors vectorstore.Store, topK int, threshold float64, metrics *telemetry.Metrics) *Retriever {
	return &Retriever{
		embedder:    embedder,
		vectors:     vectors,
		topK:        topK,
		threshold:   threshold,
		maxRetries:  2,
		backoffBase: 250 * time.Millisecond,
		metrics:     metrics,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, query string) ([]models.RetrievedChunk, error) {
	started := time.Now()

	var embeddings [][]float32
	err := r.withRetry(ctx, "embed query", func() error {
		var err error
		embeddings, err = r.embedder.EmbedTexts(ctx, []string{query})
		return err
	})
	if err != nil {
		return nil, err
	}

	// Over-fetch so that dedup does not shrink the result below topK
	// when near-duplicate neighbors dominate the raw hits.
	var matches []vectorstore.Match
	err = r.withRetry(ctx, "vector search", func() error {
		var err error
		matches, err = r.vectors.Query(ctx, embeddings[0], r.topK*2)
		return err
	})
	if err != nil {
		return nil, err
	}

	chunks := make([]models.RetrievedChunk, 0, len(matches))
	for _, match := range matches {
		if match.Score < r.threshold {
			continue
		}
		chunks = append(chunks, models.RetrievedChunk{
			Text:       match.Record.Text,
			Score:      match.Score,
			DocumentID: match.Record.DocumentID,
			Filename:   match.Record.Filename,
			ChunkIndex: match.Record.ChunkIndex,
			Start:      match.Record.Start,
			End:        match.Record.End,
		})
	}

	chunks = dedupeOverlapping(chunks)
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].Score > chunks[j].Score })
	if len(chunks) > r.topK {
		chunks = chunks[:r.topK]
	}

	if r.metrics != nil {
		r.metrics.RecordRetrieval(time.Since(started).Seconds(), len(chunks))
	}
	logger.Debug("retrieval finished", "matches", len(chunks), "duration_ms", time.Since(started).Milliseconds())
	return chunks, nil
}

// withRetry runs fn with capped exponential backoff. Context
// cancellation stops the loop immediately; the last error is returned
// with its kind intact.
func (r *Retriever) withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || ctx.Err() != nil || attempt >= r.maxRetries {
			return err
		}
		delay := r.backoffBase << attempt
		if delay > 4*time.Second {
			delay = 4 * time.Second
		}
		logger.Warn("retrieval step failed, retrying", "op", op, "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return err
		case <-time.After(delay):
		}
	}
}

// dedupeOverlapping collapses same-document hits whose byte ranges
// overlap, keeping the higher-scoring one. Input order is assumed to
// be descending by score, so earlier hits win ties.
func dedupeOverlapping(chunks []models.RetrievedChunk) []models.RetrievedChunk {
	kept := chunks[:0]
	for _, candidate := range chunks {
		overlaps := false
		for _, existing := range kept {
			if existing.DocumentID == candidate.DocumentID &&
				candidate.Start < existing.End && existing.Start < candidate.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, candidate)
		}
	}
	return kept
}
