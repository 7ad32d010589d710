package services

import (
	"context"
	"strings"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/logger"
)

const reformulationSystem = `You rewrite user questions into standalone search queries for a document retrieval system.
Expand abbreviations, resolve vague references, and keep every constraint from the original question.
Return only the rewritten query, with no preamble and no quotes.`

// Reformulator rewrites a raw user question into a retrieval-friendly
// query. Reformulation is best effort: any failure, timeout, or empty
// response falls back to the original question unchanged.
type Reformulator struct {
	model   ai.CompletionModel
	timeout time.Duration
}

func NewReformulator(model ai.CompletionModel, timeout time.Duration) *Reformulator {
	return &Reformulator{model: model, timeout: timeout}
}

func (r *Reformulator) Reformulate(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" || r.model == nil {
		return query
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rewritten, err := r.model.Complete(ctx, ai.CompletionRequest{
		System:      reformulationSystem,
		Prompt:      query,
		Temperature: 0.1,
		MaxTokens:   128,
	})
	if err != nil {
		logger.Warn("query reformulation failed, using original query", "error", err)
		return query
	}

	rewritten = strings.TrimSpace(strings.Trim(strings.TrimSpace(rewritten), `"`))
	if rewritten == "" {
		return query
	}
	return rewritten
}
