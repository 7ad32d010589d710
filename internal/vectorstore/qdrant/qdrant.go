package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"docqa-backend/internal/vectorstore"
	"docqa-backend/models"
)

// Store is a minimal REST client to Qdrant. It assumes cosine distance
// and creates the collection if missing.
type Store struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStore(cfg Config) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Store{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (s *Store) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return models.Kindf(models.ErrInvalidConfiguration, "invalid vector dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 on an existing collection with the same schema
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil); err != nil {
		return models.WrapKind(models.ErrVectorStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, records []vectorstore.Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]map[string]any, len(records))
	for i, r := range records {
		points[i] = map[string]any{
			"id":     r.ID,
			"vector": r.Vector,
			"payload": map[string]any{
				"text":        r.Text,
				"document_id": r.DocumentID,
				"filename":    r.Filename,
				"chunk_index": r.ChunkIndex,
				"start":       r.Start,
				"end":         r.End,
			},
		}
	}
	body := map[string]any{"points": points}
	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
	if err := s.putJSON(ctx, url, body, nil); err != nil {
		return models.WrapKind(models.ErrVectorStoreUnavailable, err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			ID      string         `json:"id"`
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, models.WrapKind(models.ErrVectorStoreUnavailable, err)
	}
	matches := make([]vectorstore.Match, 0, len(resp.Result))
	for _, r := range resp.Result {
		rec := vectorstore.Record{ID: r.ID}
		if v, ok := r.Payload["text"].(string); ok {
			rec.Text = v
		}
		if v, ok := r.Payload["document_id"].(string); ok {
			rec.DocumentID = v
		}
		if v, ok := r.Payload["filename"].(string); ok {
			rec.Filename = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			rec.ChunkIndex = int(v)
		}
		if v, ok := r.Payload["start"].(float64); ok {
			rec.Start = int(v)
		}
		if v, ok := r.Payload["end"].(float64); ok {
			rec.End = int(v)
		}
		matches = append(matches, vectorstore.Match{Record: rec, Score: r.Score})
	}
	return matches, nil
}

func (s *Store) DeleteBySource(ctx context.Context, documentID string) error {
	req := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "document_id", "match": map[string]any{"value": documentID}},
			},
		},
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	if err := s.postJSON(ctx, url, req, nil); err != nil {
		return models.WrapKind(models.ErrVectorStoreUnavailable, err)
	}
	return nil
}

// Healthy reports whether the Qdrant instance is reachable.
func (s *Store) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"/collections", nil)
	if err != nil {
		return false
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300
}

func (s *Store) putJSON(ctx context.Context, url string, body any, out any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
