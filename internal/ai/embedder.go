package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"docqa-backend/internal/config"
	"docqa-backend/internal/telemetry"
	"docqa-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// GeminiEmbedder computes embeddings via the Gemini embeddings API,
// splitting input into batches and running them with bounded
// concurrency. A Redis read-through cache exploits the determinism of
// embeddings: same model and text always produce the same vector.
type GeminiEmbedder struct {
	client      *genai.Client
	model       string
	dimension   int
	batchSize   int
	concurrency int
	cache       *redis.Client
	cacheTTL    time.Duration
	metrics     *telemetry.Metrics
}

// NewGeminiEmbedder builds the embedder. cache and metrics may be nil.
func NewGeminiEmbedder(client *genai.Client, cfg *config.Config, cache *redis.Client, metrics *telemetry.Metrics) *GeminiEmbedder {
	return &GeminiEmbedder{
		client:      client,
		model:       cfg.EmbeddingsModel,
		dimension:   cfg.VectorDimensions,
		batchSize:   cfg.EmbedBatchSize,
		concurrency: cfg.EmbedConcurrency,
		cache:       cache,
		cacheTTL:    cfg.EmbedCacheTTL,
		metrics:     metrics,
	}
}

func (e *GeminiEmbedder) Dimension() int {
	return e.dimension
}

// EmbedTexts returns one vector per input text, order-preserving.
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	tracer := otel.Tracer("gemini-embedder")
	ctx, span := tracer.Start(ctx, "gemini.embed_texts")
	defer span.End()
	span.SetAttributes(
		attribute.Int("embedding.texts", len(texts)),
		attribute.String("embedding.model", e.model),
	)

	vectors := make([][]float32, len(texts))

	// Cache pass first; only misses hit the API
	pending := e.fromCache(ctx, texts, vectors)
	if len(pending) == 0 {
		return vectors, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for batchStart := 0; batchStart < len(pending); batchStart += e.batchSize {
		batch := pending[batchStart:min(batchStart+e.batchSize, len(pending))]
		g.Go(func() error {
			return e.embedBatch(gctx, texts, batch, vectors)
		})
	}

	if err := g.Wait(); err != nil {
		span.SetAttributes(attribute.Bool("embedding.error", true))
		return nil, err
	}

	e.toCache(ctx, texts, pending, vectors)
	return vectors, nil
}

// embedBatch embeds the texts at the given indexes with one API call.
func (e *GeminiEmbedder) embedBatch(ctx context.Context, texts []string, indexes []int, vectors [][]float32) error {
	em := e.client.EmbeddingModel(e.model)
	b := em.NewBatch()
	for _, i := range indexes {
		b.AddContent(genai.Text(texts[i]))
	}

	resp, err := em.BatchEmbedContents(ctx, b)
	if err != nil {
		return models.WrapKind(models.ErrEmbeddingUnavailable, err)
	}
	if len(resp.Embeddings) != len(indexes) {
		return models.Kindf(models.ErrEmbeddingUnavailable, "expected %d embeddings, got %d", len(indexes), len(resp.Embeddings))
	}

	for pos, i := range indexes {
		emb := resp.Embeddings[pos]
		if emb == nil || len(emb.Values) == 0 {
			return models.Kindf(models.ErrEmbeddingUnavailable, "no embedding returned for text %d", i)
		}
		if len(emb.Values) != e.dimension {
			return models.Kindf(models.ErrEmbeddingUnavailable,
				"model %s returned dimension %d, store schema expects %d", e.model, len(emb.Values), e.dimension)
		}
		vectors[i] = emb.Values
	}
	return nil
}

// fromCache fills vectors for cached texts, returning indexes of misses.
func (e *GeminiEmbedder) fromCache(ctx context.Context, texts []string, vectors [][]float32) []int {
	if e.cache == nil {
		all := make([]int, len(texts))
		for i := range texts {
			all[i] = i
		}
		return all
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = e.cacheKey(t)
	}

	var pending []int
	vals, err := e.cache.MGet(ctx, keys...).Result()
	if err != nil {
		// Cache failure degrades to embedding everything
		for i := range texts {
			pending = append(pending, i)
		}
		return pending
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			pending = append(pending, i)
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(s), &vec); err != nil || len(vec) != e.dimension {
			pending = append(pending, i)
			continue
		}
		vectors[i] = vec
		if e.metrics != nil {
			e.metrics.RecordEmbeddingCacheHit(e.model)
		}
	}
	return pending
}

// toCache writes freshly computed vectors back, best-effort.
func (e *GeminiEmbedder) toCache(ctx context.Context, texts []string, indexes []int, vectors [][]float32) {
	if e.cache == nil {
		return
	}
	pipe := e.cache.Pipeline()
	for _, i := range indexes {
		if vectors[i] == nil {
			continue
		}
		data, err := json.Marshal(vectors[i])
		if err != nil {
			continue
		}
		pipe.Set(ctx, e.cacheKey(texts[i]), data, e.cacheTTL)
	}
	_, _ = pipe.Exec(ctx)
}

func (e *GeminiEmbedder) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("emb:%s:%s", e.model, hex.EncodeToString(sum[:]))
}
