package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	ChunksIndexed      metric.Int64Counter
	IngestionDuration  metric.Float64Histogram
	RetrievalDuration  metric.Float64Histogram
	GenerationTokens   metric.Int64Counter
	GenerationRetries  metric.Int64Counter
	EmbeddingCacheHits metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docqa-backend")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingestion.chunks.indexed",
		metric.WithDescription("Total chunks upserted into the vector store"),
	)
	if err != nil {
		return nil, err
	}

	ingestionDuration, err := meter.Float64Histogram(
		"ingestion.document.duration",
		metric.WithDescription("Per-document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	retrievalDuration, err := meter.Float64Histogram(
		"retrieval.duration",
		metric.WithDescription("Similarity search duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	generationTokens, err := meter.Int64Counter(
		"generation.tokens.used",
		metric.WithDescription("Total generation tokens used"),
	)
	if err != nil {
		return nil, err
	}

	generationRetries, err := meter.Int64Counter(
		"generation.retries.total",
		metric.WithDescription("Generation attempts beyond the first"),
	)
	if err != nil {
		return nil, err
	}

	embeddingCacheHits, err := meter.Int64Counter(
		"embedding.cache.hits",
		metric.WithDescription("Embedding cache hits"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		ChunksIndexed:      chunksIndexed,
		IngestionDuration:  ingestionDuration,
		RetrievalDuration:  retrievalDuration,
		GenerationTokens:   generationTokens,
		GenerationRetries:  generationRetries,
		EmbeddingCacheHits: embeddingCacheHits,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngestion records per-document ingestion metrics
func (m *Metrics) RecordIngestion(duration float64, chunks int, status string) {
	attrs := []attribute.KeyValue{
		attribute.String("ingestion.status", status),
	}

	m.IngestionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	if chunks > 0 {
		m.ChunksIndexed.Add(context.Background(), int64(chunks), metric.WithAttributes(attrs...))
	}
}

// RecordRetrieval records a similarity search
func (m *Metrics) RecordRetrieval(duration float64, matches int) {
	attrs := []attribute.KeyValue{
		attribute.Int("retrieval.matches", matches),
	}

	m.RetrievalDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordGeneration records token usage and retry count for one answer
func (m *Metrics) RecordGeneration(tokens int64, retries int, model string) {
	attrs := []attribute.KeyValue{
		attribute.String("generation.model", model),
	}

	m.GenerationTokens.Add(context.Background(), tokens, metric.WithAttributes(attrs...))
	if retries > 0 {
		m.GenerationRetries.Add(context.Background(), int64(retries), metric.WithAttributes(attrs...))
	}
}

// RecordEmbeddingCacheHit counts a read-through cache hit
func (m *Metrics) RecordEmbeddingCacheHit(model string) {
	attrs := []attribute.KeyValue{
		attribute.String("embedding.model", model),
	}

	m.EmbeddingCacheHits.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
