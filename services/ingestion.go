package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/catalog"
	"docqa-backend/internal/config"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/objectstore"
	"docqa-backend/internal/telemetry"
	"docqa-backend/internal/vectorstore"
	"docqa-backend/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// IngestionService walks the document store and turns every PDF into
// indexed, embedded chunks. One document failing never aborts a run;
// the failure is recorded in the catalog and the report.
type IngestionService struct {
	objects   objectstore.Store
	extractor Extractor
	chunker   *Chunker
	embedder  ai.Embedder
	vectors   vectorstore.Store
	catalog   catalog.Catalog
	prefix    string
	minChunk  int
	metrics   *telemetry.Metrics
}

func NewIngestionService(
	objects objectstore.Store,
	extractor Extractor,
	chunker *Chunker,
	embedder ai.Embedder,
	vectors vectorstore.Store,
	cat catalog.Catalog,
	cfg *config.Config,
	metrics *telemetry.Metrics,
) *IngestionService {
	return &IngestionService{
		objects:   objects,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectors:   vectors,
		catalog:   cat,
		prefix:    cfg.DocumentPrefix,
		minChunk:  cfg.MinChunkSize,
		metrics:   metrics,
	}
}

// IngestAll processes every PDF under the configured prefix and
// returns the per-document outcomes.
func (s *IngestionService) IngestAll(ctx context.Context) (*models.IngestReport, error) {
	tracer := otel.Tracer("ingestion-service")
	ctx, span := tracer.Start(ctx, "ingestion.run")
	defer span.End()

	if err := s.vectors.EnsureCollection(ctx, s.embedder.Dimension()); err != nil {
		return nil, err
	}

	keys, err := s.objects.List(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	report := &models.IngestReport{}
	for _, key := range keys {
		if !strings.HasSuffix(strings.ToLower(key), ".pdf") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		chunks, err := s.IngestDocument(ctx, key)
		result := models.IngestFileResult{Key: key, Chunks: chunks}
		if err != nil {
			result.Status = models.StatusFailed
			result.Error = err.Error()
			report.Failed++
			logger.Error("document ingestion failed", "key", key, "error", err)
		} else {
			result.Status = models.StatusCompleted
			report.Succeeded++
		}
		report.Documents = append(report.Documents, result)
	}

	span.SetAttributes(
		attribute.Int("ingestion.succeeded", report.Succeeded),
		attribute.Int("ingestion.failed", report.Failed),
	)
	logger.Info("ingestion run finished", "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// IngestDocument runs the full pipeline for one document and returns
// the number of chunks indexed. Stale chunks from earlier versions of
// the document are removed before the new ones are written.
func (s *IngestionService) IngestDocument(ctx context.Context, key string) (int, error) {
	started := time.Now()
	documentID := models.DocumentID(key, s.prefix)
	filename := models.FilenameFromKey(key)

	if err := s.catalog.SetStatus(ctx, documentID, models.StatusProcessing, nil); err != nil {
		logger.Warn("failed to mark document processing", "key", key, "error", err)
	}

	chunkCount, contentHash, err := s.index(ctx, key, documentID, filename)
	if err != nil {
		if catErr := s.catalog.SetStatus(ctx, documentID, models.StatusFailed, err); catErr != nil {
			logger.Warn("failed to mark document failed", "key", key, "error", catErr)
		}
		if s.metrics != nil {
			s.metrics.RecordIngestion(time.Since(started).Seconds(), 0, models.StatusFailed)
		}
		return 0, err
	}

	record := &models.DocumentRecord{
		DocumentID:  documentID,
		Key:         key,
		Filename:    filename,
		Status:      models.StatusCompleted,
		ChunkCount:  chunkCount,
		ContentHash: contentHash,
	}
	if err := s.catalog.Upsert(ctx, record); err != nil {
		logger.Warn("failed to record document completion", "key", key, "error", err)
	}
	if s.metrics != nil {
		s.metrics.RecordIngestion(time.Since(started).Seconds(), chunkCount, models.StatusCompleted)
	}
	logger.Info("document indexed", "key", key, "document_id", documentID, "chunks", chunkCount)
	return chunkCount, nil
}

func (s *IngestionService) index(ctx context.Context, key, documentID, filename string) (int, string, error) {
	reader, _, err := s.objects.Get(ctx, key)
	if err != nil {
		return 0, "", models.WrapKind(models.ErrExtractionFailed, err)
	}
	content, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return 0, "", models.WrapKind(models.ErrExtractionFailed, err)
	}
	sum := sha256.Sum256(content)
	contentHash := hex.EncodeToString(sum[:])

	blocks, err := s.extractor.Extract(ctx, content)
	if err != nil {
		return 0, "", err
	}

	chunks := s.chunker.Split(documentID, JoinBlocks(blocks))
	chunks = s.dropTiny(chunks)
	if len(chunks) == 0 {
		// Nothing indexable; still clear any stale chunks from a
		// previous, larger version of this document.
		if err := s.vectors.DeleteBySource(ctx, documentID); err != nil {
			return 0, "", err
		}
		return 0, contentHash, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	vectors, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, "", err
	}

	records := make([]vectorstore.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = vectorstore.Record{
			ID:         chunk.PointID(),
			Vector:     vectors[i],
			Text:       chunk.Text,
			DocumentID: documentID,
			Filename:   filename,
			ChunkIndex: chunk.Index,
			Start:      chunk.Start,
			End:        chunk.End,
		}
	}

	// Delete-then-upsert: a shrunk document must not leave orphaned
	// chunks from its previous version behind.
	if err := s.vectors.DeleteBySource(ctx, documentID); err != nil {
		return 0, "", err
	}
	if err := s.vectors.Upsert(ctx, records); err != nil {
		return 0, "", err
	}
	return len(records), contentHash, nil
}

// dropTiny removes trailing fragments shorter than the configured
// minimum, unless that would leave the document without any chunk.
// Interior chunks are never dropped, so the kept chunks still cover
// the document without gaps.
func (s *IngestionService) dropTiny(chunks []models.Chunk) []models.Chunk {
	if s.minChunk <= 0 {
		return chunks
	}
	for len(chunks) > 1 {
		last := chunks[len(chunks)-1]
		if len(strings.TrimSpace(last.Text)) >= s.minChunk {
			break
		}
		chunks = chunks[:len(chunks)-1]
	}
	return chunks
}
