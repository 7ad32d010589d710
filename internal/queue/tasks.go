package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"docqa-backend/internal/logger"
	"docqa-backend/services"
)

const TaskIngestDocument = "ingest:document"

type IngestDocumentPayload struct {
	Key string `json:"key"`
}

func NewIngestDocumentTask(key string) (*asynq.Task, error) {
	payload, err := json.Marshal(IngestDocumentPayload{Key: key})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskIngestDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("ingest"),
	), nil
}

// TaskProcessor handles ingestion tasks on the worker.
type TaskProcessor struct {
	ingestion *services.IngestionService
}

func NewTaskProcessor(ingestion *services.IngestionService) *TaskProcessor {
	return &TaskProcessor{ingestion: ingestion}
}

func (p *TaskProcessor) HandleIngestDocument(ctx context.Context, t *asynq.Task) error {
	var payload IngestDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	logger.Info("processing ingest task", "key", payload.Key)
	chunks, err := p.ingestion.IngestDocument(ctx, payload.Key)
	if err != nil {
		return err
	}
	logger.Info("ingest task finished", "key", payload.Key, "chunks", chunks)
	return nil
}

// Register wires the handlers onto an asynq mux.
func (p *TaskProcessor) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskIngestDocument, p.HandleIngestDocument)
}
