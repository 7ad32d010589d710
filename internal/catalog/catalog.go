package catalog

import (
	"context"
	"sort"
	"sync"
	"time"

	"docqa-backend/models"
)

// Catalog tracks the ingestion state of every known document.
type Catalog interface {
	Upsert(ctx context.Context, record *models.DocumentRecord) error
	SetStatus(ctx context.Context, documentID, status string, indexErr error) error
	Get(ctx context.Context, documentID string) (*models.DocumentRecord, error)
	List(ctx context.Context) ([]models.DocumentRecord, error)
	Delete(ctx context.Context, documentID string) error
}

// MemoryCatalog is the process-local Catalog used by tests and by the
// standalone ingest command when no Mongo URI is configured.
type MemoryCatalog struct {
	mu      sync.RWMutex
	records map[string]models.DocumentRecord
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{records: make(map[string]models.DocumentRecord)}
}

func (c *MemoryCatalog) Upsert(ctx context.Context, record *models.DocumentRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec := *record
	rec.UpdatedAt = time.Now().UTC()
	c.records[rec.DocumentID] = rec
	return nil
}

func (c *MemoryCatalog) SetStatus(ctx context.Context, documentID, status string, indexErr error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[documentID]
	if !ok {
		rec = models.DocumentRecord{DocumentID: documentID}
	}
	rec.Status = status
	rec.UpdatedAt = time.Now().UTC()
	if indexErr != nil {
		rec.ErrorMessage = indexErr.Error()
	} else {
		rec.ErrorMessage = ""
	}
	c.records[documentID] = rec
	return nil
}

func (c *MemoryCatalog) Get(ctx context.Context, documentID string) (*models.DocumentRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[documentID]
	if !ok {
		return nil, nil
	}
	out := rec
	return &out, nil
}

func (c *MemoryCatalog) List(ctx context.Context) ([]models.DocumentRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.DocumentRecord, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (c *MemoryCatalog) Delete(ctx context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, documentID)
	return nil
}
