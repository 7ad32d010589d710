package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is one source file pulled from the object store, alive only
// for the duration of a single ingestion run.
type Document struct {
	ID         string    `json:"id"`
	Key        string    `json:"key"`
	Filename   string    `json:"filename"`
	Text       string    `json:"-"`
	Size       int64     `json:"size"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a bounded, overlapping span of a document's extracted text.
// Start and End are byte offsets into the parent text; consecutive
// chunks of one document overlap by at least the configured amount.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"`
	Text       string `json:"text"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
}

// PointID returns the stable vector-store identifier for this chunk.
// Re-ingesting the same document yields the same IDs, making upserts
// overwrite rather than duplicate.
func (c Chunk) PointID() string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fmt.Sprintf("%s_chunk_%d", c.DocumentID, c.Index))).String()
}

// DocumentID derives a stable identifier from a storage key. The
// configured prefix is stripped first so moving the corpus between
// prefixes does not re-key every document.
func DocumentID(key, prefix string) string {
	cleaned := strings.TrimPrefix(key, prefix)
	sum := sha256.Sum256([]byte(cleaned))
	return hex.EncodeToString(sum[:])[:16]
}

// FilenameFromKey extracts the bare filename from an object-store key.
func FilenameFromKey(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// Ingestion run statuses tracked in the document catalog.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// DocumentRecord is the catalog's view of a document: ingestion state,
// not content. Content lives in the vector store.
type DocumentRecord struct {
	DocumentID   string    `bson:"_id" json:"document_id"`
	Key          string    `bson:"key" json:"key"`
	Filename     string    `bson:"filename" json:"filename"`
	Status       string    `bson:"status" json:"status"`
	ChunkCount   int       `bson:"chunk_count" json:"chunk_count"`
	ContentHash  string    `bson:"content_hash,omitempty" json:"content_hash,omitempty"`
	ErrorMessage string    `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// IngestReport summarizes one ingestion run. A failed document never
// aborts the run; it lands here with its cause.
type IngestReport struct {
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Documents []IngestFileResult `json:"documents"`
}

// IngestFileResult is the per-document outcome within a run.
type IngestFileResult struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Chunks int    `json:"chunks,omitempty"`
	Error  string `json:"error,omitempty"`
}
