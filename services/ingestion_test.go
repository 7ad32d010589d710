package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docqa-backend/internal/catalog"
	"docqa-backend/internal/config"
	"docqa-backend/internal/objectstore"
	"docqa-backend/internal/vectorstore/memory"
	"docqa-backend/models"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestIngestion(t *testing.T, dir string, store *memory.Store, cat catalog.Catalog) *IngestionService {
	t.Helper()
	chunker, err := NewChunker(80, 10)
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{DocumentPrefix: "", MinChunkSize: 0}
	embedder := &fakeEmbedder{dim: 2}
	return NewIngestionService(
		objectstore.NewFSStore(dir),
		&textExtractor{failOn: "CORRUPT"},
		chunker,
		embedder,
		store,
		cat,
		cfg,
		nil,
	)
}

func TestIngestAllIndexesEveryPDF(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.pdf", strings.Repeat("Alpha text about storage engines. ", 10))
	writeDoc(t, dir, "b.pdf", "Beta text about indexes.")
	writeDoc(t, dir, "notes.txt", "not a pdf, must be skipped")

	store := memory.NewStore()
	cat := catalog.NewMemoryCatalog()
	svc := newTestIngestion(t, dir, store, cat)

	report, err := svc.IngestAll(context.Background())
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if store.Len() == 0 {
		t.Fatal("no chunks indexed")
	}

	records, err := cat.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 catalog records, got %d", len(records))
	}
	for _, rec := range records {
		if rec.Status != models.StatusCompleted {
			t.Errorf("document %s has status %s", rec.Key, rec.Status)
		}
		if rec.ChunkCount == 0 {
			t.Errorf("document %s has zero chunks", rec.Key)
		}
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.pdf", strings.Repeat("Stable content never changes. ", 12))

	store := memory.NewStore()
	svc := newTestIngestion(t, dir, store, catalog.NewMemoryCatalog())

	if _, err := svc.IngestAll(context.Background()); err != nil {
		t.Fatalf("first ingest error: %v", err)
	}
	firstIDs := make([]string, 0, store.Len())
	for _, r := range store.Records() {
		firstIDs = append(firstIDs, r.ID)
	}

	if _, err := svc.IngestAll(context.Background()); err != nil {
		t.Fatalf("second ingest error: %v", err)
	}
	if store.Len() != len(firstIDs) {
		t.Fatalf("re-ingest changed chunk count: %d vs %d", store.Len(), len(firstIDs))
	}
	for i, r := range store.Records() {
		if r.ID != firstIDs[i] {
			t.Errorf("chunk %d got a different ID on re-ingest", i)
		}
	}
}

func TestIngestShrunkDocumentRemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.pdf", strings.Repeat("A long document with many chunks. ", 20))

	store := memory.NewStore()
	svc := newTestIngestion(t, dir, store, catalog.NewMemoryCatalog())

	if _, err := svc.IngestAll(context.Background()); err != nil {
		t.Fatalf("first ingest error: %v", err)
	}
	before := store.Len()
	if before < 2 {
		t.Fatalf("test needs multiple chunks, got %d", before)
	}

	writeDoc(t, dir, "a.pdf", "Now tiny.")
	if _, err := svc.IngestAll(context.Background()); err != nil {
		t.Fatalf("second ingest error: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("orphaned chunks left behind: %d records", store.Len())
	}
}

func TestIngestPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.pdf", "Perfectly fine document text.")
	writeDoc(t, dir, "bad.pdf", "CORRUPT garbage")

	store := memory.NewStore()
	cat := catalog.NewMemoryCatalog()
	svc := newTestIngestion(t, dir, store, cat)

	report, err := svc.IngestAll(context.Background())
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var badResult *models.IngestFileResult
	for i := range report.Documents {
		if report.Documents[i].Key == "bad.pdf" {
			badResult = &report.Documents[i]
		}
	}
	if badResult == nil || badResult.Status != models.StatusFailed || badResult.Error == "" {
		t.Errorf("bad document not reported as failed: %+v", badResult)
	}

	badID := models.DocumentID("bad.pdf", "")
	rec, err := cat.Get(context.Background(), badID)
	if err != nil || rec == nil {
		t.Fatalf("missing catalog record for failed document: %v", err)
	}
	if rec.Status != models.StatusFailed || rec.ErrorMessage == "" {
		t.Errorf("catalog record not marked failed: %+v", rec)
	}

	// The good document is fully indexed despite the failure.
	if store.Len() == 0 {
		t.Error("good document was not indexed")
	}
}

func TestDropTinyKeepsInteriorChunks(t *testing.T) {
	svc := &IngestionService{minChunk: 10}
	chunks := []models.Chunk{
		{Index: 0, Text: "a full sized chunk of text", Start: 0, End: 26},
		{Index: 1, Text: "   \n  ", Start: 20, End: 26},
		{Index: 2, Text: "another full sized chunk", Start: 22, End: 46},
		{Index: 3, Text: "tail", Start: 40, End: 44},
	}

	kept := svc.dropTiny(chunks)
	if len(kept) != 3 {
		t.Fatalf("want 3 chunks, got %d", len(kept))
	}
	// The whitespace-heavy interior chunk stays so coverage has no gap.
	for i, want := range []int{0, 1, 2} {
		if kept[i].Index != want {
			t.Errorf("position %d holds chunk %d, want %d", i, kept[i].Index, want)
		}
	}

	allTiny := []models.Chunk{{Index: 0, Text: "x"}, {Index: 1, Text: "y"}}
	if kept := svc.dropTiny(allTiny); len(kept) != 1 {
		t.Errorf("want the first chunk kept when all are tiny, got %d", len(kept))
	}
}

func TestIngestEmptyDocumentYieldsNoChunks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "empty.pdf", "   \n ")

	store := memory.NewStore()
	svc := newTestIngestion(t, dir, store, catalog.NewMemoryCatalog())

	report, err := svc.IngestAll(context.Background())
	if err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if report.Failed != 0 {
		t.Errorf("empty document must not count as a failure: %+v", report)
	}
	if store.Len() != 0 {
		t.Errorf("empty document produced %d chunks", store.Len())
	}
}
