package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/catalog"
	"docqa-backend/internal/config"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/objectstore"
	"docqa-backend/internal/vectorstore/qdrant"
	"docqa-backend/services"
)

// One-shot corpus ingestion, for operators and CI. Walks the document
// directory, indexes every PDF, prints the per-document report, and
// exits non-zero if any document failed.
func main() {
	dir := flag.String("dir", "", "document directory (overrides DOCUMENT_DIR)")
	key := flag.String("key", "", "ingest a single document by key instead of the whole corpus")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)
	if *dir != "" {
		cfg.DocumentDir = *dir
	}

	ctx := context.Background()

	geminiClient, err := ai.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	var cat catalog.Catalog = catalog.NewMemoryCatalog()
	if cfg.MongoURI != "" {
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer mongoClient.Disconnect(ctx)
		cat = catalog.NewMongoCatalog(mongoClient.Database(cfg.DBName))
	}

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		logger.Warn("redis unavailable, embedding cache disabled", "error", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	chunker, err := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatal("Invalid chunking config:", err)
	}

	vectors := qdrant.NewStore(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Timeout:    15 * time.Second,
	})

	ingestion := services.NewIngestionService(
		objectstore.NewFSStore(cfg.DocumentDir),
		services.NewPDFExtractor(),
		chunker,
		ai.NewGeminiEmbedder(geminiClient, cfg, rdb, nil),
		vectors,
		cat,
		cfg,
		nil,
	)

	if *key != "" {
		if err := vectors.EnsureCollection(ctx, cfg.VectorDimensions); err != nil {
			log.Fatal("Failed to prepare vector collection:", err)
		}
		chunks, err := ingestion.IngestDocument(ctx, *key)
		if err != nil {
			log.Fatalf("Ingestion of %s failed: %v", *key, err)
		}
		fmt.Printf("%s: %d chunks indexed\n", *key, chunks)
		return
	}

	report, err := ingestion.IngestAll(ctx)
	if err != nil {
		log.Fatal("Ingestion run failed:", err)
	}

	if *asJSON {
		out, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(out))
	} else {
		for _, doc := range report.Documents {
			if doc.Error != "" {
				fmt.Printf("%-50s %s (%s)\n", doc.Key, doc.Status, doc.Error)
			} else {
				fmt.Printf("%-50s %s (%d chunks)\n", doc.Key, doc.Status, doc.Chunks)
			}
		}
		fmt.Printf("\n%d succeeded, %d failed\n", report.Succeeded, report.Failed)
	}

	if report.Failed > 0 {
		os.Exit(1)
	}
}
