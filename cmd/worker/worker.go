package main

import (
	"context"
	"log"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/catalog"
	"docqa-backend/internal/config"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/objectstore"
	"docqa-backend/internal/queue"
	"docqa-backend/internal/telemetry"
	"docqa-backend/internal/vectorstore/qdrant"
	"docqa-backend/services"

	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	geminiClient, err := ai.NewClient(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

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

	if err := vectors.EnsureCollection(context.Background(), cfg.VectorDimensions); err != nil {
		log.Fatal("Failed to prepare vector collection:", err)
	}

	ingestion := services.NewIngestionService(
		objectstore.NewFSStore(cfg.DocumentDir),
		services.NewPDFExtractor(),
		chunker,
		ai.NewGeminiEmbedder(geminiClient, cfg, rdb, metrics),
		vectors,
		catalog.NewMongoCatalog(mongoClient.Database(cfg.DBName)),
		cfg,
		metrics,
	)

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"ingest":  6,
				"default": 4,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	queue.NewTaskProcessor(ingestion).Register(mux)

	logger.Info("worker starting", "redis", redisOpt.Addr)
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
