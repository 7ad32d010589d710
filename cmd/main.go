package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/catalog"
	"docqa-backend/internal/config"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/objectstore"
	"docqa-backend/internal/telemetry"
	"docqa-backend/internal/vectorstore/qdrant"
	"docqa-backend/middleware"
	"docqa-backend/routes"
	"docqa-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	shutdownTracer, err := telemetry.InitTracer("docqa-backend")
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer shutdownTracer()
	}
	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

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

	vectors := qdrant.NewStore(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
		Timeout:    15 * time.Second,
	})

	// A dimension mismatch between the embedding model and the
	// collection schema has to fail at boot, not on the first query.
	if err := vectors.EnsureCollection(context.Background(), cfg.VectorDimensions); err != nil {
		log.Fatal("Failed to prepare vector collection:", err)
	}

	cat := catalog.NewMongoCatalog(mongoClient.Database(cfg.DBName))

	embedder := ai.NewGeminiEmbedder(geminiClient, cfg, rdb, metrics)
	generator := ai.NewGenerator(geminiClient, cfg, metrics)

	rag := services.NewRAGService(
		services.NewReformulator(generator, cfg.ReformulationTimeout),
		services.NewRetriever(embedder, vectors, cfg.RetrievalTopK, cfg.SimilarityThreshold, metrics),
		services.NewContextAssembler(cfg.ContextBudget),
		services.NewGenerationService(generator, cfg.GenerationMaxRetries, cfg.GenerationTimeout, metrics, cfg.GenerationModel),
	)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer asynqClient.Close()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	routes.SetupHealthRoutes(router, mongoClient, rdb, vectors)
	routes.SetupChatRoutes(router, rag, cfg.GenerationStreaming)
	routes.SetupIngestRoutes(router, asynqClient, objectstore.NewFSStore(cfg.DocumentDir), cfg.DocumentPrefix, cat)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
