package routes

import (
	"net/http"
	"strings"

	"docqa-backend/internal/catalog"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/objectstore"
	"docqa-backend/internal/queue"
	"docqa-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

// IngestRequest asks for one document by key, or the whole corpus
// when Key is empty.
type IngestRequest struct {
	Key string `json:"key"`
}

// SetupIngestRoutes exposes the operational endpoints. These sit
// under /internal and are expected to be firewalled off from public
// traffic.
func SetupIngestRoutes(router *gin.Engine, client *asynq.Client, objects objectstore.Store, prefix string, cat catalog.Catalog) {
	internal := router.Group("/internal")

	internal.POST("/ingest", func(c *gin.Context) {
		var req IngestRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		keys := []string{req.Key}
		if req.Key == "" {
			listed, err := objects.List(c.Request.Context(), prefix)
			if err != nil {
				logger.Error("failed to list documents", "error", err)
				utils.RespondWithInternalError(c, "failed to list documents", nil)
				return
			}
			keys = keys[:0]
			for _, key := range listed {
				if strings.HasSuffix(strings.ToLower(key), ".pdf") {
					keys = append(keys, key)
				}
			}
		}

		enqueued := make([]string, 0, len(keys))
		for _, key := range keys {
			task, err := queue.NewIngestDocumentTask(key)
			if err != nil {
				utils.RespondWithInternalError(c, "failed to build ingest task", nil)
				return
			}
			info, err := client.EnqueueContext(c.Request.Context(), task)
			if err != nil {
				logger.Error("failed to enqueue ingest task", "key", key, "error", err)
				utils.RespondWithUnavailable(c, "task queue is unavailable")
				return
			}
			enqueued = append(enqueued, info.ID)
		}

		c.JSON(http.StatusAccepted, gin.H{
			"documents": len(enqueued),
			"task_ids":  enqueued,
		})
	})

	internal.GET("/documents", func(c *gin.Context) {
		records, err := cat.List(c.Request.Context())
		if err != nil {
			logger.Error("failed to list documents", "error", err)
			utils.RespondWithInternalError(c, "failed to list documents", nil)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"count":     len(records),
			"documents": records,
		})
	})
}
