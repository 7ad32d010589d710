package routes

import (
	"net/http"
	"time"

	"docqa-backend/internal/vectorstore/qdrant"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// SetupHealthRoutes exposes liveness and readiness probes. Liveness is
// unconditional; readiness checks every backing service.
func SetupHealthRoutes(router *gin.Engine, mongoClient *mongo.Client, rdb *redis.Client, vectors *qdrant.Store) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx := c.Request.Context()
		checks := gin.H{}
		healthy := true

		if mongoClient != nil {
			if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
				checks["mongo"] = err.Error()
				healthy = false
			} else {
				checks["mongo"] = "ok"
			}
		}

		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				checks["redis"] = err.Error()
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}

		if vectors != nil {
			if vectors.Healthy(ctx) {
				checks["qdrant"] = "ok"
			} else {
				checks["qdrant"] = "unreachable"
				healthy = false
			}
		}

		status := http.StatusOK
		state := "ready"
		if !healthy {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status": state,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
}
