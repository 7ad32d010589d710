package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"docqa-backend/internal/logger"
	"docqa-backend/middleware"
	"docqa-backend/models"
	"docqa-backend/services"
	"docqa-backend/utils"

	"github.com/gin-gonic/gin"
)

// ChatRequest is the question payload. Stream toggles server-sent
// events; when false the answer is returned in one JSON body.
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
	Stream   *bool  `json:"stream,omitempty"`
}

// ChatResponse is the non-streamed answer.
type ChatResponse struct {
	Answer  string             `json:"answer"`
	Sources []models.SourceRef `json:"sources"`
	Request string             `json:"request_id,omitempty"`
}

func SetupChatRoutes(router *gin.Engine, rag *services.RAGService, streamDefault bool) {
	api := router.Group("/api/v1")

	api.POST("/chat", func(c *gin.Context) {
		var req ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			utils.RespondWithBadRequest(c, "question must not be empty", nil)
			return
		}

		stream := streamDefault
		if req.Stream != nil {
			stream = *req.Stream
		}

		if stream {
			streamChat(c, rag, req.Question)
			return
		}

		answer, sources, err := rag.AnswerComplete(c.Request.Context(), req.Question)
		if err != nil {
			respondPipelineError(c, err)
			return
		}
		c.JSON(http.StatusOK, ChatResponse{
			Answer:  answer,
			Sources: sources,
			Request: middleware.GetRequestID(c),
		})
	})
}

// streamChat relays generation events as server-sent events. Each
// event is one JSON object; the terminal event is always last, and
// pipeline failures arrive as a terminal error event rather than an
// HTTP status.
func streamChat(c *gin.Context, rag *services.RAGService, question string) {
	events := rag.Answer(c.Request.Context(), question)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.Flush()

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			logger.Error("failed to marshal generation event", "error", err)
			continue
		}
		c.SSEvent(string(event.Type), string(data))
		c.Writer.Flush()
	}
}

// respondPipelineError maps pipeline error kinds to HTTP statuses.
func respondPipelineError(c *gin.Context, err error) {
	switch models.KindOf(err) {
	case models.ErrEmbeddingUnavailable, models.ErrVectorStoreUnavailable,
		models.ErrGenerationUnavailable, models.ErrGenerationInterrupted:
		utils.RespondWithUnavailable(c, err.Error())
	case models.ErrInvalidConfiguration:
		utils.RespondWithInternalError(c, err.Error(), nil)
	default:
		utils.RespondWithInternalError(c, "request failed", gin.H{"error": err.Error()})
	}
}
