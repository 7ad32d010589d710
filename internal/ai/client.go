package ai

import (
	"context"

	"docqa-backend/models"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NewClient opens the shared Gemini API client. Call Close on shutdown.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, models.Kindf(models.ErrInvalidConfiguration, "missing GEMINI_API_KEY")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, models.WrapKind(models.ErrGenerationUnavailable, err)
	}
	return client, nil
}
