package services

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"docqa-backend/internal/ai"
	"docqa-backend/internal/logger"
	"docqa-backend/internal/telemetry"
	"docqa-backend/models"
)

const answerSystem = `You answer questions using only the provided document excerpts.
If the excerpts do not contain the answer, say so plainly instead of guessing.
Be concise and mention which document an answer comes from when it matters.`

// noContextAnswer is returned without calling the model when retrieval
// produced nothing usable.
const noContextAnswer = "I could not find anything in the indexed documents relevant to your question. Try rephrasing it, or check that the relevant documents have been ingested."

// GenerationService streams a model answer for an assembled context.
// Transport failures before the first token are retried with capped
// exponential backoff; once any token has been delivered the attempt
// is committed and a later failure ends the stream as interrupted
// rather than silently restarting and emitting duplicate text.
type GenerationService struct {
	model       ai.StreamingModel
	maxRetries  int
	timeout     time.Duration
	backoffBase time.Duration
	metrics     *telemetry.Metrics
	modelName   string
}

func NewGenerationService(model ai.StreamingModel, maxRetries int, timeout time.Duration, metrics *telemetry.Metrics, modelName string) *GenerationService {
	return &GenerationService{
		model:       model,
		maxRetries:  maxRetries,
		timeout:     timeout,
		backoffBase: 500 * time.Millisecond,
		metrics:     metrics,
		modelName:   modelName,
	}
}

// Generate answers the question against the bundle, emitting token
// events followed by exactly one terminal event (done or error). The
// returned channel is closed after the terminal event. Cancelling ctx
// stops both streaming and any pending retry wait.
func (s *GenerationService) Generate(ctx context.Context, question string, bundle models.ContextBundle) <-chan models.GenerationEvent {
	events := make(chan models.GenerationEvent)
	go func() {
		defer close(events)
		s.run(ctx, question, bundle, events)
	}()
	return events
}

func (s *GenerationService) run(ctx context.Context, question string, bundle models.ContextBundle, events chan<- models.GenerationEvent) {
	if bundle.Empty() {
		emit(ctx, events, models.DoneEvent(noContextAnswer, nil))
		return
	}

	prompt := buildPrompt(question, bundle)
	sources := bundle.Sources()

	var retries int
	for attempt := 0; ; attempt++ {
		answer, tokensSent, err := s.attempt(ctx, prompt, events)
		if err == nil {
			emit(ctx, events, models.DoneEvent(answer, sources))
			if s.metrics != nil {
				s.metrics.RecordGeneration(0, retries, s.modelName)
			}
			return
		}

		if ctx.Err() != nil {
			// Caller went away; nothing to report to anyone.
			return
		}

		if tokensSent {
			logger.Error("generation stream interrupted mid-answer", "error", err)
			emit(ctx, events, models.ErrorEvent(models.ErrGenerationInterrupted, "generation was interrupted before completing the answer"))
			return
		}

		if attempt >= s.maxRetries {
			logger.Error("generation failed after retries", "attempts", attempt+1, "error", err)
			emit(ctx, events, models.ErrorEvent(models.ErrGenerationUnavailable, "the generation backend is unavailable"))
			if s.metrics != nil {
				s.metrics.RecordGeneration(0, retries, s.modelName)
			}
			return
		}

		retries++
		delay := s.backoff(attempt)
		logger.Warn("generation attempt failed, retrying", "attempt", attempt+1, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// attempt runs one model invocation under the per-attempt timeout. It
// reports whether any token reached the caller before the error.
func (s *GenerationService) attempt(ctx context.Context, prompt string, events chan<- models.GenerationEvent) (string, bool, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	stream, err := s.model.StreamGenerate(attemptCtx, ai.GenerationRequest{
		System: answerSystem,
		Prompt: prompt,
	})
	if err != nil {
		return "", false, err
	}

	var answer strings.Builder
	tokensSent := false
	for {
		token, err := stream.Next()
		if err == io.EOF {
			return answer.String(), tokensSent, nil
		}
		if err != nil {
			return answer.String(), tokensSent, err
		}
		if token == "" {
			continue
		}
		if !emit(ctx, events, models.TokenEvent(token)) {
			return answer.String(), tokensSent, ctx.Err()
		}
		tokensSent = true
		answer.WriteString(token)
	}
}

func (s *GenerationService) backoff(attempt int) time.Duration {
	delay := s.backoffBase << attempt
	if delay > 8*time.Second {
		delay = 8 * time.Second
	}
	return time.Duration(rand.Int63n(int64(delay)) + int64(delay)/2)
}

// emit delivers an event unless the consumer's context is gone.
func emit(ctx context.Context, events chan<- models.GenerationEvent, event models.GenerationEvent) bool {
	select {
	case events <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func buildPrompt(question string, bundle models.ContextBundle) string {
	return fmt.Sprintf("Context documents:\n%s\n\nQuestion: %s", Render(bundle), question)
}
