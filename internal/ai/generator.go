package ai

import (
	"context"
	"io"
	"log"
	"time"

	"docqa-backend/internal/config"
	"docqa-backend/internal/telemetry"
	"docqa-backend/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
)

// Generator wraps the Gemini generation API behind a circuit breaker
// and a request-rate limiter. One Generator is constructed per process
// and shared; each call gets its own stream.
type Generator struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
	breaker     *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	metrics     *telemetry.Metrics
}

func NewGenerator(client *genai.Client, cfg *config.Config, metrics *telemetry.Metrics) *Generator {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// 10 rps with small bursts keeps us inside Gemini quota tiers
	limiter := rate.NewLimiter(rate.Limit(10), 5)

	return &Generator{
		client:      client,
		model:       cfg.GenerationModel,
		maxTokens:   int32(cfg.GenerationMaxTokens),
		temperature: float32(cfg.GenerationTemperature),
		breaker:     breaker,
		limiter:     limiter,
		metrics:     metrics,
	}
}

// StreamGenerate starts a streamed generation. An error here means no
// token was produced and the caller may retry.
func (g *Generator) StreamGenerate(ctx context.Context, req GenerationRequest) (TokenStream, error) {
	tracer := otel.Tracer("gemini-generator")
	ctx, span := tracer.Start(ctx, "gemini.stream_generate")
	span.SetAttributes(attribute.String("gemini.model", g.model))

	started, err := g.start(ctx, req)
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		span.End()
		return nil, err
	}
	return &geminiStream{
		iter:    started.iter,
		pending: started.first,
		done:    started.firstErr == iterator.Done,
		gen:     g,
		span:    func() { span.End() },
	}, nil
}

func (g *Generator) start(ctx context.Context, req GenerationRequest) (*startedStream, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, models.WrapKind(models.ErrGenerationUnavailable, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		model := g.client.GenerativeModel(g.model)
		model.SetTemperature(g.temperature)
		model.SetMaxOutputTokens(g.maxTokens)
		if req.System != "" {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(req.System)},
			}
		}

		iter := model.GenerateContentStream(ctx, genai.Text(req.Prompt))

		// Pull the first response inside the breaker so connection
		// failures count against it.
		first, err := iter.Next()
		if err != nil && err != iterator.Done {
			return nil, err
		}
		return &startedStream{iter: iter, first: first, firstErr: err}, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, models.Kindf(models.ErrGenerationUnavailable, "generation backend circuit open")
		}
		return nil, models.WrapKind(models.ErrGenerationUnavailable, err)
	}

	return result.(*startedStream), nil
}

// Complete issues a small non-streamed generation, used for query
// reformulation.
func (g *Generator) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", models.WrapKind(models.ErrGenerationUnavailable, err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		model := g.client.GenerativeModel(g.model)
		model.SetTemperature(float32(req.Temperature))
		if req.MaxTokens > 0 {
			model.SetMaxOutputTokens(int32(req.MaxTokens))
		}
		if req.System != "" {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(req.System)},
			}
		}
		return model.GenerateContent(ctx, genai.Text(req.Prompt))
	})
	if err != nil {
		return "", models.WrapKind(models.ErrGenerationUnavailable, err)
	}

	return extractText(result.(*genai.GenerateContentResponse)), nil
}

// startedStream carries the eagerly pulled first response out of the
// breaker callback.
type startedStream struct {
	iter     *genai.GenerateContentResponseIterator
	first    *genai.GenerateContentResponse
	firstErr error
}

// geminiStream adapts the genai iterator to TokenStream. The first
// response is pulled during start and replayed here.
type geminiStream struct {
	iter    *genai.GenerateContentResponseIterator
	pending *genai.GenerateContentResponse
	done    bool
	gen     *Generator
	span    func()
	tokens  int64
	closed  bool
}

func (s *geminiStream) Next() (string, error) {
	if s.closed {
		return "", io.EOF
	}
	for {
		var resp *genai.GenerateContentResponse
		var err error
		switch {
		case s.pending != nil:
			resp, s.pending = s.pending, nil
		case s.done:
			err = iterator.Done
		default:
			resp, err = s.iter.Next()
		}
		if err == iterator.Done {
			s.finish()
			return "", io.EOF
		}
		if err != nil {
			s.finish()
			return "", models.WrapKind(models.ErrGenerationInterrupted, err)
		}
		if resp.UsageMetadata != nil {
			s.tokens = int64(resp.UsageMetadata.TotalTokenCount)
		}
		if text := extractText(resp); text != "" {
			return text, nil
		}
	}
}

func (s *geminiStream) finish() {
	if s.closed {
		return
	}
	s.closed = true
	if s.gen.metrics != nil && s.tokens > 0 {
		s.gen.metrics.RecordGeneration(s.tokens, 0, s.gen.model)
	}
	s.span()
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	text := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text += string(t)
			}
		}
	}
	return text
}
