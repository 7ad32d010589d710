package services

import (
	"context"

	"docqa-backend/internal/logger"
	"docqa-backend/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// RAGService runs the full query path: reformulate the question,
// retrieve matching chunks, assemble them into a budgeted context, and
// stream the generated answer.
type RAGService struct {
	reformulator *Reformulator
	retriever    *Retriever
	assembler    *ContextAssembler
	generator    *GenerationService
}

func NewRAGService(reformulator *Reformulator, retriever *Retriever, assembler *ContextAssembler, generator *GenerationService) *RAGService {
	return &RAGService{
		reformulator: reformulator,
		retriever:    retriever,
		assembler:    assembler,
		generator:    generator,
	}
}

// Answer streams the events for one question. Every failure mode,
// retrieval included, arrives on the stream as the single terminal
// error event carrying its kind.
func (s *RAGService) Answer(ctx context.Context, question string) <-chan models.GenerationEvent {
	tracer := otel.Tracer("rag-service")
	ctx, span := tracer.Start(ctx, "rag.answer")
	defer span.End()

	query := s.reformulator.Reformulate(ctx, question)
	if query != question {
		logger.Debug("query reformulated", "original", question, "rewritten", query)
	}

	chunks, err := s.retriever.Retrieve(ctx, query)
	if err != nil {
		span.SetAttributes(attribute.Bool("rag.retrieval_error", true))
		logger.Error("retrieval failed", "error", err)
		return terminalError(err)
	}

	bundle := s.assembler.Assemble(chunks)
	span.SetAttributes(
		attribute.Int("rag.retrieved_chunks", len(chunks)),
		attribute.Int("rag.context_bytes", bundle.Size),
	)

	return s.generator.Generate(ctx, question, bundle)
}

// terminalError wraps a retrieval failure as an already-closed event
// stream holding one error event.
func terminalError(err error) <-chan models.GenerationEvent {
	kind := models.KindOf(err)
	if kind == "" {
		kind = models.ErrVectorStoreUnavailable
	}
	events := make(chan models.GenerationEvent, 1)
	events <- models.ErrorEvent(kind, "failed to search the document index")
	close(events)
	return events
}

// AnswerComplete collects the stream into a single response for
// non-streaming clients. An error event becomes the returned error.
func (s *RAGService) AnswerComplete(ctx context.Context, question string) (string, []models.SourceRef, error) {
	for event := range s.Answer(ctx, question) {
		switch event.Type {
		case models.EventDone:
			return event.Answer, event.Sources, nil
		case models.EventError:
			return "", nil, models.Kindf(event.ErrKind, "%s", event.Message)
		}
	}
	return "", nil, ctx.Err()
}
