package services

import (
	"fmt"
	"strings"

	"docqa-backend/models"
)

// ContextAssembler packs retrieved chunks into the prompt context
// under a byte budget. Chunks are taken whole in relevance order; one
// that does not fit is skipped and later, smaller chunks still get a
// chance, so the budget is used rather than abandoned at the first
// oversized hit.
type ContextAssembler struct {
	budget int
}

func NewContextAssembler(budget int) *ContextAssembler {
	return &ContextAssembler{budget: budget}
}

func (a *ContextAssembler) Assemble(chunks []models.RetrievedChunk) models.ContextBundle {
	bundle := models.ContextBundle{}
	for _, chunk := range chunks {
		if bundle.Size+len(chunk.Text) > a.budget {
			continue
		}
		bundle.Fragments = append(bundle.Fragments, models.ContextFragment{
			Text:  chunk.Text,
			Score: chunk.Score,
			Source: models.SourceRef{
				DocumentID: chunk.DocumentID,
				Filename:   chunk.Filename,
			},
		})
		bundle.Size += len(chunk.Text)
	}
	return bundle
}

// Render formats the bundle the way the generation prompt expects:
// numbered fragments labeled with their source file, separated by a
// rule.
func Render(bundle models.ContextBundle) string {
	if bundle.Empty() {
		return ""
	}
	parts := make([]string, len(bundle.Fragments))
	for i, fragment := range bundle.Fragments {
		parts[i] = fmt.Sprintf("Document %d (from %s):\n%s", i+1, fragment.Source.Filename, fragment.Text)
	}
	return strings.Join(parts, "\n---\n")
}
