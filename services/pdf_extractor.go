package services

import (
	"bytes"
	"context"
	"strings"

	"docqa-backend/internal/logger"
	"docqa-backend/models"

	"github.com/ledongthuc/pdf"
)

// TextBlock is one ordered block of extracted document text with its
// page number. Layout beyond page ordering is not preserved.
type TextBlock struct {
	Page int
	Text string
}

// Extractor turns raw document bytes into ordered text blocks.
// Implementations behave as pure functions over the input bytes.
type Extractor interface {
	Extract(ctx context.Context, content []byte) ([]TextBlock, error)
}

// PDFExtractor extracts text from PDF content page by page.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (e *PDFExtractor) Extract(ctx context.Context, content []byte) ([]TextBlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, models.WrapKind(models.ErrExtractionFailed, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, models.Kindf(models.ErrExtractionFailed, "failed to create PDF reader: %v", err)
	}

	var blocks []TextBlock
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("failed to extract text from page", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		blocks = append(blocks, TextBlock{Page: i, Text: text})
	}

	if len(blocks) == 0 {
		return nil, models.Kindf(models.ErrExtractionFailed, "no text extracted from %d pages", pages)
	}

	return blocks, nil
}

// JoinBlocks flattens ordered text blocks into one string, separating
// blocks by paragraph breaks so the chunker can snap to them.
func JoinBlocks(blocks []TextBlock) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, strings.TrimSpace(b.Text))
	}
	return strings.Join(parts, "\n\n")
}
