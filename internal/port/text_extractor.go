package port

import (
	"context"

	"underwriter/internal/domain"
)

// TextExtractor converts a raw document file into plain text for the
// extraction pipeline.
type TextExtractor interface {
	ExtractText(ctx context.Context, data []byte, fileType domain.FileType) (string, error)
}
