package port

import (
	"context"

	"github.com/google/uuid"

	"underwriter/internal/domain"
)

// DocumentRepository defines the contract for document persistence.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	GetByFileID(ctx context.Context, fileID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
	ListByStatus(ctx context.Context, status domain.DocumentStatus, offset, limit int) ([]domain.Document, int, error)
	UpdateStatus(ctx context.Context, docID uuid.UUID, status domain.DocumentStatus, processingError string) error
	UpdateResults(ctx context.Context, doc *domain.Document) error
	// ClaimPending atomically moves up to limit pending documents to
	// processing and returns them. Documents that exceeded maxAttempts are
	// not claimed.
	ClaimPending(ctx context.Context, limit, maxAttempts int) ([]domain.Document, error)
	Delete(ctx context.Context, docID uuid.UUID) error
}
