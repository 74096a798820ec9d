package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"underwriter/internal/domain"
	"underwriter/internal/extractor"
	"underwriter/internal/finance"
	"underwriter/internal/port"
	"underwriter/internal/validator"
)

const processTimeout = 5 * time.Minute

// DocumentService defines the document processing contract.
type DocumentService interface {
	Create(ctx context.Context, fileID, createdBy uuid.UUID) (*domain.Document, error)
	GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	GetByFileID(ctx context.Context, fileID uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, offset, limit int) ([]domain.Document, int, error)
	ListByStatus(ctx context.Context, status domain.DocumentStatus, offset, limit int) ([]domain.Document, int, error)
	GetExtractions(ctx context.Context, docID uuid.UUID) (json.RawMessage, error)
	GetMetrics(ctx context.Context, docID uuid.UUID) (json.RawMessage, error)
	GetValidation(ctx context.Context, docID uuid.UUID) (json.RawMessage, error)
	Reprocess(ctx context.Context, docID uuid.UUID) (*domain.Document, error)
	Delete(ctx context.Context, docID uuid.UUID) error
	// ProcessDocument runs the full pipeline for a document already in
	// processing status. It is called by the background goroutine and by the
	// queue worker.
	ProcessDocument(ctx context.Context, doc *domain.Document)
}

type documentService struct {
	docRepo    port.DocumentRepository
	fileRepo   port.FileMetaRepository
	storage    port.ObjectStorage
	textExt    port.TextExtractor
	dispatcher *extractor.Dispatcher
	engine     *finance.Engine
	validator  *validator.DocumentValidator
}

// NewDocumentService creates a new DocumentService implementation.
func NewDocumentService(
	docRepo port.DocumentRepository,
	fileRepo port.FileMetaRepository,
	storage port.ObjectStorage,
	textExt port.TextExtractor,
	dispatcher *extractor.Dispatcher,
	engine *finance.Engine,
	docValidator *validator.DocumentValidator,
) DocumentService {
	return &documentService{
		docRepo:    docRepo,
		fileRepo:   fileRepo,
		storage:    storage,
		textExt:    textExt,
		dispatcher: dispatcher,
		engine:     engine,
		validator:  docValidator,
	}
}

func (s *documentService) Create(ctx context.Context, fileID, createdBy uuid.UUID) (*domain.Document, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("looking up file: %w", err)
	}
	if file.Status != domain.FileStatusUploaded {
		return nil, domain.ErrUploadFailed
	}

	// One document per file
	if _, err := s.docRepo.GetByFileID(ctx, fileID); err == nil {
		return nil, domain.ErrDocumentAlreadyExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("checking for existing document: %w", err)
	}

	doc := &domain.Document{
		ID:               uuid.New(),
		FileID:           fileID,
		FileName:         file.OriginalName,
		Status:           domain.DocumentStatusPending,
		Extractions:      json.RawMessage("[]"),
		Metrics:          json.RawMessage("{}"),
		ValidationReport: json.RawMessage("{}"),
		CreatedBy:        createdBy,
	}

	log.Printf("documentService.Create: creating document %s for file %s", doc.ID, fileID)

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	// Copy before launching goroutine so the caller's value is independent of
	// background work
	result := *doc

	go s.processInBackground(doc.ID)

	return &result, nil
}

func (s *documentService) processInBackground(docID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	log.Printf("documentService.processInBackground: starting processing for document %s", docID)

	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		log.Printf("documentService.processInBackground: failed to get document %s: %v", docID, err)
		return
	}
	doc.ProcessAttempts++
	doc.Status = domain.DocumentStatusProcessing
	if err := s.docRepo.UpdateResults(ctx, doc); err != nil {
		log.Printf("documentService.processInBackground: failed to set processing status for %s: %v", docID, err)
		return
	}

	s.ProcessDocument(ctx, doc)
}

// ProcessDocument performs the core pipeline: file lookup, S3 download, text
// extraction, dispatch to the document extractors, financial analysis,
// validation, and result persistence. The doc must already be in processing
// status with ProcessAttempts incremented.
func (s *documentService) ProcessDocument(ctx context.Context, doc *domain.Document) {
	file, err := s.fileRepo.GetByID(ctx, doc.FileID)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("looking up file: %v", err))
		return
	}

	fileBytes, err := s.storage.Download(ctx, file.S3Bucket, file.S3Key)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("downloading file: %v", err))
		return
	}

	text, err := s.textExt.ExtractText(ctx, fileBytes, file.FileType)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("extracting text: %v", err))
		return
	}

	results := s.dispatcher.Run(text, file.OriginalName)
	if len(results) == 0 {
		s.failProcessing(ctx, doc, "no extractor recognized the document")
		return
	}

	anySuccess := false
	for _, r := range results {
		if r.Success {
			anySuccess = true
			break
		}
	}

	rentRoll, pl, plFound := collectFinancials(results)
	metrics := s.deriveMetrics(text, rentRoll, pl, plFound)
	report := s.validator.BuildReport(rentRoll, pl, metrics)

	extractionsJSON, err := json.Marshal(results)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("encoding extractions: %v", err))
		return
	}
	metricsJSON, err := json.Marshal(analysisPayload{
		Metrics:   metrics,
		RiskFlags: finance.GenerateRiskFlags(metrics),
	})
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("encoding metrics: %v", err))
		return
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		s.failProcessing(ctx, doc, fmt.Sprintf("encoding validation report: %v", err))
		return
	}

	now := time.Now().UTC()
	doc.Extractions = extractionsJSON
	doc.Metrics = metricsJSON
	doc.ValidationReport = reportJSON
	doc.ProcessedAt = &now
	doc.ProcessingError = ""
	if anySuccess {
		doc.Status = domain.DocumentStatusCompleted
	} else {
		doc.Status = domain.DocumentStatusError
		doc.ProcessingError = "no extractor completed successfully"
	}

	if err := s.docRepo.UpdateResults(ctx, doc); err != nil {
		log.Printf("documentService.ProcessDocument: failed to save results for %s: %v", doc.ID, err)
		return
	}

	log.Printf("documentService.ProcessDocument: document %s processed (%d extractions, status %s)",
		doc.ID, len(results), doc.Status)
}

// analysisPayload is the persisted shape of the metrics JSONB column.
type analysisPayload struct {
	Metrics   finance.Metrics `json:"metrics"`
	RiskFlags []string        `json:"risk_flags"`
}

// collectFinancials pulls the rent roll and P&L data out of the extraction
// results. A standalone extraction wins; an operating statement's embedded
// components are the fallback.
func collectFinancials(results []*extractor.Result) (extractor.RentRollData, extractor.PLData, bool) {
	var rentRoll extractor.RentRollData
	var pl extractor.PLData
	rrFound, plFound := false, false

	for _, r := range results {
		if !r.Success {
			continue
		}
		switch data := r.Data.(type) {
		case extractor.RentRollData:
			rentRoll = data
			rrFound = true
		case extractor.PLData:
			pl = data
			plFound = true
		}
	}

	for _, r := range results {
		if !r.Success {
			continue
		}
		os, ok := r.Data.(extractor.OperatingStatementData)
		if !ok {
			continue
		}
		if !plFound && os.Financials != nil {
			pl = *os.Financials
			plFound = true
		}
		if !rrFound && os.Occupancy != nil {
			rentRoll.Summary = *os.Occupancy
		}
	}

	return rentRoll, pl, plFound
}

// deriveMetrics prefers figures extracted from a P&L over raw text scanning.
func (s *documentService) deriveMetrics(text string, rentRoll extractor.RentRollData, pl extractor.PLData, plFound bool) finance.Metrics {
	if !plFound {
		return s.engine.Analyze(text)
	}

	occupancy := rentRoll.Summary.OccupancyRate
	if occupancy == 0 {
		occupancy, _ = finance.FindOccupancy(text)
	}
	return s.engine.AnalyzePL(pl.Summary.GrossIncome, pl.Summary.TotalExpenses, occupancy)
}

func (s *documentService) failProcessing(ctx context.Context, doc *domain.Document, errMsg string) {
	log.Printf("documentService.failProcessing: document %s failed: %s", doc.ID, errMsg)
	doc.Status = domain.DocumentStatusError
	doc.ProcessingError = errMsg
	if err := s.docRepo.UpdateStatus(ctx, doc.ID, domain.DocumentStatusError, errMsg); err != nil {
		log.Printf("documentService.failProcessing: failed to update status for %s: %v", doc.ID, err)
	}
}

func (s *documentService) GetByID(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	return s.docRepo.GetByID(ctx, docID)
}

func (s *documentService) GetByFileID(ctx context.Context, fileID uuid.UUID) (*domain.Document, error) {
	return s.docRepo.GetByFileID(ctx, fileID)
}

func (s *documentService) List(ctx context.Context, offset, limit int) ([]domain.Document, int, error) {
	return s.docRepo.List(ctx, offset, limit)
}

func (s *documentService) ListByStatus(ctx context.Context, status domain.DocumentStatus, offset, limit int) ([]domain.Document, int, error) {
	return s.docRepo.ListByStatus(ctx, status, offset, limit)
}

func (s *documentService) GetExtractions(ctx context.Context, docID uuid.UUID) (json.RawMessage, error) {
	doc, err := s.requireProcessed(ctx, docID)
	if err != nil {
		return nil, err
	}
	return doc.Extractions, nil
}

func (s *documentService) GetMetrics(ctx context.Context, docID uuid.UUID) (json.RawMessage, error) {
	doc, err := s.requireProcessed(ctx, docID)
	if err != nil {
		return nil, err
	}
	return doc.Metrics, nil
}

func (s *documentService) GetValidation(ctx context.Context, docID uuid.UUID) (json.RawMessage, error) {
	doc, err := s.requireProcessed(ctx, docID)
	if err != nil {
		return nil, err
	}
	return doc.ValidationReport, nil
}

func (s *documentService) requireProcessed(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.DocumentStatusCompleted {
		return nil, domain.ErrDocumentNotProcessed
	}
	return doc, nil
}

func (s *documentService) Reprocess(ctx context.Context, docID uuid.UUID) (*domain.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	// Verify the file still exists
	if _, err := s.fileRepo.GetByID(ctx, doc.FileID); err != nil {
		return nil, fmt.Errorf("looking up file for reprocess: %w", err)
	}

	doc.Status = domain.DocumentStatusPending
	doc.ProcessingError = ""
	doc.Extractions = json.RawMessage("[]")
	doc.Metrics = json.RawMessage("{}")
	doc.ValidationReport = json.RawMessage("{}")
	doc.ProcessedAt = nil
	if err := s.docRepo.UpdateResults(ctx, doc); err != nil {
		return nil, fmt.Errorf("resetting document for reprocess: %w", err)
	}

	log.Printf("documentService.Reprocess: reprocessing document %s", docID)

	result := *doc

	go s.processInBackground(doc.ID)

	return &result, nil
}

func (s *documentService) Delete(ctx context.Context, docID uuid.UUID) error {
	return s.docRepo.Delete(ctx, docID)
}
