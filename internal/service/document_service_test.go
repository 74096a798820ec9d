package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"underwriter/internal/domain"
	"underwriter/internal/extractor"
	"underwriter/internal/finance"
	"underwriter/internal/service"
	"underwriter/internal/validator"
	"underwriter/mocks"
)

// plStatementText yields exactly one applicable extractor (the P&L) when
// paired with a profit-and-loss filename.
const plStatementText = `Profit and Loss Statement

Revenue
Base Rent                                       100,000.00
Parking Fees                                     10,000.00

Expenses
Utilities                                         5,000.00
Property Taxes                                   12,000.00

Net Income                                       93,000.00
`

type documentServiceFixture struct {
	docRepo  *mocks.MockDocumentRepo
	fileRepo *mocks.MockFileMetaRepo
	storage  *mocks.MockObjectStorage
	textExt  *mocks.MockTextExtractor
	svc      service.DocumentService
}

func newDocumentServiceFixture() *documentServiceFixture {
	f := &documentServiceFixture{
		docRepo:  new(mocks.MockDocumentRepo),
		fileRepo: new(mocks.MockFileMetaRepo),
		storage:  new(mocks.MockObjectStorage),
		textExt:  new(mocks.MockTextExtractor),
	}
	f.svc = service.NewDocumentService(
		f.docRepo,
		f.fileRepo,
		f.storage,
		f.textExt,
		extractor.NewDefaultDispatcher(nil),
		finance.NewEngine(finance.DefaultOptions()),
		validator.New(),
	)
	return f
}

func uploadedFile(fileID uuid.UUID) *domain.FileMeta {
	return &domain.FileMeta{
		ID:           fileID,
		FileName:     fileID.String() + ".pdf",
		OriginalName: "profit_and_loss.pdf",
		FileType:     domain.FileTypePDF,
		S3Bucket:     "test-bucket",
		S3Key:        "files/" + fileID.String() + "/profit_and_loss.pdf",
		Status:       domain.FileStatusUploaded,
	}
}

func processingDoc(fileID uuid.UUID) *domain.Document {
	return &domain.Document{
		ID:               uuid.New(),
		FileID:           fileID,
		FileName:         "profit_and_loss.pdf",
		Status:           domain.DocumentStatusProcessing,
		ProcessAttempts:  1,
		Extractions:      json.RawMessage("[]"),
		Metrics:          json.RawMessage("{}"),
		ValidationReport: json.RawMessage("{}"),
	}
}

func TestDocumentService_Create(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()
	userID := uuid.New()

	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(uploadedFile(fileID), nil)
	f.docRepo.On("GetByFileID", mock.Anything, fileID).Return(nil, domain.ErrNotFound)
	f.docRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Document")).Return(nil)
	// The background goroutine may or may not run before the test ends.
	f.docRepo.On("GetByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(nil, errors.New("stop background processing")).Maybe()

	doc, err := f.svc.Create(context.Background(), fileID, userID)

	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusPending, doc.Status)
	assert.Equal(t, fileID, doc.FileID)
	assert.Equal(t, "profit_and_loss.pdf", doc.FileName)
	assert.Equal(t, userID, doc.CreatedBy)
	assert.JSONEq(t, "[]", string(doc.Extractions))
	f.docRepo.AssertCalled(t, "Create", mock.Anything, mock.AnythingOfType("*domain.Document"))
}

func TestDocumentService_Create_DuplicateFile(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()

	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(uploadedFile(fileID), nil)
	f.docRepo.On("GetByFileID", mock.Anything, fileID).Return(processingDoc(fileID), nil)

	_, err := f.svc.Create(context.Background(), fileID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrDocumentAlreadyExists)
	f.docRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDocumentService_Create_FileNotUploaded(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()

	file := uploadedFile(fileID)
	file.Status = domain.FileStatusPending
	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(file, nil)

	_, err := f.svc.Create(context.Background(), fileID, uuid.New())

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}

func TestDocumentService_ProcessDocument_Completed(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()
	doc := processingDoc(fileID)

	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(uploadedFile(fileID), nil)
	f.storage.On("Download", mock.Anything, "test-bucket", mock.AnythingOfType("string")).
		Return([]byte("raw pdf bytes"), nil)
	f.textExt.On("ExtractText", mock.Anything, mock.Anything, domain.FileTypePDF).
		Return(plStatementText, nil)

	var saved *domain.Document
	f.docRepo.On("UpdateResults", mock.Anything, mock.AnythingOfType("*domain.Document")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.Document) }).
		Return(nil)

	f.svc.ProcessDocument(context.Background(), doc)

	require.NotNil(t, saved)
	assert.Equal(t, domain.DocumentStatusCompleted, saved.Status)
	assert.Empty(t, saved.ProcessingError)
	require.NotNil(t, saved.ProcessedAt)

	var results []extractor.Result
	require.NoError(t, json.Unmarshal(saved.Extractions, &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "pl_statement", results[0].Extractor)
	assert.True(t, results[0].Success)

	var analysis struct {
		Metrics   finance.Metrics `json:"metrics"`
		RiskFlags []string        `json:"risk_flags"`
	}
	require.NoError(t, json.Unmarshal(saved.Metrics, &analysis))
	assert.Equal(t, 110000.0, analysis.Metrics.GrossIncome)
	assert.Equal(t, 93000.0, analysis.Metrics.NOI)

	var report validator.Report
	require.NoError(t, json.Unmarshal(saved.ValidationReport, &report))
	assert.False(t, report.ValidatedAt.IsZero())
}

func TestDocumentService_ProcessDocument_DownloadFailure(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()
	doc := processingDoc(fileID)

	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(uploadedFile(fileID), nil)
	f.storage.On("Download", mock.Anything, "test-bucket", mock.AnythingOfType("string")).
		Return(nil, errors.New("s3 unavailable"))
	f.docRepo.On("UpdateStatus", mock.Anything, doc.ID, domain.DocumentStatusError, mock.AnythingOfType("string")).
		Return(nil)

	f.svc.ProcessDocument(context.Background(), doc)

	assert.Equal(t, domain.DocumentStatusError, doc.Status)
	assert.Contains(t, doc.ProcessingError, "downloading file")
	f.docRepo.AssertNotCalled(t, "UpdateResults", mock.Anything, mock.Anything)
}

func TestDocumentService_ProcessDocument_NoApplicableExtractor(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()
	doc := processingDoc(fileID)

	file := uploadedFile(fileID)
	file.OriginalName = "notes.pdf"
	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(file, nil)
	f.storage.On("Download", mock.Anything, "test-bucket", mock.AnythingOfType("string")).
		Return([]byte("raw"), nil)
	f.textExt.On("ExtractText", mock.Anything, mock.Anything, domain.FileTypePDF).
		Return("a short note about nothing in particular", nil)
	f.docRepo.On("UpdateStatus", mock.Anything, doc.ID, domain.DocumentStatusError, mock.AnythingOfType("string")).
		Return(nil)

	f.svc.ProcessDocument(context.Background(), doc)

	assert.Equal(t, domain.DocumentStatusError, doc.Status)
	assert.Equal(t, "no extractor recognized the document", doc.ProcessingError)
}

func TestDocumentService_GetExtractions_NotProcessed(t *testing.T) {
	f := newDocumentServiceFixture()
	doc := processingDoc(uuid.New())
	doc.Status = domain.DocumentStatusPending

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	_, err := f.svc.GetExtractions(context.Background(), doc.ID)

	assert.ErrorIs(t, err, domain.ErrDocumentNotProcessed)
}

func TestDocumentService_GetMetrics_Completed(t *testing.T) {
	f := newDocumentServiceFixture()
	doc := processingDoc(uuid.New())
	doc.Status = domain.DocumentStatusCompleted
	doc.Metrics = json.RawMessage(`{"metrics":{"noi":93000}}`)

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)

	raw, err := f.svc.GetMetrics(context.Background(), doc.ID)

	require.NoError(t, err)
	assert.JSONEq(t, `{"metrics":{"noi":93000}}`, string(raw))
}

func TestDocumentService_Reprocess(t *testing.T) {
	f := newDocumentServiceFixture()
	fileID := uuid.New()
	doc := processingDoc(fileID)
	doc.Status = domain.DocumentStatusError
	doc.ProcessingError = "previous failure"

	f.docRepo.On("GetByID", mock.Anything, doc.ID).Return(doc, nil)
	f.fileRepo.On("GetByID", mock.Anything, fileID).Return(uploadedFile(fileID), nil)
	f.docRepo.On("UpdateResults", mock.Anything, mock.AnythingOfType("*domain.Document")).Return(nil).Maybe()
	// The background goroutine may or may not run before the test ends.
	f.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("stop background processing")).Maybe()
	f.docRepo.On("UpdateStatus", mock.Anything, doc.ID, domain.DocumentStatusError, mock.AnythingOfType("string")).
		Return(nil).Maybe()

	result, err := f.svc.Reprocess(context.Background(), doc.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusPending, result.Status)
	assert.Empty(t, result.ProcessingError)
	assert.Nil(t, result.ProcessedAt)
	assert.JSONEq(t, "[]", string(result.Extractions))
}
