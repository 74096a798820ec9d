package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"underwriter/internal/csvexport"
	"underwriter/internal/domain"
	"underwriter/internal/service"
)

// DocumentHandler handles document processing endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// Create handles POST /api/v1/documents. The document is created in pending
// status and processed in the background; poll the status endpoint for
// completion.
func (h *DocumentHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req struct {
		FileID uuid.UUID `json:"file_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file_id is required")
		return
	}

	doc, err := h.documentService.Create(c.Request.Context(), req.FileID, userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, doc)
}

// GetByID handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// GetStatus handles GET /api/v1/documents/:id/status
func (h *DocumentHandler) GetStatus(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{
		"id":               doc.ID,
		"status":           doc.Status,
		"processing_error": doc.ProcessingError,
		"process_attempts": doc.ProcessAttempts,
		"processed_at":     doc.ProcessedAt,
	})
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	offset, limit := parsePagination(c)

	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.DocumentStatus(statusStr)
		switch status {
		case domain.DocumentStatusPending, domain.DocumentStatusProcessing,
			domain.DocumentStatusCompleted, domain.DocumentStatusError:
		default:
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid status filter")
			return
		}
		docs, total, err := h.documentService.ListByStatus(c.Request.Context(), status, offset, limit)
		if err != nil {
			HandleError(c, err)
			return
		}
		RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
		return
	}

	docs, total, err := h.documentService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, docs, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetExtractions handles GET /api/v1/documents/:id/extractions
func (h *DocumentHandler) GetExtractions(c *gin.Context) {
	h.respondResult(c, h.documentService.GetExtractions)
}

// GetMetrics handles GET /api/v1/documents/:id/metrics
func (h *DocumentHandler) GetMetrics(c *gin.Context) {
	h.respondResult(c, h.documentService.GetMetrics)
}

// GetValidation handles GET /api/v1/documents/:id/validation
func (h *DocumentHandler) GetValidation(c *gin.Context) {
	h.respondResult(c, h.documentService.GetValidation)
}

// ExportRentRoll handles GET /api/v1/documents/:id/export. Streams the
// document's extracted tenant schedule as a CSV attachment.
func (h *DocumentHandler) ExportRentRoll(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	raw, err := h.documentService.GetExtractions(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	data, found, err := csvexport.RentRollFromExtractions(raw)
	if err != nil {
		HandleError(c, err)
		return
	}
	if !found {
		RespondError(c, http.StatusUnprocessableEntity, "NO_RENT_ROLL",
			"document has no successful rent roll extraction")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", csvexport.BuildFilename(doc.FileName)))
	c.Status(http.StatusOK)

	if _, err := c.Writer.Write(csvexport.BOM); err != nil {
		return
	}
	w := csvexport.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteTenants(data.Tenants); err != nil {
		return
	}
	if err := w.WriteSummary(data.Summary); err != nil {
		return
	}
	w.Flush()
}

// Reprocess handles POST /api/v1/documents/:id/reprocess
func (h *DocumentHandler) Reprocess(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	doc, err := h.documentService.Reprocess(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, doc)
}

// Delete handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), docID); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "document deleted"})
}

type resultFetcher func(ctx context.Context, docID uuid.UUID) (json.RawMessage, error)

func (h *DocumentHandler) respondResult(c *gin.Context, fetch resultFetcher) {
	if _, ok := requireUser(c); !ok {
		return
	}

	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document ID")
		return
	}

	raw, err := fetch(c.Request.Context(), docID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, raw)
}
