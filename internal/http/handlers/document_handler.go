// Document HTTP handlers.
//
// This file exposes endpoints for document intake and history:
//   - POST /documents  (multipart upload, per-file chain registration)
//   - GET  /documents  (history for a producer, paginated)
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agritrust/go-agritrust-backend/internal/domain"
	"github.com/agritrust/go-agritrust-backend/internal/services"
)

// DocumentHistoryResponse wraps a page of documents.
type DocumentHistoryResponse struct {
	Documents  []domain.Document `json:"documents"`
	Pagination Pagination        `json:"pagination"`
}

// UploadDocuments godoc
// @ID          uploadDocuments
// @Summary     Upload agricultural documents
// @Description Accepts a multipart batch under the "files" field, hashes each file, classifies it, stores it, and anchors the hash on-chain. Per-file chain failures are reported in the document records, not as an HTTP error.
// @Tags        Documents
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       farmerAddress  formData  string  true   "Producer address"
// @Param       docType        formData  string  false  "Declared type (identity, certification, warehouse, crop)"
// @Param       files          formData  file    true   "Documents (repeatable)"
//
// @Success     200  {object}  services.UploadReport
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     413  {object}  handlers.ErrorResponse  "File too large"
// @Failure     500  {object}  handlers.ErrorResponse  "Upload failed"
// @Router      /documents [post]
func (h *Handlers) UploadDocuments(c *gin.Context) {
	farmer := strings.TrimSpace(c.PostForm("farmerAddress"))
	if farmer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "farmerAddress is required")
		return
	}
	docType := strings.TrimSpace(c.PostForm("docType"))

	form, err := c.MultipartForm()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "multipart form required")
		return
	}
	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "no files uploaded")
		return
	}

	files := make([]services.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if h.maxUploadBytes > 0 && fh.Size > h.maxUploadBytes {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, "file too large: "+fh.Filename)
			return
		}
		f, err := fh.Open()
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file: "+fh.Filename)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable file: "+fh.Filename)
			return
		}
		files = append(files, services.UploadFile{Filename: fh.Filename, Content: content})
	}

	report, err := h.docs.ProcessUpload(c.Request.Context(), farmer, docType, files)
	switch {
	case errors.Is(err, services.ErrInvalidAddress),
		errors.Is(err, services.ErrInvalidDocType),
		errors.Is(err, services.ErrNoFiles):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrFileTooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeUploadFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, report)
}

// ListDocuments godoc
// @ID          listDocuments
// @Summary     Document history for a producer
// @Description Returns a page of a producer's documents, newest first.
// @Tags        Documents
// @Produce     json
//
// @Param       farmerAddress  query  string  true   "Producer address"
// @Param       page           query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size      query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object}  handlers.DocumentHistoryResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /documents [get]
func (h *Handlers) ListDocuments(c *gin.Context) {
	farmer := strings.TrimSpace(c.Query("farmerAddress"))
	if farmer == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "farmerAddress is required")
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.docs.History(c.Request.Context(), farmer, (page-1)*pageSize, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Document{}
	}
	ok(c, http.StatusOK, DocumentHistoryResponse{
		Documents:  items,
		Pagination: paginate(page, pageSize, total),
	})
}
