package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	appdocument "github.com/bizconsult/crm/internal/application/document"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// DocumentHandler handles customer document uploads and OCR extraction
type DocumentHandler struct {
	BaseHandler
	documentService *appdocument.DocumentService
	maxFileSize     int64
}

// NewDocumentHandler creates a new DocumentHandler. maxFileSize bounds each
// uploaded file; zero disables the check.
func NewDocumentHandler(documentService *appdocument.DocumentService, maxFileSize int64) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		maxFileSize:     maxFileSize,
	}
}

// Upload godoc
// @Summary      Attach documents to a customer
// @Description  multipart/form-data with a "kind" field and one or more "files"
// @Tags         documents
// @Security     BearerAuth
// @Router       /customers/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		h.BadRequest(c, "Invalid multipart form")
		return
	}

	input := appdocument.UploadInput{Kind: c.PostForm("kind")}
	for _, fh := range form.File["files"] {
		if h.maxFileSize > 0 && fh.Size > h.maxFileSize {
			h.HandleError(c, shared.NewDomainError("FILE_TOO_LARGE",
				fmt.Sprintf("%s exceeds the %d byte limit", fh.Filename, h.maxFileSize)))
			return
		}
		file, err := readFormFile(fh)
		if err != nil {
			h.BadRequest(c, "Unreadable file: "+fh.Filename)
			return
		}
		input.Files = append(input.Files, file)
	}

	docs, err := h.documentService.Upload(c.Request.Context(), id, input, middleware.GetActor(c))
	if err != nil {
		// files stored before the failure stay attached; tell the client which
		if domainErr, ok := shared.AsDomainError(err); ok && len(docs) > 0 {
			err = domainErr.WithDetails(map[string]any{"uploaded": docs})
		}
		h.HandleError(c, err)
		return
	}

	h.Created(c, docs)
}

// List godoc
// @Summary      List a customer's documents
// @Tags         documents
// @Security     BearerAuth
// @Router       /customers/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}

	docs, err := h.documentService.List(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, docs)
}

// DownloadURL godoc
// @Summary      Presigned download link for a document
// @Tags         documents
// @Security     BearerAuth
// @Router       /customers/{id}/documents/{docId}/url [get]
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	docID, ok := h.paramUUID(c, "docId")
	if !ok {
		return
	}

	result, err := h.documentService.DownloadURL(c.Request.Context(), id, docID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete godoc
// @Summary      Remove a document
// @Tags         documents
// @Security     BearerAuth
// @Router       /customers/{id}/documents/{docId} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	docID, ok := h.paramUUID(c, "docId")
	if !ok {
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), id, docID, middleware.GetActor(c)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Extract godoc
// @Summary      Run OCR on a document and merge the result into the customer
// @Tags         documents
// @Security     BearerAuth
// @Router       /customers/{id}/documents/{docId}/extract [post]
func (h *DocumentHandler) Extract(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	docID, ok := h.paramUUID(c, "docId")
	if !ok {
		return
	}

	result, err := h.documentService.Extract(c.Request.Context(), id, docID, middleware.GetActor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

func readFormFile(fh *multipart.FileHeader) (appdocument.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return appdocument.UploadFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return appdocument.UploadFile{}, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return appdocument.UploadFile{
		FileName:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
