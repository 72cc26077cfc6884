package document

import (
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/google/uuid"
)

// UploadFile is one file of a multipart upload
type UploadFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// UploadInput attaches files of one kind to a customer
type UploadInput struct {
	Kind  string
	Files []UploadFile
}

// DocumentDTO represents an attached document in API responses
type DocumentDTO struct {
	ID          uuid.UUID `json:"id"`
	Kind        string    `json:"kind"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	OCRStatus   string    `json:"ocr_status"`
}

// ToDocumentDTO converts a domain document
func ToDocumentDTO(d customer.Document) DocumentDTO {
	return DocumentDTO{
		ID:          d.ID,
		Kind:        string(d.Kind),
		FileName:    d.FileName,
		ContentType: d.ContentType,
		Size:        d.Size,
		UploadedAt:  d.UploadedAt,
		OCRStatus:   string(d.OCRStatus),
	}
}

// FieldChangeDTO is one customer field changed by an extraction
type FieldChangeDTO struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// ExtractionResultDTO reports what an OCR run changed
type ExtractionResultDTO struct {
	Document DocumentDTO      `json:"document"`
	Status   string           `json:"status"`
	Changes  []FieldChangeDTO `json:"changes"`
	Warnings []string         `json:"warnings,omitempty"`
}

// DownloadURLDTO is a presigned download link
type DownloadURLDTO struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
