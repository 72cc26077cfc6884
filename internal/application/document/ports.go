package document

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/google/uuid"
)

var (
	// ErrObjectNotFound is returned by ObjectStorage when a key does not exist
	ErrObjectNotFound = errors.New("object not found")

	// ErrUnsupportedContent is returned by Extractor for payloads it cannot read
	ErrUnsupportedContent = errors.New("unsupported content type for extraction")
)

// ContentTypePDF is the content type of PDF uploads
const ContentTypePDF = "application/pdf"

// Readable reports whether an Extractor can read contentType: images and PDFs
func Readable(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	return strings.HasPrefix(ct, "image/") || ct == ContentTypePDF
}

// ObjectStorage defines the object storage operations used for customer documents.
// It is implemented by the infrastructure layer (S3 or in-memory).
type ObjectStorage interface {
	// ObjectKey builds the key a document is stored under
	ObjectKey(customerID, documentID uuid.UUID, fileName string) string

	// Upload stores data under key
	Upload(ctx context.Context, key string, data []byte, contentType string) error

	// Download reads the object stored under key
	Download(ctx context.Context, key string) ([]byte, error)

	// GenerateDownloadURL returns a time-limited download URL
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject removes the object stored under key
	DeleteObject(ctx context.Context, key string) error
}

// ImageNormalizer prepares uploaded images for storage and OCR
type ImageNormalizer interface {
	// Normalize returns the re-encoded payload and its content type.
	// Non-image payloads are returned unchanged.
	Normalize(data []byte, contentType string) ([]byte, string, error)
}

// Extractor reads structured fields out of a document image
type Extractor interface {
	Extract(ctx context.Context, kind customer.DocumentKind, data []byte, contentType string) (*Extraction, error)
}

// BusinessRegistration holds the fields printed on a business registration certificate
type BusinessRegistration struct {
	CompanyName        string
	RegistrationNumber string
	CorporateNumber    string
	Representative     string
	Address            string
	Industry           string
	FoundingDate       *time.Time
}

// Extraction is the structured result of reading one document.
// Only the part matching Kind is populated.
type Extraction struct {
	Kind         customer.DocumentKind
	Registration *BusinessRegistration
	Sales        []customer.YearlySales
	Obligations  []customer.FinancialObligation
}

// IsEmpty reports whether nothing usable was extracted
func (e *Extraction) IsEmpty() bool {
	return e == nil || (e.Registration == nil && len(e.Sales) == 0 && len(e.Obligations) == 0)
}
