package customer

import "github.com/bizconsult/crm/internal/domain/shared"

var (
	ErrUnknownStatus    = shared.NewDomainError("INVALID_STATUS", "Unknown customer status")
	ErrDocumentNotFound = shared.NewDomainError("DOCUMENT_NOT_FOUND", "Document not found")
	ErrDuplicateCompany = shared.NewDomainError("DUPLICATE_REGISTRATION_NUMBER", "A customer with this registration number already exists")
)
