package proposal

import (
	"context"

	"github.com/bizconsult/crm/internal/domain/proposal"
)

// Printer lays out a generated proposal
type Printer interface {
	// HTML renders the seven pages as a standalone document
	HTML(p *proposal.Proposal) ([]byte, error)

	// PDF renders the document to A4 PDF
	PDF(ctx context.Context, p *proposal.Proposal) ([]byte, error)
}
