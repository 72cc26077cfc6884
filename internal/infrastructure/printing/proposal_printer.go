package printing

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	proposalapp "github.com/bizconsult/crm/internal/application/proposal"
	"github.com/bizconsult/crm/internal/domain/proposal"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var _ proposalapp.Printer = (*ProposalPrinter)(nil)

var templateFuncs = template.FuncMap{
	"amount": func(a proposal.Amount) string {
		if a.Value == "" {
			return "-"
		}
		return a.String()
	},
	"grade": func(g proposal.CreditGrade) string {
		if g.Grade == 0 {
			return g.Label
		}
		return fmt.Sprintf("%d등급 (%d점, %s)", g.Grade, g.Score, g.Label)
	},
}

// ProposalPrinter lays out proposals with the embedded template
type ProposalPrinter struct {
	tmpl        *template.Template
	renderer    PDFRenderer
	companyName string
}

type proposalView struct {
	*proposal.Proposal
	Meta struct {
		CompanyName string
	}
}

// NewProposalPrinter parses the template. renderer may be nil when only HTML is needed.
func NewProposalPrinter(renderer PDFRenderer, companyName string) (*ProposalPrinter, error) {
	tmpl, err := template.New("proposal.html.tmpl").Funcs(templateFuncs).ParseFS(templateFS, "templates/proposal.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("printing: parse proposal template: %w", err)
	}
	return &ProposalPrinter{tmpl: tmpl, renderer: renderer, companyName: companyName}, nil
}

// HTML renders the proposal document
func (p *ProposalPrinter) HTML(prop *proposal.Proposal) ([]byte, error) {
	if prop == nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "proposal is nil", nil)
	}
	view := proposalView{Proposal: prop}
	view.Meta.CompanyName = p.companyName

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, view); err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "execute proposal template", err)
	}
	return buf.Bytes(), nil
}

// PDF renders the proposal through the PDF renderer
func (p *ProposalPrinter) PDF(ctx context.Context, prop *proposal.Proposal) ([]byte, error) {
	if p.renderer == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "PDF rendering is not configured", nil)
	}
	doc, err := p.HTML(prop)
	if err != nil {
		return nil, err
	}
	result, err := p.renderer.Render(ctx, &RenderRequest{
		HTML:       string(doc),
		Title:      prop.Cover.Title,
		Margins:    DefaultMargins(),
		FooterHTML: `<div style="font-size:8px;width:100%;text-align:center;color:#9ca3af"><span class="pageNumber"></span> / <span class="totalPages"></span></div>`,
	})
	if err != nil {
		return nil, err
	}
	return result.PDFData, nil
}
