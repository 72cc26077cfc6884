package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/proposal"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error {
	return m.Called().Error(0)
}

func sampleProposal(t *testing.T) *proposal.Proposal {
	t.Helper()
	issued := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	c, err := customer.NewCustomer("김대표", "한빛산업 <주>", "010-2222-3333")
	require.NoError(t, err)
	require.NoError(t, c.SetCreditScore(850))
	require.NoError(t, c.SetYearlySales([]customer.YearlySales{{Year: 2024, AmountEok: decimal.NewFromInt(10)}}))

	p, err := proposal.Generate(proposal.Input{
		Customer: c,
		Agencies: []proposal.Agency{{Name: "중소벤처기업진흥공단", Program: "혁신성장", Amount: decimal.NewFromInt(15000)}},
		Manager:  proposal.Manager{Name: "홍길동", Phone: "010-1111-2222"},
		IssuedAt: issued,
	})
	require.NoError(t, err)
	return p
}

func TestProposalPrinter_HTML(t *testing.T) {
	printer, err := NewProposalPrinter(nil, "비즈컨설팅")
	require.NoError(t, err)

	out, err := printer.HTML(sampleProposal(t))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "비즈컨설팅")
	assert.Contains(t, html, "한빛산업 &lt;주&gt;", "customer text is escaped")
	assert.Contains(t, html, "중소벤처기업진흥공단")
	assert.Contains(t, html, "1.5억원")
	assert.Contains(t, html, "2025년 06월 01일")
	assert.Equal(t, 7, strings.Count(html, `<section class="page`))
}

func TestProposalPrinter_PDF(t *testing.T) {
	renderer := new(MockPDFRenderer)
	renderer.On("Render", mock.Anything, mock.MatchedBy(func(req *RenderRequest) bool {
		return req.Margins == DefaultMargins() && req.FooterHTML != "" && req.Title != ""
	})).Return(&RenderResult{PDFData: []byte("%PDF-1.4"), PageCount: 7}, nil)

	printer, err := NewProposalPrinter(renderer, "비즈컨설팅")
	require.NoError(t, err)

	pdf, err := printer.PDF(context.Background(), sampleProposal(t))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), pdf)
	renderer.AssertExpectations(t)
}

func TestProposalPrinter_PDFErrors(t *testing.T) {
	t.Run("renderer not configured", func(t *testing.T) {
		printer, err := NewProposalPrinter(nil, "")
		require.NoError(t, err)
		_, err = printer.PDF(context.Background(), sampleProposal(t))
		var renderErr *RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, ErrCodeRenderFailed, renderErr.Code)
	})

	t.Run("renderer failure propagates", func(t *testing.T) {
		renderer := new(MockPDFRenderer)
		renderer.On("Render", mock.Anything, mock.Anything).
			Return(nil, NewRenderError(ErrCodeRenderTimeout, "timed out", nil))

		printer, err := NewProposalPrinter(renderer, "")
		require.NoError(t, err)
		_, err = printer.PDF(context.Background(), sampleProposal(t))
		var renderErr *RenderError
		require.True(t, errors.As(err, &renderErr))
		assert.Equal(t, ErrCodeRenderTimeout, renderErr.Code)
	})

	t.Run("nil proposal", func(t *testing.T) {
		printer, err := NewProposalPrinter(nil, "")
		require.NoError(t, err)
		_, err = printer.HTML(nil)
		assert.Error(t, err)
	})
}
