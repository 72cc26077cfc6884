package proposal

import (
	"context"
	"fmt"
	"time"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/proposal"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProposalInput is the manager's selection for a proposal
type ProposalInput struct {
	Agencies      []proposal.Agency `json:"agencies" binding:"max=20,dive"`
	DesiredAmount *decimal.Decimal  `json:"desired_amount"` // 만원
}

// ProposalService builds funding proposals for customers
type ProposalService struct {
	customers customer.CustomerRepository
	users     identity.UserRepository
	printer   Printer
	logger    *zap.Logger
	now       func() time.Time
}

// NewProposalService creates a new ProposalService. printer may be nil when
// PDF rendering is not configured.
func NewProposalService(customers customer.CustomerRepository, users identity.UserRepository, printer Printer, logger *zap.Logger) *ProposalService {
	return &ProposalService{
		customers: customers,
		users:     users,
		printer:   printer,
		logger:    logger,
		now:       time.Now,
	}
}

// Generate returns the seven page models
func (s *ProposalService) Generate(ctx context.Context, customerID uuid.UUID, input ProposalInput) (*proposal.Proposal, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	c, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(c.ManagerID, c.TeamID) {
		return nil, shared.ErrNotFound
	}

	in := proposal.Input{
		Customer: c,
		Agencies: input.Agencies,
		Manager:  proposal.Manager{Name: c.ManagerName},
		IssuedAt: s.now(),
	}
	if input.DesiredAmount != nil {
		in.DesiredAmount = *input.DesiredAmount
	}
	if c.ManagerID != nil {
		manager, err := s.users.FindByID(ctx, *c.ManagerID)
		if err != nil {
			s.logger.Warn("Proposal manager lookup failed",
				zap.String("customer_id", c.ID.String()),
				zap.Error(err))
		} else {
			in.Manager = proposal.Manager{Name: manager.Name, Phone: manager.Phone, Email: manager.Email}
		}
	}
	return proposal.Generate(in)
}

// HTML renders the proposal as a printable page
func (s *ProposalService) HTML(ctx context.Context, customerID uuid.UUID, input ProposalInput) ([]byte, error) {
	p, err := s.Generate(ctx, customerID, input)
	if err != nil {
		return nil, err
	}
	if s.printer == nil {
		return nil, shared.NewDomainError("PRINTING_DISABLED", "Proposal printing is not configured")
	}
	return s.printer.HTML(p)
}

// PDF renders the proposal to an A4 PDF
func (s *ProposalService) PDF(ctx context.Context, customerID uuid.UUID, input ProposalInput) ([]byte, error) {
	p, err := s.Generate(ctx, customerID, input)
	if err != nil {
		return nil, err
	}
	if s.printer == nil {
		return nil, shared.NewDomainError("PRINTING_DISABLED", "Proposal printing is not configured")
	}
	pdf, err := s.printer.PDF(ctx, p)
	if err != nil {
		s.logger.Error("Proposal PDF rendering failed",
			zap.String("customer_id", customerID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("render proposal pdf: %w", err)
	}
	s.logger.Info("Proposal rendered",
		zap.String("customer_id", customerID.String()),
		zap.Int("agencies", len(input.Agencies)),
		zap.Int("bytes", len(pdf)))
	return pdf, nil
}
