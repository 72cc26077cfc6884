package customer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 200

// CustomerService handles customer record operations
type CustomerService struct {
	repo     customer.CustomerRepository
	logs     activity.LogRepository
	users    identity.UserRepository
	eventBus shared.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	repo customer.CustomerRepository,
	logs activity.LogRepository,
	users identity.UserRepository,
	eventBus shared.EventPublisher,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		repo:     repo,
		logs:     logs,
		users:    users,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// Create takes in a new customer. Staff are always assigned as manager of
// the customers they create; leaders and admins may assign someone else.
func (s *CustomerService) Create(ctx context.Context, input CreateCustomerInput, actor activity.Actor) (*CustomerDTO, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}

	c, err := customer.NewCustomer(input.Name, input.CompanyName, input.Phone)
	if err != nil {
		return nil, err
	}

	if input.RegistrationNumber != "" {
		if err := c.SetRegistrationNumber(input.RegistrationNumber); err != nil {
			return nil, err
		}
		if err := s.ensureUniqueRegistration(ctx, c.RegistrationNumber, c.ID); err != nil {
			return nil, err
		}
	}
	for field, value := range map[string]string{
		"email":          input.Email,
		"representative": input.Representative,
		"address":        input.Address,
		"industry":       input.Industry,
		"inflow_source":  input.InflowSource,
	} {
		if value == "" {
			continue
		}
		if _, err := c.SetTextField(field, value); err != nil {
			return nil, err
		}
	}
	if input.FoundingDate != nil {
		c.SetFoundingDate(input.FoundingDate, s.now())
	}
	if input.DesiredAmount != nil {
		if err := c.SetDesiredAmount(*input.DesiredAmount); err != nil {
			return nil, err
		}
	}

	managerID := actor.ID
	if input.ManagerID != nil && scope.Role != identity.RoleStaff {
		managerID = *input.ManagerID
	}
	if managerID != uuid.Nil {
		manager, err := s.users.FindByID(ctx, managerID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("MANAGER_NOT_FOUND", "Manager not found")
			}
			return nil, err
		}
		if !scope.CanAccess(&manager.ID, manager.TeamID) {
			return nil, shared.ErrForbidden
		}
		c.AssignManager(manager.ID, manager.Name, manager.TeamID)
	}

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.Error("Failed to create customer", zap.Error(err))
		return nil, err
	}
	s.appendHistory(ctx, activity.NewHistoryLog(c.ID, activity.ActionCreated, "", "", c.Name, actor))
	s.publish(ctx, c)

	s.logger.Info("Customer created",
		zap.String("customer_id", c.ID.String()),
		zap.String("company_name", c.CompanyName))
	dto := ToCustomerDTO(c)
	return &dto, nil
}

// GetByID returns a customer visible to the caller
func (s *CustomerService) GetByID(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToCustomerDTO(c)
	return &dto, nil
}

// Load returns the domain customer after the scope check. Other application
// services use it to share the access rule.
func (s *CustomerService) Load(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return s.load(ctx, id)
}

// List returns a page of customers within the caller's scope
func (s *CustomerService) List(ctx context.Context, input ListCustomersInput) (*shared.Paginated[CustomerListItemDTO], error) {
	if _, ok := identity.ScopeFromContext(ctx); !ok {
		return nil, shared.ErrForbidden
	}
	filter := toFilter(input)
	if input.Status != "" {
		if _, err := customer.ParseStatus(input.Status); err != nil {
			return nil, err
		}
	}

	items, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list customers", zap.Error(err))
		return nil, err
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	rows := make([]CustomerListItemDTO, len(items))
	for i := range items {
		rows[i] = ToCustomerListItemDTO(&items[i])
	}
	page := shared.NewPaginated(rows, total, filter.Page, filter.PageSize)
	return &page, nil
}

// CountByStatus returns the funnel distribution within the caller's scope
func (s *CustomerService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if _, ok := identity.ScopeFromContext(ctx); !ok {
		return nil, shared.ErrForbidden
	}
	counts, err := s.repo.CountByStatus(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for st, n := range counts {
		out[string(st)] = n
	}
	return out, nil
}

// Update applies a partial update and records one history entry per changed field
func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, input UpdateCustomerInput, actor activity.Actor) (*CustomerDTO, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var changes []customer.FieldChange
	for field, value := range input.Text {
		change, err := c.SetTextField(field, value)
		if err != nil {
			return nil, err
		}
		if change.OldValue != change.NewValue {
			changes = append(changes, change)
		}
	}
	if v, ok := input.Text["registration_number"]; ok && strings.TrimSpace(v) != "" {
		if err := s.ensureUniqueRegistration(ctx, c.RegistrationNumber, c.ID); err != nil {
			return nil, err
		}
	}

	if input.FoundingDate != nil || input.ClearFounding {
		old := formatDate(c.FoundingDate)
		founding := input.FoundingDate
		if input.ClearFounding {
			founding = nil
		}
		c.SetFoundingDate(founding, s.now())
		changes = append(changes, customer.FieldChange{Field: "founding_date", OldValue: old, NewValue: formatDate(c.FoundingDate)})
	}
	if input.CreditScore != nil && *input.CreditScore != c.CreditScore {
		old := c.CreditScore
		if err := c.SetCreditScore(*input.CreditScore); err != nil {
			return nil, err
		}
		changes = append(changes, customer.FieldChange{Field: "credit_score", OldValue: itoa(old), NewValue: itoa(c.CreditScore)})
	}
	if input.YearlySales != nil {
		if err := c.SetYearlySales(input.YearlySales); err != nil {
			return nil, err
		}
		changes = append(changes, customer.FieldChange{Field: "yearly_sales", NewValue: itoa(len(c.YearlySales)) + " years"})
	}
	if input.DesiredAmount != nil && !input.DesiredAmount.Equal(c.DesiredAmount) {
		old := c.DesiredAmount.String()
		if err := c.SetDesiredAmount(*input.DesiredAmount); err != nil {
			return nil, err
		}
		changes = append(changes, customer.FieldChange{Field: "desired_amount", OldValue: old, NewValue: c.DesiredAmount.String()})
	}
	if input.ProcessingOrgs != nil {
		old := c.PrimaryProcessingOrg()
		if err := c.SetProcessingOrgs(input.ProcessingOrgs); err != nil {
			return nil, err
		}
		changes = append(changes, customer.FieldChange{Field: "processing_orgs", OldValue: old, NewValue: c.PrimaryProcessingOrg()})
	}
	if input.ManagerID != nil && !c.IsManagedBy(*input.ManagerID) {
		change, err := s.reassign(ctx, c, *input.ManagerID)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}

	if len(changes) == 0 {
		dto := ToCustomerDTO(c)
		return &dto, nil
	}

	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		s.logger.Warn("Failed to update customer", zap.String("customer_id", id.String()), zap.Error(err))
		return nil, err
	}
	s.recordChanges(ctx, c, changes, actor)

	dto := ToCustomerDTO(c)
	return &dto, nil
}

// Delete removes a customer. Only unrestricted users may delete.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID, actor activity.Actor) error {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok || !scope.IsUnrestricted() {
		return shared.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.eventBus.Publish(ctx, customer.NewCustomerDeletedEvent(id, actor.ID)); err != nil {
		s.logger.Warn("Failed to publish customer deleted event", zap.Error(err))
	}
	s.logger.Info("Customer deleted", zap.String("customer_id", id.String()), zap.String("actor_id", actor.ID.String()))
	return nil
}

// AddMemo appends a note to the memo history
func (s *CustomerService) AddMemo(ctx context.Context, id uuid.UUID, input MemoInput, actor activity.Actor) (*customer.Memo, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	memo, err := c.AddMemo(input.Content, actor.ID, actor.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.appendHistory(ctx, activity.NewHistoryLog(c.ID, activity.ActionMemoAdded, "memo_history", "", truncate(memo.Content, 100), actor))
	s.publish(ctx, c)
	return memo, nil
}

// AddCounseling appends a counseling note to the activity log
func (s *CustomerService) AddCounseling(ctx context.Context, id uuid.UUID, input CounselingInput, actor activity.Actor) (*CounselingDTO, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	entry, err := activity.NewCounselingLog(c.ID, activity.CounselingChannel(input.Channel), input.Content, actor)
	if err != nil {
		return nil, err
	}
	if err := s.logs.AppendCounseling(ctx, entry); err != nil {
		s.logger.Error("Failed to append counseling log", zap.String("customer_id", id.String()), zap.Error(err))
		return nil, err
	}
	dto := toCounselingDTO(entry)
	return &dto, nil
}

// ReplaceObligations replaces the loan and guarantee lines
func (s *CustomerService) ReplaceObligations(ctx context.Context, id uuid.UUID, obligations []customer.FinancialObligation, actor activity.Actor) (*CustomerDTO, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	old := c.TotalObligationBalance()
	if err := c.ReplaceObligations(obligations); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return nil, err
	}
	s.recordChanges(ctx, c, []customer.FieldChange{{
		Field:    "financial_obligations",
		OldValue: old.String(),
		NewValue: c.TotalObligationBalance().String(),
	}}, actor)
	dto := ToCustomerDTO(c)
	return &dto, nil
}

// Activity returns the audit trail of a customer, newest first
func (s *CustomerService) Activity(ctx context.Context, id uuid.UUID) (*ActivityDTO, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	history, err := s.logs.ListHistory(ctx, id, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	statuses, err := s.logs.ListStatus(ctx, id, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}
	counseling, err := s.logs.ListCounseling(ctx, id, defaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	out := &ActivityDTO{
		History:    make([]HistoryDTO, len(history)),
		Status:     make([]StatusLogDTO, len(statuses)),
		Counseling: make([]CounselingDTO, len(counseling)),
	}
	for i, h := range history {
		out.History[i] = HistoryDTO{
			ID:        h.ID,
			Action:    string(h.Action),
			Field:     h.Field,
			OldValue:  h.OldValue,
			NewValue:  h.NewValue,
			ActorID:   h.ActorID,
			ActorName: h.ActorName,
			CreatedAt: h.CreatedAt,
		}
	}
	for i, st := range statuses {
		out.Status[i] = StatusLogDTO{
			ID:         st.ID,
			FromStatus: st.FromStatus,
			ToStatus:   st.ToStatus,
			ActorID:    st.ActorID,
			ActorName:  st.ActorName,
			Note:       st.Note,
			CreatedAt:  st.CreatedAt,
		}
	}
	for i := range counseling {
		out.Counseling[i] = toCounselingDTO(&counseling[i])
	}
	return out, nil
}

func (s *CustomerService) load(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(c.ManagerID, c.TeamID) {
		// Hide existence from callers outside the scope
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (s *CustomerService) reassign(ctx context.Context, c *customer.Customer, managerID uuid.UUID) (customer.FieldChange, error) {
	scope, _ := identity.ScopeFromContext(ctx)
	if scope.Role == identity.RoleStaff {
		return customer.FieldChange{}, shared.ErrForbidden
	}
	manager, err := s.users.FindByID(ctx, managerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return customer.FieldChange{}, shared.NewDomainError("MANAGER_NOT_FOUND", "Manager not found")
		}
		return customer.FieldChange{}, err
	}
	if !scope.CanAccess(&manager.ID, manager.TeamID) {
		return customer.FieldChange{}, shared.ErrForbidden
	}
	old := c.ManagerName
	c.AssignManager(manager.ID, manager.Name, manager.TeamID)
	return customer.FieldChange{Field: "manager", OldValue: old, NewValue: manager.Name}, nil
}

func (s *CustomerService) ensureUniqueRegistration(ctx context.Context, number string, excludeID uuid.UUID) error {
	exists, err := s.repo.ExistsByRegistrationNumber(ctx, number, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return customer.ErrDuplicateCompany
	}
	return nil
}

// recordChanges writes one history entry per field and publishes the update event
func (s *CustomerService) recordChanges(ctx context.Context, c *customer.Customer, changes []customer.FieldChange, actor activity.Actor) {
	recordChanges(ctx, s.logs, s.eventBus, s.logger, c, changes, actor)
}

func (s *CustomerService) appendHistory(ctx context.Context, logs ...*activity.HistoryLog) {
	if err := s.logs.AppendHistory(ctx, logs...); err != nil {
		s.logger.Error("Failed to append history", zap.Error(err))
	}
}

func (s *CustomerService) publish(ctx context.Context, c *customer.Customer) {
	publishEvents(ctx, s.eventBus, s.logger, c)
}

func toFilter(input ListCustomersInput) shared.Filter {
	filter := shared.DefaultFilter()
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if input.OrderBy != "" {
		filter.OrderBy = input.OrderBy
	}
	if input.OrderDir != "" {
		filter.OrderDir = input.OrderDir
	}
	filter.Search = input.Search
	if input.Status != "" {
		filter.Filters[customer.FilterStatus] = input.Status
	}
	if input.ManagerID != nil {
		filter.Filters[customer.FilterManagerID] = *input.ManagerID
	}
	if input.TeamID != nil {
		filter.Filters[customer.FilterTeamID] = *input.TeamID
	}
	if input.CreatedFrom != nil {
		filter.Filters[customer.FilterFrom] = *input.CreatedFrom
	}
	if input.CreatedTo != nil {
		// inclusive end date
		filter.Filters[customer.FilterTo] = input.CreatedTo.AddDate(0, 0, 1)
	}
	return filter
}
