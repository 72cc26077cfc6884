package settlement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	totalLabel      = "합계"
	noTeamLabel     = "팀 미지정"
	defaultLockTTL  = 30 * time.Second
	lockKeyTemplate = "settlement:customer:%s"
)

// Options tunes the settlement service
type Options struct {
	LockTTL time.Duration
	// DefaultRate is the commission rate (%) used when a manager has none set
	DefaultRate decimal.Decimal
}

// SettlementService keeps settlement items in step with customers and
// serves the aggregated views.
type SettlementService struct {
	items     settlement.ItemRepository
	customers customer.CustomerRepository
	users     identity.UserRepository
	teams     identity.TeamRepository
	logs      activity.LogRepository
	eventBus  shared.EventPublisher
	locker    Locker
	exporter  Exporter
	opts      Options
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

// NewSettlementService creates a new SettlementService. metrics may be nil.
func NewSettlementService(
	items settlement.ItemRepository,
	customers customer.CustomerRepository,
	users identity.UserRepository,
	teams identity.TeamRepository,
	logs activity.LogRepository,
	eventBus shared.EventPublisher,
	locker Locker,
	exporter Exporter,
	opts Options,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *SettlementService {
	if opts.LockTTL <= 0 {
		opts.LockTTL = defaultLockTTL
	}
	return &SettlementService{
		items:     items,
		customers: customers,
		users:     users,
		teams:     teams,
		logs:      logs,
		eventBus:  eventBus,
		locker:    locker,
		exporter:  exporter,
		opts:      opts,
		metrics:   metrics,
		logger:    logger,
	}
}

// SyncFromCustomer upserts the contract and execution items derived from c
func (s *SettlementService) SyncFromCustomer(ctx context.Context, c *customer.Customer, actor activity.Actor) error {
	_, err := s.sync(ctx, c, actor)
	return err
}

// SyncCustomer re-derives a customer's items on demand
func (s *SettlementService) SyncCustomer(ctx context.Context, customerID uuid.UUID, actor activity.Actor) (*SyncResultDTO, error) {
	c, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	plan, err := s.sync(ctx, c, actor)
	if err != nil {
		return nil, err
	}
	ev := settlement.NewSyncedEvent(c.ID, actor.ID, plan)
	return &SyncResultDTO{
		CustomerID: c.ID,
		Upserted:   ev.Upserted,
		Deleted:    ev.Deleted,
		Periods:    nonNilStrings(ev.Periods),
	}, nil
}

func (s *SettlementService) sync(ctx context.Context, c *customer.Customer, actor activity.Actor) (settlement.SyncPlan, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "sync",
		telemetry.SpanAttrCustomerID, c.ID.String())
	defer span.End()

	var plan settlement.SyncPlan
	err := s.withLock(ctx, c.ID, func() error {
		existing, err := s.items.FindByCustomer(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load settlement items: %w", err)
		}
		policy, managerName := s.policyFor(ctx, c)
		src := sourceOf(c, managerName)

		plan = settlement.PlanSync(src, policy, existing)
		if plan.IsEmpty() {
			return nil
		}
		if err := s.items.ApplySync(ctx, plan); err != nil {
			return fmt.Errorf("save settlement items: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return plan, err
	}
	if plan.IsEmpty() {
		s.logger.Debug("Settlement already in sync", zap.String("customer_id", c.ID.String()))
		return plan, nil
	}

	s.metrics.RecordSettlementSync(ctx, len(plan.Upserts), len(plan.Deletes))
	s.appendHistory(ctx, activity.NewHistoryLog(c.ID, activity.ActionSettlement, "settlement", "",
		fmt.Sprintf("upserted=%d deleted=%d", len(plan.Upserts), len(plan.Deletes)), actor))
	s.publish(ctx, settlement.NewSyncedEvent(c.ID, actor.ID, plan))

	s.logger.Info("Settlement synced",
		zap.String("customer_id", c.ID.String()),
		zap.Int("upserted", len(plan.Upserts)),
		zap.Int("deleted", len(plan.Deletes)))
	return plan, nil
}

// ClawbackFromCustomer reverses every paid item of c in the clawback date's period
func (s *SettlementService) ClawbackFromCustomer(ctx context.Context, c *customer.Customer, clawbackDate time.Time, actor activity.Actor) error {
	_, err := s.clawback(ctx, c.ID, clawbackDate, actor)
	return err
}

// ProcessClawback loads the customer and reverses its paid items
func (s *SettlementService) ProcessClawback(ctx context.Context, customerID uuid.UUID, input ClawbackInput, actor activity.Actor) (*ClawbackResultDTO, error) {
	c, err := s.loadCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	created, err := s.clawback(ctx, c.ID, input.ClawbackDate, actor)
	if err != nil {
		return nil, err
	}
	result := &ClawbackResultDTO{
		CustomerID: c.ID,
		Period:     settlement.PeriodOf(input.ClawbackDate),
		Items:      make([]ItemDTO, len(created)),
	}
	for i, it := range created {
		result.Items[i] = ToItemDTO(*it)
	}
	return result, nil
}

func (s *SettlementService) clawback(ctx context.Context, customerID uuid.UUID, clawbackDate time.Time, actor activity.Actor) ([]*settlement.Item, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "settlement", "clawback",
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrPeriod, settlement.PeriodOf(clawbackDate))
	defer span.End()

	var created []*settlement.Item
	err := s.withLock(ctx, customerID, func() error {
		existing, err := s.items.FindByCustomer(ctx, customerID)
		if err != nil {
			return fmt.Errorf("load settlement items: %w", err)
		}
		created = settlement.PlanClawback(existing, clawbackDate)
		if len(created) == 0 {
			return nil
		}
		if err := s.items.SaveAll(ctx, created); err != nil {
			return fmt.Errorf("save clawback items: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if len(created) == 0 {
		s.logger.Info("No settlement items to claw back", zap.String("customer_id", customerID.String()))
		return created, nil
	}

	ev := settlement.NewClawbackProcessedEvent(customerID, actor.ID, clawbackDate, created)
	s.metrics.RecordClawback(ctx, len(created))
	s.appendHistory(ctx, activity.NewHistoryLog(customerID, activity.ActionClawback, "settlement", "",
		fmt.Sprintf("period=%s count=%d amount=%s", ev.Period, ev.Count, ev.Amount.String()), actor))
	s.publish(ctx, ev)

	s.logger.Info("Clawback processed",
		zap.String("customer_id", customerID.String()),
		zap.String("period", ev.Period),
		zap.Int("count", ev.Count))
	return created, nil
}

// Summary returns per-manager summaries, the team roll-up and the total for a period
func (s *SettlementService) Summary(ctx context.Context, q PeriodQuery) (*SummaryDTO, error) {
	period, items, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	managers := settlement.AggregateByManager(items, period.Label)
	return &SummaryDTO{
		Period:   period.Label,
		Scope:    string(period.Scope),
		Months:   period.Months,
		Managers: managers,
		Teams:    s.teamRollup(ctx, items, period.Label),
		Total:    settlement.Total(managers, totalLabel, period.Label),
	}, nil
}

// Items lists the settlement detail rows of a period
func (s *SettlementService) Items(ctx context.Context, q PeriodQuery) ([]ItemDTO, error) {
	_, items, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]ItemDTO, len(items))
	for i, it := range items {
		out[i] = ToItemDTO(it)
	}
	return out, nil
}

// Export writes the period's detail rows and manager summaries as a workbook
func (s *SettlementService) Export(ctx context.Context, w io.Writer, q PeriodQuery) error {
	period, items, err := s.load(ctx, q)
	if err != nil {
		return err
	}
	summaries := settlement.AggregateByManager(items, period.Label)
	summaries = append(summaries, settlement.Total(summaries, totalLabel, period.Label))
	if err := s.exporter.Write(w, period.Label, items, summaries); err != nil {
		return fmt.Errorf("write settlement workbook: %w", err)
	}
	return nil
}

// load resolves the period and reads the caller-visible items of every month
// in it. Staff are pinned to their own items and team leaders to their team.
func (s *SettlementService) load(ctx context.Context, q PeriodQuery) (settlement.Period, []settlement.Item, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return settlement.Period{}, nil, shared.ErrForbidden
	}
	period, err := settlement.ParsePeriod(q.Period)
	if err != nil {
		return settlement.Period{}, nil, err
	}

	filter := settlement.ItemFilter{Periods: period.Months, ManagerID: q.ManagerID, TeamID: q.TeamID}
	switch scope.Role {
	case identity.RoleSuperAdmin:
	case identity.RoleTeamLeader:
		if scope.TeamID == nil {
			filter.ManagerID = &scope.UserID
		} else {
			filter.TeamID = scope.TeamID
		}
	default:
		filter.ManagerID = &scope.UserID
	}

	items, err := s.items.FindByPeriods(ctx, filter)
	if err != nil {
		return settlement.Period{}, nil, err
	}
	byMonth := make(map[string][]settlement.Item, len(period.Months))
	for _, it := range items {
		byMonth[it.Period] = append(byMonth[it.Period], it)
	}
	return period, settlement.FlattenPeriods(byMonth, period.Months), nil
}

func (s *SettlementService) teamRollup(ctx context.Context, items []settlement.Item, period string) []TeamSummaryDTO {
	byTeam := map[uuid.UUID][]settlement.Item{}
	for _, it := range items {
		key := uuid.Nil
		if it.TeamID != nil {
			key = *it.TeamID
		}
		byTeam[key] = append(byTeam[key], it)
	}

	names := map[uuid.UUID]string{}
	if len(byTeam) > 0 {
		teams, err := s.teams.FindAll(ctx)
		if err != nil {
			s.logger.Warn("Failed to load team names for roll-up", zap.Error(err))
		}
		for _, t := range teams {
			names[t.ID] = t.Name
		}
	}

	out := make([]TeamSummaryDTO, 0, len(byTeam))
	for id, teamItems := range byTeam {
		dto := TeamSummaryDTO{TeamName: noTeamLabel}
		if id != uuid.Nil {
			teamID := id
			dto.TeamID = &teamID
			dto.TeamName = names[id]
			if dto.TeamName == "" {
				dto.TeamName = id.String()
			}
		}
		dto.Managers = settlement.AggregateByManager(teamItems, period)
		dto.Total = settlement.Total(dto.Managers, dto.TeamName, period)
		out = append(out, dto)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].TeamID == nil) != (out[j].TeamID == nil) {
			return out[j].TeamID == nil
		}
		return out[i].TeamName < out[j].TeamName
	})
	return out
}

// policyFor returns the manager's commission policy with unset rates
// replaced by the default rate.
func (s *SettlementService) policyFor(ctx context.Context, c *customer.Customer) (settlement.CommissionPolicy, string) {
	policy := settlement.CommissionPolicy{}
	managerName := c.ManagerName
	if c.ManagerID != nil {
		manager, err := s.users.FindByID(ctx, *c.ManagerID)
		switch {
		case err == nil:
			policy = manager.CommissionPolicy()
			managerName = manager.Name
		case errors.Is(err, shared.ErrNotFound):
			s.logger.Warn("Customer manager not found, using default commission rate",
				zap.String("customer_id", c.ID.String()),
				zap.String("manager_id", c.ManagerID.String()))
		default:
			s.logger.Warn("Failed to load manager commission policy",
				zap.String("manager_id", c.ManagerID.String()),
				zap.Error(err))
		}
	}
	if !policy.ContractRate.IsPositive() {
		policy.ContractRate = s.opts.DefaultRate
	}
	if !policy.ExecutionRate.IsPositive() {
		policy.ExecutionRate = s.opts.DefaultRate
	}
	if !policy.OutsourcingRate.IsPositive() {
		policy.OutsourcingRate = s.opts.DefaultRate
	}
	return policy, managerName
}

func (s *SettlementService) withLock(ctx context.Context, customerID uuid.UUID, fn func() error) error {
	lock, err := s.locker.Obtain(ctx, fmt.Sprintf(lockKeyTemplate, customerID), s.opts.LockTTL)
	if err != nil {
		if errors.Is(err, ErrLockNotObtained) {
			return shared.ErrConcurrencyConflict.WithDetails(map[string]any{"customer_id": customerID.String()})
		}
		return fmt.Errorf("obtain settlement lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release settlement lock",
				zap.String("customer_id", customerID.String()),
				zap.Error(err))
		}
	}()
	return fn()
}

func (s *SettlementService) loadCustomer(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return nil, shared.ErrForbidden
	}
	c, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.CanAccess(c.ManagerID, c.TeamID) {
		return nil, shared.ErrNotFound
	}
	return c, nil
}

func (s *SettlementService) appendHistory(ctx context.Context, entry *activity.HistoryLog) {
	if err := s.logs.AppendHistory(ctx, entry); err != nil {
		s.logger.Error("Failed to append settlement history",
			zap.String("customer_id", entry.CustomerID.String()),
			zap.Error(err))
	}
}

func (s *SettlementService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish settlement events", zap.Error(err))
	}
}

func sourceOf(c *customer.Customer, managerName string) settlement.Source {
	src := settlement.Source{
		CustomerID:      c.ID,
		CustomerName:    c.Name,
		CompanyName:     c.CompanyName,
		ManagerName:     managerName,
		TeamID:          c.TeamID,
		ContractType:    string(c.ContractType),
		ContractDate:    c.ContractDate,
		ContractAmount:  c.ContractAmount,
		ExecutionDate:   c.ExecutionDate,
		ExecutionAmount: c.ExecutionAmount,
		FeeRate:         c.FeeRate,
		ProcessingOrg:   c.PrimaryProcessingOrg(),
	}
	if c.ManagerID != nil {
		src.ManagerID = *c.ManagerID
	}
	return src
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
