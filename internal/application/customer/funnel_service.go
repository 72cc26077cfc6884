package customer

import (
	"context"
	"fmt"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettlementSyncer keeps settlement items in step with a customer. It is
// implemented by the settlement application service.
type SettlementSyncer interface {
	SyncFromCustomer(ctx context.Context, c *customer.Customer, actor activity.Actor) error
	ClawbackFromCustomer(ctx context.Context, c *customer.Customer, clawbackDate time.Time, actor activity.Actor) error
}

// LongAbsenceNotifier sends the "we could not reach you" message
type LongAbsenceNotifier interface {
	NotifyCustomerLongAbsence(ctx context.Context, c *customer.Customer) (string, error)
}

// FunnelService moves customers between funnel stages and runs the side
// effects attached to the target stage.
type FunnelService struct {
	customers *CustomerService
	repo      customer.CustomerRepository
	logs      activity.LogRepository
	eventBus  shared.EventPublisher
	syncer    SettlementSyncer
	notifier  LongAbsenceNotifier
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

// NewFunnelService creates a new FunnelService. metrics may be nil.
func NewFunnelService(
	customers *CustomerService,
	repo customer.CustomerRepository,
	logs activity.LogRepository,
	eventBus shared.EventPublisher,
	syncer SettlementSyncer,
	notifier LongAbsenceNotifier,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *FunnelService {
	return &FunnelService{
		customers: customers,
		repo:      repo,
		logs:      logs,
		eventBus:  eventBus,
		syncer:    syncer,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
	}
}

// PlanTransition reports which supplementary fields entering status still needs
func (s *FunnelService) PlanTransition(ctx context.Context, id uuid.UUID, status string) (*TransitionPlanDTO, error) {
	target, err := customer.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toTransitionPlanDTO(customer.PlanTransition(c, target, customer.Supplement{}))
	return &dto, nil
}

// ChangeStatus performs a funnel transition:
//  1. missing required fields fail with CONFIRMATION_REQUIRED and nothing is written
//  2. the status and supplementary fields are persisted
//  3. history and status log entries are appended
//  4. side effects run; settlement failures fail the request, the long-absence
//     notification does not
//  5. the status change event is published
func (s *FunnelService) ChangeStatus(ctx context.Context, id uuid.UUID, input ChangeStatusInput, actor activity.Actor) (*StatusChangeResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "funnel", "change_status",
		telemetry.SpanAttrCustomerID, id.String(),
		telemetry.SpanAttrStatusTo, input.Status)
	defer span.End()

	target, err := customer.ParseStatus(input.Status)
	if err != nil {
		return nil, err
	}
	c, err := s.customers.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	from := c.Status
	telemetry.SetAttributes(span, telemetry.SpanAttrStatusFrom, string(from))

	plan, changes, err := c.ChangeStatus(target, input.Supplement(), actor.ID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		telemetry.RecordError(span, err)
		s.logger.Warn("Failed to persist status change",
			zap.String("customer_id", id.String()),
			zap.String("to", string(target)),
			zap.Error(err))
		return nil, err
	}
	s.metrics.RecordStatusTransition(ctx, string(from), string(target))

	s.appendLogs(ctx, c, from, target, changes, input.Note, actor)
	// Events are published whatever the side effects do: the write is committed.
	defer publishEvents(ctx, s.eventBus, s.logger, c)

	result := &StatusChangeResult{
		From:        string(from),
		To:          string(target),
		SideEffects: []SideEffectOutcome{},
	}
	for _, effect := range plan.Rule.SideEffects {
		outcome, err := s.runSideEffect(ctx, c, effect, actor)
		if err != nil {
			telemetry.RecordError(span, err)
			s.logger.Error("Status side effect failed after commit",
				zap.String("customer_id", id.String()),
				zap.String("effect", string(effect)),
				zap.Error(err))
			return nil, err
		}
		result.SideEffects = append(result.SideEffects, outcome)
	}

	s.logger.Info("Customer status changed",
		zap.String("customer_id", id.String()),
		zap.String("from", string(from)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID.String()))

	result.Customer = ToCustomerDTO(c)
	return result, nil
}

func (s *FunnelService) runSideEffect(ctx context.Context, c *customer.Customer, effect customer.SideEffect, actor activity.Actor) (SideEffectOutcome, error) {
	outcome := SideEffectOutcome{Effect: string(effect), Success: true}
	switch effect {
	case customer.SideEffectSettlementSync:
		if err := s.syncer.SyncFromCustomer(ctx, c, actor); err != nil {
			return outcome, fmt.Errorf("settlement sync: %w", err)
		}
	case customer.SideEffectClawback:
		if c.ClawbackDate == nil {
			return outcome, shared.NewDomainError("MISSING_CLAWBACK_DATE", "Clawback date is required")
		}
		if err := s.syncer.ClawbackFromCustomer(ctx, c, *c.ClawbackDate, actor); err != nil {
			return outcome, fmt.Errorf("clawback processing: %w", err)
		}
	case customer.SideEffectLongAbsenceNotifier:
		msg, err := s.notifier.NotifyCustomerLongAbsence(ctx, c)
		outcome.Message = msg
		if err != nil {
			outcome.Success = false
			outcome.Message = err.Error()
			s.logger.Warn("Long-absence notification failed",
				zap.String("customer_id", c.ID.String()),
				zap.Error(err))
		}
	}
	return outcome, nil
}

func (s *FunnelService) appendLogs(ctx context.Context, c *customer.Customer, from, to customer.Status, changes []customer.FieldChange, note string, actor activity.Actor) {
	entries := make([]*activity.HistoryLog, 0, len(changes))
	for _, ch := range changes {
		action := activity.ActionFieldUpdated
		if ch.Field == "status_code" {
			action = activity.ActionStatusChanged
		}
		entries = append(entries, activity.NewHistoryLog(c.ID, action, ch.Field, ch.OldValue, ch.NewValue, actor))
	}
	if err := s.logs.AppendHistory(ctx, entries...); err != nil {
		s.logger.Error("Failed to append status history", zap.String("customer_id", c.ID.String()), zap.Error(err))
	}
	if err := s.logs.AppendStatus(ctx, activity.NewStatusLog(c.ID, string(from), string(to), note, actor)); err != nil {
		s.logger.Error("Failed to append status log", zap.String("customer_id", c.ID.String()), zap.Error(err))
	}
}
