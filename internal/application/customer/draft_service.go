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
	"github.com/bizconsult/crm/internal/infrastructure/debounce"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fieldFoundingDate is accepted by drafts in addition to the free-text fields
const fieldFoundingDate = "founding_date"

// DraftService persists field edits as the user types. Each (customer, field)
// pair keeps only its latest value; the write happens once the field has been
// quiet for the debounce delay, on Flush (field blur), or at shutdown.
type DraftService struct {
	repo      customer.CustomerRepository
	logs      activity.LogRepository
	eventBus  shared.EventPublisher
	debouncer *debounce.Debouncer
	logger    *zap.Logger
	now       func() time.Time
}

// NewDraftService creates a new DraftService
func NewDraftService(
	repo customer.CustomerRepository,
	logs activity.LogRepository,
	eventBus shared.EventPublisher,
	debouncer *debounce.Debouncer,
	logger *zap.Logger,
) *DraftService {
	return &DraftService{
		repo:      repo,
		logs:      logs,
		eventBus:  eventBus,
		debouncer: debouncer,
		logger:    logger,
		now:       time.Now,
	}
}

// Edit schedules a write of value to field, replacing any pending value
func (s *DraftService) Edit(ctx context.Context, customerID uuid.UUID, input DraftInput, actor activity.Actor) error {
	if input.Field != fieldFoundingDate && !customer.IsTextField(input.Field) {
		return shared.NewDomainError("INVALID_FIELD", "Field cannot be autosaved: "+input.Field)
	}
	if input.Field == fieldFoundingDate {
		if _, err := parseDraftDate(input.Value); err != nil {
			return err
		}
	}

	scope, ok := identity.ScopeFromContext(ctx)
	if !ok {
		return shared.ErrForbidden
	}
	c, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}
	if !scope.CanAccess(c.ManagerID, c.TeamID) {
		return shared.ErrNotFound
	}

	field, value := input.Field, input.Value
	task := func(taskCtx context.Context) error {
		return s.write(identity.WithScope(taskCtx, scope), customerID, field, value, actor)
	}
	return s.debouncer.Schedule(draftKey(customerID, field), task)
}

// Flush writes the pending value of field now. An empty field flushes every
// pending field of the customer.
func (s *DraftService) Flush(ctx context.Context, customerID uuid.UUID, field string) error {
	if field != "" {
		return s.debouncer.Flush(ctx, draftKey(customerID, field))
	}
	var errs []error
	for _, key := range s.keysOf(customerID) {
		if err := s.debouncer.Flush(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops pending edits without writing them. An empty field discards
// every pending field of the customer. It returns the discarded field names.
func (s *DraftService) Discard(customerID uuid.UUID, field string) []string {
	keys := []string{draftKey(customerID, field)}
	if field == "" {
		keys = s.keysOf(customerID)
	}
	var dropped []string
	for _, key := range keys {
		if s.debouncer.Cancel(key) {
			dropped = append(dropped, fieldOf(key))
		}
	}
	return dropped
}

// Pending lists the fields of a customer that have unsaved edits
func (s *DraftService) Pending(customerID uuid.UUID) []string {
	keys := s.keysOf(customerID)
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = fieldOf(k)
	}
	return fields
}

// FlushAll writes every pending edit; called on shutdown
func (s *DraftService) FlushAll(ctx context.Context) error {
	return s.debouncer.Stop(ctx)
}

// write loads the current record, applies one field and saves it. A lost
// update is retried once against the fresh version.
func (s *DraftService) write(ctx context.Context, customerID uuid.UUID, field, value string, actor activity.Actor) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = s.writeOnce(ctx, customerID, field, value, actor)
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			break
		}
	}
	if err != nil {
		s.logger.Warn("Autosave failed",
			zap.String("customer_id", customerID.String()),
			zap.String("field", field),
			zap.Error(err))
	}
	return err
}

func (s *DraftService) writeOnce(ctx context.Context, customerID uuid.UUID, field, value string, actor activity.Actor) error {
	c, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return err
	}

	var change customer.FieldChange
	if field == fieldFoundingDate {
		founding, err := parseDraftDate(value)
		if err != nil {
			return err
		}
		old := formatDate(c.FoundingDate)
		c.SetFoundingDate(founding, s.now())
		change = customer.FieldChange{Field: field, OldValue: old, NewValue: formatDate(c.FoundingDate)}
	} else {
		change, err = c.SetTextField(field, value)
		if err != nil {
			return err
		}
		if field == "registration_number" && change.NewValue != "" {
			exists, err := s.repo.ExistsByRegistrationNumber(ctx, change.NewValue, c.ID)
			if err != nil {
				return err
			}
			if exists {
				return customer.ErrDuplicateCompany
			}
		}
	}
	if change.OldValue == change.NewValue {
		return nil
	}

	if err := s.repo.SaveWithLock(ctx, c); err != nil {
		return err
	}
	recordChanges(ctx, s.logs, s.eventBus, s.logger, c, []customer.FieldChange{change}, actor)
	return nil
}

func (s *DraftService) keysOf(customerID uuid.UUID) []string {
	prefix := customerID.String() + "/"
	var keys []string
	for _, k := range s.debouncer.Keys() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func draftKey(customerID uuid.UUID, field string) string {
	return customerID.String() + "/" + field
}

func fieldOf(key string) string {
	_, field, _ := strings.Cut(key, "/")
	return field
}

// parseDraftDate accepts YYYY-MM-DD; an empty value clears the date
func parseDraftDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_DATE", "Date must be formatted as YYYY-MM-DD")
	}
	return &t, nil
}
