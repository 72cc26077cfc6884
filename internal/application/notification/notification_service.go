package notification

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/bizconsult/crm/internal/domain/activity"
	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/bizconsult/crm/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const (
	outcomeSent         = "sent"
	outcomeFailed       = "failed"
	outcomeDeduplicated = "deduplicated"

	defaultDedupWindow = 24 * time.Hour
)

var templates = map[Kind]*template.Template{
	KindBusinessCard: template.Must(template.New("business_card").Parse(
		"[{{.Sender}}] 안녕하세요 {{.Name}} 대표님, 담당 컨설턴트 {{.ManagerName}}입니다.\n" +
			"{{if .ManagerPhone}}연락처: {{.ManagerPhone}}\n{{end}}" +
			"정책자금 관련 문의는 언제든 편하게 연락 주세요.")),
	KindLongAbsence: template.Must(template.New("long_absence").Parse(
		"[{{.Sender}}] {{.Name}} 대표님, 여러 차례 연락드렸으나 통화가 어려워 문자 남깁니다.\n" +
			"상담을 원하시면 {{if .ManagerName}}{{.ManagerName}} 컨설턴트{{else}}담당자{{end}}" +
			"{{if .ManagerPhone}}({{.ManagerPhone}}){{end}}에게 연락 부탁드립니다.")),
}

type templateData struct {
	MessageInput
	Sender string
}

// Options configures the notification service
type Options struct {
	// DedupWindow is how long the same (kind, phone) pair is suppressed
	DedupWindow time.Duration
	// Sender is the company name shown in the message prefix
	Sender string
}

// NotificationService renders and dispatches customer text messages
type NotificationService struct {
	sender  SMSSender
	dedupe  DedupeStore
	users   identity.UserRepository
	logs    activity.LogRepository
	opts    Options
	metrics *telemetry.BusinessMetrics
	logger  *zap.Logger
}

// NewNotificationService creates a new NotificationService. metrics may be nil.
func NewNotificationService(
	sender SMSSender,
	dedupe DedupeStore,
	users identity.UserRepository,
	logs activity.LogRepository,
	opts Options,
	metrics *telemetry.BusinessMetrics,
	logger *zap.Logger,
) *NotificationService {
	if opts.DedupWindow <= 0 {
		opts.DedupWindow = defaultDedupWindow
	}
	return &NotificationService{
		sender:  sender,
		dedupe:  dedupe,
		users:   users,
		logs:    logs,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

// SendBusinessCard sends the consultant's contact card
func (s *NotificationService) SendBusinessCard(ctx context.Context, input MessageInput, actor activity.Actor) (*SendResult, error) {
	return s.send(ctx, KindBusinessCard, input, actor)
}

// SendLongAbsence sends the "we could not reach you" message
func (s *NotificationService) SendLongAbsence(ctx context.Context, input MessageInput, actor activity.Actor) (*SendResult, error) {
	return s.send(ctx, KindLongAbsence, input, actor)
}

// NotifyCustomerLongAbsence is run by the funnel when a customer enters the
// long-absence status. A suppressed duplicate is not an error.
func (s *NotificationService) NotifyCustomerLongAbsence(ctx context.Context, c *customer.Customer) (string, error) {
	if strings.TrimSpace(c.Phone) == "" {
		return "", shared.NewDomainError("MISSING_PHONE", "Customer has no phone number")
	}
	input := MessageInput{
		Phone:       c.Phone,
		Name:        c.Name,
		CompanyName: c.CompanyName,
		ManagerName: c.ManagerName,
		CustomerID:  &c.ID,
	}
	if c.ManagerID != nil && s.users != nil {
		if manager, err := s.users.FindByID(ctx, *c.ManagerID); err == nil {
			input.ManagerName = manager.Name
			input.ManagerPhone = manager.Phone
		} else {
			s.logger.Debug("Manager lookup failed for long-absence message",
				zap.String("manager_id", c.ManagerID.String()),
				zap.Error(err))
		}
	}

	result, err := s.send(ctx, KindLongAbsence, input, activity.SystemActor)
	if err != nil {
		return "", err
	}
	return result.Message, nil
}

func (s *NotificationService) send(ctx context.Context, kind Kind, input MessageInput, actor activity.Actor) (*SendResult, error) {
	text, err := render(kind, templateData{MessageInput: input, Sender: s.opts.Sender})
	if err != nil {
		return nil, err
	}

	key := dedupeKey(kind, input.Phone)
	reserved, err := s.dedupe.Reserve(ctx, key, s.opts.DedupWindow)
	if err != nil {
		// the store being down must not block sending
		s.logger.Warn("Dedupe store unavailable, sending without suppression", zap.String("kind", string(kind)), zap.Error(err))
		reserved = true
	}
	if !reserved {
		s.metrics.RecordNotification(ctx, string(kind), outcomeDeduplicated)
		s.logger.Info("Notification suppressed as duplicate",
			zap.String("kind", string(kind)),
			zap.String("phone", maskPhone(input.Phone)))
		return &SendResult{Success: true, Deduplicated: true, Message: "최근에 이미 발송된 메시지입니다"}, nil
	}

	messageID, err := s.sender.Send(ctx, input.Phone, text)
	if err != nil {
		if rerr := s.dedupe.Release(ctx, key); rerr != nil {
			s.logger.Warn("Failed to release dedupe key", zap.String("key", key), zap.Error(rerr))
		}
		s.metrics.RecordNotification(ctx, string(kind), outcomeFailed)
		s.logger.Warn("Notification send failed",
			zap.String("kind", string(kind)),
			zap.String("phone", maskPhone(input.Phone)),
			zap.Error(err))
		return nil, shared.ErrExternalService.WithDetails(map[string]any{"provider": "sms", "reason": err.Error()})
	}

	s.metrics.RecordNotification(ctx, string(kind), outcomeSent)
	if input.CustomerID != nil && s.logs != nil {
		entry := activity.NewHistoryLog(*input.CustomerID, activity.ActionNotification, string(kind), "", messageID, actor)
		if err := s.logs.AppendHistory(ctx, entry); err != nil {
			s.logger.Error("Failed to record notification history", zap.Error(err))
		}
	}
	s.logger.Info("Notification sent",
		zap.String("kind", string(kind)),
		zap.String("message_id", messageID),
		zap.String("phone", maskPhone(input.Phone)))
	return &SendResult{Success: true, MessageID: messageID, Message: "발송되었습니다"}, nil
}

func render(kind Kind, data templateData) (string, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return "", shared.NewDomainError("UNKNOWN_TEMPLATE", fmt.Sprintf("Unknown message kind %q", kind))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s message: %w", kind, err)
	}
	return buf.String(), nil
}

func dedupeKey(kind Kind, phone string) string {
	return "notify:" + string(kind) + ":" + digitsOnly(phone)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// maskPhone keeps the last four digits for logs
func maskPhone(phone string) string {
	d := digitsOnly(phone)
	if len(d) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(d)-4) + d[len(d)-4:]
}
