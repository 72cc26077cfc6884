package notification

import (
	"context"

	notificationapp "github.com/bizconsult/crm/internal/application/notification"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var _ notificationapp.SMSSender = (*LogSender)(nil)

// LogSender stands in for the SMS provider when notifications are disabled.
// Messages are logged and never delivered.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

// Send logs the message and returns a local message ID
func (s *LogSender) Send(_ context.Context, to, text string) (string, error) {
	id := "local-" + uuid.NewString()
	s.logger.Info("SMS not delivered (notifications disabled)",
		zap.String("message_id", id),
		zap.String("to", normalizePhone(to)),
		zap.Int("length", len([]rune(text))))
	return id, nil
}
