package event

import (
	"context"
	"errors"
	"testing"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMessageWriter struct {
	mock.Mock
}

func (m *MockMessageWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockMessageWriter) Close() error {
	return m.Called().Error(0)
}

func TestKafkaForwarder_Handle(t *testing.T) {
	writer := new(MockMessageWriter)
	event := statusEvent(t)

	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		m := msgs[0]
		return m.Topic == "crm.test" &&
			string(m.Key) == event.CustomerID.String() &&
			string(m.Headers[0].Value) == customer.EventTypeCustomerStatusChanged &&
			len(m.Value) > 0
	})).Return(nil).Once()

	f := NewKafkaForwarder(writer, "crm.test", newRegisteredSerializer(), nil)
	require.NoError(t, f.Handle(context.Background(), event))
	writer.AssertExpectations(t)
}

func TestKafkaForwarder_WriteFailureIsSwallowed(t *testing.T) {
	writer := new(MockMessageWriter)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	f := NewKafkaForwarder(writer, "", newRegisteredSerializer(), nil)
	assert.Equal(t, "crm.events", f.topic)
	assert.NoError(t, f.Handle(context.Background(), statusEvent(t)))
}

func TestKafkaForwarder_SurvivesCancelledRequest(t *testing.T) {
	writer := new(MockMessageWriter)
	writer.On("WriteMessages", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything).Return(nil).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewKafkaForwarder(writer, "crm.test", newRegisteredSerializer(), nil)
	require.NoError(t, f.Handle(ctx, statusEvent(t)))
	writer.AssertExpectations(t)
}

func TestKafkaForwarder_EventTypes(t *testing.T) {
	f := NewKafkaForwarder(new(MockMessageWriter), "t", NewEventSerializer(), nil)
	assert.ElementsMatch(t, []string{
		customer.EventTypeCustomerStatusChanged,
		settlement.EventTypeSettlementSynced,
		settlement.EventTypeClawbackProcessed,
	}, f.EventTypes())
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	defer w.Close()
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Equal(t, "localhost:9092", w.Addr.String())
}
