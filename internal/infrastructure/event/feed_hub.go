package event

import (
	"context"
	"sync"

	"github.com/bizconsult/crm/internal/domain/customer"
	"github.com/bizconsult/crm/internal/domain/settlement"
	"github.com/bizconsult/crm/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultFeedBuffer = 16

// FeedMessage is one server-sent event for a customer feed
type FeedMessage struct {
	Event string
	Data  []byte
}

type feedSubscriber struct {
	ch chan FeedMessage
}

// FeedHub fans customer events out to SSE subscribers of that customer.
// Slow subscribers lose messages instead of blocking the publisher.
type FeedHub struct {
	mu         sync.Mutex
	subs       map[uuid.UUID]map[*feedSubscriber]struct{}
	serializer *EventSerializer
	logger     *zap.Logger
	buffer     int
	closed     bool
}

// NewFeedHub creates a hub. buffer is the per-subscriber channel size.
func NewFeedHub(serializer *EventSerializer, logger *zap.Logger, buffer int) *FeedHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = defaultFeedBuffer
	}
	return &FeedHub{
		subs:       make(map[uuid.UUID]map[*feedSubscriber]struct{}),
		serializer: serializer,
		logger:     logger,
		buffer:     buffer,
	}
}

// EventTypes lists the events shown on a customer feed
func (h *FeedHub) EventTypes() []string {
	return []string{
		customer.EventTypeCustomerUpdated,
		customer.EventTypeCustomerStatusChanged,
		customer.EventTypeCustomerMemoAdded,
		customer.EventTypeCustomerDocumentAttached,
		customer.EventTypeCustomerDeleted,
		settlement.EventTypeSettlementSynced,
		settlement.EventTypeClawbackProcessed,
	}
}

// Handle delivers the event to subscribers of its aggregate
func (h *FeedHub) Handle(_ context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subs[event.AggregateID()]
	if len(subs) == 0 {
		return nil
	}
	data, err := h.serializer.Encode(event)
	if err != nil {
		return err
	}
	msg := FeedMessage{Event: event.EventType(), Data: data}
	for sub := range subs {
		select {
		case sub.ch <- msg:
		default:
			h.logger.Warn("feed subscriber too slow, message dropped",
				zap.String("customer_id", event.AggregateID().String()),
				zap.String("event_type", event.EventType()))
		}
	}
	return nil
}

// Subscribe returns a channel of feed messages for customerID and a cancel
// function that must be called when the client goes away.
func (h *FeedHub) Subscribe(customerID uuid.UUID) (<-chan FeedMessage, func()) {
	sub := &feedSubscriber{ch: make(chan FeedMessage, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.subs[customerID] == nil {
		h.subs[customerID] = make(map[*feedSubscriber]struct{})
	}
	h.subs[customerID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[customerID][sub]; !ok {
				return
			}
			delete(h.subs[customerID], sub)
			if len(h.subs[customerID]) == 0 {
				delete(h.subs, customerID)
			}
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of open feeds for customerID
func (h *FeedHub) Subscribers(customerID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[customerID])
}

// Close ends every open feed
func (h *FeedHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, subs := range h.subs {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.subs, id)
	}
}

var _ shared.EventHandler = (*FeedHub)(nil)
