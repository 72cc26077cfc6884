package handler

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	appcustomer "github.com/bizconsult/crm/internal/application/customer"
	"github.com/bizconsult/crm/internal/infrastructure/event"
	"github.com/bizconsult/crm/internal/infrastructure/logger"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerFeed hands out per-customer event subscriptions
type CustomerFeed interface {
	Subscribe(customerID uuid.UUID) (<-chan event.FeedMessage, func())
}

// FeedHandler streams customer changes to the detail page over SSE
type FeedHandler struct {
	BaseHandler
	customerService *appcustomer.CustomerService
	feed            CustomerFeed
	heartbeat       time.Duration
	maxClients      int64
	clients         atomic.Int64
}

// FeedOption is a functional option for configuring the handler
type FeedOption func(*FeedHandler)

// WithFeedHeartbeat sets the heartbeat interval
func WithFeedHeartbeat(interval time.Duration) FeedOption {
	return func(h *FeedHandler) {
		h.heartbeat = interval
	}
}

// WithFeedMaxClients caps concurrent streams; zero means unlimited
func WithFeedMaxClients(max int64) FeedOption {
	return func(h *FeedHandler) {
		h.maxClients = max
	}
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(customerService *appcustomer.CustomerService, feed CustomerFeed, opts ...FeedOption) *FeedHandler {
	h := &FeedHandler{
		customerService: customerService,
		feed:            feed,
		heartbeat:       30 * time.Second,
		maxClients:      1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Stream godoc
// @Summary      Subscribe to changes of one customer via SSE
// @Description  EventSource cannot send headers, so the token may be passed as ?access_token=
// @Tags         customers
// @Produce      text/event-stream
// @Security     BearerAuth
// @Router       /customers/{id}/feed [get]
func (h *FeedHandler) Stream(c *gin.Context) {
	id, ok := h.paramUUID(c, "id")
	if !ok {
		return
	}
	if _, err := h.customerService.Load(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	if n := h.clients.Add(1); h.maxClients > 0 && n > h.maxClients {
		h.clients.Add(-1)
		h.Error(c, http.StatusServiceUnavailable, "MAX_CONNECTIONS_REACHED", "Maximum number of feed connections reached")
		return
	}
	defer h.clients.Add(-1)

	messages, cancel := h.feed.Subscribe(id)
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	log := logger.GetGinLogger(c).With(zap.String("customer_id", id.String()))
	log.Info("Feed client connected", zap.String("user_id", middleware.GetJWTUserID(c)))

	writeEvent(c.Writer, "connected", "", fmt.Sprintf(`{"customer_id":"%s","timestamp":%d}`, id, time.Now().Unix()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	var seq int64
	for {
		select {
		case <-c.Request.Context().Done():
			log.Info("Feed client disconnected")
			return
		case <-ticker.C:
			writeEvent(c.Writer, "heartbeat", "", fmt.Sprintf(`{"timestamp":%d}`, time.Now().Unix()))
			c.Writer.Flush()
		case msg, ok := <-messages:
			if !ok {
				log.Info("Feed closed by server")
				return
			}
			seq++
			writeEvent(c.Writer, msg.Event, fmt.Sprint(seq), string(msg.Data))
			c.Writer.Flush()
		}
	}
}

// Clients returns the number of open streams
func (h *FeedHandler) Clients() int64 {
	return h.clients.Load()
}

func writeEvent(w io.Writer, name, id, data string) {
	if name != "" {
		fmt.Fprintf(w, "event: %s\n", name)
	}
	if id != "" {
		fmt.Fprintf(w, "id: %s\n", id)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
