package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"dashboard-service/internal/observability"
	"dashboard-service/pkg/logger"
	"dashboard-service/pkg/models"
)

// State is the lifecycle of a subscriber channel: Connecting, Open, Closed.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

var (
	ErrClosed       = errors.New("subscriber closed")
	ErrSlowConsumer = errors.New("subscriber send buffer full")
)

// Subscriber is one push endpoint. Send must not block on the network.
type Subscriber interface {
	ID() string
	State() State
	Send(payload []byte) error
	Close() error
}

// Delivery summarizes one broadcast.
type Delivery struct {
	Delivered int
	Skipped   int
	Failed    int
}

// Hub tracks connected subscribers and fans snapshots out to them.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	metrics     *observability.Metrics
}

func NewHub(metrics *observability.Metrics) *Hub {
	return &Hub{
		subscribers: make(map[string]Subscriber),
		metrics:     metrics,
	}
}

func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	n := len(h.subscribers)
	h.mu.Unlock()

	h.metrics.SetSubscribers(n)
	logger.Info("Subscriber connected", logger.String("subscriber_id", sub.ID()), logger.Int("subscribers", n))
}

// Unregister removes and closes the subscriber. It reports whether this
// call did the removal; repeated calls for the same id are no-ops.
func (h *Hub) Unregister(id string) bool {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	n := len(h.subscribers)
	h.mu.Unlock()

	if !ok {
		return false
	}

	if err := sub.Close(); err != nil {
		logger.Debug("Error closing subscriber", logger.String("subscriber_id", id), logger.Err(err))
	}
	h.metrics.SetSubscribers(n)
	logger.Info("Subscriber disconnected", logger.String("subscriber_id", id), logger.Int("subscribers", n))
	return true
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// EncodeUpdate serializes a snapshot into the dashboard_update envelope.
func EncodeUpdate(data models.RealtimeData) ([]byte, error) {
	payload, err := json.Marshal(models.Envelope{
		Type: models.MessageTypeDashboardUpdate,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dashboard update: %w", err)
	}
	return payload, nil
}

// Broadcast encodes data once and hands the same bytes to every open
// subscriber. Subscribers that are not open are skipped; a failed send
// removes only that subscriber.
func (h *Hub) Broadcast(data models.RealtimeData) (Delivery, error) {
	var d Delivery

	subs := h.snapshot()
	if len(subs) == 0 {
		return d, nil
	}

	payload, err := EncodeUpdate(data)
	if err != nil {
		return d, err
	}

	for _, sub := range subs {
		if sub.State() != StateOpen {
			d.Skipped++
			continue
		}
		if err := sub.Send(payload); err != nil {
			d.Failed++
			logger.Warn("Failed to push update to subscriber",
				logger.String("subscriber_id", sub.ID()),
				logger.Err(err),
			)
			h.Unregister(sub.ID())
			continue
		}
		d.Delivered++
	}

	h.metrics.AddMessages("delivered", d.Delivered)
	h.metrics.AddMessages("skipped", d.Skipped)
	h.metrics.AddMessages("failed", d.Failed)
	return d, nil
}

// CloseAll unregisters every subscriber, used on shutdown.
func (h *Hub) CloseAll() {
	for _, sub := range h.snapshot() {
		h.Unregister(sub.ID())
	}
}

func (h *Hub) snapshot() []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	return subs
}
