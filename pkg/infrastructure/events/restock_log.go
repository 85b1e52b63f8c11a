package events

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/domain/entities"
)

// RestockOrder is a frozen box recorded after a release outran freezer stock
type RestockOrder struct {
	BatchID     entities.BatchID  `json:"batch_id"`
	Quantity    entities.Quantity `json:"quantity"`
	Shortfall   entities.Quantity `json:"shortfall"`
	RequestedAt time.Time         `json:"requested_at"`
}

// RestockLog collects restock.requested events as they are published
type RestockLog struct {
	mu     sync.Mutex
	orders []RestockOrder
	logger *zap.Logger
}

func NewRestockLog(logger *zap.Logger) *RestockLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RestockLog{logger: logger.Named("restock")}
}

// Subscribe registers the log with store
func (l *RestockLog) Subscribe(store EventStore) error {
	return store.Subscribe([]string{RestockRequestedEvent}, l)
}

func (l *RestockLog) CanHandle(eventType string) bool {
	return eventType == RestockRequestedEvent
}

func (l *RestockLog) Handle(event Event) error {
	payload, ok := event.Data().(RestockRequested)
	if !ok {
		return fmt.Errorf("unexpected %s payload %T", event.Type(), event.Data())
	}

	order := RestockOrder{
		BatchID:     payload.Batch.ID,
		Quantity:    payload.Batch.Quantity,
		Shortfall:   payload.Shortfall,
		RequestedAt: event.Timestamp(),
	}

	l.mu.Lock()
	l.orders = append(l.orders, order)
	l.mu.Unlock()

	l.logger.Info("restock order placed",
		zap.String("batch", string(order.BatchID)),
		zap.Int64("units", int64(order.Quantity)),
		zap.Int64("shortfall", int64(order.Shortfall)))
	return nil
}

// Orders returns the recorded orders in arrival order. Handlers run asynchronously,
// so an order may land shortly after the release that requested it.
func (l *RestockLog) Orders() []RestockOrder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]RestockOrder{}, l.orders...)
}
