package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vsinha/dough/pkg/domain/entities"
)

func TestRestockLog_RecordsPublishedOrders(t *testing.T) {
	store := NewInMemoryEventStore(zap.NewNop())
	log := NewRestockLog(nil)
	require.NoError(t, log.Subscribe(store))

	box := entities.Batch{ID: "B-2003", Quantity: 68, Stage: entities.Frozen}
	require.NoError(t, store.AppendEvent("B-2003", NewRestockRequestedEvent(box, 2, at)))
	require.NoError(t, store.AppendEvent("B-2004", NewBatchConsumedEvent("B-2004", 12, at)))

	require.Eventually(t, func() bool { return len(log.Orders()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, RestockOrder{BatchID: "B-2003", Quantity: 68, Shortfall: 2, RequestedAt: at}, log.Orders()[0])

	// copies are returned
	orders := log.Orders()
	orders[0].Quantity = 0
	assert.Equal(t, entities.Quantity(68), log.Orders()[0].Quantity)
}

func TestRestockLog_RejectsForeignPayload(t *testing.T) {
	log := NewRestockLog(zap.NewNop())

	assert.True(t, log.CanHandle(RestockRequestedEvent))
	assert.False(t, log.CanHandle(BatchReleasedEvent))
	assert.Error(t, log.Handle(NewEvent(RestockRequestedEvent, "B-1", "not an order", at)))
	assert.Empty(t, log.Orders())
}
