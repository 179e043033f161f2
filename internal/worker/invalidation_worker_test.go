package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
)

type recordingStore struct {
	keys []core.PartitionKey
}

func (s *recordingStore) Invalidate(key core.PartitionKey) {
	s.keys = append(s.keys, key)
}

type sliceConsumer struct {
	msgs []*amqp.PartitionChangedMessage
}

func (c sliceConsumer) ConsumePartitionChanged(ctx context.Context, handler func(context.Context, *amqp.PartitionChangedMessage) error) error {
	for _, m := range c.msgs {
		if err := handler(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func TestInvalidationWorkerAppliesEvents(t *testing.T) {
	store := &recordingStore{}
	w := NewInvalidationWorker(store, log.Discard())

	err := w.Run(context.Background(), sliceConsumer{msgs: []*amqp.PartitionChangedMessage{
		amqp.NewPartitionChangedMessage("2024-03", log.OpAppend, 4),
		amqp.NewPartitionChangedMessage(core.SingleKey, log.OpDelete, 1),
	}})
	require.NoError(t, err)

	assert.Equal(t, []core.PartitionKey{"2024-03", core.SingleKey}, store.keys)
	processed, dropped := w.Stats()
	assert.Equal(t, int64(2), processed)
	assert.Equal(t, int64(0), dropped)
}

func TestInvalidationWorkerDropsInvalidEvents(t *testing.T) {
	store := &recordingStore{}
	w := NewInvalidationWorker(store, log.Discard())

	require.NoError(t, w.HandlePartitionChanged(context.Background(), nil))
	require.NoError(t, w.HandlePartitionChanged(context.Background(),
		amqp.NewPartitionChangedMessage("2024-13", log.OpAppend, 1)))

	assert.Empty(t, store.keys)
	_, dropped := w.Stats()
	assert.Equal(t, int64(2), dropped)
}
