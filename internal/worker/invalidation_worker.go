package worker

import (
	"context"
	"sync/atomic"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
)

// Invalidator drops a cached partition so the next load reads the table.
type Invalidator interface {
	Invalidate(key core.PartitionKey)
}

// Consumer delivers partition change events until ctx is done.
type Consumer interface {
	ConsumePartitionChanged(ctx context.Context, handler func(context.Context, *amqp.PartitionChangedMessage) error) error
}

// InvalidationWorker keeps this instance's partition cache coherent with
// writes made by other instances sharing the same table.
type InvalidationWorker struct {
	store     Invalidator
	logger    *log.Logger
	processed int64
	dropped   int64
}

func NewInvalidationWorker(store Invalidator, logger *log.Logger) *InvalidationWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &InvalidationWorker{
		store:  store,
		logger: logger.WithComponent(log.ComponentCache),
	}
}

// HandlePartitionChanged invalidates the announced partition. Events naming
// an invalid key are dropped rather than returned, so they are not redelivered.
func (w *InvalidationWorker) HandlePartitionChanged(ctx context.Context, msg *amqp.PartitionChangedMessage) error {
	if msg == nil {
		atomic.AddInt64(&w.dropped, 1)
		return nil
	}
	key, err := core.ParsePartitionKey(msg.Partition.String())
	if err != nil {
		atomic.AddInt64(&w.dropped, 1)
		w.logger.WarnContext(ctx, "Dropping change event with invalid partition",
			log.FieldPartition, msg.Partition.String(),
			log.FieldError, err)
		return nil
	}

	w.store.Invalidate(key)
	atomic.AddInt64(&w.processed, 1)
	w.logger.DebugContext(ctx, "Partition invalidated by change event",
		log.FieldPartition, key.String(),
		log.FieldOperation, msg.Operation,
		log.FieldRows, msg.Rows)
	return nil
}

// Run consumes events from c until ctx is done.
func (w *InvalidationWorker) Run(ctx context.Context, c Consumer) error {
	return c.ConsumePartitionChanged(ctx, w.HandlePartitionChanged)
}

// Stats returns how many events were applied and dropped.
func (w *InvalidationWorker) Stats() (processed, dropped int64) {
	return atomic.LoadInt64(&w.processed), atomic.LoadInt64(&w.dropped)
}
