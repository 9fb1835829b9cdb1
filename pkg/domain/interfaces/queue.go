package interfaces

import (
	"context"
	"time"

	"github.com/m-mizutani/reflow/pkg/domain/model"
)

// EventPublisher sends repository events to the worker
type EventPublisher interface {
	Publish(ctx context.Context, event *model.RepositoryEvent) error
}

// EventConsumer delivers queued repository events in batches with
// at-least-once semantics
type EventConsumer interface {
	// ReadBatch blocks until at least one record is available or ctx is done,
	// then collects up to max records arriving within wait.
	ReadBatch(ctx context.Context, max int, wait time.Duration) ([]model.QueueRecord, error)

	// Commit acknowledges every record returned by the last ReadBatch
	Commit(ctx context.Context) error

	// Rewind makes the records of the last ReadBatch be delivered again
	Rewind(ctx context.Context) error

	Close() error
}
