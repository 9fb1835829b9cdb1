package worker

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"github.com/m-mizutani/reflow/pkg/utils/errs"
)

// config holds internal worker configuration
type config struct {
	batchSize    int
	batchWait    time.Duration
	batchTimeout time.Duration
	maxAttempts  int
}

// Option is a functional option for Worker configuration
type Option func(*config)

// WithBatchSize sets the maximum number of records in a batch
func WithBatchSize(n int) Option {
	return func(c *config) {
		c.batchSize = n
	}
}

// WithBatchWait sets how long to keep collecting records after the first one
func WithBatchWait(d time.Duration) Option {
	return func(c *config) {
		c.batchWait = d
	}
}

// WithBatchTimeout bounds the processing time of a whole batch
func WithBatchTimeout(d time.Duration) Option {
	return func(c *config) {
		c.batchTimeout = d
	}
}

// WithMaxAttempts sets how many times a failing batch is delivered before it
// is acknowledged anyway
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		c.maxAttempts = n
	}
}

// Worker feeds batches from the queue into the pipeline and acknowledges them
type Worker struct {
	consumer interfaces.EventConsumer
	pipeline interfaces.PipelineUseCase
	cfg      config
	attempts map[string]int // failed deliveries by record id
}

// New creates a Worker
func New(consumer interfaces.EventConsumer, pipeline interfaces.PipelineUseCase, opts ...Option) *Worker {
	cfg := config{
		batchSize:    10,
		batchWait:    time.Second,
		batchTimeout: 5 * time.Minute,
		maxAttempts:  3,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.batchSize < 1 {
		cfg.batchSize = 1
	}
	if cfg.maxAttempts < 1 {
		cfg.maxAttempts = 1
	}

	return &Worker{
		consumer: consumer,
		pipeline: pipeline,
		cfg:      cfg,
		attempts: map[string]int{},
	}
}

// Run processes batches until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := w.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

// RunOnce reads one batch, processes it and then either commits it or, when
// a failed record has attempts left, rewinds it for redelivery. Attempts are
// counted per record, so records joining a redelivered batch get their own
// budget. Counters are cleared once a batch is committed.
func (w *Worker) RunOnce(ctx context.Context) error {
	records, err := w.consumer.ReadBatch(ctx, w.cfg.batchSize, w.cfg.batchWait)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return goerr.Wrap(err, "failed to read batch")
	}
	if len(records) == 0 {
		return nil
	}

	logger := ctxlog.From(ctx)
	logger.Debug("processing batch", "records", len(records))

	batchCtx, cancel := context.WithTimeout(ctx, w.cfg.batchTimeout)
	results := w.pipeline.HandleBatch(batchCtx, records)
	cancel()

	var retry bool
	for _, r := range results {
		if r.Status != model.RecordFailed {
			continue
		}
		w.attempts[r.RecordID]++
		if w.attempts[r.RecordID] < w.cfg.maxAttempts {
			retry = true
		}
	}

	if retry {
		logger.Warn("batch has failed records, rewinding",
			"records", len(records),
			"max_attempts", w.cfg.maxAttempts,
		)
		if err := w.consumer.Rewind(ctx); err != nil {
			return goerr.Wrap(err, "failed to rewind batch")
		}
		return nil
	}

	for _, r := range results {
		if r.Status != model.RecordFailed {
			continue
		}
		errs.Handle(ctx, "giving up on record", goerr.Wrap(r.Err, "record failed",
			goerr.V("record_id", r.RecordID),
			goerr.V("attempts", w.attempts[r.RecordID]),
		))
	}

	if err := w.consumer.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit batch", goerr.V("records", len(records)))
	}
	clear(w.attempts)
	logger.Info("batch completed", "records", len(records))
	return nil
}
