package config

import (
	"time"

	"github.com/m-mizutani/reflow/pkg/controller/worker"
	"github.com/m-mizutani/reflow/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Worker holds batch processing configuration
type Worker struct {
	BatchSize    int
	BatchWait    time.Duration
	BatchTimeout time.Duration
	MaxAttempts  int
	Concurrency  int
	DryRun       bool
}

// Flags returns CLI flags for worker configuration
func (c *Worker) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "batch-size",
			Usage:       "Maximum number of events in a batch",
			Value:       10,
			Destination: &c.BatchSize,
			Sources:     cli.EnvVars("REFLOW_BATCH_SIZE"),
		},
		&cli.DurationFlag{
			Name:        "batch-wait",
			Usage:       "How long to collect events after the first one arrived",
			Value:       time.Second,
			Destination: &c.BatchWait,
			Sources:     cli.EnvVars("REFLOW_BATCH_WAIT"),
		},
		&cli.DurationFlag{
			Name:        "batch-timeout",
			Usage:       "Processing deadline of a batch",
			Value:       5 * time.Minute,
			Destination: &c.BatchTimeout,
			Sources:     cli.EnvVars("REFLOW_BATCH_TIMEOUT"),
		},
		&cli.IntFlag{
			Name:        "max-attempts",
			Usage:       "Deliveries of a failing batch before it is acknowledged",
			Value:       3,
			Destination: &c.MaxAttempts,
			Sources:     cli.EnvVars("REFLOW_MAX_ATTEMPTS"),
		},
		&cli.IntFlag{
			Name:        "concurrency",
			Usage:       "Events of a batch processed at the same time (0 means all)",
			Destination: &c.Concurrency,
			Sources:     cli.EnvVars("REFLOW_CONCURRENCY"),
		},
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Log matched workflows without dispatching them",
			Destination: &c.DryRun,
			Sources:     cli.EnvVars("REFLOW_DRY_RUN"),
		},
	}
}

// WorkerOptions returns options of the batch loop
func (c *Worker) WorkerOptions() []worker.Option {
	return []worker.Option{
		worker.WithBatchSize(c.BatchSize),
		worker.WithBatchWait(c.BatchWait),
		worker.WithBatchTimeout(c.BatchTimeout),
		worker.WithMaxAttempts(c.MaxAttempts),
	}
}

// PipelineOptions returns options of the matching pipeline
func (c *Worker) PipelineOptions() []usecase.PipelineOption {
	return []usecase.PipelineOption{
		usecase.WithDryRun(c.DryRun),
		usecase.WithConcurrency(c.Concurrency),
	}
}
