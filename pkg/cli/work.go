package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/reflow/pkg/cli/config"
	"github.com/m-mizutani/reflow/pkg/controller/worker"
	"github.com/m-mizutani/reflow/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdWork() *cli.Command {
	var (
		githubCfg config.GitHubApp
		kafkaCfg  config.Kafka
		workerCfg config.Worker
	)

	var flags []cli.Flag
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, kafkaCfg.Flags()...)
	flags = append(flags, workerCfg.Flags()...)

	return &cli.Command{
		Name:    "work",
		Aliases: []string{"w"},
		Usage:   "Consume queued events and dispatch matching workflows",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctxlog.From(ctx)

			githubClient, hub, err := githubCfg.NewClient(ctx)
			if err != nil {
				return err
			}

			consumer, err := kafkaCfg.NewConsumer()
			if err != nil {
				return err
			}
			defer func() {
				if err := consumer.Close(); err != nil {
					logger.Warn("Failed to close consumer", slog.Any("error", err))
				}
			}()

			pipeline := usecase.NewPipeline(githubClient, *hub, workerCfg.PipelineOptions()...)

			logger.Info("Starting reflow worker",
				slog.String("workflow_repository", hub.String()),
				slog.String("topic", kafkaCfg.Topic),
				slog.Any("worker", workerCfg),
			)

			if err := worker.New(consumer, pipeline, workerCfg.WorkerOptions()...).Run(ctx); err != nil {
				return err
			}

			logger.Info("Worker stopped")
			return nil
		},
	}
}
