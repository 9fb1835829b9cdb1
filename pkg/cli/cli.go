package cli

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/reflow/pkg/cli/config"
	"github.com/m-mizutani/reflow/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Run runs the CLI application
func Run(ctx context.Context, args []string) error {
	var (
		loggerCfg  config.Logger
		sentryCfg  config.Sentry
		envFileCfg config.EnvFile
		logger     *slog.Logger
		flush      = func() {}
	)

	// env file must be loaded before flags read their REFLOW_* sources
	if err := config.LoadEnvFile(args); err != nil {
		slog.Default().Error("Failed to load env file", slog.Any("error", err))
		return err
	}

	var flags []cli.Flag
	flags = append(flags, loggerCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, envFileCfg.Flags()...)

	app := &cli.Command{
		Name:    types.ServiceName,
		Usage:   "Dispatch hub workflows on pushes to other repositories",
		Version: types.Version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			var err error
			logger, err = loggerCfg.Configure()
			if err != nil {
				return nil, err
			}

			slog.SetDefault(logger)
			ctx = ctxlog.With(ctx, logger)

			flush, err = sentryCfg.Configure()
			if err != nil {
				return nil, err
			}
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			flush()
			return nil
		},
		Commands: []*cli.Command{
			cmdServe(),
			cmdWork(),
			cmdInspect(),
		},
	}

	if err := app.Run(ctx, args); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("CLI execution failed", slog.Any("error", err))
		return err
	}

	return nil
}
