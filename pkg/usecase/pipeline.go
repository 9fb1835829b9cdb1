package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"github.com/m-mizutani/reflow/pkg/utils/async"
	"github.com/m-mizutani/reflow/pkg/utils/errs"
	"github.com/m-mizutani/reflow/pkg/utils/refmatch"
)

// Pipeline matches repository events against the reflow manifests of the hub
// repository workflows and dispatches the matching ones.
type Pipeline struct {
	githubClient interfaces.GitHubClient
	hub          model.RepositoryIdentifier
	match        RefMatcher
	dryRun       bool
	concurrency  int
}

// PipelineOption is a functional option for Pipeline
type PipelineOption func(*Pipeline)

// WithDryRun logs matched workflows instead of dispatching them
func WithDryRun(dryRun bool) PipelineOption {
	return func(p *Pipeline) {
		p.dryRun = dryRun
	}
}

// WithRefMatcher replaces the glob matcher used for push targets
func WithRefMatcher(match RefMatcher) PipelineOption {
	return func(p *Pipeline) {
		p.match = match
	}
}

// WithConcurrency limits the number of records processed at the same time
// within a batch. Zero or less means no limit.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

// NewPipeline creates a Pipeline dispatching workflows of the hub repository
func NewPipeline(githubClient interfaces.GitHubClient, hub model.RepositoryIdentifier, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		githubClient: githubClient,
		hub:          hub,
		match:        refmatch.Match,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkflowSource resolves the hub repository and its default branch ref
func (p *Pipeline) WorkflowSource(ctx context.Context) (*model.WorkflowSource, error) {
	branch, err := p.githubClient.GetDefaultBranch(ctx, p.hub.Owner, p.hub.Name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to fetch default branch",
			goerr.V("owner", p.hub.Owner),
			goerr.V("repo", p.hub.Name),
		)
	}

	return &model.WorkflowSource{
		Owner: p.hub.Owner,
		Name:  p.hub.Name,
		Ref:   "refs/heads/" + branch,
	}, nil
}

// HandleBatch processes queue records concurrently. A record that cannot be
// decoded is skipped; a record whose processing fails is reported as failed.
// Neither affects sibling records.
func (p *Pipeline) HandleBatch(ctx context.Context, records []model.QueueRecord) []model.RecordResult {
	logger := ctxlog.From(ctx)
	results := make([]model.RecordResult, len(records))

	source, err := p.WorkflowSource(ctx)
	if err != nil {
		errs.Handle(ctx, "could not resolve workflow source", err)
		for i, record := range records {
			results[i] = model.RecordResult{RecordID: record.ID, Status: model.RecordFailed, Err: err}
		}
		return results
	}

	logger.Info("processing batch",
		slog.Int("records", len(records)),
		slog.String("hub", p.hub.String()),
		slog.String("ref", source.Ref),
	)

	failures := async.Run(ctx, len(records), p.concurrency, func(ctx context.Context, i int) error {
		results[i] = p.handleRecord(ctx, records[i], source)
		return results[i].Err
	})

	for i, err := range failures {
		if err != nil && results[i].Status == "" {
			// handler panicked before producing a result
			results[i] = model.RecordResult{RecordID: records[i].ID, Status: model.RecordFailed, Err: err}
		}
	}

	return results
}

func (p *Pipeline) handleRecord(ctx context.Context, record model.QueueRecord, source *model.WorkflowSource) model.RecordResult {
	logger := ctxlog.From(ctx).With(slog.String("record_id", record.ID))
	ctx = ctxlog.With(ctx, logger)
	start := time.Now()

	logger.Info("processing event")

	event, err := model.DecodeRepositoryEvent(record.Body)
	if err != nil {
		logger.Error("malformed event payload", slog.Any("error", err))
		return model.RecordResult{RecordID: record.ID, Status: model.RecordSkipped}
	}

	if err := p.ProcessEvent(ctx, event, source); err != nil {
		err = goerr.Wrap(err, "could not process event",
			goerr.V("record_id", record.ID),
			goerr.V("event_id", event.ID),
		)
		errs.Handle(ctx, "could not process event", err)
		return model.RecordResult{RecordID: record.ID, Status: model.RecordFailed, Err: err}
	}

	logger.Info("event is processed successfully",
		slog.String("event_id", event.ID),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
	return model.RecordResult{RecordID: record.ID, Status: model.RecordProcessed}
}

// ProcessEvent dispatches every hub workflow whose manifest matches event.
// Malformed payloads and manifests are logged and skipped; only GitHub API
// failures are returned.
func (p *Pipeline) ProcessEvent(ctx context.Context, event *model.RepositoryEvent, source *model.WorkflowSource) error {
	logger := ctxlog.From(ctx)

	if !event.IsPush() {
		logger.Debug("ignoring non-push event", slog.String("type", event.Type))
		return nil
	}

	push, err := model.DecodePushEventData(event.Data)
	if err != nil {
		logger.Warn("malformed push event payload",
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
		return nil
	}

	workflows, err := p.githubClient.ListActiveWorkflows(ctx, source.Owner, source.Name)
	if err != nil {
		return goerr.Wrap(err, "failed to list active workflows",
			goerr.V("owner", source.Owner),
			goerr.V("repo", source.Name),
		)
	}

	names := make([]string, len(workflows))
	for i, w := range workflows {
		names[i] = w.Name
	}
	logger.Info("active workflows", slog.Any("workflows", names))

	candidates := collectCandidates(ctx, workflows)
	targets := Route(event, push, candidates, p.match)

	logger.Info("routed push event",
		slog.String("repository", event.Repository),
		slog.String("ref", push.Ref),
		slog.Int("candidates", len(candidates)),
		slog.Int("matched", len(targets)),
	)

	failures := async.Run(ctx, len(targets), 0, func(ctx context.Context, i int) error {
		return p.dispatch(ctx, source, targets[i])
	})
	if err := errors.Join(failures...); err != nil {
		return goerr.Wrap(err, "failed to dispatch workflows", goerr.V("event_id", event.ID))
	}

	return nil
}

// collectCandidates pairs workflows with their manifests, keeping order.
// Workflows without a directive are skipped silently.
func collectCandidates(ctx context.Context, workflows []*model.Workflow) []model.Candidate {
	logger := ctxlog.From(ctx)

	var candidates []model.Candidate
	for _, workflow := range workflows {
		manifest, err := model.ExtractManifest(workflow.Config)
		if err != nil {
			logger.Warn("error while parsing workflow config",
				slog.String("workflow", workflow.Name),
				slog.String("path", workflow.Path),
				slog.Any("error", err),
			)
			continue
		}
		if manifest == nil {
			continue
		}
		candidates = append(candidates, model.Candidate{Workflow: workflow, Manifest: manifest})
	}
	return candidates
}

func (p *Pipeline) dispatch(ctx context.Context, source *model.WorkflowSource, workflow *model.Workflow) error {
	logger := ctxlog.From(ctx).With(
		slog.String("workflow", workflow.Name),
		slog.Int64("workflow_id", workflow.ID),
		slog.String("ref", source.Ref),
	)

	if p.dryRun {
		logger.Info("dry-run: skip invoking workflow")
		return nil
	}

	logger.Info("invoking workflow")
	if err := p.githubClient.CreateWorkflowDispatch(ctx, source.Owner, source.Name, source.Ref, workflow.ID); err != nil {
		return goerr.Wrap(err, "failed to invoke workflow",
			goerr.V("workflow", workflow.Name),
			goerr.V("workflow_id", workflow.ID),
		)
	}
	return nil
}
