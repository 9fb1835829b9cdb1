package usecase

import (
	"context"
	"log/slog"

	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
)

type webhookUseCase struct {
	publisher interfaces.EventPublisher
}

// NewWebhook creates a new instance of IngressUseCase. When publisher is nil,
// accepted events are only logged.
func NewWebhook(publisher interfaces.EventPublisher) *webhookUseCase {
	return &webhookUseCase{
		publisher: publisher,
	}
}

// Receive converts a verified push delivery into a RepositoryEvent and
// publishes it to the worker queue
func (uc *webhookUseCase) Receive(ctx context.Context, event *model.WebhookEvent) (*model.IngressOutcome, error) {
	logger := ctxlog.From(ctx).With(
		slog.String("delivery_id", event.ID),
		slog.String("type", string(event.Type)),
	)

	if !event.IsSupportedEvent() {
		logger.Info("ignoring non-push event")
		return &model.IngressOutcome{Decision: model.IngressIgnored, Reason: "non-push event"}, nil
	}

	if event.ID == "" {
		logger.Warn("no event id given")
		return &model.IngressOutcome{Decision: model.IngressRejected, Reason: "no event id given"}, nil
	}

	repoEvent, err := toRepositoryEvent(event)
	if err != nil {
		logger.Warn("could not parse event payload", slog.Any("error", err))
		return &model.IngressOutcome{Decision: model.IngressRejected, Reason: "invalid event payload"}, nil
	}

	logger = logger.With(slog.String("repository", repoEvent.Repository))
	logger.Info("event received")

	if uc.publisher == nil {
		logger.Warn("no queue configured, event is not relayed")
		return &model.IngressOutcome{Decision: model.IngressAccepted, Reason: "not relayed"}, nil
	}

	if err := uc.publisher.Publish(ctx, repoEvent); err != nil {
		return nil, goerr.Wrap(err, "failed to publish event",
			goerr.V("delivery_id", event.ID),
			goerr.V("repository", repoEvent.Repository),
		)
	}
	logger.Info("event published")

	return &model.IngressOutcome{Decision: model.IngressAccepted}, nil
}

// toRepositoryEvent validates a push payload. The whole payload is kept as
// event data so the worker can decode what it needs.
func toRepositoryEvent(event *model.WebhookEvent) (*model.RepositoryEvent, error) {
	payload, err := github.ParseWebHook(string(event.Type), event.RawPayload)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse webhook payload")
	}

	push, ok := payload.(*github.PushEvent)
	if !ok {
		return nil, goerr.New("unexpected payload type", goerr.V("type", event.Type))
	}

	switch {
	case push.Ref == nil:
		return nil, goerr.New("push event has no ref")
	case push.Repo == nil || push.Repo.FullName == nil:
		return nil, goerr.New("push event has no repository full_name")
	case push.Repo.DefaultBranch == nil:
		return nil, goerr.New("push event has no repository default_branch")
	}

	return &model.RepositoryEvent{
		ID:         event.ID,
		Type:       string(event.Type),
		Repository: push.GetRepo().GetFullName(),
		Data:       event.RawPayload,
	}, nil
}
