package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"github.com/m-mizutani/reflow/pkg/usecase"
)

const validPushPayload = `{"ref":"refs/heads/main","repository":{"full_name":"foo/bar","default_branch":"main"},"sender":{"login":"octocat"}}`

func TestWebhookUseCase_Receive(t *testing.T) {
	tests := []struct {
		name         string
		event        *model.WebhookEvent
		wantDecision model.IngressDecision
		wantReason   string
		wantPublish  bool
	}{
		{
			name: "push event is accepted",
			event: &model.WebhookEvent{
				ID:         "delivery-1",
				Type:       model.EventTypePush,
				RawPayload: []byte(validPushPayload),
			},
			wantDecision: model.IngressAccepted,
			wantPublish:  true,
		},
		{
			name: "non-push event is ignored",
			event: &model.WebhookEvent{
				ID:         "delivery-2",
				Type:       model.WebhookEventType("pull_request"),
				RawPayload: []byte(`{"action":"opened"}`),
			},
			wantDecision: model.IngressIgnored,
			wantReason:   "non-push event",
		},
		{
			name: "missing delivery id is rejected",
			event: &model.WebhookEvent{
				Type:       model.EventTypePush,
				RawPayload: []byte(validPushPayload),
			},
			wantDecision: model.IngressRejected,
			wantReason:   "no event id given",
		},
		{
			name: "invalid JSON is rejected",
			event: &model.WebhookEvent{
				ID:         "delivery-3",
				Type:       model.EventTypePush,
				RawPayload: []byte(`{"ref":`),
			},
			wantDecision: model.IngressRejected,
			wantReason:   "invalid event payload",
		},
		{
			name: "missing ref is rejected",
			event: &model.WebhookEvent{
				ID:         "delivery-4",
				Type:       model.EventTypePush,
				RawPayload: []byte(`{"repository":{"full_name":"foo/bar","default_branch":"main"}}`),
			},
			wantDecision: model.IngressRejected,
			wantReason:   "invalid event payload",
		},
		{
			name: "missing repository is rejected",
			event: &model.WebhookEvent{
				ID:         "delivery-5",
				Type:       model.EventTypePush,
				RawPayload: []byte(`{"ref":"refs/heads/main"}`),
			},
			wantDecision: model.IngressRejected,
			wantReason:   "invalid event payload",
		},
		{
			name: "missing default branch is rejected",
			event: &model.WebhookEvent{
				ID:         "delivery-6",
				Type:       model.EventTypePush,
				RawPayload: []byte(`{"ref":"refs/heads/main","repository":{"full_name":"foo/bar"}}`),
			},
			wantDecision: model.IngressRejected,
			wantReason:   "invalid event payload",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			publisher := &MockPublisher{}
			uc := usecase.NewWebhook(publisher)
			tt.event.ReceivedAt = time.Now()

			outcome, err := uc.Receive(context.Background(), tt.event)
			gt.NoError(t, err)
			gt.Value(t, outcome.Decision).Equal(tt.wantDecision)
			gt.String(t, outcome.Reason).Equal(tt.wantReason)

			if !tt.wantPublish {
				gt.A(t, publisher.published).Length(0)
				return
			}

			gt.A(t, publisher.published).Length(1)
			published := publisher.published[0]
			gt.String(t, published.ID).Equal(tt.event.ID)
			gt.String(t, published.Type).Equal("push")
			gt.String(t, published.Repository).Equal("foo/bar")

			// the worker must be able to decode what ingress publishes
			body, err := json.Marshal(published)
			gt.NoError(t, err)
			decoded, err := model.DecodeRepositoryEvent(body)
			gt.NoError(t, err)
			push, err := model.DecodePushEventData(decoded.Data)
			gt.NoError(t, err)
			gt.String(t, push.Ref).Equal("refs/heads/main")
		})
	}
}

func TestWebhookUseCase_Receive_PublishError(t *testing.T) {
	publisher := &MockPublisher{
		publishFunc: func(ctx context.Context, event *model.RepositoryEvent) error {
			return errors.New("broker unavailable")
		},
	}
	uc := usecase.NewWebhook(publisher)

	outcome, err := uc.Receive(context.Background(), &model.WebhookEvent{
		ID:         "delivery-1",
		Type:       model.EventTypePush,
		RawPayload: []byte(validPushPayload),
	})
	gt.Error(t, err)
	gt.Value(t, outcome).Nil()
	gt.String(t, err.Error()).Contains("broker unavailable")
}

func TestWebhookUseCase_Receive_WithoutQueue(t *testing.T) {
	uc := usecase.NewWebhook(nil)

	outcome, err := uc.Receive(context.Background(), &model.WebhookEvent{
		ID:         "delivery-1",
		Type:       model.EventTypePush,
		RawPayload: []byte(validPushPayload),
	})
	gt.NoError(t, err)
	gt.Value(t, outcome.Decision).Equal(model.IngressAccepted)
}
