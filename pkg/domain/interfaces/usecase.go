package interfaces

import (
	"context"

	"github.com/m-mizutani/reflow/pkg/domain/model"
)

// IngressUseCase decides what to do with a verified webhook delivery
type IngressUseCase interface {
	// Receive relays supported events to the worker and reports the decision
	Receive(ctx context.Context, event *model.WebhookEvent) (*model.IngressOutcome, error)
}

// PipelineUseCase processes queued repository events
type PipelineUseCase interface {
	// HandleBatch processes records independently and reports one result per record
	HandleBatch(ctx context.Context, records []model.QueueRecord) []model.RecordResult
}
