package usecase

import (
	"github.com/m-mizutani/reflow/pkg/domain/model"
)

// RefMatcher reports whether a Git ref matches a manifest push target
type RefMatcher func(ref, pattern string) bool

// Route returns the workflows of candidates that must be dispatched for a
// push, keeping the order of candidates. Every candidate must carry a valid
// manifest.
func Route(event *model.RepositoryEvent, push *model.PushEventData, candidates []model.Candidate, match RefMatcher) []*model.Workflow {
	var targets []*model.Workflow
	for _, c := range candidates {
		if c.Manifest.Repository != event.Repository {
			continue
		}
		for _, pattern := range c.Manifest.PushTargets {
			if match(push.Ref, pattern) {
				targets = append(targets, c.Workflow)
				break
			}
		}
	}
	return targets
}
