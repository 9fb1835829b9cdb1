package interfaces

import (
	"context"

	"github.com/m-mizutani/reflow/pkg/domain/model"
)

// GitHubClient defines operations for interacting with GitHub API
type GitHubClient interface {
	// ListActiveWorkflows returns active workflows of a repository with their file content
	ListActiveWorkflows(ctx context.Context, owner, repo string) ([]*model.Workflow, error)

	// GetDefaultBranch returns the name of the default branch of a repository
	GetDefaultBranch(ctx context.Context, owner, repo string) (string, error)

	// CreateWorkflowDispatch triggers a workflow_dispatch event on ref
	CreateWorkflowDispatch(ctx context.Context, owner, repo, ref string, workflowID int64) error
}
