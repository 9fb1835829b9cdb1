package usecase_test

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/reflow/pkg/domain/model"
)

// MockGitHubClient is a mock implementation of GitHubClient
type MockGitHubClient struct {
	listActiveWorkflowsFunc    func(ctx context.Context, owner, repo string) ([]*model.Workflow, error)
	getDefaultBranchFunc       func(ctx context.Context, owner, repo string) (string, error)
	createWorkflowDispatchFunc func(ctx context.Context, owner, repo, ref string, workflowID int64) error

	mu            sync.Mutex
	dispatchCalls []MockDispatchCall
	listCalls     int
}

type MockDispatchCall struct {
	Owner      string
	Repo       string
	Ref        string
	WorkflowID int64
}

func (m *MockGitHubClient) ListActiveWorkflows(ctx context.Context, owner, repo string) ([]*model.Workflow, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listActiveWorkflowsFunc != nil {
		return m.listActiveWorkflowsFunc(ctx, owner, repo)
	}
	return nil, errors.New("mock not configured")
}

func (m *MockGitHubClient) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	if m.getDefaultBranchFunc != nil {
		return m.getDefaultBranchFunc(ctx, owner, repo)
	}
	return "main", nil
}

func (m *MockGitHubClient) CreateWorkflowDispatch(ctx context.Context, owner, repo, ref string, workflowID int64) error {
	m.mu.Lock()
	m.dispatchCalls = append(m.dispatchCalls, MockDispatchCall{Owner: owner, Repo: repo, Ref: ref, WorkflowID: workflowID})
	m.mu.Unlock()
	if m.createWorkflowDispatchFunc != nil {
		return m.createWorkflowDispatchFunc(ctx, owner, repo, ref, workflowID)
	}
	return nil
}

func (m *MockGitHubClient) DispatchedIDs() map[int64]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := map[int64]int{}
	for _, c := range m.dispatchCalls {
		ids[c.WorkflowID]++
	}
	return ids
}

// MockPublisher is a mock implementation of EventPublisher
type MockPublisher struct {
	publishFunc func(ctx context.Context, event *model.RepositoryEvent) error
	published   []*model.RepositoryEvent
}

func (m *MockPublisher) Publish(ctx context.Context, event *model.RepositoryEvent) error {
	m.published = append(m.published, event)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, event)
	}
	return nil
}
