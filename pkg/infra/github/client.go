package github

import (
	"context"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/interfaces"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"golang.org/x/time/rate"
)

// Client is a GitHub API client bound to a GitHub App installation
type Client struct {
	githubClient *github.Client
	limiter      *rate.Limiter
}

var _ interfaces.GitHubClient = (*Client)(nil)

// Option is a functional option for Client
type Option func(*Client)

// WithRateLimit limits write requests (workflow dispatches) per second
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// NewClient creates a new GitHub client with App authentication. When
// installationID is zero, the installation of repo is looked up with the
// App credentials.
func NewClient(ctx context.Context, appID, installationID int64, privateKey []byte, repo model.RepositoryIdentifier, opts ...Option) (*Client, error) {
	atr, err := ghinstallation.NewAppsTransport(http.DefaultTransport, appID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport", goerr.V("app_id", appID))
	}

	if installationID == 0 {
		appClient := github.NewClient(&http.Client{Transport: atr})
		installation, _, err := appClient.Apps.FindRepositoryInstallation(ctx, repo.Owner, repo.Name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to find GitHub App installation",
				goerr.V("app_id", appID),
				goerr.V("repository", repo.String()),
			)
		}
		installationID = installation.GetID()
		ctxlog.From(ctx).Info("found GitHub App installation",
			"installation_id", installationID,
			"repository", repo.String(),
		)
	}

	itr := ghinstallation.NewFromAppsTransport(atr, installationID)
	return NewWithGitHub(github.NewClient(&http.Client{Transport: itr}), opts...), nil
}

// NewWithGitHub wraps an already configured go-github client
func NewWithGitHub(githubClient *github.Client, opts ...Option) *Client {
	c := &Client{
		githubClient: githubClient,
		limiter:      rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListActiveWorkflows returns active workflows of a repository together with
// their file content. Workflows whose path is not a single file are skipped.
func (c *Client) ListActiveWorkflows(ctx context.Context, owner, repo string) ([]*model.Workflow, error) {
	logger := ctxlog.From(ctx)
	opts := &github.ListOptions{PerPage: 100}

	var workflows []*model.Workflow
	for {
		result, resp, err := c.githubClient.Actions.ListWorkflows(ctx, owner, repo, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list workflows",
				goerr.V("owner", owner),
				goerr.V("repo", repo),
			)
		}

		for _, w := range result.Workflows {
			if w.GetState() != "active" {
				continue
			}

			config, err := c.FetchFileText(ctx, owner, repo, w.GetPath())
			if err != nil {
				return nil, err
			}
			if config == nil || *config == "" {
				logger.Debug("workflow file is not readable", "path", w.GetPath())
				continue
			}

			workflows = append(workflows, &model.Workflow{
				ID:     w.GetID(),
				Name:   w.GetName(),
				Path:   w.GetPath(),
				Config: *config,
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return workflows, nil
}

// FetchFileText returns the decoded content of a file on the default branch.
// It returns nil when path does not resolve to a single file.
func (c *Client) FetchFileText(ctx context.Context, owner, repo, path string) (*string, error) {
	fileContent, dirContent, _, err := c.githubClient.Repositories.GetContents(ctx, owner, repo, path, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get file content",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("path", path),
		)
	}
	if dirContent != nil || fileContent == nil || fileContent.GetType() != "file" {
		return nil, nil
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode file content", goerr.V("path", path))
	}
	return &content, nil
}

// GetDefaultBranch returns the default branch of a repository
func (c *Client) GetDefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	repository, _, err := c.githubClient.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get repository",
			goerr.V("owner", owner),
			goerr.V("repo", repo),
		)
	}
	return repository.GetDefaultBranch(), nil
}

// CreateWorkflowDispatch triggers a workflow_dispatch event
func (c *Client) CreateWorkflowDispatch(ctx context.Context, owner, repo, ref string, workflowID int64) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return goerr.Wrap(err, "rate limiter cancelled")
	}

	resp, err := c.githubClient.Actions.CreateWorkflowDispatchEventByID(ctx, owner, repo, workflowID,
		github.CreateWorkflowDispatchEventRequest{
			Ref: ref,
		},
	)
	if err != nil {
		opts := []goerr.Option{
			goerr.V("owner", owner),
			goerr.V("repo", repo),
			goerr.V("workflow_id", workflowID),
			goerr.V("ref", ref),
		}
		if resp != nil {
			opts = append(opts, goerr.V("status", resp.StatusCode))
		}
		return goerr.Wrap(err, "failed to dispatch workflow", opts...)
	}

	ctxlog.From(ctx).Info("dispatched workflow_dispatch",
		"owner", owner,
		"repo", repo,
		"workflow_id", workflowID,
		"ref", ref,
	)
	return nil
}
