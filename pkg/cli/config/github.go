package config

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"github.com/m-mizutani/reflow/pkg/infra/github"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// GitHub holds webhook configuration of the ingress server
type GitHub struct {
	WebhookSecret string `masq:"secret"`
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Required:    true,
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("REFLOW_GITHUB_WEBHOOK_SECRET"),
		},
	}
}

// GitHubApp holds the GitHub App credentials and the hub repository used by
// the worker
type GitHubApp struct {
	AppID          int64
	InstallationID int64
	PrivateKey     string `masq:"secret"`
	PrivateKeyFile string
	Repository     string
	RateLimit      float64
}

// Flags returns CLI flags for GitHub App configuration
func (c *GitHubApp) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Required:    true,
			Destination: &c.AppID,
			Sources:     cli.EnvVars("REFLOW_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID (looked up from the workflow repository when omitted)",
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("REFLOW_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "GitHub App private key (PEM)",
			Destination: &c.PrivateKey,
			Sources:     cli.EnvVars("REFLOW_GITHUB_PRIVATE_KEY"),
		},
		&cli.StringFlag{
			Name:        "github-private-key-file",
			Usage:       "Path to GitHub App private key file (PEM)",
			Destination: &c.PrivateKeyFile,
			Sources:     cli.EnvVars("REFLOW_GITHUB_PRIVATE_KEY_FILE"),
		},
		&cli.StringFlag{
			Name:        "workflow-repository",
			Usage:       "Repository hosting the managed workflows (owner/name)",
			Required:    true,
			Destination: &c.Repository,
			Sources:     cli.EnvVars("REFLOW_WORKFLOW_REPOSITORY"),
		},
		&cli.FloatFlag{
			Name:        "github-rate-limit",
			Usage:       "Maximum workflow dispatch requests per second (0 means unlimited)",
			Value:       5,
			Destination: &c.RateLimit,
			Sources:     cli.EnvVars("REFLOW_GITHUB_RATE_LIMIT"),
		},
	}
}

// HubRepository parses the workflow repository
func (c *GitHubApp) HubRepository() (*model.RepositoryIdentifier, error) {
	repo := model.ParseRepository(c.Repository)
	if repo == nil {
		return nil, goerr.New("invalid workflow repository, expected owner/name", goerr.V("repository", c.Repository))
	}
	return repo, nil
}

// LoadPrivateKey returns the private key given inline or read from file
func (c *GitHubApp) LoadPrivateKey() ([]byte, error) {
	switch {
	case c.PrivateKey != "":
		return []byte(c.PrivateKey), nil
	case c.PrivateKeyFile != "":
		key, err := os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read private key file", goerr.V("path", c.PrivateKeyFile))
		}
		return key, nil
	default:
		return nil, goerr.New("either github-private-key or github-private-key-file is required")
	}
}

// NewClient builds a GitHub client authenticated as the App installation of
// the hub repository
func (c *GitHubApp) NewClient(ctx context.Context) (*github.Client, *model.RepositoryIdentifier, error) {
	hub, err := c.HubRepository()
	if err != nil {
		return nil, nil, err
	}

	key, err := c.LoadPrivateKey()
	if err != nil {
		return nil, nil, err
	}

	var opts []github.Option
	if c.RateLimit > 0 {
		opts = append(opts, github.WithRateLimit(rate.Limit(c.RateLimit), 1))
	}

	client, err := github.NewClient(ctx, c.AppID, c.InstallationID, key, *hub, opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, hub, nil
}
