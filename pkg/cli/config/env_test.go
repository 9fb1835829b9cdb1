package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reflow/pkg/cli/config"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	gt.NoError(t, os.WriteFile(path, []byte("REFLOW_TEST_FROM_FILE=loaded\nREFLOW_TEST_KEEP=file\n"), 0600))

	t.Run("flag with separate value", func(t *testing.T) {
		t.Setenv("REFLOW_TEST_FROM_FILE", "")
		os.Unsetenv("REFLOW_TEST_FROM_FILE")
		t.Setenv("REFLOW_TEST_KEEP", "env")

		gt.NoError(t, config.LoadEnvFile([]string{"reflow", "--env-file", path, "serve"}))
		gt.String(t, os.Getenv("REFLOW_TEST_FROM_FILE")).Equal("loaded")
		gt.String(t, os.Getenv("REFLOW_TEST_KEEP")).Equal("env")
	})

	t.Run("flag with equal sign", func(t *testing.T) {
		t.Setenv("REFLOW_TEST_FROM_FILE", "")
		os.Unsetenv("REFLOW_TEST_FROM_FILE")

		gt.NoError(t, config.LoadEnvFile([]string{"reflow", "--env-file=" + path}))
		gt.String(t, os.Getenv("REFLOW_TEST_FROM_FILE")).Equal("loaded")
	})

	t.Run("no env file", func(t *testing.T) {
		t.Setenv("REFLOW_ENV_FILE", "")
		gt.NoError(t, config.LoadEnvFile([]string{"reflow", "serve"}))
	})

	t.Run("missing file", func(t *testing.T) {
		gt.Error(t, config.LoadEnvFile([]string{"reflow", "--env-file", filepath.Join(dir, "missing.env")}))
	})
}

func TestGitHubApp(t *testing.T) {
	t.Run("hub repository", func(t *testing.T) {
		cfg := config.GitHubApp{Repository: "octo/hub"}
		repo, err := cfg.HubRepository()
		gt.NoError(t, err)
		gt.String(t, repo.Owner).Equal("octo")
		gt.String(t, repo.Name).Equal("hub")
	})

	t.Run("invalid hub repository", func(t *testing.T) {
		cfg := config.GitHubApp{Repository: "octo"}
		_, err := cfg.HubRepository()
		gt.Error(t, err)
	})

	t.Run("private key from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.pem")
		gt.NoError(t, os.WriteFile(path, []byte("PEM"), 0600))

		cfg := config.GitHubApp{PrivateKeyFile: path}
		key, err := cfg.LoadPrivateKey()
		gt.NoError(t, err)
		gt.String(t, string(key)).Equal("PEM")
	})

	t.Run("inline private key wins", func(t *testing.T) {
		cfg := config.GitHubApp{PrivateKey: "INLINE", PrivateKeyFile: "/nonexistent"}
		key, err := cfg.LoadPrivateKey()
		gt.NoError(t, err)
		gt.String(t, string(key)).Equal("INLINE")
	})

	t.Run("no private key", func(t *testing.T) {
		cfg := config.GitHubApp{}
		_, err := cfg.LoadPrivateKey()
		gt.Error(t, err)
	})
}
