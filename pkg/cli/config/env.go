package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const envFileFlag = "env-file"

// EnvFile names a dotenv file loaded before flags are resolved, so that its
// variables can feed the REFLOW_* flag sources
type EnvFile struct {
	Path string
}

// Flags returns CLI flags for the env file
func (c *EnvFile) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        envFileFlag,
			Usage:       "Load environment variables from a dotenv file",
			Destination: &c.Path,
			Sources:     cli.EnvVars("REFLOW_ENV_FILE"),
		},
	}
}

// LoadEnvFile finds --env-file in args (or REFLOW_ENV_FILE) and loads it.
// Variables already present in the environment are kept.
func LoadEnvFile(args []string) error {
	path := os.Getenv("REFLOW_ENV_FILE")
	for i, arg := range args {
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, envFileFlag+"="); ok {
			path = v
			break
		}
		if name == envFileFlag && i+1 < len(args) {
			path = args[i+1]
			break
		}
	}

	if path == "" {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return goerr.Wrap(err, "failed to load env file", goerr.V("path", path))
	}
	return nil
}
