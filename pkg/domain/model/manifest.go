package model

import (
	"regexp"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrRepositoryNotSpecified = goerr.New("repository not specified")
	ErrPushTargetNotSpecified = goerr.New("push target not specified")
)

// Only the first line of a workflow file may carry the directive, e.g.
//
//	# reflow: repository=owner/name push=main,release/*
var manifestRe = regexp.MustCompile(`^\s*#\s*reflow:([^\n]+)\n`)

// ReflowManifest asks for the workflow to be dispatched when Repository
// pushes to a ref matching any of PushTargets.
type ReflowManifest struct {
	Repository  string
	PushTargets []string
}

// ExtractManifest reads the reflow directive of a workflow file. It returns
// (nil, nil) when the file has no directive, which means the workflow is not
// managed by reflow.
func ExtractManifest(workflowConfig string) (*ReflowManifest, error) {
	match := manifestRe.FindStringSubmatch(workflowConfig)
	if match == nil {
		return nil, nil
	}

	pairs := parseKeyValuePairs(match[1])

	repository := pairs["repository"]
	if repository == nil {
		repository = pairs["repo"]
	}
	if repository == nil || *repository == "" {
		return nil, ErrRepositoryNotSpecified
	}

	push := pairs["push"]
	if push == nil {
		return nil, ErrPushTargetNotSpecified
	}

	return &ReflowManifest{
		Repository:  *repository,
		PushTargets: strings.Split(*push, ","),
	}, nil
}

// parseKeyValuePairs splits "k1=v1 k2 k3=v3" into a map. A token without '='
// maps to nil. Later tokens overwrite earlier ones with the same key.
func parseKeyValuePairs(text string) map[string]*string {
	pairs := make(map[string]*string)
	for _, token := range strings.Fields(text) {
		key, value, found := strings.Cut(token, "=")
		if !found {
			pairs[key] = nil
			continue
		}
		pairs[key] = &value
	}
	return pairs
}
