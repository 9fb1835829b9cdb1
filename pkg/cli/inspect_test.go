package cli

import (
	"bytes"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/reflow/pkg/domain/model"
)

func TestPrintInspection(t *testing.T) {
	t.Run("managed and dispatchable", func(t *testing.T) {
		var buf bytes.Buffer
		ok := printInspection(&buf, &model.WorkflowInspection{
			Path:         "deploy.yml",
			Manifest:     &model.ReflowManifest{Repository: "octo/app", PushTargets: []string{"main", "release/*"}},
			Dispatchable: true,
		})
		gt.True(t, ok)
		gt.String(t, buf.String()).Contains("octo/app")
		gt.String(t, buf.String()).Contains(`"release/*"`)
	})

	t.Run("managed without dispatch trigger", func(t *testing.T) {
		var buf bytes.Buffer
		ok := printInspection(&buf, &model.WorkflowInspection{
			Path:     "deploy.yml",
			Manifest: &model.ReflowManifest{Repository: "octo/app", PushTargets: []string{"main"}},
		})
		gt.False(t, ok)
		gt.String(t, buf.String()).Contains("workflow_dispatch")
	})

	t.Run("invalid directive", func(t *testing.T) {
		var buf bytes.Buffer
		ok := printInspection(&buf, &model.WorkflowInspection{
			Path:        "deploy.yml",
			ManifestErr: model.ErrRepositoryNotSpecified,
		})
		gt.False(t, ok)
		gt.String(t, buf.String()).Contains("repository not specified")
	})

	t.Run("unmanaged", func(t *testing.T) {
		var buf bytes.Buffer
		ok := printInspection(&buf, &model.WorkflowInspection{Path: "ci.yml"})
		gt.True(t, ok)
		gt.String(t, buf.String()).Contains("not managed")
	})
}
