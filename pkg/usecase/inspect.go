package usecase

import (
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/reflow/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

// InspectWorkflow extracts the reflow directive of a workflow file and checks
// that the workflow can be dispatched at all. A directive error is reported in
// the inspection, while a YAML syntax error is returned.
func InspectWorkflow(path string, content []byte) (*model.WorkflowInspection, error) {
	manifest, manifestErr := model.ExtractManifest(string(content))

	var doc struct {
		On any `yaml:"on"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse workflow YAML", goerr.V("path", path))
	}

	return &model.WorkflowInspection{
		Path:         path,
		Manifest:     manifest,
		ManifestErr:  manifestErr,
		Dispatchable: hasWorkflowDispatch(doc.On),
	}, nil
}

// `on` can be a single event name, a list of names or a map keyed by name
func hasWorkflowDispatch(on any) bool {
	const trigger = "workflow_dispatch"

	switch v := on.(type) {
	case string:
		return v == trigger
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == trigger {
				return true
			}
		}
	case map[string]any:
		_, ok := v[trigger]
		return ok
	}
	return false
}
