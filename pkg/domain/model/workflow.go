package model

// Workflow is an active workflow definition of the hub repository
type Workflow struct {
	ID     int64
	Name   string
	Path   string // e.g. ".github/workflows/deploy.yml"
	Config string // raw content of the workflow file
}

// WorkflowSource is the hub repository and the ref workflows are dispatched on
type WorkflowSource struct {
	Owner string
	Name  string
	Ref   string
}

// Candidate is a workflow paired with the manifest extracted from it
type Candidate struct {
	Workflow *Workflow
	Manifest *ReflowManifest
}

// WorkflowInspection tells how a local workflow file is seen by reflow
type WorkflowInspection struct {
	Path         string
	Manifest     *ReflowManifest
	ManifestErr  error
	Dispatchable bool // has an on.workflow_dispatch trigger
}

// Managed reports whether the workflow carries a valid directive
func (x *WorkflowInspection) Managed() bool {
	return x.Manifest != nil
}
