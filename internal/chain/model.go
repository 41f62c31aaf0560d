// Package chain loads transform chain definitions from HCL files and
// translates them into a format-agnostic model consumed by the planner.
package chain

// RepoKind selects the repository backend serving an artifact.
type RepoKind string

const (
	// RepoDir resolves the artifact from a local directory tree.
	RepoDir RepoKind = "dir"
	// RepoS3 resolves the artifact from an S3-compatible object store.
	RepoS3 RepoKind = "s3"
)

// Artifact is the format-agnostic representation of an `artifact` block.
// Coordinate is the path within a dir repository or the object key within
// a bucket.
type Artifact struct {
	Name       string
	Repo       RepoKind
	Coordinate string
	Bucket     string
}

// StepUse is one `step` block: a registered step type plus its arguments,
// decoded to strings for the step factory.
type StepUse struct {
	Type      string
	Arguments map[string]string
}

// Chain is the format-agnostic representation of a `chain` block.
type Chain struct {
	Name  string
	Input string
	Steps []StepUse
}

// Model is the merged content of all loaded definition files.
type Model struct {
	BuildPath string
	Artifacts map[string]Artifact
	Chains    []Chain
}
