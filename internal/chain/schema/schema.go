// Package schema defines the HCL surface of chain definition files. These
// structs are a faithful mirror of the file format; the loader translates
// them into the format-agnostic model in the chain package.
package schema

import "github.com/hashicorp/hcl/v2"

// Settings represents the optional top-level `settings` block.
type Settings struct {
	BuildPath string `hcl:"build_path,optional"`
}

// Artifact represents an `artifact` block. The first label selects the
// repository kind ("dir" or "s3"); the attributes a kind requires are
// validated during translation, not by the HCL schema.
type Artifact struct {
	Repo   string `hcl:"repo,label"`
	Name   string `hcl:"name,label"`
	Path   string `hcl:"path,optional"`
	Bucket string `hcl:"bucket,optional"`
	Key    string `hcl:"key,optional"`
}

// Step represents a `step` block inside a chain. Arguments are free-form
// attributes interpreted by the step factory.
type Step struct {
	Type      string   `hcl:"type,label"`
	Arguments hcl.Body `hcl:",remain"`
}

// Chain represents a `chain` block: an input artifact and the ordered
// steps applied to it.
type Chain struct {
	Name  string  `hcl:"name,label"`
	Input string  `hcl:"input"`
	Steps []*Step `hcl:"step,block"`
}

// File represents the top-level structure of one chain definition file.
type File struct {
	Settings  *Settings   `hcl:"settings,block"`
	Artifacts []*Artifact `hcl:"artifact,block"`
	Chains    []*Chain    `hcl:"chain,block"`
}
