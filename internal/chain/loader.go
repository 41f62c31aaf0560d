package chain

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/artifex/internal/chain/schema"
	"github.com/vk/artifex/internal/ctxlog"
	"github.com/vk/artifex/internal/fsutil"
)

// DefaultBuildPath is used when no settings block names one.
const DefaultBuildPath = ":"

// Loader parses chain definition files.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader returns a loader with a fresh parser cache.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every .hcl file under path (a file or a directory), merges the
// definitions, and validates the result.
func (l *Loader) Load(ctx context.Context, path string) (*Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(path, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("discovering chain files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl chain files found at %s", path)
	}
	logger.Debug("Discovered chain definition files.", "count", len(files))

	model := &Model{
		BuildPath: DefaultBuildPath,
		Artifacts: make(map[string]Artifact),
	}
	for _, file := range files {
		if err := l.loadFile(ctx, file, model); err != nil {
			return nil, err
		}
	}
	if err := validate(model); err != nil {
		return nil, err
	}
	logger.Debug("Chain model loaded.", "artifacts", len(model.Artifacts), "chains", len(model.Chains))
	return model, nil
}

func (l *Loader) loadFile(ctx context.Context, path string, model *Model) error {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing %s: %w", path, diags)
	}

	var f schema.File
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &f); diags.HasErrors() {
		return fmt.Errorf("decoding %s: %w", path, diags)
	}

	if f.Settings != nil && f.Settings.BuildPath != "" {
		model.BuildPath = f.Settings.BuildPath
	}

	for _, a := range f.Artifacts {
		artifact, err := translateArtifact(a)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if _, exists := model.Artifacts[artifact.Name]; exists {
			return fmt.Errorf("%s: duplicate artifact %q", path, artifact.Name)
		}
		model.Artifacts[artifact.Name] = artifact
	}

	for _, c := range f.Chains {
		translated, err := translateChain(c)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		model.Chains = append(model.Chains, translated)
	}
	return nil
}

func translateArtifact(a *schema.Artifact) (Artifact, error) {
	switch RepoKind(a.Repo) {
	case RepoDir:
		if a.Path == "" {
			return Artifact{}, fmt.Errorf("artifact %q: dir artifacts require a path", a.Name)
		}
		return Artifact{Name: a.Name, Repo: RepoDir, Coordinate: a.Path}, nil
	case RepoS3:
		if a.Bucket == "" || a.Key == "" {
			return Artifact{}, fmt.Errorf("artifact %q: s3 artifacts require bucket and key", a.Name)
		}
		return Artifact{Name: a.Name, Repo: RepoS3, Coordinate: a.Key, Bucket: a.Bucket}, nil
	default:
		return Artifact{}, fmt.Errorf("artifact %q: unknown repository kind %q", a.Name, a.Repo)
	}
}

func translateChain(c *schema.Chain) (Chain, error) {
	out := Chain{Name: c.Name, Input: c.Input}
	for _, s := range c.Steps {
		args, err := decodeArguments(s.Arguments)
		if err != nil {
			return Chain{}, fmt.Errorf("chain %q step %q: %w", c.Name, s.Type, err)
		}
		out.Steps = append(out.Steps, StepUse{Type: s.Type, Arguments: args})
	}
	return out, nil
}

// decodeArguments evaluates a step block's attributes to strings. Step
// arguments are free-form; the factory for the step type interprets them.
func decodeArguments(body hcl.Body) (map[string]string, error) {
	if body == nil {
		return nil, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	args := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", name, err)
		}
		args[name] = str.AsString()
	}
	return args, nil
}

func validate(model *Model) error {
	names := make(map[string]struct{})
	for _, c := range model.Chains {
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("duplicate chain %q", c.Name)
		}
		names[c.Name] = struct{}{}
		if _, ok := model.Artifacts[c.Input]; !ok {
			return fmt.Errorf("chain %q references unknown artifact %q", c.Name, c.Input)
		}
		if len(c.Steps) == 0 {
			return fmt.Errorf("chain %q declares no steps", c.Name)
		}
	}
	return nil
}
