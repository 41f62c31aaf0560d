package transform

import (
	"fmt"
	"sort"
)

// Factory builds a configured step instance from the arguments of one
// `step` block. workDir is the directory the step may write outputs into;
// it exists before the factory is called.
type Factory func(args map[string]string, workDir string) (Step, error)

// Registry maps step type names to their factories. The zero value is not
// usable; construct with NewRegistry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns a registry pre-populated with the built-in steps.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register("identity", newIdentityStep)
	r.Register("copy", newCopyStep)
	r.Register("unzip", newUnzipStep)
	r.Register("checksum", newChecksumStep)
	return r
}

// Register adds a factory under the given step type name, replacing any
// previous registration.
func (r *Registry) Register(stepType string, f Factory) {
	r.factories[stepType] = f
}

// New builds a step of the given type. Unknown types are a configuration
// error, reported with the known types for the user's benefit.
func (r *Registry) New(stepType string, args map[string]string, workDir string) (Step, error) {
	f, ok := r.factories[stepType]
	if !ok {
		return nil, fmt.Errorf("unknown step type %q (known: %v)", stepType, r.Types())
	}
	return f(args, workDir)
}

// Types returns the registered step type names, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
