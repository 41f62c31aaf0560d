package plan

import "github.com/vk/artifex/internal/artifact"

// ProducerResolver is the default DependencyResolver. It maps resolvable
// artifacts to the nodes registered as producing them and passes concrete
// nodes through. Descriptors it does not understand resolve to nothing:
// the artifact is assumed to pre-exist in its repository.
type ProducerResolver struct {
	producers map[string][]Node
}

// NewProducerResolver returns an empty resolver.
func NewProducerResolver() *ProducerResolver {
	return &ProducerResolver{producers: make(map[string][]Node)}
}

// AddProducer registers node as producing the artifact with the given
// configuration name, so consumers of that artifact schedule it first.
func (r *ProducerResolver) AddProducer(artifactName string, node Node) {
	r.producers[artifactName] = append(r.producers[artifactName], node)
}

// ResolveDependenciesFor resolves a dependency target to nodes. The task
// argument is accepted for contract compatibility; this resolver's policy
// does not distinguish task-level from artifact-level resolution.
func (r *ProducerResolver) ResolveDependenciesFor(task Node, target any) []Node {
	switch t := target.(type) {
	case nil:
		return nil
	case Node:
		return []Node{t}
	case artifact.Resolvable:
		return r.producers[t.ID().Name]
	case []Node:
		return t
	case []any:
		var out []Node
		for _, item := range t {
			out = append(out, r.ResolveDependenciesFor(task, item)...)
		}
		return out
	default:
		return nil
	}
}
