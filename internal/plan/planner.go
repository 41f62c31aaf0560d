package plan

import (
	"fmt"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vk/artifex/internal/artifact"
	"github.com/vk/artifex/internal/transform"
)

// ChainSpec is one declared transform chain, ready for expansion: an
// originating artifact and the ordered steps applied to it.
type ChainSpec struct {
	Name         string
	Artifact     artifact.Resolvable
	Steps        []transform.Step
	DepsResolver transform.GraphDependenciesResolver
}

// Planner expands chain specs into linked transformation nodes. Chains
// sharing an (artifact, step-prefix) reuse the same nodes, so each
// distinct input is transformed at most once per build. A prefix matches
// only when the chains share the configured step instances themselves;
// two steps of the same type with different configurations are distinct
// inputs and never share a node.
type Planner struct {
	seq       *Sequence
	buildPath string
	nodes     *lru.Cache[string, *TransformationNode]
	stepIDs   map[transform.Step]int
}

// NewPlanner creates a planner for one build. cacheSize bounds the node
// reuse cache; an evicted prefix only costs a duplicate node, never a
// correctness problem within one chain.
func NewPlanner(seq *Sequence, buildPath string, cacheSize int) (*Planner, error) {
	nodes, err := lru.New[string, *TransformationNode](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Planner{seq: seq, buildPath: buildPath, nodes: nodes, stepIDs: make(map[transform.Step]int)}, nil
}

// stepKey identifies a step instance within this planner. Keying on
// instance identity rather than display name keeps equally named steps
// with different configurations apart. Step values are used as map keys
// and must be comparable.
func (p *Planner) stepKey(step transform.Step) string {
	id, ok := p.stepIDs[step]
	if !ok {
		id = len(p.stepIDs) + 1
		p.stepIDs[step] = id
	}
	return step.DisplayName() + "#" + strconv.Itoa(id)
}

// Plan expands the chain into nodes and returns the terminal node. A chain
// must have at least one step.
func (p *Planner) Plan(spec ChainSpec) (*TransformationNode, error) {
	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("chain %q has no steps", spec.Name)
	}
	depsResolver := spec.DepsResolver
	if depsResolver == nil {
		depsResolver = transform.NoDependenciesResolver{}
	}

	key := spec.Artifact.ID().Name
	var node *TransformationNode
	for i, step := range spec.Steps {
		key = key + "|" + p.stepKey(step)
		if cached, ok := p.nodes.Get(key); ok {
			node = cached
			continue
		}
		if i == 0 {
			node = NewInitial(p.seq, step, spec.Artifact, depsResolver, p.buildPath)
		} else {
			node = NewChained(p.seq, step, node, depsResolver)
		}
		p.nodes.Add(key, node)
	}
	return node, nil
}

// Chain returns the full node sequence ending at terminal, initial first.
func Chain(terminal *TransformationNode) []*TransformationNode {
	var reversed []*TransformationNode
	for n := terminal; n != nil; n = n.Previous() {
		reversed = append(reversed, n)
	}
	out := make([]*TransformationNode, 0, len(reversed))
	for i := len(reversed) - 1; i >= 0; i-- {
		out = append(out, reversed[i])
	}
	return out
}

// DescribeChain renders a chain for reports, e.g. "guava: unzip -> checksum".
func DescribeChain(name string, terminal *TransformationNode) string {
	nodes := Chain(terminal)
	steps := make([]string, len(nodes))
	for i, n := range nodes {
		steps[i] = n.Step().DisplayName()
	}
	return name + ": " + strings.Join(steps, " -> ")
}
