package plan

import (
	"context"

	"github.com/vk/artifex/internal/operations"
	"github.com/vk/artifex/internal/transform"
)

// TransformResult is the fixed result marker recorded by every executed
// transform-step operation.
const TransformResult = "TransformExecuted"

// OperationDetails is the structured payload attached to a transform-step
// operation for observability and tracing consumers.
type OperationDetails struct {
	BuildPath        string `json:"buildPath"`
	TransformationID int64  `json:"transformationId"`
	TransformerName  string `json:"transformerName"`
	SubjectName      string `json:"subjectName"`
}

// transformStepOperation wraps one node's transform body as a scoped build
// operation. The subject's failure is reported to the operation context so
// observability tooling sees transform failures without the scheduler
// treating them as fatal.
type transformStepOperation struct {
	node     *TransformationNode
	ctx      context.Context
	listener transform.Listener

	subject transform.Subject
}

func (o *transformStepOperation) Describe() operations.Descriptor {
	transformerName := o.node.step.DisplayName()
	subjectName := o.node.describeSubject()
	basicName := subjectName + " with " + transformerName
	return operations.Descriptor{
		DisplayName:         "Transform " + basicName,
		ProgressDisplayName: "Transforming " + basicName,
		Category:            operations.CategoryTransform,
		Details: OperationDetails{
			BuildPath:        o.node.BuildPath(),
			TransformationID: o.node.id,
			TransformerName:  transformerName,
			SubjectName:      subjectName,
		},
	}
}

func (o *transformStepOperation) Run(opCtx *operations.Context) error {
	o.subject = o.node.transformSubject(o.ctx, o.listener)
	opCtx.SetResult(TransformResult)
	opCtx.Failed(o.subject.Failure())
	return nil
}
