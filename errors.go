package rendergraph

import (
	"errors"
	"fmt"
)

// Precondition violations. They indicate a caller programming error and are
// never returned: the tracker and Submit panic with a *PreconditionError
// wrapping one of these.
var (
	// ErrUnregisteredResource is raised when a node or tracker call
	// references a handle that was never passed to AddBuffer or AddImage.
	ErrUnregisteredResource = errors.New("rendergraph: resource not registered")

	// ErrDuplicateResource is raised when a handle is registered twice.
	ErrDuplicateResource = errors.New("rendergraph: resource registered twice")

	// ErrResourceKind is raised when a buffer handle is used as an image or
	// the other way round.
	ErrResourceKind = errors.New("rendergraph: resource kind mismatch")

	// ErrUnbalancedScope is raised for nested BeginRendering, EndRendering
	// without BeginRendering, scope-only nodes outside a scope, or a graph
	// ending with an open scope.
	ErrUnbalancedScope = errors.New("rendergraph: unbalanced rendering scope")

	// ErrConflictingAccess is raised when links of one node (or a scope
	// node and its own attachments) require different layouts for
	// overlapping subresources.
	ErrConflictingAccess = errors.New("rendergraph: conflicting access declarations")

	// ErrEmptyRange is raised when an image range selects no subresource,
	// for example a zero LevelCount with a non-zero LayerCount.
	ErrEmptyRange = errors.New("rendergraph: empty subresource range")

	// ErrStaleNode is raised when a NodeHandle from a previous cycle is used.
	ErrStaleNode = errors.New("rendergraph: stale node handle")

	// ErrNilNodeData is raised when AddNode receives no payload.
	ErrNilNodeData = errors.New("rendergraph: node data is nil")
)

// PreconditionError describes a fatal precondition violation.
type PreconditionError struct {
	// Err is one of the sentinel errors above.
	Err error
	// Node is the program-order index of the offending node, or -1.
	Node int
	// Detail is a human-readable description.
	Detail string
}

func (e *PreconditionError) Error() string {
	if e.Node >= 0 {
		return fmt.Sprintf("%v: node %d: %s", e.Err, e.Node, e.Detail)
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Detail)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// fatal logs the violation and panics. Continuing would record GPU work with
// undefined resource state.
func fatal(err error, node int, format string, args ...any) {
	pe := &PreconditionError{Err: err, Node: node, Detail: fmt.Sprintf(format, args...)}
	Logger().Error("rendergraph: precondition violated", "error", pe.Error())
	panic(pe)
}
