package export

import (
	"github.com/kiln-ml/kiln/internal/trace"
)

// Endpoint is a named, signature-fixed, traced entry point held by an
// archive. Once registered it is immutable.
type Endpoint struct {
	name    string
	sig     trace.Signature
	graph   *trace.Graph
	varKeys []int // registry key per graph variable slot
}

// Name returns the endpoint name, unique within its archive.
func (e *Endpoint) Name() string {
	return e.name
}

// Signature returns the concrete signature the endpoint was traced against.
func (e *Endpoint) Signature() trace.Signature {
	return e.sig.Clone()
}

// Graph returns the traced computation graph.
func (e *Endpoint) Graph() *trace.Graph {
	return e.graph
}

// VariableKeys returns, per graph variable slot, the registry key the slot
// reads from. Shared variables point at the same key across endpoints.
func (e *Endpoint) VariableKeys() []int {
	return append([]int(nil), e.varKeys...)
}
