// Package nn implements the module types the Kiln exporter consumes:
// stateful callable units (layers and composed models) with learned
// parameters, built lazily on first use.
//
// The exporter only depends on the interfaces here; any type satisfying
// Module can be placed at the root of an export archive.
package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// Module is the base interface for all exportable components.
type Module interface {
	// Forward computes the module's default output for an input tensor.
	// The backend carries the computation; during export it is a trace
	// recorder.
	Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor

	// Parameters returns all persistent parameters of this module,
	// including those of nested modules.
	Parameters() []*Parameter

	// Built reports whether the module's parameter shapes are fixed.
	Built() bool
}

// CallTracker is implemented by modules whose computation graph may only be
// determined by an actual invocation (shape inference from the built state
// alone is not enough). The convenience exporter refuses a module that
// requires invocation until it has been called once on real data.
//
// Whether invocation is required is a capability the module itself reports,
// not something the exporter derives structurally.
type CallTracker interface {
	// RequiresInvocation reports whether the module's graph is only
	// resolved by a real call.
	RequiresInvocation() bool
	// Called reports whether the module has been invoked on real data.
	Called() bool
}

// InputSpecProvider is implemented by modules that can report the concrete
// input signature implied by their built state. The convenience exporter
// uses it to derive the signature of the default endpoint.
type InputSpecProvider interface {
	// InputSpec returns the input signature with an unbound leading
	// dimension, and whether one is available yet.
	InputSpec() (trace.Signature, bool)
}
