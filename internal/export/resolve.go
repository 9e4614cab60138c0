package export

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// resolved is the outcome of signature resolution: either a ready-made trace
// (reused from an already-compiled function) or a function to trace now
// against the concrete signature.
type resolved struct {
	sig     trace.Signature
	graph   *trace.Graph        // non-nil when an existing trace is reused
	touched []*tensor.RawTensor // variables of the reused trace
	fn      trace.Fn            // non-nil when a fresh trace is needed
	scope   *trace.Scope        // scope to trace fn under; nil means the archive scope
}

// resolveSignature determines the concrete signature to trace against.
//
// With an explicit signature the callable is re-specialized against it
// unconditionally, even when it already carries a trace. Without one, only a
// previously-invoked deferred-compile Function can supply a recorded
// concrete signature; anything else fails with ErrMissingSignature, with a
// message telling the caller which of the two fixes applies.
func resolveSignature(callable any, explicit trace.Signature) (resolved, error) {
	if explicit != nil {
		if err := explicit.Validate(); err != nil {
			return resolved{}, fmt.Errorf("%w: %v", ErrUnresolvableSignature, err)
		}

		switch c := callable.(type) {
		case trace.Fn:
			return resolved{sig: explicit.Clone(), fn: c}, nil
		case func(tensor.Backend, ...*tensor.RawTensor) *tensor.RawTensor:
			return resolved{sig: explicit.Clone(), fn: c}, nil
		case *trace.Function:
			return resolved{sig: explicit.Clone(), fn: c.Fn(), scope: c.Scope()}, nil
		default:
			return resolved{}, fmt.Errorf("%w of type %T", ErrUnresolvableSignature, callable)
		}
	}

	switch c := callable.(type) {
	case *trace.Function:
		if sig, ok := c.ConcreteSignature(); ok {
			return resolved{sig: sig, graph: c.Graph(), touched: c.Touched(), scope: c.Scope()}, nil
		}
		return resolved{}, fmt.Errorf(
			"%w: the function has never been called; provide a function that has already been called, or provide an input signature",
			ErrMissingSignature)
	case trace.Fn, func(tensor.Backend, ...*tensor.RawTensor) *tensor.RawTensor:
		return resolved{}, fmt.Errorf(
			"%w: you must provide an input signature for a plain function",
			ErrMissingSignature)
	default:
		return resolved{}, fmt.Errorf("%w of type %T", ErrUnresolvableSignature, callable)
	}
}
