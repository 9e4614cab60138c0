package trace

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Fn is the shape of a traceable callable: a pure function of a backend and
// its tensor arguments. During tracing the backend argument is a Recorder;
// at replay time the graph stands in for the function entirely.
type Fn func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor

// Trace invokes fn exactly once on zero-valued placeholders shaped per sig,
// recording a replayable graph and the scope variables the call read.
//
// Tracing the same fn against the same signature from the same scope state
// always produces an equivalent graph. Variable values are never mutated.
func Trace(inner tensor.Backend, fn Fn, sig Signature, scope *Scope) (*Graph, []*tensor.RawTensor, error) {
	if err := sig.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid signature: %w", err)
	}

	r := NewRecorder(inner, scope)
	placeholders := make([]*tensor.RawTensor, len(sig))
	for i, a := range sig {
		p, err := a.placeholder()
		if err != nil {
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}
		placeholders[i] = p
		r.BindInput(i, p)
	}

	output := fn(r, placeholders...)
	if output == nil {
		return nil, nil, fmt.Errorf("traced function returned nil")
	}

	graph, touched := r.Finish(sig, output)
	return graph, touched, nil
}
