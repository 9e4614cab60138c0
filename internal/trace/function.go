package trace

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Function is a deferred-compile callable: it wraps an Fn and stays
// uncompiled until its first invocation with real data, at which point the
// concrete signature is recorded and the call is traced into a graph.
// Subsequent calls replay the graph.
//
// A Function has exactly two states: uncompiled (no concrete signature) and
// compiled-with-signature. The export resolver matches on this state rather
// than probing call history.
type Function struct {
	fn      Fn
	scope   *Scope
	sig     Signature
	graph   *Graph
	touched []*tensor.RawTensor
}

// NewFunction wraps fn as a deferred-compile Function. Variables the
// function closes over must be declared in scope to be captured as
// variables rather than frozen constants.
func NewFunction(fn Fn, scope *Scope) *Function {
	if scope == nil {
		scope = NewScope()
	}
	return &Function{fn: fn, scope: scope}
}

// Call invokes the function. The first call with real data fixes the
// concrete signature (the leading dimension stays bound to the observed
// batch size), traces the graph, and replays it; later calls only replay.
func (f *Function) Call(b tensor.Backend, inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	if f.graph == nil {
		if len(inputs) == 0 {
			return nil, fmt.Errorf("function called with no inputs")
		}
		sig := make(Signature, len(inputs))
		for i, in := range inputs {
			sig[i] = SpecOf(fmt.Sprintf("arg_%d", i), in, false)
		}

		graph, touched, err := Trace(b, f.fn, sig, f.scope)
		if err != nil {
			return nil, err
		}
		f.sig = sig
		f.graph = graph
		f.touched = touched
	}

	return f.graph.Run(b, f.touched, inputs...)
}

// Traced reports whether the function has a concrete trace.
func (f *Function) Traced() bool {
	return f.graph != nil
}

// ConcreteSignature returns the recorded signature from the first
// invocation, if any.
func (f *Function) ConcreteSignature() (Signature, bool) {
	if f.graph == nil {
		return nil, false
	}
	return f.sig.Clone(), true
}

// Graph returns the recorded graph, or nil if the function is uncompiled.
func (f *Function) Graph() *Graph {
	return f.graph
}

// Touched returns the variables read by the recorded trace, in slot order.
func (f *Function) Touched() []*tensor.RawTensor {
	return append([]*tensor.RawTensor(nil), f.touched...)
}

// Fn returns the wrapped callable, for re-specialization against an
// explicit signature.
func (f *Function) Fn() Fn {
	return f.fn
}

// Scope returns the variable scope the function traces under.
func (f *Function) Scope() *Scope {
	return f.scope
}
