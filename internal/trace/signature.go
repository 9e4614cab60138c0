// Package trace turns a callable plus a concrete input signature into an
// immutable, replayable computation graph.
//
// Tracing works the way the autodiff tape records a forward pass: a Recorder
// wraps a real compute backend, executes the callable once on placeholder
// inputs, and records one graph node per operation. Variables are attributed
// through an explicit Scope instead of a global tracing context, so tracing
// is re-entrant and has no hidden state.
package trace

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// BatchDim marks an unbound leading dimension in an ArgSpec shape.
const BatchDim = -1

// ArgSpec describes one argument of a traced callable: a shape and an
// element type, optionally named. Only the leading dimension may be left
// unbound (BatchDim); every other dimension must be concrete.
type ArgSpec struct {
	Name  string
	Shape tensor.Shape
	DType tensor.DataType
}

// Spec constructs an ArgSpec. Use BatchDim for an unbound leading dimension.
func Spec(name string, dtype tensor.DataType, dims ...int) ArgSpec {
	return ArgSpec{Name: name, Shape: tensor.Shape(dims), DType: dtype}
}

// Validate checks that every non-leading dimension is concrete.
func (a ArgSpec) Validate() error {
	for i, dim := range a.Shape {
		if i == 0 && dim == BatchDim {
			continue
		}
		if dim <= 0 {
			return fmt.Errorf("argument %q: dimension %d is %d; only the leading dimension may be unbound", a.Name, i, dim)
		}
	}
	return nil
}

// Matches reports whether a concrete tensor satisfies the spec.
func (a ArgSpec) Matches(t *tensor.RawTensor) error {
	if t.DType() != a.DType {
		return fmt.Errorf("argument %q: dtype %s does not match spec %s", a.Name, t.DType(), a.DType)
	}
	shape := t.Shape()
	if len(shape) != len(a.Shape) {
		return fmt.Errorf("argument %q: rank %d does not match spec %v", a.Name, len(shape), a.Shape)
	}
	for i, dim := range a.Shape {
		if i == 0 && dim == BatchDim {
			continue
		}
		if shape[i] != dim {
			return fmt.Errorf("argument %q: shape %v does not match spec %v", a.Name, shape, a.Shape)
		}
	}
	return nil
}

// placeholder allocates a zero-valued tensor matching the spec, with an
// unbound leading dimension materialized as 1.
func (a ArgSpec) placeholder() (*tensor.RawTensor, error) {
	shape := a.Shape.Clone()
	if len(shape) > 0 && shape[0] == BatchDim {
		shape[0] = 1
	}
	return tensor.NewRaw(shape, a.DType)
}

// SpecOf derives the concrete ArgSpec of a tensor. When unbindLeading is set
// the leading dimension is recorded as BatchDim.
func SpecOf(name string, t *tensor.RawTensor, unbindLeading bool) ArgSpec {
	shape := t.Shape().Clone()
	if unbindLeading && len(shape) > 0 {
		shape[0] = BatchDim
	}
	return ArgSpec{Name: name, Shape: shape, DType: t.DType()}
}

// Signature is an ordered sequence of argument specifications.
type Signature []ArgSpec

// Validate checks every ArgSpec and requires at least one argument.
func (s Signature) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("signature has no arguments")
	}
	for _, a := range s {
		if err := a.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Matches reports whether concrete inputs satisfy the signature.
func (s Signature) Matches(inputs []*tensor.RawTensor) error {
	if len(inputs) != len(s) {
		return fmt.Errorf("signature has %d arguments, got %d inputs", len(s), len(inputs))
	}
	for i, a := range s {
		if err := a.Matches(inputs[i]); err != nil {
			return err
		}
	}
	return nil
}

// ArgNames returns the declared argument names, in order. Unnamed arguments
// get a positional fallback name.
func (s Signature) ArgNames() []string {
	names := make([]string, len(s))
	for i, a := range s {
		if a.Name != "" {
			names[i] = a.Name
		} else {
			names[i] = fmt.Sprintf("arg_%d", i)
		}
	}
	return names
}

// Clone returns a deep copy of the signature.
func (s Signature) Clone() Signature {
	out := make(Signature, len(s))
	for i, a := range s {
		out[i] = ArgSpec{Name: a.Name, Shape: a.Shape.Clone(), DType: a.DType}
	}
	return out
}
