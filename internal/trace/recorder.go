package trace

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Recorder is a tensor.Backend decorator that executes every operation on
// the wrapped backend and records it as a graph node, keyed by the identity
// of the result tensor.
//
// Buffer pinning: every operand is marked non-unique for the duration of the
// wrapped call, so the inner backend can never satisfy an op by mutating an
// input in place. Tracing must observe variable values, never change them.
type Recorder struct {
	inner   tensor.Backend
	scope   *Scope
	nodes   []Node
	consts  []*tensor.RawTensor
	ids     map[*tensor.RawTensor]NodeID
	touched []*tensor.RawTensor // scope tensors, in first-read order
}

// NewRecorder creates a Recorder wrapping the given backend, attributing
// variables through scope.
func NewRecorder(inner tensor.Backend, scope *Scope) *Recorder {
	if scope == nil {
		scope = NewScope()
	}
	return &Recorder{
		inner: inner,
		scope: scope,
		ids:   make(map[*tensor.RawTensor]NodeID),
	}
}

// BindInput registers a placeholder tensor as the graph input for argument
// index arg. Must be called before the traced function runs.
func (r *Recorder) BindInput(arg int, t *tensor.RawTensor) {
	r.ids[t] = r.push(Node{Op: OpInput, Arg: arg})
}

// Finish seals the recording into a Graph with the given signature and
// output value, and returns the touched variables in slot order.
func (r *Recorder) Finish(sig Signature, output *tensor.RawTensor) (*Graph, []*tensor.RawTensor) {
	// An endpoint may return an input or a variable untouched by any op.
	out := r.resolve(output)

	g := &Graph{
		Signature: sig.Clone(),
		Nodes:     r.nodes,
		Consts:    r.consts,
		VarSlots:  len(r.touched),
		Output:    out,
	}
	return g, append([]*tensor.RawTensor(nil), r.touched...)
}

// resolve returns the node computing t, creating a leaf node for tensors
// the recorder has not seen: a variable node when t is declared in scope,
// a constant node otherwise.
func (r *Recorder) resolve(t *tensor.RawTensor) NodeID {
	if id, ok := r.ids[t]; ok {
		return id
	}

	var id NodeID
	if _, ok := r.scope.Lookup(t); ok {
		id = r.push(Node{Op: OpVariable, Arg: len(r.touched)})
		r.touched = append(r.touched, t)
	} else {
		// Undeclared leaf: freeze the value into the graph.
		id = r.push(Node{Op: OpConst, Arg: len(r.consts)})
		r.consts = append(r.consts, t.DeepClone())
	}
	r.ids[t] = id
	return id
}

func (r *Recorder) push(n Node) NodeID {
	r.nodes = append(r.nodes, n)
	return NodeID(len(r.nodes) - 1)
}

// record executes an op on the inner backend and records the node.
func (r *Recorder) record(n Node, exec func() *tensor.RawTensor, operands ...*tensor.RawTensor) *tensor.RawTensor {
	for _, op := range operands {
		defer op.ForceNonUnique()()
	}

	n.Inputs = make([]NodeID, len(operands))
	for i, op := range operands {
		n.Inputs[i] = r.resolve(op)
	}

	result := exec()
	r.ids[result] = r.push(n)
	return result
}

// Name returns the backend name.
func (r *Recorder) Name() string {
	return "Trace(" + r.inner.Name() + ")"
}

// Add records element-wise addition.
func (r *Recorder) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpAdd}, func() *tensor.RawTensor { return r.inner.Add(a, b) }, a, b)
}

// Sub records element-wise subtraction.
func (r *Recorder) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpSub}, func() *tensor.RawTensor { return r.inner.Sub(a, b) }, a, b)
}

// Mul records element-wise multiplication.
func (r *Recorder) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpMul}, func() *tensor.RawTensor { return r.inner.Mul(a, b) }, a, b)
}

// Div records element-wise division.
func (r *Recorder) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpDiv}, func() *tensor.RawTensor { return r.inner.Div(a, b) }, a, b)
}

// MatMul records matrix multiplication.
func (r *Recorder) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpMatMul}, func() *tensor.RawTensor { return r.inner.MatMul(a, b) }, a, b)
}

// Transpose records an axis permutation.
func (r *Recorder) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return r.record(Node{Op: OpTranspose, Ints: append([]int(nil), axes...)},
		func() *tensor.RawTensor { return r.inner.Transpose(t, axes...) }, t)
}

// Reshape records a reshape.
func (r *Recorder) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return r.record(Node{Op: OpReshape, Ints: append([]int(nil), newShape...)},
		func() *tensor.RawTensor { return r.inner.Reshape(t, newShape) }, t)
}

// AddScalar records scalar addition.
func (r *Recorder) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return r.record(Node{Op: OpAddScalar, Float: scalar},
		func() *tensor.RawTensor { return r.inner.AddScalar(x, scalar) }, x)
}

// MulScalar records scalar multiplication.
func (r *Recorder) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return r.record(Node{Op: OpMulScalar, Float: scalar},
		func() *tensor.RawTensor { return r.inner.MulScalar(x, scalar) }, x)
}

// Exp records the element-wise exponential.
func (r *Recorder) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpExp}, func() *tensor.RawTensor { return r.inner.Exp(x) }, x)
}

// Tanh records the element-wise hyperbolic tangent.
func (r *Recorder) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpTanh}, func() *tensor.RawTensor { return r.inner.Tanh(x) }, x)
}

// Sigmoid records the element-wise logistic function.
func (r *Recorder) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpSigmoid}, func() *tensor.RawTensor { return r.inner.Sigmoid(x) }, x)
}

// Relu records the element-wise rectifier.
func (r *Recorder) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return r.record(Node{Op: OpRelu}, func() *tensor.RawTensor { return r.inner.Relu(x) }, x)
}

// Softmax records softmax along a dimension.
func (r *Recorder) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return r.record(Node{Op: OpSoftmax, Arg: dim},
		func() *tensor.RawTensor { return r.inner.Softmax(x, dim) }, x)
}

// Cast records a dtype conversion.
func (r *Recorder) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return r.record(Node{Op: OpCast, Arg: int(dtype)},
		func() *tensor.RawTensor { return r.inner.Cast(x, dtype) }, x)
}
