package trace

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// NodeID indexes a node within its graph. Node i computes value i; inputs
// always reference lower-numbered nodes, so a graph is replayed by a single
// forward walk.
type NodeID int

// Graph op codes. The leaf ops bind values supplied at replay time; the
// compute ops map one-to-one onto the tensor.Backend interface.
const (
	OpInput     = "input"    // Arg: argument index in the signature
	OpVariable  = "variable" // Arg: index into the graph's variable slots
	OpConst     = "const"    // Arg: index into the graph's constant table
	OpAdd       = "add"
	OpSub       = "sub"
	OpMul       = "mul"
	OpDiv       = "div"
	OpMatMul    = "matmul"
	OpTranspose = "transpose"  // Ints: axis permutation
	OpReshape   = "reshape"    // Ints: target shape
	OpAddScalar = "add_scalar" // Float: scalar
	OpMulScalar = "mul_scalar" // Float: scalar
	OpExp       = "exp"
	OpTanh      = "tanh"
	OpSigmoid   = "sigmoid"
	OpRelu      = "relu"
	OpSoftmax   = "softmax" // Arg: dim
	OpCast      = "cast"    // Arg: target DataType
)

// Node is one recorded operation.
type Node struct {
	Op     string
	Inputs []NodeID
	Ints   []int   // transpose axes / reshape shape
	Float  float64 // scalar operand
	Arg    int     // leaf index, softmax dim or cast dtype
}

// Graph is an immutable, replayable computation: a pure function of
// (variable values, concrete inputs) with no dependency on the code it was
// traced from.
type Graph struct {
	Signature Signature
	Nodes     []Node
	Consts    []*tensor.RawTensor // values for OpConst nodes
	VarSlots  int                 // number of OpVariable slots
	Output    NodeID
}

// Run replays the graph. variables must have one tensor per variable slot,
// in slot order; inputs must satisfy the graph signature (the unbound
// leading dimension accepts any batch size).
func (g *Graph) Run(b tensor.Backend, variables []*tensor.RawTensor, inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(variables) != g.VarSlots {
		return nil, fmt.Errorf("graph has %d variable slots, got %d values", g.VarSlots, len(variables))
	}
	if err := g.Signature.Matches(inputs); err != nil {
		return nil, err
	}

	vals := make([]*tensor.RawTensor, len(g.Nodes))
	for i := range g.Nodes {
		v, err := g.eval(b, &g.Nodes[i], vals, variables, inputs)
		if err != nil {
			return nil, fmt.Errorf("node %d (%s): %w", i, g.Nodes[i].Op, err)
		}
		vals[i] = v
	}

	if g.Output < 0 || int(g.Output) >= len(vals) {
		return nil, fmt.Errorf("output node %d out of range", g.Output)
	}
	return vals[g.Output], nil
}

func (g *Graph) eval(
	b tensor.Backend,
	n *Node,
	vals []*tensor.RawTensor,
	variables []*tensor.RawTensor,
	inputs []*tensor.RawTensor,
) (*tensor.RawTensor, error) {
	in := make([]*tensor.RawTensor, len(n.Inputs))
	for i, id := range n.Inputs {
		if id < 0 || int(id) >= len(vals) || vals[id] == nil {
			return nil, fmt.Errorf("input node %d not yet computed", id)
		}
		in[i] = vals[id]
	}

	switch n.Op {
	case OpInput:
		if n.Arg < 0 || n.Arg >= len(inputs) {
			return nil, fmt.Errorf("argument index %d out of range", n.Arg)
		}
		return inputs[n.Arg], nil
	case OpVariable:
		if n.Arg < 0 || n.Arg >= len(variables) {
			return nil, fmt.Errorf("variable slot %d out of range", n.Arg)
		}
		return variables[n.Arg], nil
	case OpConst:
		if n.Arg < 0 || n.Arg >= len(g.Consts) {
			return nil, fmt.Errorf("constant index %d out of range", n.Arg)
		}
		return g.Consts[n.Arg], nil
	case OpAdd:
		return b.Add(in[0], in[1]), nil
	case OpSub:
		return b.Sub(in[0], in[1]), nil
	case OpMul:
		return b.Mul(in[0], in[1]), nil
	case OpDiv:
		return b.Div(in[0], in[1]), nil
	case OpMatMul:
		return b.MatMul(in[0], in[1]), nil
	case OpTranspose:
		return b.Transpose(in[0], n.Ints...), nil
	case OpReshape:
		return b.Reshape(in[0], tensor.Shape(n.Ints)), nil
	case OpAddScalar:
		return b.AddScalar(in[0], n.Float), nil
	case OpMulScalar:
		return b.MulScalar(in[0], n.Float), nil
	case OpExp:
		return b.Exp(in[0]), nil
	case OpTanh:
		return b.Tanh(in[0]), nil
	case OpSigmoid:
		return b.Sigmoid(in[0]), nil
	case OpRelu:
		return b.Relu(in[0]), nil
	case OpSoftmax:
		return b.Softmax(in[0], n.Arg), nil
	case OpCast:
		return b.Cast(in[0], tensor.DataType(n.Arg)), nil
	default:
		return nil, fmt.Errorf("unsupported op")
	}
}
