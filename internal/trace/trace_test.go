package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/tensor"
)

func fromF32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.FromSlice(data, shape)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	return raw
}

// TestTraceRecordsVariablesAndConsts verifies leaf classification: tensors
// declared in scope become variable nodes, undeclared tensors are frozen as
// constants.
func TestTraceRecordsVariablesAndConsts(t *testing.T) {
	weight := fromF32(t, []float32{2, 2, 2}, tensor.Shape{1, 3})
	offset := fromF32(t, []float32{10, 10, 10}, tensor.Shape{1, 3})

	scope := NewScope()
	scope.Declare("weight", weight)

	fn := func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return b.Add(b.Mul(inputs[0], weight), offset)
	}

	sig := Signature{Spec("x", tensor.Float32, BatchDim, 3)}
	graph, touched, err := Trace(cpu.New(), fn, sig, scope)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	if graph.VarSlots != 1 {
		t.Errorf("VarSlots = %d, want 1", graph.VarSlots)
	}
	if len(touched) != 1 || touched[0] != weight {
		t.Errorf("Expected touched = [weight], got %v", touched)
	}
	if len(graph.Consts) != 1 {
		t.Fatalf("Expected 1 embedded constant, got %d", len(graph.Consts))
	}
	// Constants are captured by value, not by reference.
	if graph.Consts[0] == offset {
		t.Error("Embedded constant should be a copy, not the original tensor")
	}
	if graph.Consts[0].AsFloat32()[0] != 10 {
		t.Errorf("Constant value = %v, want 10", graph.Consts[0].AsFloat32()[0])
	}

	var ops []string
	for _, n := range graph.Nodes {
		ops = append(ops, n.Op)
	}
	want := []string{OpInput, OpVariable, OpMul, OpConst, OpAdd}
	if diff := cmp.Diff(want, ops); diff != "" {
		t.Errorf("Recorded ops mismatch (-want +got):\n%s", diff)
	}
}

// TestTraceIsDeterministic verifies tracing the same function twice yields
// structurally identical graphs.
func TestTraceIsDeterministic(t *testing.T) {
	weight := fromF32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	scope := NewScope()
	scope.Declare("weight", weight)

	fn := func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return b.Relu(b.MatMul(inputs[0], weight))
	}
	sig := Signature{Spec("x", tensor.Float32, BatchDim, 2)}

	g1, _, err := Trace(cpu.New(), fn, sig, scope)
	if err != nil {
		t.Fatalf("First trace failed: %v", err)
	}
	g2, _, err := Trace(cpu.New(), fn, sig, scope)
	if err != nil {
		t.Fatalf("Second trace failed: %v", err)
	}

	if diff := cmp.Diff(g1.Nodes, g2.Nodes); diff != "" {
		t.Errorf("Node mismatch between traces (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(g1.Signature, g2.Signature); diff != "" {
		t.Errorf("Signature mismatch between traces (-first +second):\n%s", diff)
	}
	if g1.Output != g2.Output || g1.VarSlots != g2.VarSlots {
		t.Error("Traces disagree on output node or variable slots")
	}
}

// TestTraceDoesNotMutateVariables verifies the buffer pinning contract.
func TestTraceDoesNotMutateVariables(t *testing.T) {
	weight := fromF32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	scope := NewScope()
	scope.Declare("weight", weight)

	fn := func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		y := b.Add(inputs[0], weight)
		return b.MulScalar(y, 2)
	}
	sig := Signature{Spec("x", tensor.Float32, 2, 2)}

	if _, _, err := Trace(cpu.New(), fn, sig, scope); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	want := []float32{1, 2, 3, 4}
	for i, w := range want {
		if got := weight.AsFloat32()[i]; got != w {
			t.Errorf("Variable element %d mutated: got %v, want %v", i, got, w)
		}
	}
	if !weight.IsUnique() {
		t.Error("Trace should release all pins on the variable buffer")
	}
}

// TestTraceSignatureValidation rejects empty signatures and unbound
// non-leading dimensions.
func TestTraceSignatureValidation(t *testing.T) {
	fn := func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return inputs[0]
	}

	if _, _, err := Trace(cpu.New(), fn, Signature{}, nil); err == nil {
		t.Error("Expected error for empty signature")
	}

	bad := Signature{Spec("x", tensor.Float32, 2, BatchDim)}
	if _, _, err := Trace(cpu.New(), fn, bad, nil); err == nil {
		t.Error("Expected error for unbound non-leading dimension")
	}
}

// TestGraphRunBatchPolymorphic verifies an unbound leading dimension
// accepts any batch size at replay.
func TestGraphRunBatchPolymorphic(t *testing.T) {
	weight := fromF32(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})
	scope := NewScope()
	scope.Declare("weight", weight)

	fn := func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return b.MatMul(inputs[0], weight)
	}
	sig := Signature{Spec("x", tensor.Float32, BatchDim, 2)}

	graph, touched, err := Trace(cpu.New(), fn, sig, scope)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	b := cpu.New()
	for _, batch := range []int{1, 4} {
		data := make([]float32, batch*2)
		for i := range data {
			data[i] = float32(i)
		}
		x := fromF32(t, data, tensor.Shape{batch, 2})
		out, err := graph.Run(b, touched, x)
		if err != nil {
			t.Fatalf("Run with batch %d failed: %v", batch, err)
		}
		if !out.Shape().Equal(tensor.Shape{batch, 2}) {
			t.Errorf("Batch %d output shape = %v", batch, out.Shape())
		}
		// Identity weight: output equals input.
		for i, w := range data {
			if got := out.AsFloat32()[i]; got != w {
				t.Errorf("Batch %d element %d: got %v, want %v", batch, i, got, w)
			}
		}
	}
}

// TestGraphRunValidation verifies variable and input checks at replay.
func TestGraphRunValidation(t *testing.T) {
	weight := fromF32(t, []float32{1, 1}, tensor.Shape{1, 2})
	scope := NewScope()
	scope.Declare("weight", weight)

	fn := func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return b.Add(inputs[0], weight)
	}
	sig := Signature{Spec("x", tensor.Float32, 1, 2)}

	graph, touched, err := Trace(cpu.New(), fn, sig, scope)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	b := cpu.New()
	x := fromF32(t, []float32{1, 2}, tensor.Shape{1, 2})

	if _, err := graph.Run(b, nil, x); err == nil {
		t.Error("Expected error for missing variable values")
	}

	wrongShape := fromF32(t, []float32{1, 2, 3}, tensor.Shape{1, 3})
	if _, err := graph.Run(b, touched, wrongShape); err == nil {
		t.Error("Expected error for input shape mismatch")
	}

	f64, err := tensor.Zeros(tensor.Shape{1, 2}, tensor.Float64)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if _, err := graph.Run(b, touched, f64); err == nil {
		t.Error("Expected error for input dtype mismatch")
	}
}

// TestGraphRunRejectsNegativeIndices verifies that a graph with corrupt
// node references errors instead of panicking, since graphs can come
// from untrusted files.
func TestGraphRunRejectsNegativeIndices(t *testing.T) {
	b := cpu.New()
	x := fromF32(t, []float32{1, 2}, tensor.Shape{1, 2})
	sig := Signature{Spec("x", tensor.Float32, 1, 2)}

	cases := []struct {
		name  string
		graph *Graph
	}{
		{"negative node input", &Graph{
			Signature: sig,
			Nodes: []Node{
				{Op: OpInput, Arg: 0},
				{Op: OpRelu, Inputs: []NodeID{-1}},
			},
			Output: 1,
		}},
		{"negative input arg", &Graph{
			Signature: sig,
			Nodes:     []Node{{Op: OpInput, Arg: -1}},
			Output:    0,
		}},
		{"negative variable slot", &Graph{
			Signature: sig,
			Nodes:     []Node{{Op: OpVariable, Arg: -1}},
			Output:    0,
		}},
		{"negative const index", &Graph{
			Signature: sig,
			Nodes:     []Node{{Op: OpConst, Arg: -1}},
			Output:    0,
		}},
		{"negative output node", &Graph{
			Signature: sig,
			Nodes:     []Node{{Op: OpInput, Arg: 0}},
			Output:    -1,
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := tc.graph.Run(b, nil, x); err == nil {
				t.Error("Expected error for corrupt graph")
			}
		})
	}
}

// TestFunctionDeferredCompile verifies the two-state contract: uncompiled
// until the first concrete call, then replay.
func TestFunctionDeferredCompile(t *testing.T) {
	weight := fromF32(t, []float32{3}, tensor.Shape{1, 1})
	scope := NewScope()
	scope.Declare("weight", weight)

	calls := 0
	f := NewFunction(func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		calls++
		return b.Mul(inputs[0], weight)
	}, scope)

	if f.Traced() {
		t.Fatal("Fresh function should be uncompiled")
	}
	if _, ok := f.ConcreteSignature(); ok {
		t.Fatal("Uncompiled function should not report a signature")
	}

	b := cpu.New()
	x := fromF32(t, []float32{2}, tensor.Shape{1, 1})
	out, err := f.Call(b, x)
	if err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if got := out.AsFloat32()[0]; got != 6 {
		t.Errorf("First call = %v, want 6", got)
	}
	if !f.Traced() {
		t.Error("Function should be compiled after the first call")
	}

	sig, ok := f.ConcreteSignature()
	if !ok || len(sig) != 1 {
		t.Fatalf("ConcreteSignature = %v, %v", sig, ok)
	}
	// The recorded signature keeps the observed batch size bound.
	if sig[0].Shape[0] != 1 {
		t.Errorf("Recorded leading dim = %d, want 1", sig[0].Shape[0])
	}

	// Later calls replay the graph without re-running the Go function.
	x2 := fromF32(t, []float32{5}, tensor.Shape{1, 1})
	out2, err := f.Call(b, x2)
	if err != nil {
		t.Fatalf("Second call failed: %v", err)
	}
	if got := out2.AsFloat32()[0]; got != 15 {
		t.Errorf("Second call = %v, want 15", got)
	}
	if calls != 1 {
		t.Errorf("Traced function body ran %d times, want 1", calls)
	}
}

// TestScopeFirstNameWins documents re-declaration semantics.
func TestScopeFirstNameWins(t *testing.T) {
	v := fromF32(t, []float32{1}, tensor.Shape{1})
	s := NewScope()
	s.Declare("kernel", v)
	s.Declare("alias", v)

	name, ok := s.Lookup(v)
	if !ok || name != "kernel" {
		t.Errorf("Lookup = %q, %v; want \"kernel\", true", name, ok)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}
