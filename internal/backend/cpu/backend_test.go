package cpu

import (
	"math"
	"testing"

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

func wantF32(t *testing.T, got *tensor.RawTensor, shape tensor.Shape, want []float32) {
	t.Helper()
	if !got.Shape().Equal(shape) {
		t.Fatalf("Shape = %v, want %v", got.Shape(), shape)
	}
	for i, w := range want {
		if g := got.AsFloat32()[i]; math.Abs(float64(g-w)) > 1e-6 {
			t.Errorf("Element %d: got %v, want %v", i, g, w)
		}
	}
}

// TestAdd verifies element-wise addition without broadcasting.
func TestAdd(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := fromF32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})
	wantF32(t, b.Add(x, y), tensor.Shape{2, 2}, []float32{11, 22, 33, 44})
}

// TestAddBroadcast verifies row-vector and outer-product broadcasting.
func TestAddBroadcast(t *testing.T) {
	b := New()

	// [2,3] + [3] broadcasts the row vector.
	x := fromF32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	row := fromF32(t, []float32{10, 20, 30}, tensor.Shape{3})
	wantF32(t, b.Add(x, row), tensor.Shape{2, 3}, []float32{11, 22, 33, 14, 25, 36})

	// [2,1] + [1,3] broadcasts both operands.
	col := fromF32(t, []float32{1, 2}, tensor.Shape{2, 1})
	row2 := fromF32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})
	wantF32(t, b.Add(col, row2), tensor.Shape{2, 3}, []float32{11, 21, 31, 12, 22, 32})
}

// TestSubMulDiv spot-checks the remaining binary ops.
func TestSubMulDiv(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{4, 9, 16, 25}, tensor.Shape{4})
	y := fromF32(t, []float32{2, 3, 4, 5}, tensor.Shape{4})

	wantF32(t, b.Sub(x, y), tensor.Shape{4}, []float32{2, 6, 12, 20})
	wantF32(t, b.Mul(x, y), tensor.Shape{4}, []float32{8, 27, 64, 125})
	wantF32(t, b.Div(x, y), tensor.Shape{4}, []float32{2, 3, 4, 5})
}

// TestMatMul verifies 2D matrix multiplication against a hand-computed
// product.
func TestMatMul(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	y := fromF32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	// [1 2 3; 4 5 6] @ [7 8; 9 10; 11 12] = [58 64; 139 154]
	wantF32(t, b.MatMul(x, y), tensor.Shape{2, 2}, []float32{58, 64, 139, 154})
}

// TestTranspose verifies the default reversal and explicit permutations.
func TestTranspose(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	wantF32(t, b.Transpose(x), tensor.Shape{3, 2}, []float32{1, 4, 2, 5, 3, 6})

	// Identity permutation leaves the layout unchanged.
	wantF32(t, b.Transpose(x, 0, 1), tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
}

// TestReshape verifies explicit shapes and single -1 inference.
func TestReshape(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	wantF32(t, b.Reshape(x, tensor.Shape{3, 2}), tensor.Shape{3, 2}, []float32{1, 2, 3, 4, 5, 6})
	wantF32(t, b.Reshape(x, tensor.Shape{-1}), tensor.Shape{6}, []float32{1, 2, 3, 4, 5, 6})
	wantF32(t, b.Reshape(x, tensor.Shape{1, -1}), tensor.Shape{1, 6}, []float32{1, 2, 3, 4, 5, 6})
}

// TestScalarOps verifies AddScalar and MulScalar.
func TestScalarOps(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2, 3}, tensor.Shape{3})

	wantF32(t, b.AddScalar(x, 0.5), tensor.Shape{3}, []float32{1.5, 2.5, 3.5})
	wantF32(t, b.MulScalar(x, -2), tensor.Shape{3}, []float32{-2, -4, -6})
}

// TestActivations verifies relu, sigmoid and tanh at known points.
func TestActivations(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{-1, 0, 1}, tensor.Shape{3})

	wantF32(t, b.Relu(x), tensor.Shape{3}, []float32{0, 0, 1})
	wantF32(t, b.Tanh(fromF32(t, []float32{0}, tensor.Shape{1})), tensor.Shape{1}, []float32{0})

	sig := b.Sigmoid(fromF32(t, []float32{0}, tensor.Shape{1}))
	if got := sig.AsFloat32()[0]; math.Abs(float64(got)-0.5) > 1e-6 {
		t.Errorf("sigmoid(0) = %v, want 0.5", got)
	}
}

// TestSoftmax verifies each lane sums to one and ordering is preserved.
func TestSoftmax(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2, 3, 1, 1, 1}, tensor.Shape{2, 3})

	out := b.Softmax(x, -1)
	vals := out.AsFloat32()

	for lane := 0; lane < 2; lane++ {
		var sum float32
		for i := 0; i < 3; i++ {
			sum += vals[lane*3+i]
		}
		if math.Abs(float64(sum)-1) > 1e-5 {
			t.Errorf("Lane %d sums to %v, want 1", lane, sum)
		}
	}

	if !(vals[0] < vals[1] && vals[1] < vals[2]) {
		t.Error("Softmax should preserve ordering within a lane")
	}
	for i := 3; i < 6; i++ {
		if math.Abs(float64(vals[i])-1.0/3.0) > 1e-5 {
			t.Errorf("Uniform lane element %d = %v, want 1/3", i, vals[i])
		}
	}
}

// TestSoftmaxLargeValues verifies the max-shift keeps large inputs finite.
func TestSoftmaxLargeValues(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1000, 1001, 1002}, tensor.Shape{1, 3})

	out := b.Softmax(x, 1).AsFloat32()
	var sum float32
	for _, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("Softmax produced non-finite value %v", v)
		}
		sum += v
	}
	if math.Abs(float64(sum)-1) > 1e-5 {
		t.Errorf("Softmax sums to %v, want 1", sum)
	}
}

// TestCast verifies widening, narrowing and identity casts.
func TestCast(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1.5, -2}, tensor.Shape{2})

	f64 := b.Cast(x, tensor.Float64)
	if f64.DType() != tensor.Float64 || f64.AsFloat64()[0] != 1.5 {
		t.Errorf("Cast to float64 = %v (%s)", f64.AsFloat64(), f64.DType())
	}

	back := b.Cast(f64, tensor.Float32)
	wantF32(t, back, tensor.Shape{2}, []float32{1.5, -2})

	// Half round trip through Cast; 1.5 and -2 are exactly representable.
	half := b.Cast(x, tensor.Float16)
	if half.DType() != tensor.Float16 {
		t.Fatalf("Expected float16, got %s", half.DType())
	}
	wantF32(t, b.Cast(half, tensor.Float32), tensor.Shape{2}, []float32{1.5, -2})

	// Identity cast copies: distinct identity, same values.
	same := b.Cast(x, tensor.Float32)
	if same == x {
		t.Error("Identity cast should not return the input tensor")
	}
	wantF32(t, same, tensor.Shape{2}, []float32{1.5, -2})
}

// TestBinaryOpDoesNotMutateOperands guards the out-of-place contract the
// tracer depends on.
func TestBinaryOpDoesNotMutateOperands(t *testing.T) {
	b := New()
	x := fromF32(t, []float32{1, 2}, tensor.Shape{2})
	y := fromF32(t, []float32{3, 4}, tensor.Shape{2})

	_ = b.Add(x, y)
	wantF32(t, x, tensor.Shape{2}, []float32{1, 2})
	wantF32(t, y, tensor.Shape{2}, []float32{3, 4})
}
