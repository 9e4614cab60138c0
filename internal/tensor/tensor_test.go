package tensor

import (
	"strings"
	"testing"
)

// TestShapeNumElements verifies element counting, including the scalar case.
func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
		want  int
	}{
		{"scalar", Shape{}, 1},
		{"vector", Shape{5}, 5},
		{"matrix", Shape{2, 3}, 6},
		{"3d", Shape{2, 3, 4}, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.shape.NumElements(); got != tt.want {
				t.Errorf("NumElements(%v) = %d, want %d", tt.shape, got, tt.want)
			}
		})
	}
}

// TestShapeValidate rejects non-positive dimensions.
func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Expected valid shape, got: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Expected error for zero dimension")
	}
	if err := (Shape{-1, 3}).Validate(); err == nil {
		t.Error("Expected error for negative dimension")
	}
}

// TestComputeStrides verifies row-major stride computation.
func TestComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("ComputeStrides = %v, want %v", strides, want)
		}
	}
}

// TestBroadcastShapes verifies NumPy-style broadcasting rules.
func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Shape
		want    Shape
		needs   bool
		wantErr bool
	}{
		{"equal", Shape{2, 3}, Shape{2, 3}, Shape{2, 3}, false, false},
		{"row vector", Shape{2, 3}, Shape{3}, Shape{2, 3}, true, false},
		{"column x row", Shape{2, 1}, Shape{1, 3}, Shape{2, 3}, true, false},
		{"incompatible", Shape{2, 3}, Shape{2, 4}, nil, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, needs, err := BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %v vs %v", tt.a, tt.b)
				}
				return
			}
			if err != nil {
				t.Fatalf("BroadcastShapes failed: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("BroadcastShapes = %v, want %v", got, tt.want)
			}
			if needs != tt.needs {
				t.Errorf("needsBroadcast = %v, want %v", needs, tt.needs)
			}
		})
	}
}

// TestRawTensorIdentity verifies that identity is pointer identity, not
// value equality.
func TestRawTensorIdentity(t *testing.T) {
	a, err := FromSlice([]float32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}

	deep := a.DeepClone()
	if deep == a {
		t.Error("DeepClone should produce a distinct object")
	}
	if &deep.Data()[0] == &a.Data()[0] {
		t.Error("DeepClone should produce distinct storage")
	}
	for i := range a.AsFloat32() {
		if deep.AsFloat32()[i] != a.AsFloat32()[i] {
			t.Error("DeepClone should copy values")
		}
	}

	// Mutating the deep clone must not affect the original.
	deep.AsFloat32()[0] = 99
	if a.AsFloat32()[0] == 99 {
		t.Error("DeepClone storage should be independent")
	}
}

// TestCloneSharesBuffer verifies shallow clones share storage via the
// refcount.
func TestCloneSharesBuffer(t *testing.T) {
	a, err := Zeros(Shape{4}, Float32)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if !a.IsUnique() {
		t.Fatal("Fresh tensor should be unique")
	}

	b := a.Clone()
	if a.IsUnique() || b.IsUnique() {
		t.Error("Clone should share the buffer, making both non-unique")
	}

	b.Release()
	if !a.IsUnique() {
		t.Error("Releasing the clone should restore uniqueness")
	}
}

// TestForceNonUnique verifies the pin is reversible.
func TestForceNonUnique(t *testing.T) {
	a, err := Zeros(Shape{2}, Float32)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}

	unpin := a.ForceNonUnique()
	if a.IsUnique() {
		t.Error("Pinned tensor should report non-unique")
	}
	unpin()
	if !a.IsUnique() {
		t.Error("Unpinned tensor should report unique again")
	}
}

// TestFromSlice verifies element copy and the length check.
func TestFromSlice(t *testing.T) {
	a, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if a.DType() != Float32 {
		t.Errorf("Expected float32, got %s", a.DType())
	}
	if got := a.AsFloat32()[4]; got != 5 {
		t.Errorf("Expected element 4 to be 5, got %v", got)
	}

	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("Expected error for length/shape mismatch")
	}
}

// TestDataTypeRoundTrip verifies String and ParseDataType agree.
func TestDataTypeRoundTrip(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Float16, BFloat16, Int32, Int64, Uint8, Bool} {
		parsed, ok := ParseDataType(dt.String())
		if !ok || parsed != dt {
			t.Errorf("ParseDataType(%q) = %v, %v", dt.String(), parsed, ok)
		}
	}
	if _, ok := ParseDataType("complex128"); ok {
		t.Error("Expected ParseDataType to reject unknown names")
	}
}

// TestHalfRoundTrip verifies exactly representable values survive the
// float32 -> half -> float32 round trip.
func TestHalfRoundTrip(t *testing.T) {
	values := []float32{0, 1, -1, 0.5, -2.5, 256}

	for _, dtype := range []DataType{Float16, BFloat16} {
		t.Run(dtype.String(), func(t *testing.T) {
			src, err := FromSlice(values, Shape{len(values)})
			if err != nil {
				t.Fatalf("FromSlice failed: %v", err)
			}

			half, err := ToHalf(src, dtype)
			if err != nil {
				t.Fatalf("ToHalf failed: %v", err)
			}
			if half.DType() != dtype {
				t.Fatalf("Expected %s, got %s", dtype, half.DType())
			}
			if half.ByteSize() != 2*len(values) {
				t.Errorf("Expected %d bytes, got %d", 2*len(values), half.ByteSize())
			}

			wide, err := FromHalf(half)
			if err != nil {
				t.Fatalf("FromHalf failed: %v", err)
			}
			for i, want := range values {
				if got := wide.AsFloat32()[i]; got != want {
					t.Errorf("Value %d: got %v, want %v", i, got, want)
				}
			}
		})
	}
}

// TestHalfConversionErrors verifies dtype checks on both directions.
func TestHalfConversionErrors(t *testing.T) {
	f64, err := Zeros(Shape{2}, Float64)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if _, err := ToHalf(f64, Float16); err == nil {
		t.Error("Expected error converting float64 to half")
	}

	f32, err := Zeros(Shape{2}, Float32)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if _, err := ToHalf(f32, Int32); err == nil {
		t.Error("Expected error for non-half target dtype")
	}
	if _, err := FromHalf(f32); err == nil {
		t.Error("Expected error widening a float32 tensor")
	}
}

// TestAsFloat32PanicsOnWrongDType documents the accessor contract.
func TestAsFloat32PanicsOnWrongDType(t *testing.T) {
	a, err := Zeros(Shape{2}, Float64)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Expected panic for wrong dtype")
		}
		if !strings.Contains(r.(string), "float32") {
			t.Errorf("Unexpected panic message: %v", r)
		}
	}()
	a.AsFloat32()
}
