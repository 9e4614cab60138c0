// Package cpu implements the CPU backend for the Kiln op set.
//
// This is the reference backend: the tracer records against it and loaded
// artifacts replay on it. Operations compute in float32 or float64.
package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// CPUBackend implements tensor.Backend on the host CPU.
type CPUBackend struct{}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("div", a, b, func(x, y float32) float32 { return x / y },
		func(x, y float64) float64 { return x / y })
}

// binaryOp applies an element-wise op with broadcasting.
func (cpu *CPUBackend) binaryOp(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch: %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		dst := result.AsFloat32()
		av, bv := a.AsFloat32(), b.AsFloat32()
		forEachBroadcast(outShape, a.Shape(), b.Shape(), func(i, ai, bi int) {
			dst[i] = f32(av[ai], bv[bi])
		})
	case tensor.Float64:
		dst := result.AsFloat64()
		av, bv := a.AsFloat64(), b.AsFloat64()
		forEachBroadcast(outShape, a.Shape(), b.Shape(), func(i, ai, bi int) {
			dst[i] = f64(av[ai], bv[bi])
		})
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// forEachBroadcast walks the broadcast output space, mapping each flat output
// index to the flat indices of the two (possibly smaller) operands.
func forEachBroadcast(out, a, b tensor.Shape, fn func(i, ai, bi int)) {
	outStrides := out.ComputeStrides()
	aStrides := broadcastStrides(out, a)
	bStrides := broadcastStrides(out, b)

	n := out.NumElements()
	for i := 0; i < n; i++ {
		ai, bi := 0, 0
		rem := i
		for d := 0; d < len(out); d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			ai += idx * aStrides[d]
			bi += idx * bStrides[d]
		}
		fn(i, ai, bi)
	}
}

// broadcastStrides computes strides for operand shape `s` viewed through the
// broadcast output shape: broadcast dimensions get stride 0.
func broadcastStrides(out, s tensor.Shape) []int {
	strides := make([]int, len(out))
	sStrides := s.ComputeStrides()
	offset := len(out) - len(s)
	for d := range out {
		sd := d - offset
		if sd < 0 || s[sd] == 1 && out[d] != 1 {
			strides[d] = 0
		} else {
			strides[d] = sStrides[sd]
		}
	}
	return strides
}
