package cpu

import (
	"fmt"
	"math"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("add_scalar", x,
		func(v float32) float32 { return v + float32(scalar) },
		func(v float64) float64 { return v + scalar })
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unaryOp("mul_scalar", x,
		func(v float32) float32 { return v * float32(scalar) },
		func(v float64) float64 { return v * scalar })
}

// Exp computes the element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("exp", x,
		func(v float32) float32 { return float32(math.Exp(float64(v))) },
		math.Exp)
}

// Tanh computes the element-wise hyperbolic tangent.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tanh", x,
		func(v float32) float32 { return float32(math.Tanh(float64(v))) },
		math.Tanh)
}

// Sigmoid computes the element-wise logistic function.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sigmoid", x,
		func(v float32) float32 { return 1 / (1 + float32(math.Exp(float64(-v)))) },
		func(v float64) float64 { return 1 / (1 + math.Exp(-v)) })
}

// Relu computes the element-wise rectifier.
func (cpu *CPUBackend) Relu(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x,
		func(v float32) float32 { return max(v, 0) },
		func(v float64) float64 { return max(v, 0) })
}

// Softmax computes softmax along the given dimension (negative dims count
// from the end). Values are shifted by the row max for numerical stability.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dim %d out of range for %dD tensor", dim, ndim))
	}
	if x.DType() != tensor.Float32 {
		panic(fmt.Sprintf("softmax: only float32 supported, got %s", x.DType()))
	}

	result, err := tensor.NewRaw(shape, tensor.Float32)
	if err != nil {
		panic(fmt.Sprintf("softmax: failed to create result tensor: %v", err))
	}

	strides := shape.ComputeStrides()
	dimSize := shape[dim]
	dimStride := strides[dim]
	src, dst := x.AsFloat32(), result.AsFloat32()

	// Iterate over every 1D lane along `dim`.
	outer := shape.NumElements() / dimSize
	for lane := 0; lane < outer; lane++ {
		// Base offset of this lane: distribute `lane` over the non-dim axes.
		base := 0
		rem := lane
		for d := ndim - 1; d >= 0; d-- {
			if d == dim {
				continue
			}
			idx := rem % shape[d]
			rem /= shape[d]
			base += idx * strides[d]
		}

		maxVal := float32(math.Inf(-1))
		for i := 0; i < dimSize; i++ {
			maxVal = max(maxVal, src[base+i*dimStride])
		}

		var sum float32
		for i := 0; i < dimSize; i++ {
			e := float32(math.Exp(float64(src[base+i*dimStride] - maxVal)))
			dst[base+i*dimStride] = e
			sum += e
		}
		for i := 0; i < dimSize; i++ {
			dst[base+i*dimStride] /= sum
		}
	}

	return result
}

// unaryOp applies an element-wise function.
func (cpu *CPUBackend) unaryOp(
	name string,
	x *tensor.RawTensor,
	f32 func(float32) float32,
	f64 func(float64) float64,
) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType())
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i, v := range src {
			dst[i] = f32(v)
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i, v := range src {
			dst[i] = f64(v)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}
