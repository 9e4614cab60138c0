package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Transpose permutes the tensor's axes. With no axes given, reverses them
// (the common 2D transpose).
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}

	outShape := make(tensor.Shape, ndim)
	for i, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: axis %d out of range for %dD tensor", ax, ndim))
		}
		outShape[i] = shape[ax]
	}

	result, err := tensor.NewRaw(outShape, t.DType())
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create result tensor: %v", err))
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	elemSize := t.DType().Size()
	src, dst := t.Data(), result.Data()

	n := shape.NumElements()
	for i := 0; i < n; i++ {
		// Decompose output index, map through the axis permutation.
		srcIdx := 0
		rem := i
		for d := 0; d < ndim; d++ {
			idx := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += idx * inStrides[axes[d]]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcIdx*elemSize:(srcIdx+1)*elemSize])
	}

	return result
}

// Reshape returns a tensor with the same data and a new shape.
// The element count must be preserved. A single dimension may be -1 and is
// inferred from the rest.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	resolved := resolveShape(t.Shape(), newShape)

	result, err := tensor.NewRaw(resolved, t.DType())
	if err != nil {
		panic(fmt.Sprintf("reshape: failed to create result tensor: %v", err))
	}
	copy(result.Data(), t.Data())
	return result
}

// resolveShape fills in a single -1 dimension and validates element count.
func resolveShape(old, want tensor.Shape) tensor.Shape {
	resolved := want.Clone()
	infer := -1
	known := 1
	for i, dim := range resolved {
		switch {
		case dim == -1:
			if infer >= 0 {
				panic(fmt.Sprintf("reshape: more than one inferred dimension in %v", want))
			}
			infer = i
		case dim > 0:
			known *= dim
		default:
			panic(fmt.Sprintf("reshape: invalid dimension %d in %v", dim, want))
		}
	}

	total := old.NumElements()
	if infer >= 0 {
		if known == 0 || total%known != 0 {
			panic(fmt.Sprintf("reshape: cannot infer dimension: %v -> %v", old, want))
		}
		resolved[infer] = total / known
		known *= resolved[infer]
	}
	if known != total {
		panic(fmt.Sprintf("reshape: element count mismatch: %v -> %v", old, want))
	}
	return resolved
}
