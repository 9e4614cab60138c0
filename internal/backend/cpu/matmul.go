package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/parallel"
	"github.com/kiln-ml/kiln/internal/tensor"
)

var matmulParallel = parallel.DefaultConfig()

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: expected 2D tensors, got %v and %v", aShape, bShape))
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: inner dimensions do not match: %v @ %v", aShape, bShape))
	}
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		panic(fmt.Sprintf("matmul: only float32 supported, got %s and %s", a.DType(), b.DType()))
	}

	m, k, n := aShape[0], aShape[1], bShape[1]
	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	av, bv, dst := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	// ikj loop order keeps the inner loop sequential over both b and dst.
	// Rows of dst are disjoint, so the outer loop splits across workers.
	parallel.For(m, func(i int) {
		for l := 0; l < k; l++ {
			aVal := av[i*k+l]
			if aVal == 0 {
				continue
			}
			bRow := bv[l*n : (l+1)*n]
			dRow := dst[i*n : (i+1)*n]
			for j := range bRow {
				dRow[j] += aVal * bRow[j]
			}
		}
	}, matmulParallel)

	return result
}
