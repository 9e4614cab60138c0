package cpu

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Cast converts a tensor to a different data type.
//
// Supported conversions: float32 <-> float64, float32 <-> float16/bfloat16,
// and the identity cast (which copies).
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.DeepClone()
	}

	switch {
	case x.DType() == tensor.Float32 && dtype == tensor.Float64:
		result, err := tensor.NewRaw(x.Shape(), tensor.Float64)
		if err != nil {
			panic(fmt.Sprintf("cast: %v", err))
		}
		src, dst := x.AsFloat32(), result.AsFloat64()
		for i, v := range src {
			dst[i] = float64(v)
		}
		return result

	case x.DType() == tensor.Float64 && dtype == tensor.Float32:
		result, err := tensor.NewRaw(x.Shape(), tensor.Float32)
		if err != nil {
			panic(fmt.Sprintf("cast: %v", err))
		}
		src, dst := x.AsFloat64(), result.AsFloat32()
		for i, v := range src {
			dst[i] = float32(v)
		}
		return result

	case x.DType() == tensor.Float32 && (dtype == tensor.Float16 || dtype == tensor.BFloat16):
		result, err := tensor.ToHalf(x, dtype)
		if err != nil {
			panic(fmt.Sprintf("cast: %v", err))
		}
		return result

	case (x.DType() == tensor.Float16 || x.DType() == tensor.BFloat16) && dtype == tensor.Float32:
		result, err := tensor.FromHalf(x)
		if err != nil {
			panic(fmt.Sprintf("cast: %v", err))
		}
		return result

	default:
		panic(fmt.Sprintf("cast: unsupported conversion %s -> %s", x.DType(), dtype))
	}
}
