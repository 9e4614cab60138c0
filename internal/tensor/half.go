package tensor

import (
	"fmt"

	bfloat16 "github.com/d4l3k/go-bfloat16"
	"github.com/x448/float16"
)

// Half-precision conversion helpers.
//
// Float16 and BFloat16 are storage types: the CPU backend computes in
// float32, but the artifact writer may compact variables to 16 bits on disk,
// and loaders widen them back before replay.

// ToHalf converts a Float32 tensor to the requested half-precision dtype.
func ToHalf(x *RawTensor, dtype DataType) (*RawTensor, error) {
	if x.DType() != Float32 {
		return nil, fmt.Errorf("half conversion requires float32 source, got %s", x.DType())
	}
	if dtype != Float16 && dtype != BFloat16 {
		return nil, fmt.Errorf("target dtype %s is not a half-precision type", dtype)
	}

	out, err := NewRaw(x.Shape(), dtype)
	if err != nil {
		return nil, err
	}

	src := x.AsFloat32()
	dst := out.AsUint16()
	switch dtype {
	case Float16:
		for i, v := range src {
			dst[i] = float16.Fromfloat32(v).Bits()
		}
	case BFloat16:
		for i, v := range src {
			dst[i] = uint16(bfloat16.FromFloat32(v))
		}
	}
	return out, nil
}

// FromHalf widens a Float16 or BFloat16 tensor to Float32.
func FromHalf(x *RawTensor) (*RawTensor, error) {
	if x.DType() != Float16 && x.DType() != BFloat16 {
		return nil, fmt.Errorf("dtype %s is not a half-precision type", x.DType())
	}

	out, err := NewRaw(x.Shape(), Float32)
	if err != nil {
		return nil, err
	}

	src := x.AsUint16()
	dst := out.AsFloat32()
	switch x.DType() {
	case Float16:
		for i, bits := range src {
			dst[i] = float16.Frombits(bits).Float32()
		}
	case BFloat16:
		for i, bits := range src {
			dst[i] = bfloat16.ToFloat32(bfloat16.BF16(bits))
		}
	}
	return out, nil
}
