package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Zeros creates a zero-initialized tensor.
func Zeros(shape Shape, dtype DataType) (*RawTensor, error) {
	return NewRaw(shape, dtype)
}

// FromSlice creates a tensor from a Go slice. The slice is copied.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}

	switch src := any(data).(type) {
	case []float32:
		copy(raw.AsFloat32(), src)
	case []float64:
		copy(raw.AsFloat64(), src)
	case []int32:
		copy(raw.AsInt32(), src)
	case []int64:
		copy(raw.AsInt64(), src)
	case []uint8:
		copy(raw.Data(), src)
	default:
		return nil, fmt.Errorf("unsupported slice type %T", data)
	}

	return raw, nil
}

// Randn creates a Float32 tensor with values drawn from N(0, 1).
func Randn(shape Shape, rng *rand.Rand) (*RawTensor, error) {
	raw, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	data := raw.AsFloat32()
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return raw, nil
}

// Xavier creates a Float32 tensor initialized with Xavier/Glorot uniform
// values for the given fan-in and fan-out.
func Xavier(fanIn, fanOut int, shape Shape, rng *rand.Rand) (*RawTensor, error) {
	raw, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}

	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))
	data := raw.AsFloat32()
	for i := range data {
		data[i] = (rng.Float32()*2 - 1) * limit
	}
	return raw, nil
}
