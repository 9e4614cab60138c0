package artifact

import (
	"fmt"
	"sort"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// validateTable checks variable metadata for internal consistency: sizes
// must match declared shapes and dtypes, every entry must lie inside the
// data section and no two entries may overlap.
func validateTable(vars []TensorMeta, dataSize int64) error {
	for _, m := range vars {
		dt, ok := stringToDtype(m.DType)
		if !ok {
			return &ValidationError{
				Kind:     "unknown_dtype",
				Variable: m.Name,
				Details:  fmt.Sprintf("dtype %q", m.DType),
				Err:      ErrUnknownDType,
			}
		}

		shape := tensor.Shape(m.Shape)
		if err := shape.Validate(); err != nil {
			return &ValidationError{
				Kind:     "invalid_shape",
				Variable: m.Name,
				Details:  err.Error(),
			}
		}

		want := int64(shape.NumElements() * dt.Size())
		if m.Size != want {
			return &ValidationError{
				Kind:     "size_mismatch",
				Variable: m.Name,
				Details:  fmt.Sprintf("declared %d bytes, shape %v (%s) needs %d", m.Size, m.Shape, m.DType, want),
			}
		}

		if m.Offset < 0 || m.Offset+m.Size > dataSize {
			return &ValidationError{
				Kind:     "out_of_bounds",
				Variable: m.Name,
				Details:  fmt.Sprintf("range [%d, %d) exceeds data section of %d bytes", m.Offset, m.Offset+m.Size, dataSize),
				Err:      ErrOutOfBounds,
			}
		}
	}

	sorted := make([]TensorMeta, len(vars))
	copy(sorted, vars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset < sorted[j].Offset })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if sorted[i].Offset < prev.Offset+prev.Size {
			return &ValidationError{
				Kind:     "offset_overlap",
				Variable: sorted[i].Name,
				Details:  fmt.Sprintf("offset %d overlaps %q ending at %d", sorted[i].Offset, prev.Name, prev.Offset+prev.Size),
				Err:      ErrOffsetOverlap,
			}
		}
	}
	return nil
}
