// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the raw tensor type and backend interface for
// the Kiln export toolkit.
//
// # Overview
//
// A RawTensor is a dense n-dimensional array with a dtype and a
// reference-counted buffer. Tensor identity is pointer identity: two
// tensors are the same variable only if they are the same *RawTensor,
// regardless of contents. The export machinery relies on this to
// deduplicate variables shared between endpoints.
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    y, _ := tensor.Zeros(tensor.Shape{2, 2}, tensor.Float32)
//
//	    z := backend.Add(x, y)
//	    _ = z
//	}
//
// # Supported Data Types
//
//   - Float32, Float64 (compute types)
//   - Float16, BFloat16 (storage types, widened to Float32 for compute)
//   - Int32, Int64, Uint8, Bool
package tensor
