// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements the reference backend used for tracing probes
// and graph replay:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 element-wise ops with broadcasting
//   - 2D matrix multiplication
//   - Casts between compute and half-precision storage types
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
//	    x, _ := tensor.FromSlice([]float32{1, -2, 3}, tensor.Shape{1, 3})
//	    y := backend.Relu(x)
//	    _ = y
//	}
package cpu
