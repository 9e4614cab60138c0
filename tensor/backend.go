// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/kiln-ml/kiln/internal/tensor"

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// The tracing recorder is itself a Backend: it wraps a concrete backend
// and records every operation it forwards. Any module written against
// this interface can therefore be traced without modification.
//
// Implementations:
//   - backend/cpu: Pure Go reference backend
//
// Example:
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	backend := cpu.New()
//	x, _ := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32)
//	y := backend.Relu(x)
type Backend = tensor.Backend
