// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the module abstractions the Kiln export pipeline
// consumes, plus a small set of layers for building models to export.
//
// # Overview
//
// A Module is anything with a Forward pass, a parameter list and a build
// state. Modules are written against tensor.Backend, which is what makes
// them traceable: during export the forward pass runs once against a
// recording backend and the resulting graph is serialized in its place.
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/nn"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	func main() {
//	    model := nn.NewSequential(
//	        nn.NewLinear(128),
//	        nn.NewReLU(),
//	        nn.NewLinear(10),
//	    )
//
//	    backend := cpu.New()
//	    x, _ := tensor.Zeros(tensor.Shape{32, 784}, tensor.Float32)
//	    y := model.Forward(backend, x) // builds lazily on first call
//	    _ = y
//	}
package nn
