// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trace provides input signatures and deferred-compile functions
// for the Kiln export pipeline.
//
// # Overview
//
// A Signature fixes the argument shapes and dtypes an endpoint accepts. A
// leading dimension of BatchDim is unbound: the endpoint accepts any batch
// size. A Function wraps a forward computation and compiles it to a graph
// on its first concrete invocation; exporting a traced Function reuses the
// recorded graph and signature instead of tracing again.
//
// # Basic Usage
//
//	import (
//	    "github.com/kiln-ml/kiln/backend/cpu"
//	    "github.com/kiln-ml/kiln/tensor"
//	    "github.com/kiln-ml/kiln/trace"
//	)
//
//	sig := trace.Signature{
//	    trace.Spec("input", tensor.Float32, trace.BatchDim, 784),
//	}
//
//	fn := trace.NewFunction(func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
//	    return b.Relu(inputs[0])
//	}, trace.NewScope())
//
//	x, _ := tensor.Zeros(tensor.Shape{8, 784}, tensor.Float32)
//	y, _ := fn.Call(cpu.New(), x) // traces on first call, replays after
//	_, _ = y, sig
package trace

import (
	"github.com/kiln-ml/kiln/internal/trace"
	"github.com/kiln-ml/kiln/tensor"
)

// BatchDim marks an unbound leading dimension in a signature shape.
const BatchDim = trace.BatchDim

// ArgSpec describes one endpoint argument: a name, a shape and a dtype.
type ArgSpec = trace.ArgSpec

// Spec builds an ArgSpec from a name, dtype and dims.
//
// Example:
//
//	trace.Spec("image", tensor.Float32, trace.BatchDim, 28, 28)
func Spec(name string, dtype tensor.DataType, dims ...int) ArgSpec {
	return trace.Spec(name, dtype, dims...)
}

// SpecOf derives an ArgSpec from a concrete tensor. With unbindLeading the
// leading dimension becomes BatchDim.
func SpecOf(name string, t *tensor.RawTensor, unbindLeading bool) ArgSpec {
	return trace.SpecOf(name, t, unbindLeading)
}

// Signature is an ordered list of argument specs.
type Signature = trace.Signature

// Fn is a traceable forward computation over a backend.
type Fn = trace.Fn

// Scope names the variables a trace may touch. Tensors declared in a scope
// are recorded as variable references; everything else captured by a trace
// is embedded as a constant.
type Scope = trace.Scope

// NewScope creates an empty scope.
func NewScope() *Scope {
	return trace.NewScope()
}

// Function is a deferred-compile wrapper around an Fn: the first concrete
// call traces it, later calls replay the recorded graph.
type Function = trace.Function

// NewFunction wraps fn. Variables touched during tracing are resolved
// against scope.
func NewFunction(fn Fn, scope *Scope) *Function {
	return trace.NewFunction(fn, scope)
}

// Graph is a recorded forward computation.
type Graph = trace.Graph
