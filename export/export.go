// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package export packages a trained module into a self-contained,
// inference-only artifact.
//
// # Overview
//
// The one-call path exports a module's default forward computation under
// the "serve" endpoint:
//
//	import (
//	    "github.com/kiln-ml/kiln/export"
//	    "github.com/kiln-ml/kiln/nn"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	model := nn.NewSequential(nn.NewLinear(64), nn.NewReLU(), nn.NewLinear(10))
//	_ = model.Build(tensor.Shape{1, 784})
//
//	err := export.ExportModel(model, "model.kiln")
//
// The multi-endpoint path registers several entry points on one archive.
// Variables shared between endpoints are stored once:
//
//	archive, err := export.NewArchive(model)
//	if err != nil { ... }
//
//	sig := export.Signature{export.Spec("input", tensor.Float32, export.BatchDim, 784)}
//	err = archive.AddEndpoint("serve", export.Fn(serveFn), sig)
//	err = archive.AddEndpoint("embed", export.Fn(embedFn), sig)
//	err = archive.WriteOut("model.kiln")
//
// Write-out is atomic: the bundle is staged beside the target and renamed
// into place, so a crash never leaves a half-written artifact.
package export

import (
	"github.com/kiln-ml/kiln/internal/export"
	"github.com/kiln-ml/kiln/nn"
	"github.com/kiln-ml/kiln/tensor"
	"github.com/kiln-ml/kiln/trace"
)

// Contract-violation errors.
var (
	ErrInvalidRoot           = export.ErrInvalidRoot
	ErrNotBuilt              = export.ErrNotBuilt
	ErrNotCalled             = export.ErrNotCalled
	ErrEndpointTaken         = export.ErrEndpointTaken
	ErrMissingSignature      = export.ErrMissingSignature
	ErrUnresolvableSignature = export.ErrUnresolvableSignature
	ErrNoEndpoints           = export.ErrNoEndpoints
)

// Signature types, re-exported for convenience when registering endpoints.
type (
	// Signature is an ordered list of argument specs.
	Signature = trace.Signature
	// ArgSpec describes one endpoint argument.
	ArgSpec = trace.ArgSpec
	// Fn is a traceable forward computation over a backend.
	Fn = trace.Fn
)

// BatchDim marks an unbound leading dimension in a signature shape.
const BatchDim = trace.BatchDim

// Spec builds an ArgSpec from a name, dtype and dims.
func Spec(name string, dtype tensor.DataType, dims ...int) ArgSpec {
	return trace.Spec(name, dtype, dims...)
}

// DefaultEndpointName is the endpoint ExportModel registers.
const DefaultEndpointName = export.DefaultEndpointName

// Option configures an Archive.
type Option = export.Option

// WithBackend sets the backend endpoints are traced against. Defaults to
// the CPU backend.
func WithBackend(b tensor.Backend) Option {
	return export.WithBackend(b)
}

// WithVariableDType compacts float32 variables to the given half-precision
// storage type in the written artifact.
//
// Example:
//
//	err := export.ExportModel(model, "model.kiln",
//	    export.WithVariableDType(tensor.BFloat16))
func WithVariableDType(dt tensor.DataType) Option {
	return export.WithVariableDType(dt)
}

// Archive accumulates traced endpoints and their variable state for one
// root module, then serializes everything in a single write-out.
type Archive = export.Archive

// NewArchive creates an archive bound to the given root module. Fails with
// ErrInvalidRoot when root is not an nn.Module.
func NewArchive(root any, opts ...Option) (*Archive, error) {
	return export.NewArchive(root, opts...)
}

// ExportModel freezes the module's default forward computation under the
// "serve" endpoint and writes the bundle to path.
func ExportModel(m nn.Module, path string, opts ...Option) error {
	return export.ExportModel(m, path, opts...)
}
