// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package loader reads an exported bundle back into callable endpoints.
//
// A loaded endpoint replays its recorded graph against the stored
// variables. Loading does not need the module that produced the bundle:
// the artifact is self-contained.
//
// Example:
//
//	import (
//	    "github.com/kiln-ml/kiln/loader"
//	    "github.com/kiln-ml/kiln/tensor"
//	)
//
//	artifact, err := loader.Load("model.kiln")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	serve, err := artifact.Endpoint("serve")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	x, _ := tensor.Zeros(tensor.Shape{8, 784}, tensor.Float32)
//	y, err := serve.Call(x)
package loader

import (
	"github.com/kiln-ml/kiln/internal/loader"
	"github.com/kiln-ml/kiln/tensor"
)

// Common errors.
var (
	ErrUnknownEndpoint = loader.ErrUnknownEndpoint
	ErrMissingArgument = loader.ErrMissingArgument
)

// SavedArtifact is a loaded bundle. Endpoints share the underlying
// variable storage.
type SavedArtifact = loader.SavedArtifact

// Endpoint is one callable entry point of a loaded artifact.
type Endpoint = loader.Endpoint

// Option configures loading.
type Option = loader.Option

// WithBackend sets the backend endpoints replay on. Defaults to the CPU
// backend.
func WithBackend(b tensor.Backend) Option {
	return loader.WithBackend(b)
}

// Load reads the bundle at path and resolves every endpoint against the
// variable table.
func Load(path string, opts ...Option) (*SavedArtifact, error) {
	return loader.Load(path, opts...)
}
