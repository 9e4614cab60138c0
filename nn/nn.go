// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/tensor"
)

// Module is the interface the export pipeline consumes. Anything with a
// traceable forward pass, a parameter list and a build state can be
// exported.
type Module = nn.Module

// CallTracker is an optional interface for modules that must have been
// invoked on real data before export, in addition to being built.
type CallTracker = nn.CallTracker

// InputSpecProvider is an optional interface for modules that know their
// own input signature, making an explicit signature unnecessary at
// export time.
type InputSpecProvider = nn.InputSpecProvider

// Parameter represents a named trainable tensor in a module.
type Parameter = nn.Parameter

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter(name string, t *tensor.RawTensor) *Parameter {
	return nn.NewParameter(name, t)
}

// Layers

// Layer is a buildable computation unit stackable in a Sequential.
type Layer = nn.Layer

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a linear layer with the given output width. The input
// width is inferred and fixed on first build.
//
// Example:
//
//	layer := nn.NewLinear(128)
//	_ = layer.Build(tensor.Shape{1, 784}) // weight becomes [128, 784]
func NewLinear(units int) *Linear {
	return nn.NewLinear(units)
}

// ReLU is the rectified linear activation layer.
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU { return nn.NewReLU() }

// Sigmoid is the logistic activation layer.
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a sigmoid activation layer.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// Tanh is the hyperbolic tangent activation layer.
type Tanh = nn.Tanh

// NewTanh creates a tanh activation layer.
func NewTanh() *Tanh { return nn.NewTanh() }

// Softmax is the softmax activation layer over the last dimension.
type Softmax = nn.Softmax

// NewSoftmax creates a softmax activation layer.
func NewSoftmax() *Softmax { return nn.NewSoftmax() }

// Sequential composes layers into a model, built lazily on first use.
type Sequential = nn.Sequential

// NewSequential stacks the given layers into a model.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(64),
//	    nn.NewTanh(),
//	    nn.NewLinear(10),
//	    nn.NewSoftmax(),
//	)
func NewSequential(layers ...Layer) *Sequential {
	return nn.NewSequential(layers...)
}
