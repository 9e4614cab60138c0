package nn

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// buildBackend runs the zero-probe pass that propagates shapes through
// unbuilt layers.
var buildBackend tensor.Backend = cpu.New()

// Layer is a buildable computation unit stackable in a Sequential.
type Layer interface {
	// Build fixes the layer's parameter shapes for the given input shape.
	Build(inputShape tensor.Shape) error
	// Built reports whether parameter shapes are fixed.
	Built() bool
	// Forward computes the layer output.
	Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor
	// Parameters returns the layer's parameters, nil before build.
	Parameters() []*Parameter
}

// Sequential composes layers into a model, built lazily: parameter shapes
// are fixed either by an explicit Build or by the first forward pass.
//
// Sequential's graph is fully determined by shape inference, so once built
// it can be exported without ever having been called; it still tracks calls
// because the recorded input shape doubles as the default export signature.
type Sequential struct {
	layers    []Layer
	built     bool
	called    bool
	inputSpec trace.Signature
}

// NewSequential stacks the given layers into a model.
func NewSequential(layers ...Layer) *Sequential {
	return &Sequential{layers: layers}
}

// Build fixes parameter shapes for the given input shape by propagating it
// through every layer with a zero placeholder. Calling Build does not count
// as an invocation.
func (s *Sequential) Build(inputShape tensor.Shape) error {
	if s.built {
		return nil
	}
	if err := inputShape.Validate(); err != nil {
		return fmt.Errorf("sequential: %w", err)
	}

	// Shape propagation needs a real pass; run one on zeros.
	probe, err := tensor.Zeros(inputShape, tensor.Float32)
	if err != nil {
		return fmt.Errorf("sequential: %w", err)
	}
	x := probe
	for i, layer := range s.layers {
		if err := layer.Build(x.Shape()); err != nil {
			return fmt.Errorf("sequential: layer %d: %w", i, err)
		}
		x = layer.Forward(buildBackend, x)
	}

	s.inputSpec = trace.Signature{trace.SpecOf("input", probe, true)}
	s.built = true
	return nil
}

// Built reports whether every layer's parameter shapes are fixed.
func (s *Sequential) Built() bool {
	return s.built
}

// Called reports whether the model has been invoked on real data.
func (s *Sequential) Called() bool {
	return s.called
}

// InputSpec returns the input signature recorded at build time, with the
// leading dimension unbound.
func (s *Sequential) InputSpec() (trace.Signature, bool) {
	if !s.built {
		return nil, false
	}
	return s.inputSpec.Clone(), true
}

// Forward runs the layers in order, building the model on first use.
func (s *Sequential) Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor {
	if !s.built {
		if err := s.Build(input.Shape()); err != nil {
			panic(err)
		}
	}
	s.called = true

	x := input
	for _, layer := range s.layers {
		x = layer.Forward(b, x)
	}
	return x
}

// Parameters returns the parameters of every layer, in layer order.
func (s *Sequential) Parameters() []*Parameter {
	var params []*Parameter
	for _, layer := range s.layers {
		params = append(params, layer.Parameters()...)
	}
	return params
}

// Layers returns the stacked layers.
func (s *Sequential) Layers() []Layer {
	return s.layers
}
