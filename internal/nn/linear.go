package nn

import (
	"fmt"
	"math/rand"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// defaultRNG seeds layer initialization. Export semantics never depend on
// the values, only on parameter identity and shape.
var defaultRNG = rand.New(rand.NewSource(1)) //nolint:gosec // init values, not secrets

// Linear implements a fully connected layer: y = x @ W.T + b.
//
// The layer is created with only its output width; input width, and with it
// the parameter shapes, are fixed at build time (first forward pass or an
// explicit Build call).
type Linear struct {
	units      int
	inFeatures int
	weight     *Parameter // [units, in_features]
	bias       *Parameter // [units]
	built      bool
}

// NewLinear creates an unbuilt Linear layer with the given output width.
func NewLinear(units int) *Linear {
	return &Linear{units: units}
}

// Build fixes the parameter shapes for the given input shape
// [batch, in_features] and allocates the parameters.
func (l *Linear) Build(inputShape tensor.Shape) error {
	if l.built {
		return nil
	}
	if len(inputShape) != 2 {
		return fmt.Errorf("linear: expected 2D input shape [batch, features], got %v", inputShape)
	}

	l.inFeatures = inputShape[1]

	weightShape := tensor.Shape{l.units, l.inFeatures}
	weightTensor, err := tensor.Xavier(l.inFeatures, l.units, weightShape, defaultRNG)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}
	biasTensor, err := tensor.Zeros(tensor.Shape{l.units}, tensor.Float32)
	if err != nil {
		return fmt.Errorf("linear: %w", err)
	}

	l.weight = NewParameter("weight", weightTensor)
	l.bias = NewParameter("bias", biasTensor)
	l.built = true
	return nil
}

// Built reports whether parameter shapes are fixed.
func (l *Linear) Built() bool {
	return l.built
}

// Forward computes y = x @ W.T + b, building the layer on first use.
func (l *Linear) Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor {
	if !l.built {
		if err := l.Build(input.Shape()); err != nil {
			panic(err)
		}
	}
	if input.Shape()[1] != l.inFeatures {
		panic(fmt.Sprintf("linear: expected input with %d features, got %d", l.inFeatures, input.Shape()[1]))
	}

	wT := b.Transpose(l.weight.Value())                     // [in_features, units]
	out := b.MatMul(input, wT)                              // [batch, units]
	return b.Add(out, b.Reshape(l.bias.Value(), tensor.Shape{1, l.units}))
}

// Parameters returns [weight, bias] once built, nil before.
func (l *Linear) Parameters() []*Parameter {
	if !l.built {
		return nil
	}
	return []*Parameter{l.weight, l.bias}
}

// Weight returns the weight parameter, nil before build.
func (l *Linear) Weight() *Parameter {
	return l.weight
}

// Bias returns the bias parameter, nil before build.
func (l *Linear) Bias() *Parameter {
	return l.bias
}

// Units returns the layer's output width.
func (l *Linear) Units() int {
	return l.units
}
