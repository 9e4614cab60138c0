package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Stateless activation layers. They are always built and own no parameters.

// ReLU applies the rectifier element-wise.
type ReLU struct{}

// NewReLU creates a ReLU activation layer.
func NewReLU() *ReLU { return &ReLU{} }

// Build is a no-op for stateless layers.
func (*ReLU) Build(tensor.Shape) error { return nil }

// Built always reports true.
func (*ReLU) Built() bool { return true }

// Forward applies the activation.
func (*ReLU) Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor {
	return b.Relu(input)
}

// Parameters returns nil.
func (*ReLU) Parameters() []*Parameter { return nil }

// Sigmoid applies the logistic function element-wise.
type Sigmoid struct{}

// NewSigmoid creates a Sigmoid activation layer.
func NewSigmoid() *Sigmoid { return &Sigmoid{} }

// Build is a no-op for stateless layers.
func (*Sigmoid) Build(tensor.Shape) error { return nil }

// Built always reports true.
func (*Sigmoid) Built() bool { return true }

// Forward applies the activation.
func (*Sigmoid) Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor {
	return b.Sigmoid(input)
}

// Parameters returns nil.
func (*Sigmoid) Parameters() []*Parameter { return nil }

// Tanh applies the hyperbolic tangent element-wise.
type Tanh struct{}

// NewTanh creates a Tanh activation layer.
func NewTanh() *Tanh { return &Tanh{} }

// Build is a no-op for stateless layers.
func (*Tanh) Build(tensor.Shape) error { return nil }

// Built always reports true.
func (*Tanh) Built() bool { return true }

// Forward applies the activation.
func (*Tanh) Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor {
	return b.Tanh(input)
}

// Parameters returns nil.
func (*Tanh) Parameters() []*Parameter { return nil }

// Softmax normalizes along the last dimension.
type Softmax struct{}

// NewSoftmax creates a Softmax layer over the last dimension.
func NewSoftmax() *Softmax { return &Softmax{} }

// Build is a no-op for stateless layers.
func (*Softmax) Build(tensor.Shape) error { return nil }

// Built always reports true.
func (*Softmax) Built() bool { return true }

// Forward applies softmax over the last dimension.
func (*Softmax) Forward(b tensor.Backend, input *tensor.RawTensor) *tensor.RawTensor {
	return b.Softmax(input, -1)
}

// Parameters returns nil.
func (*Softmax) Parameters() []*Parameter { return nil }
