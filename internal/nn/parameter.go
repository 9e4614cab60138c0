package nn

import (
	"github.com/kiln-ml/kiln/internal/tensor"
)

// Parameter represents a persistent learned tensor owned by a module.
//
// Identity is the identity of the underlying RawTensor: two parameters with
// identical values are distinct unless they share storage. The export
// registry deduplicates on this identity, so a parameter shared by several
// modules (or read by several endpoints) is serialized once.
type Parameter struct {
	name  string
	value *tensor.RawTensor
}

// NewParameter creates a parameter from an initialized tensor.
func NewParameter(name string, value *tensor.RawTensor) *Parameter {
	return &Parameter{name: name, value: value}
}

// Name returns the parameter name (e.g. "weight", "bias").
func (p *Parameter) Name() string {
	return p.name
}

// Value returns the parameter tensor.
func (p *Parameter) Value() *tensor.RawTensor {
	return p.value
}
