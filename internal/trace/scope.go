package trace

import "github.com/kiln-ml/kiln/internal/tensor"

// Scope is the explicit variable context a trace runs under.
//
// Any tensor declared in the scope that the traced callable reads becomes a
// variable node in the graph and is reported as touched; undeclared leaf
// tensors are embedded as constants. Identity is pointer identity.
type Scope struct {
	order []*tensor.RawTensor
	names map[*tensor.RawTensor]string
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{names: make(map[*tensor.RawTensor]string)}
}

// Declare registers a tensor as a variable under the given name.
// Re-declaring the same tensor keeps the first name.
func (s *Scope) Declare(name string, t *tensor.RawTensor) {
	if _, ok := s.names[t]; ok {
		return
	}
	s.names[t] = name
	s.order = append(s.order, t)
}

// Merge declares every variable of other into s. Variables already
// declared keep their existing name.
func (s *Scope) Merge(other *Scope) {
	if other == nil {
		return
	}
	for _, t := range other.order {
		s.Declare(other.names[t], t)
	}
}

// Lookup returns the declared name of a tensor, if any.
func (s *Scope) Lookup(t *tensor.RawTensor) (string, bool) {
	name, ok := s.names[t]
	return name, ok
}

// Len returns the number of declared variables.
func (s *Scope) Len() int {
	return len(s.order)
}

// Tensors returns the declared tensors in declaration order.
func (s *Scope) Tensors() []*tensor.RawTensor {
	return append([]*tensor.RawTensor(nil), s.order...)
}
