package export

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
)

// Variable is one entry in the registry: a stable index, a unique name and
// the parameter tensor itself.
type Variable struct {
	Key   int // stable index, used as the identity key in the artifact
	Name  string
	Value *tensor.RawTensor
}

// VariableRegistry is an arena of the persistent tensors an archive
// references, deduplicated by allocation identity. Both the root module's
// state and every traced graph reference variables by index, never by
// embedded copy.
type VariableRegistry struct {
	vars  []Variable
	index map[*tensor.RawTensor]int
	names map[string]int // occurrences per base name, for uniquing
}

// NewVariableRegistry creates an empty registry.
func NewVariableRegistry() *VariableRegistry {
	return &VariableRegistry{
		index: make(map[*tensor.RawTensor]int),
		names: make(map[string]int),
	}
}

// Add registers a tensor under the given name and returns its stable index.
// A tensor already present keeps its index and first name; overlap across
// endpoints is expected, not an error.
func (r *VariableRegistry) Add(name string, t *tensor.RawTensor) int {
	if key, ok := r.index[t]; ok {
		return key
	}

	key := len(r.vars)
	r.vars = append(r.vars, Variable{Key: key, Name: r.unique(name), Value: t})
	r.index[t] = key
	return key
}

// unique disambiguates repeated base names ("weight", "weight_1", ...).
func (r *VariableRegistry) unique(name string) string {
	if name == "" {
		name = "variable"
	}
	n := r.names[name]
	r.names[name] = n + 1
	if n == 0 {
		return name
	}
	return fmt.Sprintf("%s_%d", name, n)
}

// IndexOf returns the stable index of a tensor, if registered.
func (r *VariableRegistry) IndexOf(t *tensor.RawTensor) (int, bool) {
	key, ok := r.index[t]
	return key, ok
}

// Len returns the number of registered variables.
func (r *VariableRegistry) Len() int {
	return len(r.vars)
}

// Variables returns the registered variables in index order.
func (r *VariableRegistry) Variables() []Variable {
	return append([]Variable(nil), r.vars...)
}
