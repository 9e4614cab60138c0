// Package loader reads a serialized bundle back into callable endpoints.
// It is the consuming side of the format: a loaded endpoint replays its
// recorded graph against the stored variables, with no dependency on the
// module that produced it.
package loader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiln-ml/kiln/internal/artifact"
	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// Common errors.
var (
	ErrUnknownEndpoint = errors.New("unknown endpoint")
	ErrMissingArgument = errors.New("missing argument")
)

// Option configures loading.
type Option func(*SavedArtifact)

// WithBackend sets the backend endpoints replay on. Defaults to the CPU
// backend.
func WithBackend(b tensor.Backend) Option {
	return func(a *SavedArtifact) {
		a.backend = b
	}
}

// SavedArtifact is a loaded bundle. Endpoints share the underlying
// variable storage, so a variable referenced by several endpoints is held
// in memory once.
type SavedArtifact struct {
	manifest  artifact.Manifest
	backend   tensor.Backend
	endpoints map[string]*Endpoint
	order     []string
}

// Load reads the bundle at path and resolves every endpoint against the
// variable table.
func Load(path string, opts ...Option) (*SavedArtifact, error) {
	stored, err := artifact.Read(path)
	if err != nil {
		return nil, err
	}

	a := &SavedArtifact{
		manifest:  stored.Manifest,
		backend:   cpu.New(),
		endpoints: make(map[string]*Endpoint),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, se := range stored.Endpoints {
		vars := make([]*tensor.RawTensor, len(se.VarKeys))
		for slot, key := range se.VarKeys {
			v, ok := stored.VariableByKey(key)
			if !ok {
				return nil, fmt.Errorf("endpoint %q: variable key %d not in table", se.Name, key)
			}
			vars[slot] = v.Value
		}
		a.endpoints[se.Name] = &Endpoint{
			name:    se.Name,
			graph:   se.Graph,
			vars:    vars,
			backend: a.backend,
		}
		a.order = append(a.order, se.Name)
	}

	slog.Debug("loaded artifact",
		"path", path,
		"artifact_id", stored.Manifest.ArtifactID,
		"endpoints", len(a.endpoints))
	return a, nil
}

// Endpoint returns the named endpoint.
func (a *SavedArtifact) Endpoint(name string) (*Endpoint, error) {
	e, ok := a.endpoints[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEndpoint, name)
	}
	return e, nil
}

// EndpointNames returns endpoint names in manifest order.
func (a *SavedArtifact) EndpointNames() []string {
	return append([]string(nil), a.order...)
}

// Manifest returns the bundle manifest.
func (a *SavedArtifact) Manifest() artifact.Manifest {
	return a.manifest
}

// Endpoint is one callable entry point of a loaded artifact.
type Endpoint struct {
	name    string
	graph   *trace.Graph
	vars    []*tensor.RawTensor
	backend tensor.Backend
}

// Name returns the endpoint name.
func (e *Endpoint) Name() string {
	return e.name
}

// Signature returns the endpoint's input signature.
func (e *Endpoint) Signature() trace.Signature {
	return e.graph.Signature.Clone()
}

// ArgNames returns the signature's argument names in positional order.
func (e *Endpoint) ArgNames() []string {
	return e.graph.Signature.ArgNames()
}

// Call replays the endpoint's graph on positional inputs.
func (e *Endpoint) Call(inputs ...*tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := e.graph.Signature.Matches(inputs); err != nil {
		return nil, fmt.Errorf("endpoint %q: %w", e.name, err)
	}
	return e.graph.Run(e.backend, e.vars, inputs...)
}

// CallNamed replays the endpoint's graph on inputs keyed by argument
// name. Every signature argument must be present; extra keys are an
// error.
func (e *Endpoint) CallNamed(inputs map[string]*tensor.RawTensor) (*tensor.RawTensor, error) {
	names := e.graph.Signature.ArgNames()
	if len(inputs) != len(names) {
		return nil, fmt.Errorf("endpoint %q: expected %d arguments, got %d", e.name, len(names), len(inputs))
	}
	positional := make([]*tensor.RawTensor, len(names))
	for i, name := range names {
		t, ok := inputs[name]
		if !ok {
			return nil, fmt.Errorf("endpoint %q: %w: %q", e.name, ErrMissingArgument, name)
		}
		positional[i] = t
	}
	return e.Call(positional...)
}
