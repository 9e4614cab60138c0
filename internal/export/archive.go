// Package export freezes a module's parameter state and one or more traced
// endpoints into a self-contained, inference-only artifact.
//
// An Archive is built bound to exactly one root module, mutated only by
// endpoint registration, and consumed by WriteOut. Access to one archive is
// single-threaded; callers serialize registration and write-out themselves.
package export

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/artifact"
	"github.com/kiln-ml/kiln/internal/backend/cpu"
	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// Option configures an Archive.
type Option func(*Archive)

// WithBackend sets the backend endpoints are traced against.
// Defaults to the CPU backend.
func WithBackend(b tensor.Backend) Option {
	return func(a *Archive) { a.backend = b }
}

// WithVariableDType compacts float32 variables to the given half-precision
// storage type in the written artifact. Loaders widen them back to float32.
func WithVariableDType(dt tensor.DataType) Option {
	return func(a *Archive) { a.storageDType = dt }
}

// Archive accumulates traced endpoints and their variable state for one
// root module, then serializes everything in a single write-out.
//
// The archive borrows the module: it reads parameter state but never
// mutates it, and the module outlives the archive.
type Archive struct {
	root         nn.Module
	backend      tensor.Backend
	scope        *trace.Scope
	registry     *VariableRegistry
	endpoints    []*Endpoint
	byName       map[string]struct{}
	storageDType tensor.DataType
}

// NewArchive creates an archive bound to the given root module.
// Fails with ErrInvalidRoot when root is not a Module.
func NewArchive(root any, opts ...Option) (*Archive, error) {
	m, ok := root.(nn.Module)
	if !ok || m == nil {
		return nil, fmt.Errorf("%w, got %T", ErrInvalidRoot, root)
	}

	a := &Archive{
		root:     m,
		backend:  cpu.New(),
		scope:    trace.NewScope(),
		registry: NewVariableRegistry(),
		byName:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.syncScope()
	return a, nil
}

// syncScope declares the root module's current parameters as trace
// variables. Called again before each trace: a lazily-built module may have
// materialized parameters since construction.
func (a *Archive) syncScope() {
	for _, p := range a.root.Parameters() {
		a.scope.Declare(p.Name(), p.Value())
	}
}

// AddEndpoint registers a named endpoint for the given callable.
//
// callable is either a plain trace.Fn (an explicit signature is then
// required) or a deferred-compile *trace.Function (its recorded concrete
// signature is reused when signature is nil). A nil signature with an
// uninvoked callable fails with ErrMissingSignature; a duplicate name fails
// with ErrEndpointTaken. Variables touched by the trace are merged into the
// archive registry, deduplicated by identity.
func (a *Archive) AddEndpoint(name string, callable any, signature trace.Signature) error {
	if _, taken := a.byName[name]; taken {
		return fmt.Errorf("%w: %q", ErrEndpointTaken, name)
	}

	res, err := resolveSignature(callable, signature)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", name, err)
	}

	a.syncScope()

	graph := res.graph
	touched := res.touched
	traceScope := res.scope
	if graph == nil {
		// The callable's own scope takes naming precedence, but the root
		// module's parameters must always trace as variables, never as
		// embedded constants, so the archive scope is unioned in.
		merged := trace.NewScope()
		merged.Merge(res.scope)
		merged.Merge(a.scope)
		graph, touched, err = trace.Trace(a.backend, res.fn, res.sig, merged)
		if err != nil {
			return fmt.Errorf("endpoint %q: %w", name, err)
		}
		traceScope = merged
		// Parameters may have been materialized during the trace itself.
		a.syncScope()
	}

	varKeys := make([]int, len(touched))
	for i, t := range touched {
		varKeys[i] = a.registry.Add(a.variableName(traceScope, t), t)
	}

	a.endpoints = append(a.endpoints, &Endpoint{
		name:    name,
		sig:     graph.Signature,
		graph:   graph,
		varKeys: varKeys,
	})
	a.byName[name] = struct{}{}
	return nil
}

// variableName finds a declared name for a touched tensor, preferring the
// scope the trace actually ran under.
func (a *Archive) variableName(traceScope *trace.Scope, t *tensor.RawTensor) string {
	if traceScope != nil {
		if name, ok := traceScope.Lookup(t); ok {
			return name
		}
	}
	if name, ok := a.scope.Lookup(t); ok {
		return name
	}
	return "variable"
}

// Endpoints returns the registered endpoint names in insertion order.
func (a *Archive) Endpoints() []string {
	names := make([]string, len(a.endpoints))
	for i, e := range a.endpoints {
		names[i] = e.name
	}
	return names
}

// Endpoint returns a registered endpoint by name.
func (a *Archive) Endpoint(name string) (*Endpoint, bool) {
	if _, ok := a.byName[name]; !ok {
		return nil, false
	}
	for _, e := range a.endpoints {
		if e.name == name {
			return e, true
		}
	}
	return nil, false
}

// Registry returns the archive's variable registry.
func (a *Archive) Registry() *VariableRegistry {
	return a.registry
}

// WriteOut serializes the archive to a directory bundle at path.
//
// Fails with ErrNoEndpoints before touching the disk when no endpoint is
// registered. The write is staged and renamed into place, so a failure
// never leaves a bundle a loader would accept. Writing the same archive
// state twice produces semantically identical bundles.
func (a *Archive) WriteOut(path string) error {
	if len(a.endpoints) == 0 {
		return ErrNoEndpoints
	}

	// The registry holds every endpoint-touched variable; union in the
	// root module's own state so untraced parameters are preserved too.
	a.syncScope()
	for _, p := range a.root.Parameters() {
		a.registry.Add(p.Name(), p.Value())
	}

	bundle := &artifact.Bundle{
		RootType:     fmt.Sprintf("%T", a.root),
		StorageDType: a.storageDType,
	}
	for _, v := range a.registry.Variables() {
		bundle.Variables = append(bundle.Variables, artifact.Variable{
			Key:   v.Key,
			Name:  v.Name,
			Value: v.Value,
		})
	}
	for _, e := range a.endpoints {
		bundle.Endpoints = append(bundle.Endpoints, artifact.Endpoint{
			Name:    e.name,
			Graph:   e.graph,
			VarKeys: e.VariableKeys(),
		})
	}

	if err := artifact.Write(path, bundle); err != nil {
		return fmt.Errorf("write out: %w", err)
	}
	return nil
}
