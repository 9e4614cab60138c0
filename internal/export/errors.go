package export

import "errors"

// Contract-violation errors. All are raised synchronously at the call that
// violates the precondition and are never retried internally.
var (
	// ErrInvalidRoot means an archive was constructed with a value that is
	// not a Module and cannot be introspected for variables.
	ErrInvalidRoot = errors.New("invalid root object: archives can only be built from a Module")

	// ErrNotBuilt means the module's parameter shapes are still
	// undetermined.
	ErrNotBuilt = errors.New("module must be built before it can be exported")

	// ErrNotCalled means the module's graph depends on an actual
	// invocation which has not happened yet.
	ErrNotCalled = errors.New("module must be called at least once before it can be exported")

	// ErrEndpointTaken means the endpoint name is already registered on
	// this archive.
	ErrEndpointTaken = errors.New("endpoint name is already taken")

	// ErrMissingSignature means no explicit signature was given and the
	// callable carries no recorded concrete signature.
	ErrMissingSignature = errors.New("missing input signature")

	// ErrUnresolvableSignature means the callable is of a kind the
	// resolver does not understand.
	ErrUnresolvableSignature = errors.New("cannot resolve a signature for callable")

	// ErrNoEndpoints means write-out was attempted on an archive with no
	// registered endpoints.
	ErrNoEndpoints = errors.New("no endpoints have been set; at least one endpoint is required")
)
