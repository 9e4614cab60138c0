package export

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/nn"
	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// DefaultEndpointName is the conventional endpoint name ExportModel
// registers for the module's default forward computation.
const DefaultEndpointName = "serve"

// ExportModel is the single-endpoint shortcut: it freezes the module's
// default forward computation under the "serve" endpoint and writes the
// bundle to path.
//
// The module must be built (ErrNotBuilt otherwise). A module that reports
// it requires a real invocation before its graph is determined must also
// have been called at least once (ErrNotCalled otherwise). The endpoint
// signature is the one implied by the module's built input shape.
func ExportModel(m nn.Module, path string, opts ...Option) error {
	if m == nil {
		return fmt.Errorf("%w, got nil", ErrInvalidRoot)
	}
	if !m.Built() {
		return fmt.Errorf("could not export %T: %w", m, ErrNotBuilt)
	}
	if ct, ok := m.(nn.CallTracker); ok && ct.RequiresInvocation() && !ct.Called() {
		return fmt.Errorf("could not export %T: %w", m, ErrNotCalled)
	}

	var sig trace.Signature
	if sp, ok := m.(nn.InputSpecProvider); ok {
		sig, _ = sp.InputSpec()
	}
	if sig == nil {
		return fmt.Errorf("could not export %T: %w: the module does not expose an input signature; use an Archive with an explicit signature",
			m, ErrMissingSignature)
	}

	archive, err := NewArchive(m, opts...)
	if err != nil {
		return err
	}

	serve := trace.Fn(func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return m.Forward(b, inputs[0])
	})
	if err := archive.AddEndpoint(DefaultEndpointName, serve, sig); err != nil {
		return err
	}
	return archive.WriteOut(path)
}
