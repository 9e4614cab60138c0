// Copyright 2025 Kiln ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package export_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/kiln-ml/kiln/backend/cpu"
	"github.com/kiln-ml/kiln/export"
	"github.com/kiln-ml/kiln/loader"
	"github.com/kiln-ml/kiln/nn"
	"github.com/kiln-ml/kiln/tensor"
	"github.com/kiln-ml/kiln/trace"
)

// TestPublicAPIRoundTrip exercises the full public surface: build, export,
// load, call.
func TestPublicAPIRoundTrip(t *testing.T) {
	model := nn.NewSequential(
		nn.NewLinear(16),
		nn.NewReLU(),
		nn.NewLinear(4),
		nn.NewSoftmax(),
	)
	if err := model.Build(tensor.Shape{1, 8}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	x, err := tensor.FromSlice([]float32{1, 0, -1, 0.5, 2, -2, 0, 1}, tensor.Shape{1, 8})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	eager := model.Forward(cpu.New(), x)

	path := filepath.Join(t.TempDir(), "model.kiln")
	if err := export.ExportModel(model, path); err != nil {
		t.Fatalf("ExportModel failed: %v", err)
	}

	art, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	serve, err := art.Endpoint(export.DefaultEndpointName)
	if err != nil {
		t.Fatalf("Endpoint failed: %v", err)
	}

	out, err := serve.Call(x)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	for i, want := range eager.AsFloat32() {
		if got := out.AsFloat32()[i]; math.Abs(float64(got-want)) > 1e-6 {
			t.Errorf("Element %d: got %v, want %v", i, got, want)
		}
	}
}

// TestPublicArchiveWithExplicitSignature covers the archive path and the
// half-precision storage option.
func TestPublicArchiveWithExplicitSignature(t *testing.T) {
	model := nn.NewSequential(nn.NewLinear(2))
	if err := model.Build(tensor.Shape{1, 2}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	archive, err := export.NewArchive(model, export.WithVariableDType(tensor.BFloat16))
	if err != nil {
		t.Fatalf("NewArchive failed: %v", err)
	}

	sig := export.Signature{export.Spec("input", tensor.Float32, export.BatchDim, 2)}
	serve := export.Fn(func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return model.Forward(b, inputs[0])
	})
	if err := archive.AddEndpoint("serve", serve, sig); err != nil {
		t.Fatalf("AddEndpoint failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.kiln")
	if err := archive.WriteOut(path); err != nil {
		t.Fatalf("WriteOut failed: %v", err)
	}

	art, err := loader.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	x, err := tensor.Zeros(tensor.Shape{3, 2}, tensor.Float32)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	e, err := art.Endpoint("serve")
	if err != nil {
		t.Fatalf("Endpoint failed: %v", err)
	}
	out, err := e.Call(x)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !out.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Output shape = %v, want [3 2]", out.Shape())
	}
}

// TestPublicDeferredCompileFunction covers exporting a traced Function
// without an explicit signature.
func TestPublicDeferredCompileFunction(t *testing.T) {
	model := nn.NewSequential(nn.NewLinear(2))
	if err := model.Build(tensor.Shape{1, 3}); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	scope := trace.NewScope()
	for _, p := range model.Parameters() {
		scope.Declare(p.Name(), p.Value())
	}

	fn := trace.NewFunction(func(b tensor.Backend, inputs ...*tensor.RawTensor) *tensor.RawTensor {
		return model.Forward(b, inputs[0])
	}, scope)

	x, err := tensor.Zeros(tensor.Shape{2, 3}, tensor.Float32)
	if err != nil {
		t.Fatalf("Zeros failed: %v", err)
	}
	if _, err := fn.Call(cpu.New(), x); err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	archive, err := export.NewArchive(model)
	if err != nil {
		t.Fatalf("NewArchive failed: %v", err)
	}
	if err := archive.AddEndpoint("serve", fn, nil); err != nil {
		t.Fatalf("AddEndpoint failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.kiln")
	if err := archive.WriteOut(path); err != nil {
		t.Fatalf("WriteOut failed: %v", err)
	}
	if _, err := loader.Load(path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
}
