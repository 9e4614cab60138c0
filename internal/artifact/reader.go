package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// StoredVariable is one variable read back from a bundle. Values stored in
// a half-precision type are widened to float32 on load; StoredDType keeps
// the on-disk type.
type StoredVariable struct {
	Key         int
	Name        string
	Value       *tensor.RawTensor
	StoredDType tensor.DataType
	StoredSize  int64
}

// StoredEndpoint is one endpoint read back from a bundle.
type StoredEndpoint struct {
	Name    string
	Graph   *trace.Graph
	VarKeys []int
}

// StoredBundle is a fully parsed bundle.
type StoredBundle struct {
	Manifest  Manifest
	Variables []StoredVariable
	Endpoints []StoredEndpoint
}

// Read parses and validates the bundle at path.
func Read(path string) (*StoredBundle, error) {
	manifestPath := filepath.Join(path, ManifestFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingManifest, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, manifest.FormatVersion)
	}

	vars, err := readVariableTable(filepath.Join(path, manifest.VariablesFile))
	if err != nil {
		return nil, err
	}
	if len(vars) != manifest.NumVariables {
		return nil, fmt.Errorf("manifest declares %d variables but table has %d",
			manifest.NumVariables, len(vars))
	}

	bundle := &StoredBundle{Manifest: manifest, Variables: vars}
	for _, em := range manifest.Endpoints {
		graphData, err := os.ReadFile(filepath.Join(path, filepath.FromSlash(em.GraphFile)))
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", em.Name, err)
		}
		var def GraphDef
		if err := json.Unmarshal(graphData, &def); err != nil {
			return nil, fmt.Errorf("endpoint %q: failed to parse graph: %w", em.Name, err)
		}
		g, varKeys, err := decodeGraph(&def)
		if err != nil {
			return nil, fmt.Errorf("endpoint %q: %w", em.Name, err)
		}
		bundle.Endpoints = append(bundle.Endpoints, StoredEndpoint{
			Name:    em.Name,
			Graph:   g,
			VarKeys: varKeys,
		})
	}

	slog.Debug("read bundle",
		"path", path,
		"endpoints", len(bundle.Endpoints),
		"variables", len(bundle.Variables))
	return bundle, nil
}

// VariableByKey returns the stored variable with the given table key.
func (b *StoredBundle) VariableByKey(key int) (StoredVariable, bool) {
	for _, v := range b.Variables {
		if v.Key == key {
			return v, true
		}
	}
	return StoredVariable{}, false
}

// readVariableTable parses variables.bin, verifying the checksum before
// any tensor is materialized.
func readVariableTable(path string) ([]StoredVariable, error) {
	//nolint:gosec // G304: bundle paths come from the caller by design
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read variable table: %w", err)
	}
	if len(raw) < FixedHeaderSize {
		return nil, fmt.Errorf("%w: file too small (%d bytes)", ErrInvalidMagic, len(raw))
	}
	if string(raw[0:4]) != MagicBytes {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, raw[0:4])
	}
	version := binary.LittleEndian.Uint32(raw[4:8])
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	headerSize := binary.LittleEndian.Uint64(raw[16:24])
	dataSize := binary.LittleEndian.Uint64(raw[24:32])
	var stored [ChecksumSize]byte
	copy(stored[:], raw[ChecksumOffset:ChecksumOffset+ChecksumSize])

	// Sizes are clamped against the file length before any arithmetic so a
	// hostile header cannot wrap the offsets around.
	fileSize := uint64(len(raw))
	if headerSize > fileSize-FixedHeaderSize {
		return nil, &ValidationError{
			Kind:    "truncated",
			Details: fmt.Sprintf("file is %d bytes, header claims %d", len(raw), headerSize),
		}
	}
	headerEnd := uint64(FixedHeaderSize) + headerSize
	dataStart := (headerEnd + HeaderAlignment - 1) / HeaderAlignment * HeaderAlignment
	if dataStart > fileSize || dataSize > fileSize-dataStart {
		return nil, &ValidationError{
			Kind:    "truncated",
			Details: fmt.Sprintf("file is %d bytes, data claims %d at offset %d", len(raw), dataSize, dataStart),
		}
	}

	var header TableHeader
	if err := json.Unmarshal(raw[FixedHeaderSize:headerEnd], &header); err != nil {
		return nil, fmt.Errorf("failed to parse variable table header: %w", err)
	}

	data := raw[dataStart : dataStart+dataSize]
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, err
	}
	if err := validateTable(header.Variables, int64(dataSize)); err != nil {
		return nil, err
	}

	vars := make([]StoredVariable, 0, len(header.Variables))
	for _, m := range header.Variables {
		dt, ok := stringToDtype(m.DType)
		if !ok {
			return nil, fmt.Errorf("variable %q: %w: %q", m.Name, ErrUnknownDType, m.DType)
		}
		t, err := tensor.NewRaw(tensor.Shape(m.Shape), dt)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", m.Name, err)
		}
		copy(t.Data(), data[m.Offset:m.Offset+m.Size])

		if dt == tensor.Float16 || dt == tensor.BFloat16 {
			wide, err := tensor.FromHalf(t)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", m.Name, err)
			}
			t = wide
		}

		vars = append(vars, StoredVariable{
			Key:         m.Key,
			Name:        m.Name,
			Value:       t,
			StoredDType: dt,
			StoredSize:  m.Size,
		})
	}
	return vars, nil
}
