package artifact

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// Variable is one registry entry to serialize.
type Variable struct {
	Key   int
	Name  string
	Value *tensor.RawTensor
}

// Endpoint is one traced entry point to serialize.
type Endpoint struct {
	Name    string
	Graph   *trace.Graph
	VarKeys []int
}

// Bundle is everything one write-out serializes.
type Bundle struct {
	RootType  string
	Variables []Variable
	Endpoints []Endpoint

	// StorageDType, when Float16 or BFloat16, compacts float32 variables
	// to that type on disk. Zero value keeps variables as they are.
	StorageDType tensor.DataType
}

// Write serializes the bundle to a directory at path.
//
// The bundle is staged in a sibling temporary directory and renamed into
// place, with the manifest written last inside the staging area: a crash at
// any point leaves either the previous bundle or no manifest, never a
// half-written bundle a loader would accept. An existing bundle at path is
// replaced.
func Write(path string, b *Bundle) error {
	if len(b.Endpoints) == 0 {
		return fmt.Errorf("bundle has no endpoints")
	}

	parent := filepath.Dir(path)
	staging, err := os.MkdirTemp(parent, ".kiln-staging-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	if err := writeInto(staging, b); err != nil {
		return err
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to replace existing bundle: %w", err)
	}
	if err := os.Rename(staging, path); err != nil {
		return fmt.Errorf("failed to move bundle into place: %w", err)
	}

	slog.Debug("wrote bundle",
		"path", path,
		"endpoints", len(b.Endpoints),
		"variables", len(b.Variables))
	return nil
}

func writeInto(dir string, b *Bundle) error {
	stored, err := storedVariables(b)
	if err != nil {
		return err
	}

	if err := writeVariableTable(filepath.Join(dir, VariablesFile), stored); err != nil {
		return err
	}

	if err := os.Mkdir(filepath.Join(dir, GraphsDir), 0o755); err != nil {
		return fmt.Errorf("failed to create graphs directory: %w", err)
	}

	manifest := Manifest{
		FormatVersion: FormatVersion,
		KilnVersion:   kilnVersion,
		ArtifactID:    uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		RootType:      b.RootType,
		VariablesFile: VariablesFile,
		NumVariables:  len(stored),
	}

	for _, e := range b.Endpoints {
		graphFile := filepath.Join(GraphsDir, e.Name+".json")
		names := make([]string, len(e.VarKeys))
		for slot, key := range e.VarKeys {
			for _, v := range b.Variables {
				if v.Key == key {
					names[slot] = v.Name
					break
				}
			}
		}

		def, err := encodeGraph(e.Graph, e.VarKeys, names)
		if err != nil {
			return fmt.Errorf("endpoint %q: %w", e.Name, err)
		}
		data, err := json.MarshalIndent(def, "", "  ")
		if err != nil {
			return fmt.Errorf("endpoint %q: failed to marshal graph: %w", e.Name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, graphFile), data, 0o644); err != nil {
			return fmt.Errorf("endpoint %q: %w", e.Name, err)
		}

		manifest.Endpoints = append(manifest.Endpoints, EndpointMeta{
			Name:      e.Name,
			GraphFile: graphFile,
			Signature: def.Signature,
		})
	}

	// Manifest last: its presence marks the bundle complete.
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// storedVariables applies the storage dtype compaction.
func storedVariables(b *Bundle) ([]Variable, error) {
	if b.StorageDType != tensor.Float16 && b.StorageDType != tensor.BFloat16 {
		return b.Variables, nil
	}

	out := make([]Variable, len(b.Variables))
	for i, v := range b.Variables {
		out[i] = v
		if v.Value.DType() != tensor.Float32 {
			continue
		}
		half, err := tensor.ToHalf(v.Value, b.StorageDType)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		out[i].Value = half
	}
	return out, nil
}

// writeVariableTable writes variables.bin: a 64-byte fixed header carrying
// the SHA-256 of the data section, a JSON table, padding to a 64-byte
// boundary, then the variable data.
func writeVariableTable(path string, vars []Variable) error {
	header := TableHeader{
		FormatVersion: FormatVersion,
		KilnVersion:   kilnVersion,
	}

	var offset int64
	var dataSize int
	for _, v := range vars {
		size := int64(v.Value.ByteSize())
		header.Variables = append(header.Variables, TensorMeta{
			Key:    v.Key,
			Name:   v.Name,
			DType:  dtypeToString(v.Value.DType()),
			Shape:  append([]int(nil), v.Value.Shape()...),
			Offset: offset,
			Size:   size,
		})
		offset += size
		dataSize += int(size)
	}

	data := make([]byte, 0, dataSize)
	for _, v := range vars {
		data = append(data, v.Value.Data()...)
	}
	checksum := ComputeChecksum(data)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal variable table header: %w", err)
	}

	var compacted uint32
	for _, m := range header.Variables {
		if m.DType == "float16" || m.DType == "bfloat16" {
			compacted = FlagCompacted
			break
		}
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(fixed[8:12], compacted)
	// 0x0C-0x0F reserved
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(data)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	//nolint:gosec // G304: bundle paths come from the caller by design
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create variable table: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := f.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(len(headerJSON))
	if padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; padding > 0 {
		if _, err := f.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write variable data: %w", err)
	}
	return nil
}
