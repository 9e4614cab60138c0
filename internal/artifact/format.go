// Package artifact implements the serialized bundle layout: a directory
// holding a deduplicated variable table (variables.bin), one graph
// definition per endpoint (graphs/<name>.json) and a manifest binding
// endpoint names to graphs (manifest.json, written last as the integrity
// marker).
package artifact

import (
	"time"

	"github.com/kiln-ml/kiln/internal/tensor"
)

const kilnVersion = "0.3.1" // Current Kiln version

// Variable table format constants.
const (
	MagicBytes      = "KILN"
	FormatVersion   = 1
	FixedHeaderSize = 64   // fixed binary header (0x40 bytes)
	HeaderAlignment = 64   // tensor data alignment
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // checksum offset in the fixed header
)

// Bundle file names.
const (
	VariablesFile = "variables.bin"
	ManifestFile  = "manifest.json"
	GraphsDir     = "graphs"
)

// Flags for the variable table.
const (
	FlagCompacted uint32 = 1 << 0 // variables stored in a half-precision type
)

// TableHeader is the JSON header embedded in variables.bin.
type TableHeader struct {
	FormatVersion int          `json:"format_version"`
	KilnVersion   string       `json:"kiln_version"`
	Variables     []TensorMeta `json:"variables"`
}

// TensorMeta describes one variable in the table.
type TensorMeta struct {
	Key    int    `json:"key"` // identity key, referenced by graphs
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from start of data section
	Size   int64  `json:"size"`   // bytes
}

// Manifest is the bundle's top-level index. Its presence marks a complete
// write; loaders reject a bundle without it.
type Manifest struct {
	FormatVersion int            `json:"format_version"`
	KilnVersion   string         `json:"kiln_version"`
	ArtifactID    string         `json:"artifact_id"`
	CreatedAt     time.Time      `json:"created_at"`
	RootType      string         `json:"root_type"`
	VariablesFile string         `json:"variables_file"`
	NumVariables  int            `json:"num_variables"`
	Endpoints     []EndpointMeta `json:"endpoints"`
}

// EndpointMeta binds an endpoint name to its graph definition file.
type EndpointMeta struct {
	Name      string    `json:"name"`
	GraphFile string    `json:"graph_file"`
	Signature []ArgSpec `json:"signature"`
}

// ArgSpec is the JSON form of one signature argument. A leading dimension
// of -1 is unbound (batch-polymorphic).
type ArgSpec struct {
	Name  string `json:"name,omitempty"`
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
}

// GraphDef is the JSON form of a traced graph.
type GraphDef struct {
	Signature []ArgSpec  `json:"signature"`
	Nodes     []NodeDef  `json:"nodes"`
	Consts    []ConstDef `json:"consts,omitempty"`
	Variables []VarRef   `json:"variables,omitempty"`
	Output    int        `json:"output"`
}

// NodeDef is one graph node.
type NodeDef struct {
	Op     string  `json:"op"`
	Inputs []int   `json:"inputs,omitempty"`
	Ints   []int   `json:"ints,omitempty"`
	Float  float64 `json:"float,omitempty"`
	Arg    int     `json:"arg,omitempty"`
}

// ConstDef embeds a captured constant value.
type ConstDef struct {
	DType string `json:"dtype"`
	Shape []int  `json:"shape"`
	Data  []byte `json:"data"` // little-endian element bytes, base64 in JSON
}

// VarRef maps a graph variable slot to a variable table key.
type VarRef struct {
	Slot int    `json:"slot"`
	Key  int    `json:"key"`
	Name string `json:"name,omitempty"`
}

// dtypeToString converts tensor.DataType to its serialized name.
func dtypeToString(dt tensor.DataType) string {
	return dt.String()
}

// stringToDtype converts a serialized name back to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	return tensor.ParseDataType(s)
}
