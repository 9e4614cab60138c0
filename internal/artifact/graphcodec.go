package artifact

import (
	"fmt"

	"github.com/kiln-ml/kiln/internal/tensor"
	"github.com/kiln-ml/kiln/internal/trace"
)

// encodeSignature converts a trace signature to its JSON form.
func encodeSignature(sig trace.Signature) []ArgSpec {
	out := make([]ArgSpec, len(sig))
	for i, a := range sig {
		out[i] = ArgSpec{
			Name:  a.Name,
			Shape: append([]int(nil), a.Shape...),
			DType: dtypeToString(a.DType),
		}
	}
	return out
}

// decodeSignature converts the JSON form back to a trace signature.
func decodeSignature(specs []ArgSpec) (trace.Signature, error) {
	sig := make(trace.Signature, len(specs))
	for i, a := range specs {
		dt, ok := stringToDtype(a.DType)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDType, a.DType)
		}
		sig[i] = trace.ArgSpec{
			Name:  a.Name,
			Shape: tensor.Shape(append([]int(nil), a.Shape...)),
			DType: dt,
		}
	}
	return sig, nil
}

// encodeGraph converts a traced graph and its per-slot variable keys to the
// JSON form. Constants are embedded; variables are table references.
func encodeGraph(g *trace.Graph, varKeys []int, varNames []string) (*GraphDef, error) {
	if g.VarSlots != len(varKeys) {
		return nil, fmt.Errorf("graph has %d variable slots but %d keys", g.VarSlots, len(varKeys))
	}

	def := &GraphDef{
		Signature: encodeSignature(g.Signature),
		Nodes:     make([]NodeDef, len(g.Nodes)),
		Output:    int(g.Output),
	}

	for i, n := range g.Nodes {
		nd := NodeDef{Op: n.Op, Float: n.Float, Arg: n.Arg}
		if len(n.Inputs) > 0 {
			nd.Inputs = make([]int, len(n.Inputs))
			for j, id := range n.Inputs {
				nd.Inputs[j] = int(id)
			}
		}
		if len(n.Ints) > 0 {
			nd.Ints = append([]int(nil), n.Ints...)
		}
		def.Nodes[i] = nd
	}

	for _, c := range g.Consts {
		def.Consts = append(def.Consts, ConstDef{
			DType: dtypeToString(c.DType()),
			Shape: append([]int(nil), c.Shape()...),
			Data:  append([]byte(nil), c.Data()...),
		})
	}

	for slot, key := range varKeys {
		ref := VarRef{Slot: slot, Key: key}
		if slot < len(varNames) {
			ref.Name = varNames[slot]
		}
		def.Variables = append(def.Variables, ref)
	}

	return def, nil
}

// decodeGraph converts the JSON form back to a runnable graph plus the
// variable table keys per slot.
func decodeGraph(def *GraphDef) (*trace.Graph, []int, error) {
	sig, err := decodeSignature(def.Signature)
	if err != nil {
		return nil, nil, err
	}

	g := &trace.Graph{
		Signature: sig,
		Nodes:     make([]trace.Node, len(def.Nodes)),
		VarSlots:  len(def.Variables),
		Output:    trace.NodeID(def.Output),
	}

	for i, nd := range def.Nodes {
		n := trace.Node{Op: nd.Op, Float: nd.Float, Arg: nd.Arg}
		if len(nd.Inputs) > 0 {
			n.Inputs = make([]trace.NodeID, len(nd.Inputs))
			for j, id := range nd.Inputs {
				n.Inputs[j] = trace.NodeID(id)
			}
		}
		if len(nd.Ints) > 0 {
			n.Ints = append([]int(nil), nd.Ints...)
		}
		g.Nodes[i] = n
	}

	for i, cd := range def.Consts {
		dt, ok := stringToDtype(cd.DType)
		if !ok {
			return nil, nil, fmt.Errorf("const %d: %w: %q", i, ErrUnknownDType, cd.DType)
		}
		raw, err := tensor.NewRaw(tensor.Shape(cd.Shape), dt)
		if err != nil {
			return nil, nil, fmt.Errorf("const %d: %w", i, err)
		}
		if len(cd.Data) != raw.ByteSize() {
			return nil, nil, fmt.Errorf("const %d: data size %d does not match shape %v (%s)",
				i, len(cd.Data), cd.Shape, cd.DType)
		}
		copy(raw.Data(), cd.Data)
		g.Consts = append(g.Consts, raw)
	}

	varKeys := make([]int, len(def.Variables))
	for _, ref := range def.Variables {
		if ref.Slot < 0 || ref.Slot >= len(varKeys) {
			return nil, nil, fmt.Errorf("variable slot %d out of range", ref.Slot)
		}
		varKeys[ref.Slot] = ref.Key
	}

	return g, varKeys, nil
}
