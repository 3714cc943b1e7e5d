package graph

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/c360/graphbatch/errors"
	"github.com/c360/graphbatch/tensor"
)

type wireGraph struct {
	NumNodes *int       `msgpack:"n,omitempty"`
	Attrs    []wireAttr `msgpack:"a"`
}

type wireAttr struct {
	Key    string       `msgpack:"k"`
	Kind   Kind         `msgpack:"t"`
	DType  tensor.DType `msgpack:"d"`
	Shape  []int        `msgpack:"s"`
	Ints   []int64      `msgpack:"i,omitempty"`
	Floats []float64    `msgpack:"f,omitempty"`
}

// MarshalBinary encodes the graph with msgpack. Attributes are written in key order.
func (g *Graph) MarshalBinary() ([]byte, error) {
	w := wireGraph{Attrs: make([]wireAttr, 0, len(g.attrs))}
	if g.hasNumNodes {
		n := g.numNodes
		w.NumNodes = &n
	}
	for _, k := range g.Keys() {
		a := g.attrs[k]
		wa := wireAttr{Key: k, Kind: a.Kind, DType: a.Value.DType(), Shape: a.Value.Shape()}
		if wa.DType == tensor.Float64 {
			wa.Floats = a.Value.Float64s()
		} else {
			wa.Ints = a.Value.Int64s()
		}
		w.Attrs = append(w.Attrs, wa)
	}
	return msgpack.Marshal(&w)
}

// UnmarshalBinary decodes a graph written by MarshalBinary.
func (g *Graph) UnmarshalBinary(data []byte) error {
	var w wireGraph
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return corrupt("msgpack: %v", err)
	}

	out := New()
	if w.NumNodes != nil {
		out.SetNumNodes(*w.NumNodes)
	}
	for _, wa := range w.Attrs {
		var (
			t   *tensor.Tensor
			err error
		)
		switch wa.DType {
		case tensor.Int64:
			t, err = tensor.FromInt64(wa.Shape, wa.Ints)
		case tensor.Float64:
			t, err = tensor.FromFloat64(wa.Shape, wa.Floats)
		default:
			return corrupt("attribute %q has %s", wa.Key, wa.DType)
		}
		if err != nil {
			return corrupt("attribute %q: %v", wa.Key, err)
		}
		if !wa.Kind.Valid() {
			return corrupt("attribute %q has %s kind", wa.Key, wa.Kind)
		}
		out.Set(wa.Key, wa.Kind, t)
	}
	*g = *out
	return nil
}

func corrupt(format string, args ...any) error {
	detail := fmt.Errorf("%w: %s", errors.ErrDataCorrupted, fmt.Sprintf(format, args...))
	return errors.Wrap(detail, "graph", "UnmarshalBinary", "decode")
}
