package graph

import (
	"fmt"
	"strings"
)

// Kind tags what the rows of an attribute are and therefore how it is merged.
type Kind uint8

const (
	// KindUnknown asks Set to infer the kind from the key.
	KindUnknown Kind = iota
	// KindNode attributes have one row per node.
	KindNode
	// KindEdge attributes have one row per edge.
	KindEdge
	// KindIndex attributes hold node ids, e.g. a [2, E] edge list.
	KindIndex
	// KindGraph attributes describe the whole graph.
	KindGraph
	// KindCustom attributes have no default merge rule.
	KindCustom
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindNode:    "node",
	KindEdge:    "edge",
	KindIndex:   "index",
	KindGraph:   "graph",
	KindCustom:  "custom",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is a concrete kind.
func (k Kind) Valid() bool {
	return k >= KindNode && k <= KindCustom
}

// ParseKind is the inverse of Kind.String for concrete kinds.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if Kind(k).Valid() && name == s {
			return Kind(k), true
		}
	}
	return KindUnknown, false
}

// KindForKey infers a kind from naming convention: keys containing "index"
// or "face" hold node ids, keys prefixed "edge_" are per edge, anything else
// is per node. Graph-level attributes must be tagged explicitly.
func KindForKey(key string) Kind {
	switch {
	case strings.Contains(key, "index"), strings.Contains(key, "face"):
		return KindIndex
	case strings.HasPrefix(key, "edge_"):
		return KindEdge
	default:
		return KindNode
	}
}
