package kgraph

import "strings"

// ExportDoc is the serialization form of a graph: every node and edge with
// its full attribute set, in insertion order.
type ExportDoc struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Export flattens the graph for serialization. No attribute data is lost;
// FromExport on the result reproduces an equivalent graph.
func (g *Graph) Export() ExportDoc {
	doc := ExportDoc{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(doc.Nodes, g.Nodes)
	copy(doc.Edges, g.Edges)
	return doc
}

// FromExport reconstructs a graph from an export document. The user ID is
// recovered from the root user node.
func FromExport(doc ExportDoc) *Graph {
	g := &Graph{}
	for _, n := range doc.Nodes {
		if n.Kind == NodeUser && g.UserID == "" {
			g.UserID = strings.TrimPrefix(n.ID, "user_")
		}
	}
	g.Nodes = append(g.Nodes, doc.Nodes...)
	g.Edges = append(g.Edges, doc.Edges...)
	return g
}
