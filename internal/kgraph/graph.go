// Package kgraph builds a directed entity-relationship graph over a user's
// navigation trips: user, location, time and navigation-event nodes wired by
// typed relations, plus the aggregates a downstream predictor needs.
package kgraph

// NodeKind is the entity type of a graph node.
type NodeKind string

const (
	NodeUser     NodeKind = "user"
	NodeLocation NodeKind = "location"
	NodeTime     NodeKind = "time"
	NodeEvent    NodeKind = "navigation_event"
)

// Relation is the edge type between two nodes.
type Relation string

const (
	RelInitiatedBy Relation = "initiated-by"
	RelDepartsFrom Relation = "departs-from"
	RelArrivesAt   Relation = "arrives-at"
	RelStartedAt   Relation = "started-at"
	RelEndedAt     Relation = "ended-at"
	RelFollowedBy  Relation = "followed-by"
)

// Node is one graph entity. Attrs carries the kind-specific attributes
// (coordinates, hour, duration, ...) and is echoed verbatim on export.
type Node struct {
	ID    string         `json:"id"`
	Kind  NodeKind       `json:"kind"`
	Label string         `json:"label"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Edge is one directed relation. Weight is meaningful for followed-by edges;
// Attrs carries per-relation annotations such as the minute interval.
type Edge struct {
	Source   string         `json:"source"`
	Target   string         `json:"target"`
	Relation Relation       `json:"relation"`
	Weight   float64        `json:"weight,omitempty"`
	Attrs    map[string]any `json:"attrs,omitempty"`
}

// Graph is an append-only directed graph rooted at a single user node.
// Nodes and edges keep insertion order.
type Graph struct {
	UserID string
	Nodes  []Node
	Edges  []Edge
}

// New creates a graph holding only the root user node.
func New(userID string) *Graph {
	g := &Graph{UserID: userID}
	g.addNode(Node{
		ID:    "user_" + userID,
		Kind:  NodeUser,
		Label: "user " + userID,
	})
	return g
}

func (g *Graph) userNodeID() string {
	return "user_" + g.UserID
}

func (g *Graph) addNode(n Node) {
	g.Nodes = append(g.Nodes, n)
}

func (g *Graph) addEdge(e Edge) {
	g.Edges = append(g.Edges, e)
}

// PredictionFeatures are the aggregates a lightweight next-destination
// predictor consumes.
type PredictionFeatures struct {
	// LocationFrequency is the in-degree of every location node.
	LocationFrequency map[string]int `json:"location_frequency"`
	// HourDistribution counts time nodes by hour of day.
	HourDistribution map[int]int `json:"hour_distribution"`
	// TransitionCounts sums followed-by edge weights per "source->target".
	TransitionCounts map[string]float64 `json:"transition_counts"`
}

// Predict computes the prediction features in a single pass over nodes and
// edges. Read-only; callable any number of times.
func (g *Graph) Predict() PredictionFeatures {
	features := PredictionFeatures{
		LocationFrequency: make(map[string]int),
		HourDistribution:  make(map[int]int),
		TransitionCounts:  make(map[string]float64),
	}
	locations := make(map[string]bool)
	for _, n := range g.Nodes {
		switch n.Kind {
		case NodeLocation:
			locations[n.ID] = true
			features.LocationFrequency[n.ID] = 0
		case NodeTime:
			if hour, ok := intAttr(n.Attrs["hour"]); ok {
				features.HourDistribution[hour]++
			}
		}
	}
	for _, e := range g.Edges {
		if locations[e.Target] {
			features.LocationFrequency[e.Target]++
		}
		if e.Relation == RelFollowedBy {
			features.TransitionCounts[e.Source+"->"+e.Target] += e.Weight
		}
	}
	return features
}

// intAttr reads an integer attribute, tolerating the float64 that a JSON
// round-trip turns numbers into.
func intAttr(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	}
	return 0, false
}
