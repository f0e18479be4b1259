package model

// NodeKind classifies a graph node.
type NodeKind string

// Node kinds.
const (
	NodePage     NodeKind = "page"
	NodeEndpoint NodeKind = "api_endpoint"
	NodeDocument NodeKind = "document"
	NodeForm     NodeKind = "form"
	NodeResource NodeKind = "resource"
)

// EdgeKind classifies a graph edge.
type EdgeKind string

// Edge kinds.
const (
	EdgeLink     EdgeKind = "link"
	EdgeRedirect EdgeKind = "redirect"
	EdgeFormPost EdgeKind = "form_submit"
	EdgeAPICall  EdgeKind = "api_call"
)

// Node is one page or resource in the navigation graph.
type Node struct {
	ID         string            `json:"id"`
	Kind       NodeKind          `json:"kind"`
	URL        string            `json:"url"`
	Title      string            `json:"title,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Edge is one directed connection between two nodes. From and To always
// reference existing node ids.
type Edge struct {
	ID         string            `json:"id"`
	Kind       EdgeKind          `json:"kind"`
	From       string            `json:"from"`
	To         string            `json:"to"`
	Label      string            `json:"label,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Graph is a flat-arena navigation/resource graph. It may contain cycles
// (redirect loops); traversals must never assume acyclicity.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// NodeByID returns the node with the given id, or nil.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// HasTag reports whether the node already carries the given tag.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddTag appends a tag unless it is already present.
func (n *Node) AddTag(tag string) {
	if !n.HasTag(tag) {
		n.Tags = append(n.Tags, tag)
	}
}
