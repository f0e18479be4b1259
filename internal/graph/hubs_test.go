package graph

import (
	"strconv"
	"testing"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

func pageNode(id string) model.Node {
	return model.Node{ID: id, Kind: model.NodePage, URL: id}
}

func linkEdge(id, from, to string) model.Edge {
	return model.Edge{ID: id, Kind: model.EdgeLink, From: from, To: to}
}

func pathGraph() *model.Graph {
	return &model.Graph{
		Nodes: []model.Node{pageNode("a"), pageNode("b"), pageNode("c")},
		Edges: []model.Edge{linkEdge("e1", "a", "b"), linkEdge("e2", "b", "c")},
	}
}

func TestAnalyzeBetweennessOnPath(t *testing.T) {
	h := NewHubDetector(HubConfig{}, nil)

	scores := h.Analyze(pathGraph())
	byID := make(map[string]HubScore)
	for _, s := range scores {
		byID[s.NodeID] = s
	}

	// On a -> b -> c only the middle node lies on a shortest path
	// between two other nodes.
	if byID["b"].Betweenness <= 0 {
		t.Errorf("b.Betweenness = %v, want > 0", byID["b"].Betweenness)
	}
	if byID["a"].Betweenness != 0 {
		t.Errorf("a.Betweenness = %v, want 0", byID["a"].Betweenness)
	}
	if byID["c"].Betweenness != 0 {
		t.Errorf("c.Betweenness = %v, want 0", byID["c"].Betweenness)
	}

	if byID["b"].InDegree != 1 || byID["b"].OutDegree != 1 {
		t.Errorf("b degrees = %d/%d, want 1/1", byID["b"].InDegree, byID["b"].OutDegree)
	}
	if byID["b"].Balance != 1.0 {
		t.Errorf("b.Balance = %v, want 1.0", byID["b"].Balance)
	}
	if byID["a"].Balance != 0 {
		t.Errorf("a.Balance = %v, want 0 (no in-degree)", byID["a"].Balance)
	}

	// Sorted by descending score; b must lead.
	if scores[0].NodeID != "b" {
		t.Errorf("scores[0] = %s, want b", scores[0].NodeID)
	}
}

func TestHubScoreFormula(t *testing.T) {
	h := NewHubDetector(HubConfig{}, nil)

	scores := h.Analyze(pathGraph())
	var b HubScore
	for _, s := range scores {
		if s.NodeID == "b" {
			b = s
		}
	}

	// Page weight is 1.0: score = 0.4*(in+out) + 0.3*betweenness + 0.3*balance.
	want := 0.4*2 + 0.3*b.Betweenness + 0.3*1.0
	if b.Score != want {
		t.Errorf("b.Score = %v, want %v", b.Score, want)
	}
}

func TestTagThresholdAndShape(t *testing.T) {
	// A star: many pages point at the center, the center points at many.
	g := &model.Graph{}
	g.Nodes = append(g.Nodes, pageNode("center"))
	edgeID := 0
	for i := 0; i < 6; i++ {
		in := pageNode(nodeName("in", i))
		out := pageNode(nodeName("out", i))
		g.Nodes = append(g.Nodes, in, out)
		edgeID++
		g.Edges = append(g.Edges, linkEdge(nodeName("e", edgeID), in.ID, "center"))
		edgeID++
		g.Edges = append(g.Edges, linkEdge(nodeName("e", edgeID), "center", out.ID))
	}

	h := NewHubDetector(HubConfig{}, nil)
	h.Tag(g)

	center := g.NodeByID("center")
	if !center.HasTag("hub:navigation") {
		t.Errorf("center tags = %v, want hub:navigation", center.Tags)
	}

	// Leaves stay untagged: degree 1 scores below the default threshold.
	if leaf := g.NodeByID(nodeName("in", 0)); len(leaf.Tags) != 0 {
		t.Errorf("leaf tags = %v, want none", leaf.Tags)
	}

	// Idempotent.
	h.Tag(g)
	if got := len(g.NodeByID("center").Tags); got != 1 {
		t.Errorf("center has %d tags after re-tagging, want 1", got)
	}
}

func TestTagHomepageShape(t *testing.T) {
	g := &model.Graph{}
	g.Nodes = append(g.Nodes, pageNode("home"))
	for i := 0; i < 15; i++ {
		n := pageNode(nodeName("p", i))
		g.Nodes = append(g.Nodes, n)
		g.Edges = append(g.Edges, linkEdge(nodeName("e", i), "home", n.ID))
	}

	h := NewHubDetector(HubConfig{}, nil)
	h.Tag(g)

	if home := g.NodeByID("home"); !home.HasTag("hub:homepage") {
		t.Errorf("home tags = %v, want hub:homepage", home.Tags)
	}
}

func nodeName(prefix string, i int) string {
	return prefix + "_" + strconv.Itoa(i)
}
