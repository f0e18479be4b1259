package graph

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

func TestCompareIdenticalGraphs(t *testing.T) {
	g := pathGraph()
	result := Compare(g, g)

	if result.HasChanges() {
		t.Errorf("Compare(g, g) reports changes: %+v", result)
	}
}

func TestCompareAddedAndRemoved(t *testing.T) {
	before := &model.Graph{
		Nodes: []model.Node{pageNode("a"), pageNode("b")},
		Edges: []model.Edge{linkEdge("e1", "a", "b")},
	}
	after := &model.Graph{
		Nodes: []model.Node{pageNode("a"), pageNode("c")},
		Edges: []model.Edge{linkEdge("e2", "a", "c")},
	}

	result := Compare(before, after)

	if want := []string{"c"}; !reflect.DeepEqual(result.AddedNodes, want) {
		t.Errorf("AddedNodes = %v, want %v", result.AddedNodes, want)
	}
	if want := []string{"b"}; !reflect.DeepEqual(result.RemovedNodes, want) {
		t.Errorf("RemovedNodes = %v, want %v", result.RemovedNodes, want)
	}
	if want := []string{"e2"}; !reflect.DeepEqual(result.AddedEdges, want) {
		t.Errorf("AddedEdges = %v, want %v", result.AddedEdges, want)
	}
	if want := []string{"e1"}; !reflect.DeepEqual(result.RemovedEdges, want) {
		t.Errorf("RemovedEdges = %v, want %v", result.RemovedEdges, want)
	}
}

func TestCompareModifiedNode(t *testing.T) {
	before := &model.Graph{
		Nodes: []model.Node{
			{ID: "a", Kind: model.NodeResource, URL: "a", Title: "Old", Tags: []string{"x"}},
		},
	}
	after := &model.Graph{
		Nodes: []model.Node{
			{ID: "a", Kind: model.NodePage, URL: "a", Title: "New", Tags: []string{"y"}},
		},
	}

	result := Compare(before, after)
	if len(result.ModifiedNodes) != 1 {
		t.Fatalf("got %d modified nodes, want 1", len(result.ModifiedNodes))
	}

	fields := result.ModifiedNodes[0].Fields
	wantSubstrings := []string{"kind:", "title:", "tag added: y", "tag removed: x"}
	for _, want := range wantSubstrings {
		found := false
		for _, f := range fields {
			if strings.Contains(f, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("fields %v missing %q", fields, want)
		}
	}
}

func TestCompareModifiedEdge(t *testing.T) {
	before := &model.Graph{
		Nodes: []model.Node{pageNode("a"), pageNode("b"), pageNode("c")},
		Edges: []model.Edge{linkEdge("e1", "a", "b")},
	}
	after := &model.Graph{
		Nodes: []model.Node{pageNode("a"), pageNode("b"), pageNode("c")},
		Edges: []model.Edge{{ID: "e1", Kind: model.EdgeRedirect, From: "a", To: "c"}},
	}

	result := Compare(before, after)
	if len(result.ModifiedEdges) != 1 {
		t.Fatalf("got %d modified edges, want 1: %+v", len(result.ModifiedEdges), result)
	}
	if got := len(result.ModifiedEdges[0].Fields); got != 2 {
		t.Errorf("got %d changed fields, want kind and to: %v", got, result.ModifiedEdges[0].Fields)
	}
}
