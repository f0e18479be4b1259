package correlate

import (
	"reflect"
	"testing"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

func TestNavigationTree(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	navigations := []model.Navigation{
		{URL: "https://example.com/", Timestamp: t0},
		{URL: "https://example.com/products", FromURL: "https://example.com/", Timestamp: t0},
		{URL: "https://example.com/products/1", FromURL: "https://example.com/products", Timestamp: t0},
	}

	nodes := e.NavigationTree(navigations)
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}

	depths := make(map[string]int)
	for _, n := range nodes {
		depths[n.URL] = n.Depth
	}
	want := map[string]int{
		"https://example.com/":           0,
		"https://example.com/products":   1,
		"https://example.com/products/1": 2,
	}
	if !reflect.DeepEqual(depths, want) {
		t.Errorf("depths = %v, want %v", depths, want)
	}

	// Sorted by depth.
	for i := 1; i < len(nodes); i++ {
		if nodes[i].Depth < nodes[i-1].Depth {
			t.Errorf("nodes not sorted by depth: %v", nodes)
		}
	}
}

func TestNavigationTreeCycle(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	navigations := []model.Navigation{
		{URL: "https://example.com/a", FromURL: "https://example.com/b", Timestamp: t0},
		{URL: "https://example.com/b", FromURL: "https://example.com/a", Timestamp: t0},
	}

	// Must terminate; the cycle-closing page reports depth 0.
	nodes := e.NavigationTree(navigations)
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
}

func TestRedirectChain(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	navigations := []model.Navigation{
		{URL: "https://example.com/b", FromURL: "https://example.com/a", Status: 301, Timestamp: t0},
		{URL: "https://example.com/c", FromURL: "https://example.com/b", Status: 302, Timestamp: t0},
		{URL: "https://example.com/d", FromURL: "https://example.com/c", Status: 200, Timestamp: t0},
	}

	got := e.RedirectChain("https://example.com/a", navigations)
	want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RedirectChain = %v, want %v", got, want)
	}
}

func TestRedirectChainCycleTerminates(t *testing.T) {
	e := NewEngine(DefaultConfig(), nil)

	navigations := []model.Navigation{
		{URL: "https://example.com/b", FromURL: "https://example.com/a", Status: 302, Timestamp: t0},
		{URL: "https://example.com/a", FromURL: "https://example.com/b", Status: 302, Timestamp: t0},
	}

	got := e.RedirectChain("https://example.com/a", navigations)
	want := []string{"https://example.com/a", "https://example.com/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("RedirectChain = %v, want %v", got, want)
	}
}
