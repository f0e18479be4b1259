package graph

import (
	"fmt"
	"sort"

	"github.com/PentesterFlow/apimapper/pkg/model"
)

// Change is a per-id list of human-readable field changes.
type Change struct {
	ID     string   `json:"id"`
	Fields []string `json:"fields"`
}

// DiffResult is a structural diff between two graph snapshots.
type DiffResult struct {
	AddedNodes    []string `json:"added_nodes,omitempty"`
	RemovedNodes  []string `json:"removed_nodes,omitempty"`
	ModifiedNodes []Change `json:"modified_nodes,omitempty"`
	AddedEdges    []string `json:"added_edges,omitempty"`
	RemovedEdges  []string `json:"removed_edges,omitempty"`
	ModifiedEdges []Change `json:"modified_edges,omitempty"`
}

// HasChanges reports whether any of the six change lists is non-empty.
func (r *DiffResult) HasChanges() bool {
	return len(r.AddedNodes) > 0 || len(r.RemovedNodes) > 0 || len(r.ModifiedNodes) > 0 ||
		len(r.AddedEdges) > 0 || len(r.RemovedEdges) > 0 || len(r.ModifiedEdges) > 0
}

// Compare computes the structural diff between two snapshots: id-set
// differences plus per-field change lists for ids present in both. Pure
// O(V+E); no semantic interpretation of why something changed.
func Compare(before, after *model.Graph) DiffResult {
	var result DiffResult

	beforeNodes := make(map[string]*model.Node, len(before.Nodes))
	for i := range before.Nodes {
		beforeNodes[before.Nodes[i].ID] = &before.Nodes[i]
	}
	afterNodes := make(map[string]*model.Node, len(after.Nodes))
	for i := range after.Nodes {
		afterNodes[after.Nodes[i].ID] = &after.Nodes[i]
	}

	for id, node := range afterNodes {
		old, ok := beforeNodes[id]
		if !ok {
			result.AddedNodes = append(result.AddedNodes, id)
			continue
		}
		if changes := nodeChanges(old, node); len(changes) > 0 {
			result.ModifiedNodes = append(result.ModifiedNodes, Change{ID: id, Fields: changes})
		}
	}
	for id := range beforeNodes {
		if _, ok := afterNodes[id]; !ok {
			result.RemovedNodes = append(result.RemovedNodes, id)
		}
	}

	beforeEdges := make(map[string]*model.Edge, len(before.Edges))
	for i := range before.Edges {
		beforeEdges[before.Edges[i].ID] = &before.Edges[i]
	}
	afterEdges := make(map[string]*model.Edge, len(after.Edges))
	for i := range after.Edges {
		afterEdges[after.Edges[i].ID] = &after.Edges[i]
	}

	for key, edge := range afterEdges {
		old, ok := beforeEdges[key]
		if !ok {
			result.AddedEdges = append(result.AddedEdges, key)
			continue
		}
		if changes := edgeChanges(old, edge); len(changes) > 0 {
			result.ModifiedEdges = append(result.ModifiedEdges, Change{ID: key, Fields: changes})
		}
	}
	for key := range beforeEdges {
		if _, ok := afterEdges[key]; !ok {
			result.RemovedEdges = append(result.RemovedEdges, key)
		}
	}

	sort.Strings(result.AddedNodes)
	sort.Strings(result.RemovedNodes)
	sort.Strings(result.AddedEdges)
	sort.Strings(result.RemovedEdges)
	sort.Slice(result.ModifiedNodes, func(i, j int) bool { return result.ModifiedNodes[i].ID < result.ModifiedNodes[j].ID })
	sort.Slice(result.ModifiedEdges, func(i, j int) bool { return result.ModifiedEdges[i].ID < result.ModifiedEdges[j].ID })

	return result
}

func nodeChanges(old, cur *model.Node) []string {
	changes := make([]string, 0)
	if old.Kind != cur.Kind {
		changes = append(changes, fmt.Sprintf("kind: %s -> %s", old.Kind, cur.Kind))
	}
	if old.URL != cur.URL {
		changes = append(changes, fmt.Sprintf("url: %s -> %s", old.URL, cur.URL))
	}
	if old.Title != cur.Title {
		changes = append(changes, fmt.Sprintf("title: %q -> %q", old.Title, cur.Title))
	}
	changes = append(changes, tagChanges(old.Tags, cur.Tags)...)
	if !attributesEqual(old.Attributes, cur.Attributes) {
		changes = append(changes, "attributes changed")
	}
	return changes
}

func edgeChanges(old, cur *model.Edge) []string {
	changes := make([]string, 0)
	if old.Kind != cur.Kind {
		changes = append(changes, fmt.Sprintf("kind: %s -> %s", old.Kind, cur.Kind))
	}
	if old.From != cur.From {
		changes = append(changes, fmt.Sprintf("from: %s -> %s", old.From, cur.From))
	}
	if old.To != cur.To {
		changes = append(changes, fmt.Sprintf("to: %s -> %s", old.To, cur.To))
	}
	if old.Label != cur.Label {
		changes = append(changes, fmt.Sprintf("label: %q -> %q", old.Label, cur.Label))
	}
	if !attributesEqual(old.Attributes, cur.Attributes) {
		changes = append(changes, "attributes changed")
	}
	return changes
}

// tagChanges reports tag additions and removals as set differences.
func tagChanges(old, cur []string) []string {
	oldSet := make(map[string]bool, len(old))
	for _, t := range old {
		oldSet[t] = true
	}
	newSet := make(map[string]bool, len(cur))
	for _, t := range cur {
		newSet[t] = true
	}

	changes := make([]string, 0)
	for _, t := range cur {
		if !oldSet[t] {
			changes = append(changes, "tag added: "+t)
		}
	}
	for _, t := range old {
		if !newSet[t] {
			changes = append(changes, "tag removed: "+t)
		}
	}
	return changes
}

func attributesEqual(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
